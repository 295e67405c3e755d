package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topicut/internal/ports"
)

// resources tracks what PRIMARY created so it can be released on every exit
// path. Keys are registered before the write that creates them.
type resources struct {
	keys []string
	jobs []ports.JobHandle
}

// release runs on a context detached from the caller's cancellation so a
// timed-out or cancelled request still tears down what it created.
func (r *resources) release(ctx context.Context, timeout time.Duration, store ports.BlobStore, jobs ports.JobRunner, log logrus.FieldLogger) int {
	if len(r.keys) == 0 && len(r.jobs) == 0 {
		return 0
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	failed := 0
	for _, h := range r.jobs {
		if err := jobs.Delete(cctx, h); err != nil {
			failed++
			log.WithFields(logrus.Fields{
				"error_kind": string(KindCleanup),
				"job":        h.ID,
			}).WithError(tierErr(KindCleanup, err)).Warn("delete transcription job")
		}
	}
	for _, k := range r.keys {
		if err := store.Delete(cctx, k); err != nil {
			failed++
			log.WithFields(logrus.Fields{
				"error_kind": string(KindCleanup),
				"key":        k,
			}).WithError(tierErr(KindCleanup, err)).Warn("delete blob")
		}
	}
	if failed == 0 {
		log.WithFields(logrus.Fields{"keys": len(r.keys), "jobs": len(r.jobs)}).Debug("primary resources released")
	}
	return failed
}
