// Package orchestrator produces a transcript for a video by walking a fixed,
// one-directional chain of tiers: PRIMARY (acquire audio, run a managed
// transcription job), DEGRADED (known reference data) and FALLBACK (a
// synthetic transcript). It always answers; only a malformed video id is
// reported as an error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topicut/internal/ports"
	"github.com/forPelevin/topicut/internal/types"
)

type Deps struct {
	Audio     ports.AudioSource
	Store     ports.BlobStore
	Jobs      ports.JobRunner
	Reference ports.ReferenceStore
	Log       logrus.FieldLogger
	// Nonce namespaces per-request keys and job names. Defaults to a uuid prefix.
	Nonce func() string
}

type Orchestrator struct {
	d   Deps
	cfg Config
}

func New(d Deps, cfg Config) *Orchestrator {
	if d.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Log = l
	}
	if d.Nonce == nil {
		d.Nonce = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] }
	}
	return &Orchestrator{d: d, cfg: cfg.withDefaults()}
}

type attempt struct {
	tier      types.Provenance
	succeeded bool
	kind      ErrorKind
	err       error
}

var errNoReference = errors.New("no reference transcript")

// Transcribe returns a transcript for [0, limit] of the video. The limit is
// clamped to the configured ceiling; a non-positive limit selects the default
// window. The returned error is non-nil only for a malformed id.
func (o *Orchestrator) Transcribe(ctx context.Context, id types.VideoID, limit time.Duration) (types.Transcript, error) {
	if err := id.Validate(); err != nil {
		return types.Transcript{}, err
	}
	win := o.cfg.window(limit)
	log := o.d.Log.WithFields(logrus.Fields{
		"video_id":   string(id),
		"window_sec": win.Seconds(),
	})

	tr, err := o.primary(ctx, id, win, log)
	o.record(log, attempt{tier: types.ProvenancePrimary, succeeded: err == nil, kind: kindOf(err), err: err})
	if err == nil {
		return tr, nil
	}

	tr, err = o.degraded(ctx, id, win)
	o.record(log, attempt{tier: types.ProvenanceDegraded, succeeded: err == nil, kind: kindOf(err), err: err})
	if err == nil {
		return tr, nil
	}

	tr = o.fallback(win)
	o.record(log, attempt{tier: types.ProvenanceFallback, succeeded: true})
	return tr, nil
}

func (o *Orchestrator) record(log logrus.FieldLogger, a attempt) {
	entry := log.WithFields(logrus.Fields{
		"tier":      string(a.tier),
		"succeeded": a.succeeded,
	})
	if a.succeeded {
		entry.Info("tier succeeded")
		return
	}
	if a.kind != "" {
		entry = entry.WithField("error_kind", string(a.kind))
	}
	if a.err != nil {
		entry = entry.WithError(a.err)
	}
	entry.Warn("tier failed, moving on")
}

// deadline bounds PRIMARY by its own budget and by the caller's deadline
// minus the safety margin, whichever comes first.
func (o *Orchestrator) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(o.cfg.PrimaryBudget)
	if cd, ok := ctx.Deadline(); ok {
		if cd = cd.Add(-o.cfg.SafetyMargin); cd.Before(d) {
			d = cd
		}
	}
	return d
}

func (o *Orchestrator) primary(ctx context.Context, id types.VideoID, win time.Duration, log logrus.FieldLogger) (types.Transcript, error) {
	if o.d.Audio == nil || o.d.Store == nil || o.d.Jobs == nil {
		return types.Transcript{}, tierErr(KindUnconfigured, errors.New("no transcription backend configured"))
	}

	deadline := o.deadline(ctx)
	pctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var res resources
	defer res.release(ctx, o.cfg.CleanupTimeout, o.d.Store, o.d.Jobs, log)

	art, err := o.d.Audio.Acquire(pctx, id, 0, win)
	if err != nil {
		return types.Transcript{}, tierErr(KindAcquisition, err)
	}
	if len(art.Data) == 0 {
		return types.Transcript{}, tierErr(KindAcquisition, errors.New("empty audio artifact"))
	}
	format := art.Format
	if format == "" {
		format = o.cfg.AudioFormat
	}

	job := fmt.Sprintf("transcribe-%s-%s", id, o.d.Nonce())
	key := fmt.Sprintf("audio/%s/%s.%s", id, job, format)
	outKey := fmt.Sprintf("transcripts/%s.json", job)

	res.keys = append(res.keys, key)
	if err := o.d.Store.Put(pctx, key, art.Data); err != nil {
		return types.Transcript{}, tierErr(KindJobSubmission, fmt.Errorf("upload audio: %w", err))
	}

	// A submit error may still leave a job behind on the backend.
	res.keys = append(res.keys, outKey)
	res.jobs = append(res.jobs, ports.JobHandle{ID: job, OutputKey: outKey})
	h, err := o.d.Jobs.Submit(pctx, ports.JobSpec{
		Name:      job,
		MediaKey:  key,
		MediaURI:  o.d.Store.URI(key),
		Format:    format,
		Language:  o.cfg.Language,
		OutputKey: outKey,
	})
	if err != nil {
		return types.Transcript{}, tierErr(KindJobSubmission, err)
	}
	res.jobs[len(res.jobs)-1] = h
	log.WithField("job", h.ID).Info("transcription job submitted")

	st, err := o.wait(pctx, h, deadline, log)
	if err != nil {
		return types.Transcript{}, err
	}

	segs := normalizeSegments(st.Segments)
	if len(segs) == 0 {
		return types.Transcript{}, tierErr(KindJobFailed, errors.New("job produced no usable segments"))
	}
	lang := st.Language
	if lang == "" {
		lang = o.cfg.Language
	}
	return types.Transcript{Segments: segs, Language: lang, Provenance: types.ProvenancePrimary}, nil
}

// wait polls the job at a fixed interval and gives up as soon as another
// interval would run past the deadline.
func (o *Orchestrator) wait(ctx context.Context, h ports.JobHandle, deadline time.Time, log logrus.FieldLogger) (ports.JobStatus, error) {
	for {
		st, err := o.d.Jobs.Poll(ctx, h)
		if err != nil {
			if ctx.Err() != nil {
				return st, tierErr(KindJobTimeout, fmt.Errorf("job %s: %w", h.ID, ctx.Err()))
			}
			return st, tierErr(KindJobFailed, fmt.Errorf("poll job %s: %w", h.ID, err))
		}
		log.WithFields(logrus.Fields{"job": h.ID, "state": string(st.State)}).Debug("job polled")

		switch st.State {
		case ports.JobCompleted:
			return st, nil
		case ports.JobFailed:
			reason := st.Reason
			if reason == "" {
				reason = "unknown"
			}
			return st, tierErr(KindJobFailed, fmt.Errorf("job %s: %s", h.ID, reason))
		}

		if time.Until(deadline) <= o.cfg.PollInterval {
			return st, tierErr(KindJobTimeout, fmt.Errorf("job %s still %s at deadline", h.ID, st.State))
		}
		t := time.NewTimer(o.cfg.PollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return st, tierErr(KindJobTimeout, fmt.Errorf("job %s: %w", h.ID, ctx.Err()))
		case <-t.C:
		}
	}
}

func (o *Orchestrator) degraded(ctx context.Context, id types.VideoID, win time.Duration) (types.Transcript, error) {
	if o.d.Reference == nil {
		return types.Transcript{}, errNoReference
	}
	ref, ok, err := o.d.Reference.Lookup(ctx, id)
	if err != nil {
		return types.Transcript{}, tierErr(KindReference, err)
	}
	if !ok {
		return types.Transcript{}, errNoReference
	}
	segs := windowSegments(normalizeSegments(ref.Segments), win.Seconds())
	if len(segs) == 0 {
		return types.Transcript{}, errNoReference
	}
	lang := ref.Language
	if lang == "" {
		lang = o.cfg.Language
	}
	return types.Transcript{Segments: segs, Language: lang, Provenance: types.ProvenanceDegraded}, nil
}

const fallbackText = "No transcript is available for this video."

func (o *Orchestrator) fallback(win time.Duration) types.Transcript {
	return types.Transcript{
		Segments:   []types.Segment{{Start: 0, End: win.Seconds(), Text: fallbackText, Confidence: 0}},
		Language:   o.cfg.Language,
		Provenance: types.ProvenanceFallback,
	}
}
