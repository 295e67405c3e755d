package orchestrator

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindAcquisition   ErrorKind = "acquisition"
	KindJobSubmission ErrorKind = "job_submission"
	KindJobTimeout    ErrorKind = "job_timeout"
	KindJobFailed     ErrorKind = "job_failed"
	KindCleanup       ErrorKind = "cleanup"
	KindUnconfigured  ErrorKind = "unconfigured"
	KindReference     ErrorKind = "reference_lookup"
)

var (
	ErrAcquisition   = errors.New("audio acquisition failed")
	ErrJobSubmission = errors.New("transcription job submission failed")
	ErrJobTimeout    = errors.New("transcription job timed out")
	ErrJobFailed     = errors.New("transcription job failed")
	ErrCleanup       = errors.New("cleanup failed")
)

var sentinels = map[ErrorKind]error{
	KindAcquisition:   ErrAcquisition,
	KindJobSubmission: ErrJobSubmission,
	KindJobTimeout:    ErrJobTimeout,
	KindJobFailed:     ErrJobFailed,
	KindCleanup:       ErrCleanup,
}

// TierError is a local failure inside a tier. It is logged and absorbed by
// the tier transition, never returned to the caller.
type TierError struct {
	Kind ErrorKind
	Err  error
}

func (e *TierError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TierError) Unwrap() error { return e.Err }

func (e *TierError) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func tierErr(kind ErrorKind, err error) *TierError { return &TierError{Kind: kind, Err: err} }

func kindOf(err error) ErrorKind {
	var te *TierError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
