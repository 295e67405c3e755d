package ports

import (
	"context"
	"time"

	"github.com/forPelevin/topicut/internal/types"
)

type Resolver interface {
	Resolve(ctx context.Context, url string) (types.VideoInfo, error)
}

// Artifact is an acquired audio segment held in memory.
type Artifact struct {
	Data   []byte
	Format string // "mp3" or "wav"
}

type AudioSource interface {
	Acquire(ctx context.Context, id types.VideoID, start, duration time.Duration) (Artifact, error)
}

type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// URI is how a job runner addresses the stored object.
	URI(key string) string
}

type JobState string

const (
	JobQueued     JobState = "QUEUED"
	JobInProgress JobState = "IN_PROGRESS"
	JobCompleted  JobState = "COMPLETED"
	JobFailed     JobState = "FAILED"
)

type JobSpec struct {
	Name      string
	MediaKey  string
	MediaURI  string
	Format    string
	Language  string
	OutputKey string
}

type JobHandle struct {
	ID        string
	OutputKey string
}

type JobStatus struct {
	State    JobState
	Segments []types.Segment // set when COMPLETED
	Language string
	Reason   string // set when FAILED
}

type JobRunner interface {
	Submit(ctx context.Context, spec JobSpec) (JobHandle, error)
	Poll(ctx context.Context, h JobHandle) (JobStatus, error)
	Delete(ctx context.Context, h JobHandle) error
}

// ReferenceStore holds known transcripts keyed by video id.
type ReferenceStore interface {
	Lookup(ctx context.Context, id types.VideoID) (types.Transcript, bool, error)
}
