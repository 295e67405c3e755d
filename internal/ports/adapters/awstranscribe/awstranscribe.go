// Package awstranscribe runs transcription as an Amazon Transcribe batch job.
// Media is read from, and results written to, the bucket behind the blob store.
package awstranscribe

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	ttypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/forPelevin/topicut/internal/ports"
)

// API is the subset of *transcribe.Client the runner needs.
type API interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	DeleteTranscriptionJob(ctx context.Context, in *transcribe.DeleteTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.DeleteTranscriptionJobOutput, error)
}

type Runner struct {
	API API
	// Bucket receives the job output; Results reads it back.
	Bucket  string
	Results ports.BlobStore
}

func New(cfg aws.Config, bucket string, results ports.BlobStore) *Runner {
	return &Runner{API: transcribe.NewFromConfig(cfg), Bucket: bucket, Results: results}
}

func (r *Runner) Submit(ctx context.Context, spec ports.JobSpec) (ports.JobHandle, error) {
	format, err := mediaFormat(spec.Format)
	if err != nil {
		return ports.JobHandle{}, err
	}
	_, err = r.API.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(spec.Name),
		Media:                &ttypes.Media{MediaFileUri: aws.String(spec.MediaURI)},
		MediaFormat:          format,
		LanguageCode:         ttypes.LanguageCode(spec.Language),
		OutputBucketName:     aws.String(r.Bucket),
		OutputKey:            aws.String(spec.OutputKey),
	})
	if err != nil {
		return ports.JobHandle{}, fmt.Errorf("start transcription job %s: %w", spec.Name, err)
	}
	return ports.JobHandle{ID: spec.Name, OutputKey: spec.OutputKey}, nil
}

func (r *Runner) Poll(ctx context.Context, h ports.JobHandle) (ports.JobStatus, error) {
	out, err := r.API.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(h.ID),
	})
	if err != nil {
		return ports.JobStatus{}, fmt.Errorf("get transcription job %s: %w", h.ID, err)
	}
	job := out.TranscriptionJob
	if job == nil {
		return ports.JobStatus{}, fmt.Errorf("get transcription job %s: empty response", h.ID)
	}

	switch job.TranscriptionJobStatus {
	case ttypes.TranscriptionJobStatusQueued:
		return ports.JobStatus{State: ports.JobQueued}, nil
	case ttypes.TranscriptionJobStatusInProgress:
		return ports.JobStatus{State: ports.JobInProgress}, nil
	case ttypes.TranscriptionJobStatusFailed:
		return ports.JobStatus{State: ports.JobFailed, Reason: aws.ToString(job.FailureReason)}, nil
	case ttypes.TranscriptionJobStatusCompleted:
	default:
		return ports.JobStatus{}, fmt.Errorf("transcription job %s: unknown status %q", h.ID, job.TranscriptionJobStatus)
	}

	b, err := r.Results.Get(ctx, h.OutputKey)
	if err != nil {
		return ports.JobStatus{}, fmt.Errorf("fetch result of %s: %w", h.ID, err)
	}
	segs, err := ParseResult(b)
	if err != nil {
		return ports.JobStatus{}, fmt.Errorf("parse result of %s: %w", h.ID, err)
	}
	return ports.JobStatus{
		State:    ports.JobCompleted,
		Segments: segs,
		Language: string(job.LanguageCode),
	}, nil
}

func (r *Runner) Delete(ctx context.Context, h ports.JobHandle) error {
	_, err := r.API.DeleteTranscriptionJob(ctx, &transcribe.DeleteTranscriptionJobInput{
		TranscriptionJobName: aws.String(h.ID),
	})
	if err != nil {
		return fmt.Errorf("delete transcription job %s: %w", h.ID, err)
	}
	return nil
}

func mediaFormat(f string) (ttypes.MediaFormat, error) {
	switch f {
	case "mp3":
		return ttypes.MediaFormatMp3, nil
	case "wav":
		return ttypes.MediaFormatWav, nil
	}
	return "", fmt.Errorf("unsupported media format %q", f)
}
