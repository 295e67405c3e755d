package whispercpp

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/forPelevin/topicut/internal/ports"
	"github.com/forPelevin/topicut/internal/ports/adapters/fsblob"
)

const sampleOutput = `{
  "result": {"language": "en"},
  "transcription": [
    {
      "offsets": {"from": 0, "to": 5000},
      "text": " Alright, so here we are in front of the elephants.",
      "tokens": [
        {"text": "[_BEG_]", "p": 0.1, "offsets": {"from": 0, "to": 0}},
        {"text": " All", "p": 0.8, "offsets": {"from": 0, "to": 300}},
        {"text": "right", "p": 1.0, "offsets": {"from": 300, "to": 600}},
        {"text": " elephants", "p": 0.9, "offsets": {"from": 4000, "to": 4900}}
      ]
    },
    {
      "offsets": {"from": 5000, "to": 12000},
      "text": " The cool thing about these guys."
    }
  ]
}`

func TestParseOutput(t *testing.T) {
	t.Parallel()

	segs, lang, err := ParseOutput([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lang != "en" || len(segs) != 2 {
		t.Fatalf("unexpected parse: lang=%q segs=%d", lang, len(segs))
	}
	s := segs[0]
	if s.Start != 0 || s.End != 5 || s.Text != "Alright, so here we are in front of the elephants." {
		t.Fatalf("unexpected first segment: %+v", s)
	}
	if math.Abs(s.Confidence-0.9) > 1e-9 {
		t.Fatalf("expected mean token probability 0.9, got %v", s.Confidence)
	}
	if len(s.Words) != 2 || s.Words[0].Word != "Allright" || s.Words[0].End != 0.6 {
		t.Fatalf("unexpected words: %+v", s.Words)
	}
	if segs[1].Confidence != 1 || segs[1].End != 12 {
		t.Fatalf("unexpected second segment: %+v", segs[1])
	}
}

func waitFor(t *testing.T, r *Runner, h ports.JobHandle, want ports.JobState) ports.JobStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, err := r.Poll(context.Background(), h)
		if err != nil {
			t.Fatalf("poll: %v", err)
		}
		if st.State == want {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job never reached %s", want)
	return ports.JobStatus{}
}

func outPrefix(args []string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-of" {
			return args[i+1]
		}
	}
	return ""
}

func TestRunner_CompletesAndStoresOutput(t *testing.T) {
	t.Parallel()

	store, err := fsblob.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	if err := store.Put(ctx, "audio/in.wav", []byte("RIFF")); err != nil {
		t.Fatalf("put: %v", err)
	}

	var gotArgs []string
	r := New("whisper-cli", "model.bin", store, t.TempDir()).WithExec(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, os.WriteFile(outPrefix(args)+".json", []byte(sampleOutput), 0o644)
	})

	h, err := r.Submit(ctx, ports.JobSpec{
		Name:      "transcribe-jNQXAC9IVRw-abcd1234",
		MediaKey:  "audio/in.wav",
		Format:    "wav",
		Language:  "en-US",
		OutputKey: "transcripts/out.json",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	st := waitFor(t, r, h, ports.JobCompleted)
	if len(st.Segments) != 2 || st.Language != "en" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if gotArgs[len(gotArgs)-1] != "en" {
		t.Fatalf("expected language flag, got %v", gotArgs)
	}
	if _, err := store.Get(ctx, "transcripts/out.json"); err != nil {
		t.Fatalf("expected stored output: %v", err)
	}

	if err := r.Delete(ctx, h); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Poll(ctx, h); err == nil {
		t.Fatalf("expected unknown job after delete")
	}
}

func TestRunner_ReportsFailure(t *testing.T) {
	t.Parallel()

	store, err := fsblob.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	_ = store.Put(ctx, "audio/in.wav", []byte("RIFF"))

	r := New("", "model.bin", store, t.TempDir()).WithExec(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("failed to read audio"), errors.New("exit status 1")
	})
	h, err := r.Submit(ctx, ports.JobSpec{Name: "j", MediaKey: "audio/in.wav", Format: "wav"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	st := waitFor(t, r, h, ports.JobFailed)
	if st.Reason == "" {
		t.Fatalf("expected failure reason")
	}
	if err := r.Delete(ctx, h); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestRunner_DeleteCancelsRunningJob(t *testing.T) {
	t.Parallel()

	store, err := fsblob.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	_ = store.Put(ctx, "audio/in.wav", []byte("RIFF"))

	started := make(chan struct{})
	r := New("", "model.bin", store, t.TempDir()).WithExec(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	h, err := r.Submit(ctx, ports.JobSpec{Name: "slow", MediaKey: "audio/in.wav", Format: "wav"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-started

	dctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.Delete(dctx, h); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestRunner_MissingMedia(t *testing.T) {
	t.Parallel()

	store, err := fsblob.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	r := New("", "m", store, t.TempDir())
	if _, err := r.Submit(context.Background(), ports.JobSpec{Name: "j", MediaKey: "nope.wav", Format: "wav"}); err == nil {
		t.Fatalf("expected error for missing media")
	}
}

func TestLanguage(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"en-US": "en", "de_DE": "de", "fr": "fr", "": ""} {
		if got := language(in); got != want {
			t.Fatalf("language(%q) = %q, want %q", in, got, want)
		}
	}
}
