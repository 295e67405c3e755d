// Package whispercpp runs whisper.cpp locally behind the asynchronous job
// interface, so the orchestrator treats it like any managed service.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/forPelevin/topicut/internal/ports"
	"github.com/forPelevin/topicut/internal/types"
)

type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

type Runner struct {
	bin     string
	model   string
	media   ports.BlobStore
	workDir string
	exec    ExecFunc

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	state  ports.JobState
	segs   []types.Segment
	lang   string
	reason string
	dir    string
	cancel context.CancelFunc
	done   chan struct{}
}

func New(binPath, modelPath string, media ports.BlobStore, workDir string) *Runner {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Runner{
		bin:     binPath,
		model:   modelPath,
		media:   media,
		workDir: workDir,
		exec:    combinedOutput,
		jobs:    map[string]*job{},
	}
}

// WithExec swaps the process launcher.
func (r *Runner) WithExec(fn ExecFunc) *Runner {
	r.exec = fn
	return r
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (r *Runner) Submit(ctx context.Context, spec ports.JobSpec) (ports.JobHandle, error) {
	r.mu.Lock()
	_, dup := r.jobs[spec.Name]
	r.mu.Unlock()
	if dup {
		return ports.JobHandle{}, fmt.Errorf("job %s already exists", spec.Name)
	}

	audio, err := r.media.Get(ctx, spec.MediaKey)
	if err != nil {
		return ports.JobHandle{}, fmt.Errorf("fetch media: %w", err)
	}
	dir, err := os.MkdirTemp(r.workDir, spec.Name+"-")
	if err != nil {
		return ports.JobHandle{}, fmt.Errorf("create work dir: %w", err)
	}
	in := filepath.Join(dir, "input."+spec.Format)
	if err := os.WriteFile(in, audio, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return ports.JobHandle{}, fmt.Errorf("write media: %w", err)
	}

	// The job outlives the submitting request; Delete cancels it.
	jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{state: ports.JobQueued, dir: dir, cancel: cancel, done: make(chan struct{})}
	r.mu.Lock()
	r.jobs[spec.Name] = j
	r.mu.Unlock()

	go r.run(jctx, j, spec, in)
	return ports.JobHandle{ID: spec.Name, OutputKey: spec.OutputKey}, nil
}

func (r *Runner) run(ctx context.Context, j *job, spec ports.JobSpec, in string) {
	defer close(j.done)
	r.setState(j, func(j *job) { j.state = ports.JobInProgress })

	outPrefix := filepath.Join(j.dir, "whisper")
	args := []string{
		"-m", r.model,
		"-f", in,
		"-oj",
		"-ojf",
		"-of", outPrefix,
	}
	if lang := language(spec.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	if b, err := r.exec(ctx, r.bin, args...); err != nil {
		r.fail(j, fmt.Sprintf("whisper.cpp failed: %v: %s", err, strings.TrimSpace(string(b))))
		return
	}

	raw, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		r.fail(j, fmt.Sprintf("read output: %v", err))
		return
	}
	segs, lang, err := ParseOutput(raw)
	if err != nil {
		r.fail(j, fmt.Sprintf("parse output: %v", err))
		return
	}
	if spec.OutputKey != "" {
		if err := r.media.Put(ctx, spec.OutputKey, raw); err != nil {
			r.fail(j, fmt.Sprintf("store output: %v", err))
			return
		}
	}
	if lang == "" {
		lang = spec.Language
	}
	r.setState(j, func(j *job) {
		j.state = ports.JobCompleted
		j.segs = segs
		j.lang = lang
	})
}

func (r *Runner) setState(j *job, fn func(*job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(j)
}

func (r *Runner) fail(j *job, reason string) {
	r.setState(j, func(j *job) {
		j.state = ports.JobFailed
		j.reason = reason
	})
}

func (r *Runner) Poll(ctx context.Context, h ports.JobHandle) (ports.JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return ports.JobStatus{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[h.ID]
	if !ok {
		return ports.JobStatus{}, fmt.Errorf("job %s: %w", h.ID, types.ErrNotFound)
	}
	return ports.JobStatus{State: j.state, Segments: j.segs, Language: j.lang, Reason: j.reason}, nil
}

// Delete stops a running job and removes its working files. Deleting an
// unknown job is not an error.
func (r *Runner) Delete(ctx context.Context, h ports.JobHandle) error {
	r.mu.Lock()
	j, ok := r.jobs[h.ID]
	delete(r.jobs, h.ID)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	j.cancel()
	select {
	case <-j.done:
	case <-ctx.Done():
		return fmt.Errorf("wait for job %s: %w", h.ID, ctx.Err())
	}
	if err := os.RemoveAll(j.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove work dir: %w", err)
	}
	return nil
}

// language maps "en-US" to whisper's "en".
func language(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}
