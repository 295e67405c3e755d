package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topicut/internal/domain/mentions"
	"github.com/forPelevin/topicut/internal/orchestrator"
	"github.com/forPelevin/topicut/internal/ports"
	"github.com/forPelevin/topicut/internal/ports/adapters/awstranscribe"
	"github.com/forPelevin/topicut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/topicut/internal/ports/adapters/fsblob"
	"github.com/forPelevin/topicut/internal/ports/adapters/s3blob"
	"github.com/forPelevin/topicut/internal/ports/adapters/supablob"
	"github.com/forPelevin/topicut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/topicut/internal/ports/adapters/youtube"
	"github.com/forPelevin/topicut/internal/refstore"
	"github.com/forPelevin/topicut/internal/types"
	"github.com/forPelevin/topicut/internal/usecase"
)

const (
	BackendAWS     = "aws"
	BackendWhisper = "whisper"
	BackendNone    = "none"

	StoreS3       = "s3"
	StoreSupabase = "supabase"
	StoreFS       = "fs"
)

// Config selects and configures the backends behind every entry point.
type Config struct {
	Log logrus.FieldLogger

	// Backend is aws, whisper or none. Empty picks aws when Bucket is set.
	Backend string
	// BlobStore is s3, supabase or fs. Empty picks s3 for aws, fs otherwise.
	BlobStore string

	Bucket    string
	AWSRegion string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	// BlobDir backs the fs blob store. If empty, defaults to ".cache/blobs".
	BlobDir string

	WhisperBin   string
	WhisperModel string

	FFmpegPath string
	YTDLPPath  string

	YouTubeAPIKey       string
	YouTubeBaseURL      string
	YouTubeAllowedHosts []string

	// ReferenceDB is the sqlite file with reference transcripts; empty keeps
	// only the built-in ones, in memory.
	ReferenceDB string

	Orchestrator orchestrator.Config
}

func (c Config) withDefaults() Config {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendNone
		if c.Bucket != "" {
			c.Backend = BackendAWS
		}
	}
	c.BlobStore = strings.ToLower(strings.TrimSpace(c.BlobStore))
	if c.BlobStore == "" && c.Backend != BackendNone {
		c.BlobStore = StoreFS
		if c.Backend == BackendAWS {
			c.BlobStore = StoreS3
		}
	}
	if c.BlobDir == "" {
		c.BlobDir = filepath.Join(".cache", "blobs")
	}
	// whisper.cpp reads 16 kHz wav natively.
	if c.Orchestrator.AudioFormat == "" && c.Backend == BackendWhisper {
		c.Orchestrator.AudioFormat = "wav"
	}
	return c
}

func (c Config) Validate() error {
	c = c.withDefaults()

	switch c.Backend {
	case BackendAWS:
		if c.Bucket == "" {
			return errors.New("aws backend requires TRANSCRIPTION_BUCKET")
		}
		if c.BlobStore != StoreS3 {
			return fmt.Errorf("aws backend reads media from s3, got blob store %q", c.BlobStore)
		}
	case BackendWhisper:
		if c.WhisperModel == "" {
			return errors.New("whisper backend requires WHISPER_MODEL")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown transcribe backend %q", c.Backend)
	}

	switch c.BlobStore {
	case "":
	case StoreS3:
		if c.Bucket == "" {
			return errors.New("s3 blob store requires TRANSCRIPTION_BUCKET")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" || c.SupabaseBucket == "" {
			return errors.New("supabase blob store requires SUPABASE_URL, SUPABASE_SERVICE_KEY and SUPABASE_BUCKET")
		}
	case StoreFS:
	default:
		return fmt.Errorf("unknown blob store %q", c.BlobStore)
	}

	if err := c.Orchestrator.Validate(); err != nil {
		return err
	}
	return youtube.ValidateBaseURL(c.YouTubeBaseURL, c.YouTubeAllowedHosts)
}

// Status describes the configured backends.
type Status struct {
	TranscribeBackend    string `json:"transcribe_backend"`
	BlobStore            string `json:"blob_store,omitempty"`
	Bucket               string `json:"bucket,omitempty"`
	AudioFormat          string `json:"audio_format,omitempty"`
	YouTubeAPI           bool   `json:"youtube_api"`
	ReferenceTranscripts int    `json:"reference_transcripts"`
	FallbackMode         bool   `json:"fallback_mode"`
}

type Services struct {
	Usecase usecase.Usecase
	Status  Status
	refs    *refstore.Store
}

func (s *Services) Close() error {
	if s.refs == nil {
		return nil
	}
	return s.refs.Close()
}

// Build wires adapters for cfg. Close the result to release the reference store.
func Build(ctx context.Context, cfg Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg = cfg.withDefaults()
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	refs, err := refstore.Open(ctx, cfg.ReferenceDB)
	if err != nil {
		return nil, fmt.Errorf("reference store: %w", err)
	}
	refCount, err := refs.Count(ctx)
	if err != nil {
		refs.Close()
		return nil, fmt.Errorf("reference store: %w", err)
	}

	resolver, err := youtube.New(youtube.Config{
		APIKey:       cfg.YouTubeAPIKey,
		BaseURL:      cfg.YouTubeBaseURL,
		AllowedHosts: cfg.YouTubeAllowedHosts,
	}, log.WithField("component", "youtube"))
	if err != nil {
		refs.Close()
		return nil, err
	}

	deps := orchestrator.Deps{Reference: refs, Log: log.WithField("component", "orchestrator")}
	if cfg.Backend != BackendNone {
		if err := wireBackend(ctx, cfg, &deps); err != nil {
			refs.Close()
			return nil, err
		}
	}
	orch := orchestrator.New(deps, cfg.Orchestrator)

	status := Status{
		TranscribeBackend:    cfg.Backend,
		BlobStore:            cfg.BlobStore,
		Bucket:               cfg.Bucket,
		YouTubeAPI:           resolver.Configured(),
		ReferenceTranscripts: refCount,
		FallbackMode:         cfg.Backend == BackendNone,
	}
	if cfg.Backend != BackendNone {
		status.AudioFormat = cfg.Orchestrator.AudioFormat
		if status.AudioFormat == "" {
			status.AudioFormat = orchestrator.DefaultConfig().AudioFormat
		}
	}

	return &Services{
		Usecase: usecase.New(usecase.Deps{Resolver: resolver, Transcriber: orch, Log: log}),
		Status:  status,
		refs:    refs,
	}, nil
}

func wireBackend(ctx context.Context, cfg Config, deps *orchestrator.Deps) error {
	var store ports.BlobStore
	switch cfg.BlobStore {
	case StoreS3:
		awsCfg, err := loadAWS(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		store = s3blob.New(awsCfg, cfg.Bucket)
	case StoreSupabase:
		s, err := supablob.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		if err != nil {
			return err
		}
		store = s
	case StoreFS:
		s, err := fsblob.New(cfg.BlobDir)
		if err != nil {
			return err
		}
		store = s
	}

	switch cfg.Backend {
	case BackendAWS:
		awsCfg, err := loadAWS(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		deps.Jobs = awstranscribe.New(awsCfg, cfg.Bucket, store)
	case BackendWhisper:
		deps.Jobs = whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, store, "")
	}

	format := cfg.Orchestrator.AudioFormat
	if format == "" {
		format = orchestrator.DefaultConfig().AudioFormat
	}
	deps.Audio = ffmpeg.New(cfg.FFmpegPath, cfg.YTDLPPath, format)
	deps.Store = store
	return nil
}

func loadAWS(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// FindRequest is one topic search.
type FindRequest struct {
	URL       string
	Topic     string
	Duration  time.Duration
	MaxClips  int
	Subtitles bool
	Engine    mentions.Config
}

func (s *Services) Find(ctx context.Context, req FindRequest) (usecase.Output, error) {
	return s.Usecase.Run(ctx, usecase.Input{
		URL:       req.URL,
		Topic:     req.Topic,
		Duration:  req.Duration,
		Engine:    req.Engine,
		MaxClips:  req.MaxClips,
		Subtitles: req.Subtitles,
	})
}

type RunResult struct {
	Dir    string
	Result types.Result
}

// Run executes one search and writes result.json (plus subtitles) into a new
// run directory under outDir.
func Run(ctx context.Context, cfg Config, req FindRequest, outDir string) (RunResult, error) {
	svc, err := Build(ctx, cfg)
	if err != nil {
		return RunResult{}, err
	}
	defer svc.Close()

	out, err := svc.Find(ctx, req)
	if err != nil {
		return RunResult{}, err
	}
	dir, res, err := WriteOutput(outDir, out, time.Now().UTC())
	if err != nil {
		return RunResult{}, err
	}
	if cfg.Log != nil {
		cfg.Log.WithFields(logrus.Fields{
			"dir":      dir,
			"mentions": len(out.Result.Mentions),
			"clips":    len(out.Result.Clips),
		}).Info("result written")
	}
	return RunResult{Dir: dir, Result: res}, nil
}

// WriteOutput stores out under a fresh run directory. The returned result
// lists the subtitle files relative to that directory.
func WriteOutput(outRoot string, out usecase.Output, now time.Time) (string, types.Result, error) {
	if outRoot == "" {
		outRoot = "out"
	}
	res := out.Result
	runDir := buildRunOutDir(outRoot, string(res.Video.ID), res.Topic, now)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", types.Result{}, err
	}

	if len(out.Subtitles) > 0 {
		subsDir := filepath.Join(runDir, "subtitles")
		if err := os.MkdirAll(subsDir, 0o755); err != nil {
			return "", types.Result{}, err
		}
		res.Subtitles = make([]string, 0, len(out.Subtitles))
		for _, f := range out.Subtitles {
			if err := os.WriteFile(filepath.Join(subsDir, f.Name), []byte(f.Content), 0o644); err != nil {
				return "", types.Result{}, fmt.Errorf("write subtitles: %w", err)
			}
			res.Subtitles = append(res.Subtitles, filepath.ToSlash(filepath.Join("subtitles", f.Name)))
		}
	}

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", types.Result{}, fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "result.json"), b, 0o644); err != nil {
		return "", types.Result{}, err
	}
	return runDir, res, nil
}

func buildRunOutDir(outRoot, videoID, topic string, now time.Time) string {
	name := videoID
	if strings.Trim(name, idChars) != "" {
		name = normalizePathSegment(name)
	}
	if name == "" {
		name = "video"
	}
	if t := normalizePathSegment(topic); t != "" {
		name += "-" + truncateRunes(t, 32)
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%s|%d", videoID, topic, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

const idChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

var (
	_ ports.BlobStore      = (*s3blob.Store)(nil)
	_ ports.BlobStore      = (*supablob.Store)(nil)
	_ ports.BlobStore      = (*fsblob.Store)(nil)
	_ ports.JobRunner      = (*awstranscribe.Runner)(nil)
	_ ports.JobRunner      = (*whispercpp.Runner)(nil)
	_ ports.AudioSource    = (*ffmpeg.Adapter)(nil)
	_ ports.Resolver       = (*youtube.Resolver)(nil)
	_ ports.ReferenceStore = (*refstore.Store)(nil)
)
