package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topicut/internal/pipeline"
	"github.com/forPelevin/topicut/internal/ports/adapters/youtube"
)

const defaultTimeout = 5 * time.Minute

// configFromEnv reads backend selection and credentials from the environment.
func configFromEnv(log logrus.FieldLogger) pipeline.Config {
	cfg := pipeline.Config{
		Log: log,

		Backend:   os.Getenv("TRANSCRIBE_BACKEND"),
		BlobStore: os.Getenv("BLOB_STORE"),
		Bucket:    os.Getenv("TRANSCRIPTION_BUCKET"),
		AWSRegion: os.Getenv("AWS_REGION"),

		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket: os.Getenv("SUPABASE_BUCKET"),
		BlobDir:        getenvDefault("BLOB_DIR", ".cache/blobs"),

		WhisperBin:   getenvDefault("WHISPER_BIN", ".cache/bin/whisper.cpp"),
		WhisperModel: os.Getenv("WHISPER_MODEL"),

		FFmpegPath: getenvDefault("FFMPEG_PATH", "ffmpeg"),
		YTDLPPath:  getenvDefault("YTDLP_PATH", "yt-dlp"),

		YouTubeAPIKey:  os.Getenv("YOUTUBE_API_KEY"),
		YouTubeBaseURL: os.Getenv("YOUTUBE_API_BASE_URL"),

		ReferenceDB: os.Getenv("REFERENCE_DB"),
	}
	if hosts := os.Getenv("YOUTUBE_ALLOWED_HOSTS"); hosts != "" {
		cfg.YouTubeAllowedHosts = youtube.ParseAllowedHosts(hosts)
	}
	return cfg
}

// newLogger writes to stderr so stdout stays free for results and MCP frames.
func newLogger(w io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	switch strings.ToLower(getenvDefault("LOG_FORMAT", "json")) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("config: LOG_FORMAT must be json or text")
	}

	level, err := logrus.ParseLevel(getenvDefault("LOG_LEVEL", "warn"))
	if err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	return log, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
