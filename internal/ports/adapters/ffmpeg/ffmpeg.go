package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/topicut/internal/ports"
	"github.com/forPelevin/topicut/internal/types"
)

type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Adapter acquires audio for a window of a YouTube video: yt-dlp resolves the
// best audio stream URL and ffmpeg cuts and transcodes the window from it.
type Adapter struct {
	ffmpeg string
	ytdlp  string
	format string
	exec   ExecFunc
}

func New(ffmpegPath, ytdlpPath, format string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if format == "" {
		format = "mp3"
	}
	return &Adapter{ffmpeg: ffmpegPath, ytdlp: ytdlpPath, format: format, exec: combinedOutput}
}

func (a *Adapter) WithExec(fn ExecFunc) *Adapter {
	a.exec = fn
	return a
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (a *Adapter) Acquire(ctx context.Context, id types.VideoID, start, duration time.Duration) (ports.Artifact, error) {
	if err := id.Validate(); err != nil {
		return ports.Artifact{}, err
	}
	if duration <= 0 {
		return ports.Artifact{}, fmt.Errorf("duration must be positive")
	}

	streamURL, err := a.streamURL(ctx, id)
	if err != nil {
		return ports.Artifact{}, err
	}

	dir, err := os.MkdirTemp("", "topicut-audio-")
	if err != nil {
		return ports.Artifact{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, string(id)+"."+a.format)
	if err := a.extract(ctx, streamURL, start, duration, out); err != nil {
		return ports.Artifact{}, err
	}
	b, err := os.ReadFile(out)
	if err != nil {
		return ports.Artifact{}, fmt.Errorf("read audio: %w", err)
	}
	if len(b) == 0 {
		return ports.Artifact{}, fmt.Errorf("ffmpeg produced empty audio")
	}
	return ports.Artifact{Data: b, Format: a.format}, nil
}

func (a *Adapter) streamURL(ctx context.Context, id types.VideoID) (string, error) {
	b, err := a.exec(ctx, a.ytdlp,
		"-f", "bestaudio",
		"-g",
		"--no-playlist",
		"--no-warnings",
		"https://www.youtube.com/watch?v="+string(id),
	)
	if err != nil {
		return "", fmt.Errorf("yt-dlp resolve stream: %w\n%s", err, string(b))
	}
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "http") {
			return line, nil
		}
	}
	return "", fmt.Errorf("yt-dlp returned no stream url")
}

func (a *Adapter) extract(ctx context.Context, in string, start, duration time.Duration, out string) error {
	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(duration),
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
	}
	switch a.format {
	case "wav":
		args = append(args, "-c:a", "pcm_s16le", "-f", "wav")
	default:
		args = append(args, "-c:a", "libmp3lame", "-b:a", "64k", "-f", "mp3")
	}
	args = append(args, out)

	b, err := a.exec(ctx, a.ffmpeg, args...)
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
