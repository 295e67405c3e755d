package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/topicut/internal/domain/mentions"
	"github.com/forPelevin/topicut/internal/domain/subtitles"
	"github.com/forPelevin/topicut/internal/ports"
	"github.com/forPelevin/topicut/internal/types"
)

// Transcriber is satisfied by the orchestrator.
type Transcriber interface {
	Transcribe(ctx context.Context, id types.VideoID, limit time.Duration) (types.Transcript, error)
}

type Deps struct {
	Resolver    ports.Resolver
	Transcriber Transcriber
	Log         logrus.FieldLogger
	Now         func() time.Time
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Log = l
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return Usecase{d: d}
}

type Input struct {
	URL   string
	Topic string
	// Duration limits the transcribed window; zero selects the default.
	Duration time.Duration
	Engine   mentions.Config
	// MaxClips keeps only the best scoring clips; zero keeps all.
	MaxClips  int
	Subtitles bool
}

type SubtitleFile struct {
	Name    string
	Content string
}

type Output struct {
	Result    types.Result
	Subtitles []SubtitleFile
}

func (u Usecase) Run(ctx context.Context, in Input) (Output, error) {
	topic := strings.TrimSpace(in.Topic)
	if err := types.ValidateTopic(topic); err != nil {
		return Output{}, err
	}
	cfg := in.Engine.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Output{}, fmt.Errorf("engine config: %w", err)
	}

	info, err := u.d.Resolver.Resolve(ctx, in.URL)
	if err != nil {
		return Output{}, fmt.Errorf("resolve video: %w", err)
	}
	log := u.d.Log.WithFields(logrus.Fields{"video_id": string(info.ID), "topic": topic})
	log.WithField("source", info.Source).Info("video resolved")

	tr, err := u.d.Transcriber.Transcribe(ctx, info.ID, in.Duration)
	if err != nil {
		return Output{}, fmt.Errorf("transcribe: %w", err)
	}

	ms := mentions.FindMentions(tr, topic, cfg)
	clips := mentions.TopClips(mentions.SuggestClips(ms, tr, cfg), in.MaxClips)
	log.WithFields(logrus.Fields{
		"provenance": string(tr.Provenance),
		"mentions":   len(ms),
		"clips":      len(clips),
	}).Info("topic search finished")

	out := Output{Result: types.Result{
		Video:       info,
		Topic:       topic,
		Transcript:  tr,
		Summary:     Summarize(tr),
		Mentions:    ms,
		Clips:       clips,
		GeneratedAt: u.d.Now().UTC(),
	}}
	if out.Result.Mentions == nil {
		out.Result.Mentions = []types.Mention{}
	}
	if out.Result.Clips == nil {
		out.Result.Clips = []types.Clip{}
	}
	if in.Subtitles {
		for i, c := range clips {
			out.Subtitles = append(out.Subtitles, SubtitleFile{
				Name:    fmt.Sprintf("%03d.ass", i+1),
				Content: subtitles.RenderClipASS(tr, c, ms),
			})
		}
	}
	return out, nil
}

// Summarize reports size and pace of a transcript.
func Summarize(tr types.Transcript) types.Summary {
	s := types.Summary{
		Segments:   len(tr.Segments),
		Language:   tr.Language,
		Provenance: tr.Provenance,
	}
	for _, seg := range tr.Segments {
		s.WordCount += len(strings.Fields(seg.Text))
		s.Duration = math.Max(s.Duration, seg.End)
	}
	if s.Duration > 0 {
		s.WordsPerMinute = math.Round(float64(s.WordCount)/(s.Duration/60)*10) / 10
	}
	return s
}
