package types

import (
	"fmt"
	"time"
)

// VideoID is the stable identifier produced by the metadata resolver.
type VideoID string

// Provenance tells which tier produced a transcript.
type Provenance string

const (
	ProvenancePrimary  Provenance = "PRIMARY"
	ProvenanceDegraded Provenance = "DEGRADED"
	ProvenanceFallback Provenance = "FALLBACK"
)

type Transcript struct {
	Segments   []Segment  `json:"segments"`
	Language   string     `json:"language"`
	Provenance Provenance `json:"provenance"`
}

type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// MentionType orders by specificity: lower value is more specific.
type MentionType int

const (
	MentionExact MentionType = iota
	MentionPartial
	MentionContextual
)

func (t MentionType) String() string {
	switch t {
	case MentionExact:
		return "EXACT"
	case MentionPartial:
		return "PARTIAL"
	case MentionContextual:
		return "CONTEXTUAL"
	default:
		return "UNKNOWN"
	}
}

func (t MentionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *MentionType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "EXACT":
		*t = MentionExact
	case "PARTIAL":
		*t = MentionPartial
	case "CONTEXTUAL":
		*t = MentionContextual
	default:
		return fmt.Errorf("unknown mention type %q", string(b))
	}
	return nil
}

type Mention struct {
	SegmentIndex int         `json:"segment_index"`
	Start        float64     `json:"start_sec"`
	End          float64     `json:"end_sec"`
	MatchedText  string      `json:"matched_text"`
	Confidence   float64     `json:"confidence"`
	Type         MentionType `json:"mention_type"`
}

// Clip is a suggested window; Anchors index into the mention list it was built from.
type Clip struct {
	Start   float64 `json:"start_sec"`
	End     float64 `json:"end_sec"`
	Anchors []int   `json:"anchor_mentions"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

func (c Clip) Duration() float64 { return c.End - c.Start }

type VideoInfo struct {
	ID              VideoID `json:"id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	Channel         string  `json:"channel"`
	ViewCount       int64   `json:"view_count"`
	Source          string  `json:"source"`
}

type Summary struct {
	Segments       int        `json:"total_segments"`
	Duration       float64    `json:"total_duration"`
	WordCount      int        `json:"word_count"`
	WordsPerMinute float64    `json:"words_per_minute"`
	Language       string     `json:"language"`
	Provenance     Provenance `json:"provenance"`
}

// Result is the output consumed by request handlers and written as result.json.
type Result struct {
	Video       VideoInfo  `json:"video"`
	Topic       string     `json:"topic"`
	Transcript  Transcript `json:"transcript"`
	Summary     Summary    `json:"summary"`
	Mentions    []Mention  `json:"mentions"`
	Clips       []Clip     `json:"clips"`
	GeneratedAt time.Time  `json:"generated_at"`
	Subtitles   []string   `json:"subtitles,omitempty"`
}
