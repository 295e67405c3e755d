package mentions

import (
	"math"
	"reflect"
	"testing"

	"github.com/forPelevin/topicut/internal/types"
)

func TestFindMentions_ExactSingleSegment(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 5, Text: "I saw an elephant today", Confidence: 0.9},
	}}
	got := FindMentions(tr, "elephant", DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(got))
	}
	m := got[0]
	if m.Type != types.MentionExact {
		t.Fatalf("expected EXACT, got %s", m.Type)
	}
	if m.Confidence != 0.9 || m.Start != 0 || m.End != 5 {
		t.Fatalf("unexpected mention: %+v", m)
	}
	if m.MatchedText != "elephant" {
		t.Fatalf("unexpected matched text %q", m.MatchedText)
	}
}

func TestFindMentions_EmptyInputs(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{{Start: 0, End: 5, Text: "anything", Confidence: 1}}}
	if got := FindMentions(tr, "", DefaultConfig()); len(got) != 0 {
		t.Fatalf("empty topic: expected no mentions, got %v", got)
	}
	if got := FindMentions(tr, " ?! ", DefaultConfig()); len(got) != 0 {
		t.Fatalf("punctuation-only topic: expected no mentions, got %v", got)
	}
	if got := FindMentions(types.Transcript{}, "anything", DefaultConfig()); len(got) != 0 {
		t.Fatalf("empty transcript: expected no mentions, got %v", got)
	}
}

func TestFindMentions_Classification(t *testing.T) {
	tests := []struct {
		name     string
		segs     []types.Segment
		topic    string
		wantType []types.MentionType
		wantConf []float64
	}{
		{
			name:     "case and punctuation insensitive",
			segs:     []types.Segment{{Start: 0, End: 5, Text: "Bitcoin-Mining, explained!", Confidence: 0.8}},
			topic:    "bitcoin mining",
			wantType: []types.MentionType{types.MentionExact},
			wantConf: []float64{0.8},
		},
		{
			name:     "partial when not contiguous",
			segs:     []types.Segment{{Start: 0, End: 5, Text: "mining is how new bitcoin appears", Confidence: 0.8}},
			topic:    "bitcoin mining",
			wantType: []types.MentionType{types.MentionPartial},
			wantConf: []float64{0.8},
		},
		{
			name:     "partial scales by matched token share",
			segs:     []types.Segment{{Start: 0, End: 5, Text: "very good and more words", Confidence: 0.9}},
			topic:    "very good very",
			wantType: []types.MentionType{types.MentionPartial},
			wantConf: []float64{0.6},
		},
		{
			name: "contextual across a segment boundary",
			segs: []types.Segment{
				{Start: 0, End: 4, Text: "we talk about bitcoin", Confidence: 0.8},
				{Start: 4, End: 8, Text: "mining rigs today", Confidence: 0.6},
				{Start: 8, End: 12, Text: "unrelated words", Confidence: 1},
			},
			topic:    "bitcoin mining",
			wantType: []types.MentionType{types.MentionContextual, types.MentionContextual},
			wantConf: []float64{0.4, 0.3},
		},
		{
			name: "contextual bridge segment without its own topic token",
			segs: []types.Segment{
				{Start: 0, End: 4, Text: "we trained a machine", Confidence: 1},
				{Start: 4, End: 8, Text: "uh so yeah", Confidence: 1},
				{Start: 8, End: 12, Text: "learning models today", Confidence: 1},
			},
			topic:    "machine learning models",
			wantType: []types.MentionType{types.MentionContextual, types.MentionContextual},
			wantConf: []float64{0.5, 1.0 / 3},
		},
		{
			name: "neighbours of an exact match are not contextual",
			segs: []types.Segment{
				{Start: 0, End: 4, Text: "intro", Confidence: 1},
				{Start: 4, End: 8, Text: "bitcoin is up", Confidence: 1},
				{Start: 8, End: 12, Text: "outro", Confidence: 1},
			},
			topic:    "bitcoin",
			wantType: []types.MentionType{types.MentionExact},
			wantConf: []float64{1},
		},
		{
			name: "below contextual threshold",
			segs: []types.Segment{
				{Start: 0, End: 4, Text: "bitcoin", Confidence: 1},
				{Start: 4, End: 8, Text: "nothing here", Confidence: 1},
			},
			topic: "bitcoin mining rigs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindMentions(types.Transcript{Segments: tt.segs}, tt.topic, DefaultConfig())
			if len(got) != len(tt.wantType) {
				t.Fatalf("expected %d mentions, got %d: %+v", len(tt.wantType), len(got), got)
			}
			for i, m := range got {
				if m.Type != tt.wantType[i] {
					t.Fatalf("mention %d: expected %s, got %s", i, tt.wantType[i], m.Type)
				}
				if math.Abs(m.Confidence-tt.wantConf[i]) > 1e-9 {
					t.Fatalf("mention %d: expected confidence %v, got %v", i, tt.wantConf[i], m.Confidence)
				}
			}
		})
	}
}

func TestFindMentions_TopicLongerThanSegmentsIsContextualOnly(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 2, Text: "the lightning", Confidence: 1},
		{Start: 2, End: 4, Text: "network scales", Confidence: 1},
		{Start: 4, End: 6, Text: "bitcoin payments", Confidence: 1},
	}}
	got := FindMentions(tr, "the lightning network scales bitcoin", DefaultConfig())
	if len(got) == 0 {
		t.Fatalf("expected contextual mentions")
	}
	for _, m := range got {
		if m.Type != types.MentionContextual {
			t.Fatalf("expected only CONTEXTUAL mentions, got %s", m.Type)
		}
	}
}

func TestFindMentions_OrderedAndIdempotent(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 5, Text: "Welcome to this video about technology and innovation.", Confidence: 0.9},
		{Start: 5, End: 10, Text: "Today we're going to discuss bitcoin and cryptocurrency.", Confidence: 0.95},
		{Start: 10, End: 15, Text: "This technology is revolutionizing finance.", Confidence: 0.9},
		{Start: 15, End: 20, Text: "Let's explore how bitcoin mining works.", Confidence: 0.85},
	}}
	a := FindMentions(tr, "bitcoin", DefaultConfig())
	b := FindMentions(tr, "bitcoin", DefaultConfig())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical output on repeated calls")
	}
	if len(a) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(a))
	}
	if a[0].SegmentIndex != 1 || a[1].SegmentIndex != 3 {
		t.Fatalf("unexpected segment indices: %d, %d", a[0].SegmentIndex, a[1].SegmentIndex)
	}
	for i := 1; i < len(a); i++ {
		if a[i].Start < a[i-1].Start {
			t.Fatalf("mentions not ordered by start")
		}
	}
}

func TestFindMentions_TieBreaksBySpecificity(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 3, End: 6, Text: "rigs for mining bitcoin", Confidence: 1},
		{Start: 3, End: 6, Text: "bitcoin mining", Confidence: 1},
	}}
	got := FindMentions(tr, "bitcoin mining", DefaultConfig())
	if len(got) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(got))
	}
	if got[0].Type != types.MentionExact || got[1].Type != types.MentionPartial {
		t.Fatalf("expected EXACT before PARTIAL, got %s then %s", got[0].Type, got[1].Type)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Bitcoin's price!": "bitcoins price ",
		"  A.B,C ":         "  a b c ",
		"ÉLAN":             "élan",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
