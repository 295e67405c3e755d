package mentions

import (
	"sort"
	"strings"

	"github.com/forPelevin/topicut/internal/types"
)

// FindMentions locates the topic in every segment of the transcript.
// Each segment yields at most one mention, of its most specific type:
//   - EXACT: topic tokens appear contiguously; confidence is the segment's.
//   - PARTIAL: every topic token appears, not contiguously.
//   - CONTEXTUAL: enough topic tokens appear across the segment and its
//     immediate neighbours. A segment with no topic token of its own is
//     skipped when a neighbour already matched EXACT or PARTIAL.
//
// Output is ordered by start time; equal starts prefer the more specific type.
func FindMentions(tr types.Transcript, topic string, cfg Config) []types.Mention {
	cfg = cfg.WithDefaults()
	topicToks := Tokens(topic)
	segs := tr.Segments
	if len(topicToks) == 0 || len(segs) == 0 {
		return nil
	}

	segToks := make([][]string, len(segs))
	segCounts := make([]map[string]int, len(segs))
	for i, s := range segs {
		segToks[i] = Tokens(s.Text)
		segCounts[i] = counts(segToks[i])
	}

	total := float64(len(topicToks))
	specific := make([]bool, len(segs))
	var out []types.Mention
	for i, s := range segs {
		conf := clamp(s.Confidence, 0, 1)
		m := types.Mention{SegmentIndex: i, Start: s.Start, End: s.End, Confidence: conf}

		if at, ok := containsRun(segToks[i], topicToks); ok {
			m.Type = types.MentionExact
			m.MatchedText = strings.Join(segToks[i][at:at+len(topicToks)], " ")
			out = append(out, m)
			specific[i] = true
			continue
		}
		if len(segToks[i]) >= len(topicToks) && allPresent(topicToks, segCounts[i]) {
			m.Type = types.MentionPartial
			m.MatchedText = strings.TrimSpace(s.Text)
			m.Confidence = clamp(conf*float64(matchedCount(topicToks, segCounts[i]))/total, 0, 1)
			out = append(out, m)
			specific[i] = true
		}
	}

	for i, s := range segs {
		if specific[i] {
			continue
		}
		lo, hi := max(0, i-1), min(len(segs)-1, i+1)
		if !anyPresent(topicToks, segCounts[i]) && (specific[lo] || specific[hi]) {
			continue
		}
		window := make(map[string]int, len(segCounts[i]))
		for j := lo; j <= hi; j++ {
			for tok, c := range segCounts[j] {
				window[tok] += c
			}
		}
		frac := float64(matchedCount(topicToks, window)) / total
		if frac < cfg.ContextualThreshold {
			continue
		}
		out = append(out, types.Mention{
			SegmentIndex: i,
			Start:        s.Start,
			End:          s.End,
			Type:         types.MentionContextual,
			MatchedText:  strings.TrimSpace(s.Text),
			Confidence:   clamp(clamp(s.Confidence, 0, 1)*cfg.ContextualWeight*frac, 0, 1),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Start != out[b].Start {
			return out[a].Start < out[b].Start
		}
		if out[a].Type != out[b].Type {
			return out[a].Type < out[b].Type
		}
		return out[a].SegmentIndex < out[b].SegmentIndex
	})
	return out
}
