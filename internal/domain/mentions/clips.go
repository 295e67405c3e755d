package mentions

import (
	"math"
	"sort"
	"strings"

	"github.com/forPelevin/topicut/internal/types"
)

type window struct {
	start   float64
	end     float64
	anchors []int
}

// SuggestClips turns mentions into bounded, non-overlapping clip windows.
// Each mention is padded on both sides and windows that overlap or sit closer
// than the padding are coalesced. A merged window longer than MaxClip is
// truncated symmetrically around its highest-confidence anchor, keeping only
// the anchors it still covers. Clips are returned in timeline order.
func SuggestClips(ms []types.Mention, tr types.Transcript, cfg Config) []types.Clip {
	cfg = cfg.WithDefaults()
	if len(ms) == 0 {
		return nil
	}
	pad := cfg.Padding.Seconds()
	maxLen := cfg.MaxClip.Seconds()

	order := make([]int, len(ms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ma, mb := ms[order[a]], ms[order[b]]
		if ma.Start != mb.Start {
			return ma.Start < mb.Start
		}
		return ma.Type < mb.Type
	})

	var wins []window
	for _, idx := range order {
		m := ms[idx]
		ws, we := math.Max(0, m.Start-pad), m.End+pad
		if n := len(wins); n > 0 {
			w := &wins[n-1]
			if ws-w.end < pad {
				w.end = math.Max(w.end, we)
				w.anchors = append(w.anchors, idx)
				continue
			}
		}
		wins = append(wins, window{start: ws, end: we, anchors: []int{idx}})
	}

	out := make([]types.Clip, 0, len(wins))
	for _, w := range wins {
		if w.end-w.start > maxLen {
			best := bestAnchor(ms, w.anchors)
			center := (ms[best].Start + ms[best].End) / 2
			w.start, w.end = truncate(w.start, w.end, center, maxLen)
			w.anchors = intersecting(ms, w.anchors, w.start, w.end)
		}
		out = append(out, types.Clip{
			Start:   round3(w.start),
			End:     round3(w.end),
			Anchors: w.anchors,
			Score:   maxConfidence(ms, w.anchors),
		})
	}
	for i := range out {
		sort.Ints(out[i].Anchors)
		out[i].Text = textBetween(tr, out[i].Start, out[i].End)
	}
	return out
}

// TopClips keeps the n best-scoring clips and returns them in timeline order.
func TopClips(clips []types.Clip, n int) []types.Clip {
	if n <= 0 || len(clips) <= n {
		return clips
	}
	ranked := append([]types.Clip(nil), clips...)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
	ranked = ranked[:n]
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Start < ranked[b].Start })
	return ranked
}

func truncate(start, end, center, maxLen float64) (float64, float64) {
	s, e := center-maxLen/2, center+maxLen/2
	if s < start {
		s, e = start, start+maxLen
	}
	if e > end {
		s, e = end-maxLen, end
	}
	return s, e
}

func bestAnchor(ms []types.Mention, anchors []int) int {
	best := anchors[0]
	for _, a := range anchors[1:] {
		if ms[a].Confidence > ms[best].Confidence {
			best = a
		}
	}
	return best
}

func intersecting(ms []types.Mention, anchors []int, start, end float64) []int {
	out := anchors[:0:0]
	for _, a := range anchors {
		if ms[a].End > start && ms[a].Start < end {
			out = append(out, a)
		}
	}
	return out
}

func maxConfidence(ms []types.Mention, anchors []int) float64 {
	score := 0.0
	for _, a := range anchors {
		score = math.Max(score, ms[a].Confidence)
	}
	return score
}

func textBetween(tr types.Transcript, start, end float64) string {
	var parts []string
	for _, s := range tr.Segments {
		if s.End <= start || s.Start >= end {
			continue
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
