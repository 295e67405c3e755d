package orchestrator

import (
	"math"
	"sort"
	"strings"

	"github.com/forPelevin/topicut/internal/types"
)

// normalizeSegments drops empty or inverted segments, orders the rest by start
// and removes overlap by pushing each start to the previous end. A segment
// swallowed entirely by its predecessor donates its text to it.
func normalizeSegments(in []types.Segment) []types.Segment {
	out := make([]types.Segment, 0, len(in))
	for _, s := range in {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" || math.IsNaN(s.Start) || math.IsNaN(s.End) || s.End <= s.Start {
			continue
		}
		if s.Start < 0 {
			s.Start = 0
		}
		s.Confidence = clampConfidence(s.Confidence)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	res := out[:0]
	for _, s := range out {
		if n := len(res); n > 0 && s.Start < res[n-1].End {
			if s.End <= res[n-1].End {
				res[n-1].Text += " " + s.Text
				res[n-1].Words = append(res[n-1].Words, s.Words...)
				continue
			}
			s.Start = res[n-1].End
		}
		res = append(res, s)
	}
	return res
}

// windowSegments keeps segments starting before limit and caps their end.
func windowSegments(segs []types.Segment, limit float64) []types.Segment {
	out := make([]types.Segment, 0, len(segs))
	for _, s := range segs {
		if s.Start >= limit {
			break
		}
		if s.End > limit {
			s.End = limit
			words := s.Words[:0:0]
			for _, w := range s.Words {
				if w.Start < limit {
					words = append(words, w)
				}
			}
			s.Words = words
		}
		out = append(out, s)
	}
	return out
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
