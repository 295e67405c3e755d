package awstranscribe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/topicut/internal/types"
)

const (
	maxSegmentWords   = 10
	maxSegmentSeconds = 5.0
)

type result struct {
	Results struct {
		Items []item `json:"items"`
	} `json:"results"`
}

type item struct {
	Type         string `json:"type"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Alternatives []struct {
		Content    string `json:"content"`
		Confidence string `json:"confidence"`
	} `json:"alternatives"`
}

// ParseResult turns Transcribe output JSON into segments. Words are grouped
// until a segment holds ten words or spans five seconds. Punctuation is glued
// to the preceding word and does not count toward confidence.
func ParseResult(b []byte) ([]types.Segment, error) {
	var r result
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}

	var (
		segs  []types.Segment
		cur   types.Segment
		text  strings.Builder
		confs float64
	)
	flush := func() {
		if len(cur.Words) == 0 {
			return
		}
		cur.Text = text.String()
		cur.Confidence = confs / float64(len(cur.Words))
		segs = append(segs, cur)
		cur = types.Segment{}
		text.Reset()
		confs = 0
	}

	for i, it := range r.Results.Items {
		if len(it.Alternatives) == 0 {
			continue
		}
		alt := it.Alternatives[0]
		switch it.Type {
		case "punctuation":
			if text.Len() > 0 {
				text.WriteString(alt.Content)
			} else if n := len(segs); n > 0 {
				segs[n-1].Text += alt.Content
			}
			continue
		case "pronunciation":
		default:
			continue
		}

		start, err := parseSeconds(it.StartTime)
		if err != nil {
			return nil, fmt.Errorf("item %d start: %w", i, err)
		}
		end, err := parseSeconds(it.EndTime)
		if err != nil {
			return nil, fmt.Errorf("item %d end: %w", i, err)
		}
		conf, err := strconv.ParseFloat(alt.Confidence, 64)
		if err != nil {
			return nil, fmt.Errorf("item %d confidence: %w", i, err)
		}

		if len(cur.Words) == 0 {
			cur.Start = start
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(alt.Content)
		cur.Words = append(cur.Words, types.Word{Start: start, End: end, Word: alt.Content})
		cur.End = end
		confs += conf

		if len(cur.Words) >= maxSegmentWords || end-cur.Start >= maxSegmentSeconds {
			flush()
		}
	}
	flush()
	return segs, nil
}

func parseSeconds(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("missing timestamp")
	}
	return strconv.ParseFloat(s, 64)
}
