package whispercpp

import (
	"encoding/json"
	"strings"

	"github.com/forPelevin/topicut/internal/types"
)

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets offsets `json:"offsets"`
		Text    string  `json:"text"`
		Tokens  []struct {
			Text    string  `json:"text"`
			P       float64 `json:"p"`
			Offsets offsets `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

type offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// ParseOutput reads whisper.cpp JSON (-oj, optionally -ojf). Offsets are in
// milliseconds. Segment confidence is the mean token probability, skipping
// control tokens; without token data it is 1.
func ParseOutput(b []byte) ([]types.Segment, string, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, "", err
	}

	segs := make([]types.Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		seg := types.Segment{
			Start:      float64(t.Offsets.From) / 1000,
			End:        float64(t.Offsets.To) / 1000,
			Text:       strings.TrimSpace(t.Text),
			Confidence: 1,
		}
		var sum float64
		var n int
		for _, tok := range t.Tokens {
			if strings.HasPrefix(tok.Text, "[_") {
				continue
			}
			sum += tok.P
			n++
			if w := strings.TrimSpace(tok.Text); w != "" && strings.HasPrefix(tok.Text, " ") {
				seg.Words = append(seg.Words, types.Word{
					Start: float64(tok.Offsets.From) / 1000,
					End:   float64(tok.Offsets.To) / 1000,
					Word:  w,
				})
			} else if w != "" && len(seg.Words) > 0 {
				last := &seg.Words[len(seg.Words)-1]
				last.Word += w
				last.End = float64(tok.Offsets.To) / 1000
			}
		}
		if n > 0 {
			seg.Confidence = sum / float64(n)
		}
		segs = append(segs, seg)
	}
	return segs, out.Result.Language, nil
}
