// Package subtitles exports the transcript of a suggested clip as an ASS
// script with clip-local timing. Segments carrying a mention use a
// highlighted style.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/topicut/internal/types"
)

const (
	styleCaption = "Caption"
	styleMention = "Mention"
)

type event struct {
	Start time.Duration
	End   time.Duration
	Style string
	Text  string
}

// RenderClipASS renders the segments overlapping clip. mentions is the list
// the clip's anchors index into.
func RenderClipASS(tr types.Transcript, clip types.Clip, mentions []types.Mention) string {
	start, end := dur(clip.Start), dur(clip.End)
	hot := mentionedSegments(clip, mentions)

	var events []event
	for i, s := range tr.Segments {
		ss, se := dur(s.Start), dur(s.End)
		if se <= start || ss >= end {
			continue
		}
		style := styleCaption
		if hot[i] {
			style = styleMention
		}
		text := karaoke(s.Words, max(ss, start), min(se, end))
		if text == "" {
			text = sanitizeASS(s.Text)
		}
		if text == "" {
			continue
		}
		events = append(events, event{
			Start: max(ss, start) - start,
			End:   min(se, end) - start,
			Style: style,
			Text:  text,
		})
	}
	return render(events)
}

func mentionedSegments(clip types.Clip, mentions []types.Mention) map[int]bool {
	out := make(map[int]bool, len(clip.Anchors))
	for _, a := range clip.Anchors {
		if a >= 0 && a < len(mentions) {
			out[mentions[a].SegmentIndex] = true
		}
	}
	return out
}

// karaoke emits \k timing for the words inside [from, to); empty when the
// segment has no usable word timing.
func karaoke(words []types.Word, from, to time.Duration) string {
	var b strings.Builder
	for _, w := range words {
		ws, we := dur(w.Start), dur(w.End)
		text := sanitizeASS(w.Word)
		if text == "" || we <= from || ws >= to {
			continue
		}
		cs := int((min(we, to) - max(ws, from)) / (10 * time.Millisecond))
		if cs < 1 {
			cs = 1
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "{\\k%d}%s", cs, text)
	}
	return b.String()
}

func render(events []event) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, e := range events {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n", assTime(e.Start), assTime(e.End), e.Style, e.Text)
	}
	return b.String()
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1280
PlayResY: 720
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, Inter, 42, &H00FFFFFF, &H00FFFFFF, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,3,1,2, 60,60,40,1
Style: Mention, Inter, 42, &H0000D7FF, &H00FFFFFF, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,3,1,2, 60,60,40,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
