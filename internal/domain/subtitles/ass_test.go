package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/topicut/internal/types"
)

func zooTranscript() types.Transcript {
	return types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 5, Text: "Alright, so here we are in front of the elephants."},
		{Start: 5, End: 12, Text: "The cool thing about these guys is that they have {really} long trunks."},
		{Start: 12, End: 15, Text: "And that's cool."},
		{Start: 15, End: 19, Text: "And that's pretty much all there is to say."},
	}}
}

func TestRenderClipASS_ClipLocalTimingAndHighlight(t *testing.T) {
	mentions := []types.Mention{{SegmentIndex: 1, Start: 5, End: 12}}
	clip := types.Clip{Start: 4, End: 14, Anchors: []int{0}}

	ass := RenderClipASS(zooTranscript(), clip, mentions)

	lines := dialogues(ass)
	if len(lines) != 3 {
		t.Fatalf("expected 3 dialogue lines, got %d:\n%s", len(lines), ass)
	}
	if !strings.HasPrefix(lines[0], "Dialogue: 0,0:00:00.00,0:00:01.00,Caption,") {
		t.Fatalf("first event not clipped to clip start: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Dialogue: 0,0:00:01.00,0:00:08.00,Mention,") {
		t.Fatalf("mentioned segment not highlighted: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Dialogue: 0,0:00:08.00,0:00:10.00,Caption,") {
		t.Fatalf("last event not clipped to clip end: %s", lines[2])
	}
	if strings.Contains(lines[1], "{really}") {
		t.Fatalf("override braces must be sanitized: %s", lines[1])
	}
}

func TestRenderClipASS_KaraokeWhenWordsPresent(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 2, Text: "Hello world", Words: []types.Word{{Start: 0.0, End: 0.3, Word: "Hello"}, {Start: 0.3, End: 0.8, Word: "world"}}},
	}}
	ass := RenderClipASS(tr, types.Clip{Start: 0, End: 2}, nil)
	if !strings.Contains(ass, "{\\k30}Hello {\\k50}world") {
		t.Fatalf("expected karaoke tags in ASS, got:\n%s", ass)
	}
}

func TestRenderClipASS_IgnoresOutOfRangeAnchors(t *testing.T) {
	ass := RenderClipASS(zooTranscript(), types.Clip{Start: 0, End: 5, Anchors: []int{7}}, nil)
	if strings.Contains(ass, ",Mention,,") {
		t.Fatalf("no segment should be highlighted:\n%s", ass)
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}

func dialogues(ass string) []string {
	var out []string
	for _, l := range strings.Split(ass, "\n") {
		if strings.HasPrefix(l, "Dialogue:") {
			out = append(out, l)
		}
	}
	return out
}
