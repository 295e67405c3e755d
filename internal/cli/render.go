package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/forPelevin/topicut/internal/pipeline"
	"github.com/forPelevin/topicut/internal/types"
)

var (
	colorCyan   = lipgloss.Color("#00FFFF")
	colorGreen  = lipgloss.Color("#00FF00")
	colorYellow = lipgloss.Color("#FFFF00")
	colorGray   = lipgloss.Color("#666666")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)
)

func renderResult(w io.Writer, res types.Result, dir string) {
	fmt.Fprintln(w, titleStyle.Render(res.Video.Title))
	fmt.Fprintf(w, "%s %s  %s %s\n",
		labelStyle.Render("video"), res.Video.ID,
		labelStyle.Render("channel"), res.Video.Channel)
	fmt.Fprintf(w, "%s %s  %s %d segments, %.0fs, %.1f wpm\n",
		labelStyle.Render("transcript"), provenanceLabel(res.Summary.Provenance),
		labelStyle.Render("summary"), res.Summary.Segments, res.Summary.Duration, res.Summary.WordsPerMinute)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %q: %d\n", titleStyle.Render("Mentions of"), res.Topic, len(res.Mentions))
	for _, m := range res.Mentions {
		fmt.Fprintf(w, "  %s  %-10s %.2f  %s\n",
			timeStyle.Render(span(m.Start, m.End)), m.Type, m.Confidence, truncate(m.MatchedText, 72))
	}
	if len(res.Mentions) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no mentions found"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %d\n", titleStyle.Render("Suggested clips:"), len(res.Clips))
	for i, c := range res.Clips {
		fmt.Fprintf(w, "  %2d. %s  score %.2f  %s\n",
			i+1, timeStyle.Render(span(c.Start, c.End)), c.Score, truncate(c.Text, 64))
	}
	if dir != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("written to"), dir)
	}
}

func renderStatus(w io.Writer, st pipeline.Status) {
	fmt.Fprintln(w, titleStyle.Render("topicut status"))
	row := func(k, v string) { fmt.Fprintf(w, "  %-22s %s\n", labelStyle.Render(k), v) }
	row("transcribe backend", st.TranscribeBackend)
	if st.BlobStore != "" {
		row("blob store", st.BlobStore)
	}
	if st.Bucket != "" {
		row("bucket", st.Bucket)
	}
	if st.AudioFormat != "" {
		row("audio format", st.AudioFormat)
	}
	row("youtube api", yesNo(st.YouTubeAPI))
	row("reference transcripts", fmt.Sprint(st.ReferenceTranscripts))
	if st.FallbackMode {
		row("mode", dimStyle.Render("fallback only (reference or synthetic transcripts)"))
	} else {
		row("mode", okStyle.Render("live transcription"))
	}
}

func provenanceLabel(p types.Provenance) string {
	if p == types.ProvenancePrimary {
		return okStyle.Render(string(p))
	}
	return dimStyle.Render(string(p))
}

func span(start, end float64) string {
	return fmt.Sprintf("%s-%s", clock(start), clock(end))
}

func clock(sec float64) string {
	s := int(sec + 0.5)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
