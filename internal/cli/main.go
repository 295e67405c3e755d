package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "topicut",
		Short:         "Find where a topic is discussed in a YouTube video",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.AddCommand(newFindCmd(), newServeCmd(), newMCPCmd(), newStatusCmd())
	return root
}

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <youtube-url>",
		Short: "Transcribe the start of a video and suggest clips around a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args[0])
		},
	}

	// Visible flags
	cmd.Flags().String("topic", "", "Topic to search for")
	cmd.Flags().Int("duration", 60, "Seconds from the start of the video to transcribe")
	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().Int("clips", 0, "Keep only the N best clips (0 keeps all)")
	cmd.Flags().Bool("subs", false, "Write an ASS subtitle file per clip")
	cmd.Flags().Bool("json", false, "Print result.json to stdout instead of a summary")
	cmd.Flags().Duration("timeout", defaultTimeout, "Overall deadline for the search")
	_ = cmd.MarkFlagRequired("topic")

	// Hidden tuning flags (internal)
	cmd.Flags().Float64("padding", 5, "Seconds of context around each mention")
	cmd.Flags().Int("max", 60, "Max clip duration seconds")
	cmd.Flags().Float64("threshold", 0.6, "Fraction of topic words needed for a contextual mention")
	_ = cmd.Flags().MarkHidden("padding")
	_ = cmd.Flags().MarkHidden("max")
	_ = cmd.Flags().MarkHidden("threshold")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", getenvDefault("ADDR", ":8080"), "Listen address")
	cmd.Flags().Duration("request-timeout", defaultTimeout, "Deadline for one search request")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the find_topic_clips tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which transcription backends are configured",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().Bool("json", false, "Print status as JSON")
	return cmd
}
