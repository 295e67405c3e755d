// Package mcpserver exposes topic search as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/forPelevin/topicut/internal/types"
	"github.com/forPelevin/topicut/internal/usecase"
)

const ToolFindTopicClips = "find_topic_clips"

type Searcher interface {
	Run(ctx context.Context, in usecase.Input) (usecase.Output, error)
}

// New registers the topic search tool on a fresh MCP server.
func New(s Searcher, version string) *server.MCPServer {
	srv := server.NewMCPServer("topicut", version, server.WithToolCapabilities(false))
	srv.AddTool(findTool(), findHandler(s))
	return srv
}

// ServeStdio blocks until stdin closes.
func ServeStdio(s Searcher, version string) error {
	return server.ServeStdio(New(s, version))
}

func findTool() mcp.Tool {
	return mcp.NewTool(ToolFindTopicClips,
		mcp.WithDescription("Transcribe the start of a YouTube video and return where a topic is mentioned, with suggested clip windows."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("YouTube URL or 11-character video id"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic to search for"),
		),
		mcp.WithNumber("duration_seconds",
			mcp.Description("Seconds from the start to transcribe; clamped to the service ceiling"),
			mcp.Min(0),
		),
		mcp.WithNumber("max_clips",
			mcp.Description("Keep only the best scoring clips; 0 keeps all"),
			mcp.Min(0),
		),
	)
}

type toolResult struct {
	Video    types.VideoInfo `json:"video"`
	Topic    string          `json:"topic"`
	Summary  types.Summary   `json:"summary"`
	Mentions []types.Mention `json:"mentions"`
	Clips    []types.Clip    `json:"clips"`
}

func findHandler(s Searcher) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		topic, err := req.RequireString("topic")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dur := req.GetFloat("duration_seconds", 0)
		if dur < 0 {
			return mcp.NewToolResultError("duration_seconds must be >= 0"), nil
		}

		out, err := s.Run(ctx, usecase.Input{
			URL:      url,
			Topic:    topic,
			Duration: time.Duration(dur * float64(time.Second)),
			MaxClips: req.GetInt("max_clips", 0),
		})
		if errors.Is(err, types.ErrInvalidInput) || errors.Is(err, types.ErrNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err != nil {
			return nil, err
		}

		res := out.Result
		b, err := json.MarshalIndent(toolResult{
			Video:    res.Video,
			Topic:    res.Topic,
			Summary:  res.Summary,
			Mentions: res.Mentions,
			Clips:    res.Clips,
		}, "", "  ")
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}
