package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/topicut/internal/domain/mentions"
	"github.com/forPelevin/topicut/internal/pipeline"
)

func runFind(cmd *cobra.Command, url string) error {
	topic, _ := cmd.Flags().GetString("topic")
	durSec, _ := cmd.Flags().GetInt("duration")
	outDir, _ := cmd.Flags().GetString("out")
	clipsN, _ := cmd.Flags().GetInt("clips")
	subs, _ := cmd.Flags().GetBool("subs")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	padding, _ := cmd.Flags().GetFloat64("padding")
	maxSec, _ := cmd.Flags().GetInt("max")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	switch {
	case durSec < 0:
		return errors.New("config: duration must be >= 0")
	case clipsN < 0:
		return errors.New("config: clips must be >= 0")
	case timeout <= 0:
		return errors.New("config: timeout must be > 0")
	case padding <= 0:
		return errors.New("config: padding must be > 0")
	case maxSec <= 0:
		return errors.New("config: max must be > 0")
	case threshold <= 0 || threshold > 1:
		return errors.New("config: contextual threshold must be within (0,1]")
	}
	engine := mentions.Config{
		ContextualThreshold: threshold,
		Padding:             time.Duration(padding * float64(time.Second)),
		MaxClip:             time.Duration(maxSec) * time.Second,
	}
	if err := engine.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg := configFromEnv(log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rr, err := pipeline.Run(ctx, cfg, pipeline.FindRequest{
		URL:       url,
		Topic:     topic,
		Duration:  time.Duration(durSec) * time.Second,
		MaxClips:  clipsN,
		Subtitles: subs,
		Engine:    engine,
	}, absOut)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rr.Result)
	}
	renderResult(cmd.OutOrStdout(), rr.Result, rr.Dir)
	return nil
}
