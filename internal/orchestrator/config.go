package orchestrator

import (
	"fmt"
	"time"
)

type Config struct {
	// DefaultWindow applies when the caller passes a non-positive limit.
	DefaultWindow time.Duration
	// MaxWindow is the hard ceiling on the transcribed window.
	MaxWindow time.Duration

	PollInterval time.Duration
	// PrimaryBudget bounds the time spent in PRIMARY.
	PrimaryBudget time.Duration
	// SafetyMargin is kept free before the caller's context deadline.
	SafetyMargin   time.Duration
	CleanupTimeout time.Duration

	Language    string
	AudioFormat string
}

func DefaultConfig() Config {
	return Config{
		DefaultWindow:  60 * time.Second,
		MaxWindow:      120 * time.Second,
		PollInterval:   5 * time.Second,
		PrimaryBudget:  120 * time.Second,
		SafetyMargin:   10 * time.Second,
		CleanupTimeout: 10 * time.Second,
		Language:       "en-US",
		AudioFormat:    "mp3",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultWindow <= 0 {
		c.DefaultWindow = d.DefaultWindow
	}
	if c.MaxWindow <= 0 {
		c.MaxWindow = d.MaxWindow
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PrimaryBudget <= 0 {
		c.PrimaryBudget = d.PrimaryBudget
	}
	if c.SafetyMargin < 0 {
		c.SafetyMargin = 0
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = d.CleanupTimeout
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.AudioFormat == "" {
		c.AudioFormat = d.AudioFormat
	}
	return c
}

func (c Config) Validate() error {
	c = c.withDefaults()
	if c.DefaultWindow > c.MaxWindow {
		return fmt.Errorf("default window must be <= max window")
	}
	if c.PollInterval >= c.PrimaryBudget {
		return fmt.Errorf("poll interval must be < primary budget")
	}
	switch c.AudioFormat {
	case "mp3", "wav":
	default:
		return fmt.Errorf("audio format %q is not supported", c.AudioFormat)
	}
	return nil
}

// window clamps the requested limit into (0, MaxWindow].
func (c Config) window(limit time.Duration) time.Duration {
	if limit <= 0 {
		limit = c.DefaultWindow
	}
	if limit > c.MaxWindow {
		limit = c.MaxWindow
	}
	return limit
}
