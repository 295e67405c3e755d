package mentions

import (
	"fmt"
	"time"
)

// Config tunes mention scoring and clip synthesis. Zero fields select the
// defaults; a caller that accepts explicit user values must reject zero itself.
type Config struct {
	// ContextualThreshold is the minimum fraction of topic tokens that must
	// appear across a segment and its neighbours for a CONTEXTUAL mention.
	ContextualThreshold float64
	// ContextualWeight scales CONTEXTUAL confidence.
	ContextualWeight float64

	Padding time.Duration
	MaxClip time.Duration
	// OverlapTolerance bounds the overlap between clips of one run. Coalescing
	// leaves clips disjoint, so any non-negative value holds.
	OverlapTolerance time.Duration
}

func DefaultConfig() Config {
	return Config{
		ContextualThreshold: 0.6,
		ContextualWeight:    0.5,
		Padding:             5 * time.Second,
		MaxClip:             60 * time.Second,
	}
}

// WithDefaults fills zero fields. OverlapTolerance keeps its zero value.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ContextualThreshold <= 0 {
		c.ContextualThreshold = d.ContextualThreshold
	}
	if c.ContextualWeight <= 0 {
		c.ContextualWeight = d.ContextualWeight
	}
	if c.Padding <= 0 {
		c.Padding = d.Padding
	}
	if c.MaxClip <= 0 {
		c.MaxClip = d.MaxClip
	}
	if c.OverlapTolerance < 0 {
		c.OverlapTolerance = 0
	}
	return c
}

func (c Config) Validate() error {
	if c.ContextualThreshold < 0 || c.ContextualThreshold > 1 {
		return fmt.Errorf("contextual threshold must be within [0,1]")
	}
	if c.ContextualWeight < 0 || c.ContextualWeight > 1 {
		return fmt.Errorf("contextual weight must be within [0,1]")
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must be >= 0")
	}
	if c.MaxClip < 0 {
		return fmt.Errorf("max clip must be >= 0")
	}
	if c.MaxClip > 0 && c.OverlapTolerance >= c.MaxClip {
		return fmt.Errorf("overlap tolerance must be < max clip")
	}
	return nil
}
