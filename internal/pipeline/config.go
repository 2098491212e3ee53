package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GT-610/chaos-translator/internal/chain"
	"github.com/GT-610/chaos-translator/internal/provider"
	"github.com/GT-610/chaos-translator/internal/translator"
)

const (
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
)

// Config holds all configuration required for running a translation chain.
type Config struct {
	// IO Paths
	InputPath  string
	OutputPath string // Optional: final text is also written here
	LogPath    string

	// Checkpointing
	ResumePath          string
	CheckpointDir       string
	CheckpointEveryStep bool

	// Provider
	Provider string
	APIKey   string
	Model    string
	Proxy    string

	// Chain parameters
	SourceLang string
	Iterations int
	MaxRetries int
	PaceMin    time.Duration
	PaceMax    time.Duration
	Seed       int64 // 0 picks a time-based seed

	// RequestsPerMinute throttles provider calls; 0 disables throttling.
	RequestsPerMinute int

	Overwrite bool

	// Callbacks
	OnStep    func(chain.StepEvent)
	OnAttempt func(translator.Progress)

	// OnConfirmOverwrite is called when the output file exists.
	// It should return true if the file should be overwritten.
	OnConfirmOverwrite func(path string) bool

	// Factory overrides provider selection.
	Factory provider.Factory
	// Sleep overrides the pause between iterations.
	Sleep func(ctx context.Context, d time.Duration) error
	// BaseDelay overrides the first retry delay; zero keeps the default.
	BaseDelay time.Duration
}

const (
	MinRetries = 1
	MaxRetries = 10
)

func ClampRetries(value int) (int, bool) {
	if value < MinRetries {
		return MinRetries, true
	}
	if value > MaxRetries {
		return MaxRetries, true
	}
	return value, false
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderGoogle
	}
	c.SourceLang = strings.ToLower(strings.TrimSpace(c.SourceLang))

	if clamped, changed := ClampRetries(c.MaxRetries); changed {
		notes = append(notes, fmt.Sprintf("max-retries clamped from %d to %d (range %d-%d)", c.MaxRetries, clamped, MinRetries, MaxRetries))
		c.MaxRetries = clamped
	}
	if c.PaceMin < 0 {
		notes = append(notes, fmt.Sprintf("pace-min raised from %s to 0s", c.PaceMin))
		c.PaceMin = 0
	}
	if c.PaceMax < 0 {
		notes = append(notes, fmt.Sprintf("pace-max raised from %s to 0s", c.PaceMax))
		c.PaceMax = 0
	}
	if c.RequestsPerMinute < 0 {
		notes = append(notes, fmt.Sprintf("rpm raised from %d to 0 (unlimited)", c.RequestsPerMinute))
		c.RequestsPerMinute = 0
	}
	if c.PaceMax < c.PaceMin {
		notes = append(notes, fmt.Sprintf("pacing range swapped to %s-%s", c.PaceMax, c.PaceMin))
		c.PaceMin, c.PaceMax = c.PaceMax, c.PaceMin
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.SourceLang == "" {
		return fmt.Errorf("source language is required")
	}
	if c.InputPath == "" && c.ResumePath == "" {
		return fmt.Errorf("input file is required unless resuming from a checkpoint")
	}
	if c.MaxRetries < MinRetries {
		return fmt.Errorf("maxRetries must be at least %d, got %d", MinRetries, c.MaxRetries)
	}
	if c.Factory != nil {
		return nil
	}
	switch c.Provider {
	case ProviderGoogle:
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("API key is required for the %s provider", ProviderGemini)
		}
	default:
		return fmt.Errorf("unsupported provider %q (use %s or %s)", c.Provider, ProviderGoogle, ProviderGemini)
	}
	return nil
}
