// Package config loads run defaults from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

const Prefix = "CHAOS_"

// Defaults are the values command-line flags fall back to.
type Defaults struct {
	Provider            string        `env:"PROVIDER"              envDefault:"google"`
	Model               string        `env:"MODEL"`
	MaxRetries          int           `env:"MAX_RETRIES"           envDefault:"3"`
	PaceMin             time.Duration `env:"PACE_MIN"              envDefault:"500ms"`
	PaceMax             time.Duration `env:"PACE_MAX"              envDefault:"1500ms"`
	CheckpointDir       string        `env:"CHECKPOINT_DIR"        envDefault:"."`
	CheckpointEveryStep bool          `env:"CHECKPOINT_EVERY_STEP" envDefault:"true"`
	Proxy               string        `env:"PROXY"`
	RequestsPerMinute   int           `env:"RPM"                   envDefault:"0"`
}

// FromEnv parses CHAOS_* variables from the process environment.
func FromEnv() (Defaults, error) {
	return env.ParseAsWithOptions[Defaults](env.Options{Prefix: Prefix})
}

// FromMap parses the same variables from vars, keyed with the CHAOS_ prefix.
func FromMap(vars map[string]string) (Defaults, error) {
	return env.ParseAsWithOptions[Defaults](env.Options{Prefix: Prefix, Environment: vars})
}
