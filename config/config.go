package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig wraps every validation failure from Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Port prefers PORT (Render, Fly.io, Railway, etc.) then CRASH_PORT.
	Port      int    `env:"PORT"`
	CrashPort int    `env:"CRASH_PORT" envDefault:"8081"`
	DataDir   string `env:"CRASH_DATA_DIR" envDefault:"data"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	GrowthRate    float64       `env:"CRASH_GROWTH_RATE" envDefault:"0.8"`
	MinTarget     float64       `env:"CRASH_MIN_TARGET" envDefault:"1.01"`
	Epsilon       float64       `env:"CRASH_EPSILON" envDefault:"0.001"`
	HistoryLength int           `env:"CRASH_HISTORY_LENGTH" envDefault:"5"`
	FrameInterval time.Duration `env:"CRASH_FRAME_INTERVAL" envDefault:"16ms"`

	// Wallet enables local balance bookkeeping seeded with InitialBalance.
	Wallet         bool   `env:"CRASH_WALLET" envDefault:"true"`
	InitialBalance string `env:"CRASH_INITIAL_BALANCE" envDefault:"1000"`
	// RecordResults appends settled rounds to DataDir/round_results.json.
	RecordResults bool `env:"CRASH_RECORD_RESULTS" envDefault:"true"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 {
		cfg.Port = cfg.CrashPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	case !(c.GrowthRate > 0):
		return fmt.Errorf("%w: growth rate must be > 0, got %v", ErrInvalidConfig, c.GrowthRate)
	case !(c.MinTarget >= 1):
		return fmt.Errorf("%w: min target must be >= 1, got %v", ErrInvalidConfig, c.MinTarget)
	case !(c.Epsilon > 0):
		return fmt.Errorf("%w: epsilon must be > 0, got %v", ErrInvalidConfig, c.Epsilon)
	case c.HistoryLength <= 0:
		return fmt.Errorf("%w: history length must be > 0, got %d", ErrInvalidConfig, c.HistoryLength)
	case c.FrameInterval <= 0:
		return fmt.Errorf("%w: frame interval must be > 0, got %s", ErrInvalidConfig, c.FrameInterval)
	}
	return nil
}
