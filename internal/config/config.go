// Package config parses engine configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the scan engine configuration.
type Config struct {
	// ProcRoot is the procfs mount point. Overridable for test fixtures.
	ProcRoot string `env:"SOCKOWNER_PROC_ROOT" envDefault:"/proc"`

	// FDBlockSize is the maximum number of descriptors examined between
	// two rate-limit pauses.
	FDBlockSize int `env:"SOCKOWNER_FD_BLOCK_SIZE" envDefault:"300"`

	// TickInterval is the period of the rate-limit tick source.
	TickInterval time.Duration `env:"SOCKOWNER_TICK_INTERVAL" envDefault:"10ms"`

	// ScanInterval is how often the host harness runs a full scan.
	ScanInterval time.Duration `env:"SOCKOWNER_SCAN_INTERVAL" envDefault:"30s"`

	// ProcessFilter is an optional expression over {pid, name} selecting
	// which processes participate in scans. Empty means all.
	ProcessFilter string `env:"SOCKOWNER_PROCESS_FILTER" envDefault:""`
}

// Parse reads the engine configuration from the environment.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ProcRoot == "" {
		return fmt.Errorf("SOCKOWNER_PROC_ROOT must not be empty")
	}
	if c.FDBlockSize <= 0 {
		return fmt.Errorf("SOCKOWNER_FD_BLOCK_SIZE must be positive, got %d", c.FDBlockSize)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("SOCKOWNER_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("SOCKOWNER_SCAN_INTERVAL must be positive, got %s", c.ScanInterval)
	}
	return nil
}
