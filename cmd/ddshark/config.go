package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

// config holds the parsed and validated CLI surface, kept free of
// *cli.Context so it can be built and validated in tests without going
// through flag parsing.
type config struct {
	File                string
	Interface           string
	RefreshRate         int
	OTLP                bool
	OTLPEndpoint        string
	NoTUI               bool
	FastReplay          bool
	LogLevel            string
	AbnormalityCapacity int
}

func configFromContext(c *cli.Context) config {
	return config{
		File:                c.String("file"),
		Interface:           c.String("interface"),
		RefreshRate:         c.Int("refresh-rate"),
		OTLP:                c.Bool("otlp"),
		OTLPEndpoint:        c.String("otlp-endpoint"),
		NoTUI:               c.Bool("no-tui"),
		FastReplay:          c.Bool("fast-replay"),
		LogLevel:            c.String("log-level"),
		AbnormalityCapacity: c.Int("abnormality-capacity"),
	}
}

// validate enforces the fatal-configuration-error rules from the
// external-interfaces spec: --file and --interface are mutually
// exclusive, and --refresh-rate must be positive.
func (cfg config) validate() error {
	if cfg.File != "" && cfg.Interface != "" {
		return errors.New("--file and --interface cannot be specified simultaneously")
	}
	if cfg.RefreshRate <= 0 {
		return fmt.Errorf("--refresh-rate must be positive, got %d", cfg.RefreshRate)
	}
	if cfg.AbnormalityCapacity <= 0 {
		return fmt.Errorf("--abnormality-capacity must be positive, got %d", cfg.AbnormalityCapacity)
	}
	return nil
}
