package main

import (
	"fmt"

	"github.com/diister/mongodbee/internal/config"
	"github.com/diister/mongodbee/internal/engine"
)

// loadConfig resolves the configuration record for the current invocation.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath, envName)
	}
	return config.Load(envName)
}

// openEngine loads configuration and dials the database in one step, the
// bootstrap every subcommand except generate performs first.
func openEngine() (*engine.Engine, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	e, err := engine.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}
