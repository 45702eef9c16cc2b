// Package config loads typed configuration structs from environment
// variables, optionally seeded from .env files.
//
// Each subsystem declares its own Config struct with `env` tags
// (github.com/caarlos0/env) and calls Load at startup. LoadEnv reads one or
// more .env files (github.com/joho/godotenv) without overriding variables
// already present in the environment, so deployment-level settings always win.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrFailedToLoadEnvFile = errors.New("config: failed to load env file")

// LoadEnv reads the given .env files into the process environment.
// Files listed later take precedence over earlier ones, but variables already
// set in the environment are never overridden.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return errors.Join(ErrFailedToLoadEnvFile, err)
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrFailedToLoadEnvFile, err)
	}
	return nil
}

// Load populates cfg from environment variables according to its `env` tags.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to parse environment: %w", err)
	}
	return nil
}

// MustLoad is like Load but panics on failure. Intended for startup paths
// where a missing required variable should prevent the service from booting.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
