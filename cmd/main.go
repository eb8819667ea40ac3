package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ztx/internal/shared"
	"github.com/urfave/cli/v3"
)

// EnvConfigPath overrides the default config.toml location.
const EnvConfigPath = "ZTX_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath, explicit := os.LookupEnv(EnvConfigPath)
	if configPath == "" {
		configPath, explicit = "config.toml", false
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("invalid configuration %s: %v", configPath, err)
		}
		config = loaded
	} else if explicit {
		logger.Fatalf("%v: %s", shared.ErrMissingConfig, configPath)
	}
	shared.SetLogLevel(logger, config.LogLevel())

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "ztx",
		Usage:    "Manage projects and tasks from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrSessionExpired), errors.Is(err, shared.ErrNotAuthenticated):
		logger.Error("not signed in, run `ztx auth login`", "error", err)
		os.Exit(1)
	default:
		logger.Fatalf("application error: %v", err)
	}
}
