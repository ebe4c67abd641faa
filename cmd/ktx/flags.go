package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxkit/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Sources:     cli.EnvVars(envConfig),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func compressFlag(dst *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "zstd",
		Usage:       "write a zstd-compressed container",
		Destination: dst,
	}
}

// setup loads the config file and installs the logger for every command.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	applyLoggingConfig(cmd, cfg)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 2)
	}
	if debug {
		level = slog.LevelDebug
	}
	log, err := logger.NewFromFormat(logFormat, os.Stderr, level)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 2)
	}

	ctx = withConfig(ctx, cfg)
	return logger.WithContext(ctx, log), nil
}
