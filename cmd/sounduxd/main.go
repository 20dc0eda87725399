// Package main is the entry point for the sounduxd playback daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/config"
	"github.com/jmylchreest/soundux/internal/daemon"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/soundux/config.toml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	noPersist := flag.Bool("no-persist-volume", false, "Do not write volume changes back to the config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("sounduxd version", version)
		os.Exit(0)
	}

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, !*noPersist, logger); err != nil {
		logger.Error("sounduxd failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, persistVolume bool, logger *slog.Logger) error {
	logger.Info("starting sounduxd", "version", version)

	if configPath == "" {
		configPath = config.ConfigPath()
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	backend, err := audio.NewMalgoBackend(logger)
	if err != nil {
		return fmt.Errorf("failed to open audio backend: %w", err)
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := daemon.New(cfg, configPath, backend, logger)
	d.SetPersistVolume(persistVolume)

	if err := d.Run(ctx); err != nil {
		return err
	}

	logger.Info("sounduxd stopped")
	return nil
}
