package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/config"
	"github.com/jmylchreest/soundux/internal/library"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		dirs       []string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "soundux",
	Short: "Sound board for the Linux desktop",
	Long: `soundux plays sound clips, several at once and on different output
devices, with pause, resume, seek and repeat controls.

Sounds are found in the library directories from the config file
(~/.config/soundux/config.toml) or given with --dir. Commands under "ctl"
drive a running sounduxd over D-Bus instead of playing locally.

Running soundux without a subcommand launches the interactive TUI.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if len(globalOpts.dirs) > 0 {
			cfg.Library.Dirs = globalOpts.dirs
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/soundux/config.toml)")
	rootCmd.PersistentFlags().StringSliceVar(&globalOpts.dirs, "dir", nil,
		"Sound directory, replaces the configured library dirs (repeatable)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// openLibrary scans the configured library directories.
func openLibrary() (*library.Library, error) {
	lib := library.New(cfg.LibraryDirs(), cfg.Library.Extensions, logger)
	if err := lib.Rescan(); err != nil {
		return nil, fmt.Errorf("failed to scan sound library: %w", err)
	}
	logger.Debug("sound library loaded", "sounds", lib.Count())
	return lib, nil
}

// startManager opens the audio backend and starts a playback manager that
// reports to sink. The caller stops it.
func startManager(ctx context.Context, sink audio.Sink) (*audio.Manager, error) {
	backend, err := audio.NewMalgoBackend(logger)
	if err != nil {
		return nil, err
	}

	m := audio.NewManager(cfg, backend, sink, logger)
	if err := m.Start(ctx); err != nil {
		m.Stop()
		return nil, err
	}
	return m, nil
}
