package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/library"
	"github.com/jmylchreest/soundux/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI sound board",
	Long: `Launch the interactive terminal user interface for playing sounds.

The TUI provides:
  - Scrollable, searchable list of library sounds
  - Playing pane with progress, pause, seek and repeat
  - Device selection per playback
  - Copy path to clipboard support
  - Live updates when the library changes

Key bindings:
  j/k, ↑/↓    Navigate list
  tab         Switch between sounds and playing
  enter       Play selected sound
  space/p     Pause or resume
  s / S       Stop / stop all
  r           Toggle repeat
  h/l, ←/→    Seek back / ahead
  d           Next output device
  y           Copy path to clipboard
  /           Search (plain text or filter expression)
  R           Rescan library
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	if cfg.Daemon.WatchLibrary {
		w := library.NewWatcher(lib, lib.Extensions(), logger)
		if err := w.Start(ctx); err != nil {
			logger.Warn("library watch unavailable", "error", err)
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	sink := audio.NewChanSink(256)
	m, err := startManager(ctx, sink)
	if err != nil {
		return err
	}
	defer m.Stop()

	return tui.Run(tui.RunOptions{
		Controller: m,
		Library:    lib,
		Events:     sink.Events(),
	})
}
