package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundux/internal/adapter/output"
	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/core"
	"github.com/jmylchreest/soundux/internal/model"
)

var playOpts struct {
	device string
	repeat bool
	format string
	quiet  bool
}

var playCmd = &cobra.Command{
	Use:   "play <ref>...",
	Short: "Play sounds and wait for them to finish",
	Long: `Play one or more sounds on this process' own audio streams and block
until they finish. Ctrl-C stops playback.

References are resolved like "soundux sounds <ref>": 1-based index, ID, ID
prefix, name, path or a dmenu picker line.

Examples:
  # Play a sound by name on the default device
  soundux play bell

  # Loop a sound on a specific device until interrupted
  soundux play --repeat --device "USB Audio" rain

  # Emit playback events as JSON lines
  soundux play --format json chime`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playOpts.device, "device", "d", "",
		"Playback device name (default device if empty)")
	playCmd.Flags().BoolVarP(&playOpts.repeat, "repeat", "r", false,
		"Loop the sounds until interrupted")
	playCmd.Flags().StringVarP(&playOpts.format, "format", "f", "plain",
		"Progress output format (plain, json)")
	playCmd.Flags().BoolVarP(&playOpts.quiet, "quiet", "q", false,
		"Do not print progress")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	sounds := lib.All()
	core.Sort(sounds, core.DefaultSortOptions())

	queue := make([]model.Sound, 0, len(args))
	for _, arg := range args {
		s, err := core.Resolve(sounds, output.ParseIndex(arg, ""))
		if err != nil {
			return err
		}
		queue = append(queue, *s)
	}

	sink := audio.NewChanSink(64)
	m, err := startManager(ctx, sink)
	if err != nil {
		return err
	}
	defer m.Stop()

	pending := make(map[uint32]bool, len(queue))
	for _, s := range queue {
		p, err := m.Play(s, playOpts.device)
		if err != nil {
			return fmt.Errorf("failed to play %s: %w", s.Name, err)
		}
		if playOpts.repeat {
			if p, err = m.SetRepeat(p.ID, true); err != nil {
				return err
			}
		}
		pending[p.ID] = true
	}

	// With overlapping disabled each Play stops the previous sound silently.
	live := make(map[uint32]bool, len(pending))
	for _, p := range m.PlayingSounds() {
		live[p.ID] = true
	}
	for id := range pending {
		if !live[id] {
			delete(pending, id)
		}
	}

	return waitForPlayback(ctx, m, sink.Events(), pending)
}

// waitForPlayback prints events until every pending sound has finished or
// the context is cancelled.
func waitForPlayback(ctx context.Context, m *audio.Manager, events <-chan audio.Event, pending map[uint32]bool) error {
	json := output.NewJSONFormatter(output.FormatterOptions{Compact: true})

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			m.StopAll()
			if !playOpts.quiet && playOpts.format != "json" {
				fmt.Fprintln(os.Stderr)
			}
			return nil
		case e := <-events:
			if !pending[e.Sound.ID] {
				continue
			}
			if e.Type == audio.EventFinished {
				delete(pending, e.Sound.ID)
			}

			if playOpts.quiet {
				continue
			}
			if playOpts.format == "json" {
				if err := json.Event(os.Stdout, e.Type.String(), e.Sound); err != nil {
					return err
				}
				continue
			}
			printProgress(e)
		}
	}
	return nil
}

// printProgress rewrites a single status line on stderr.
func printProgress(e audio.Event) {
	switch e.Type {
	case audio.EventFinished:
		fmt.Fprintf(os.Stderr, "\r\033[K%s finished\n", e.Sound.Sound.Name)
	default:
		fmt.Fprintf(os.Stderr, "\r\033[K%s", output.FormatPlaying(e.Sound))
	}
}
