package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundux/internal/adapter/output"
	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/dbus"
	"github.com/jmylchreest/soundux/internal/model"
)

const ctlTimeout = 10 * time.Second

var ctlOpts struct {
	format   string
	device   string
	progress bool
}

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running sounduxd over D-Bus",
	Long: `Send commands to the sounduxd daemon on the session bus.

Playing sounds are addressed by the numeric id printed by "play" and
"list".

Examples:
  # Play a sound on the daemon and remember its id
  soundux ctl play bell

  # Pause, seek to 1m30s and resume it
  soundux ctl pause 3
  soundux ctl seek 3 1:30
  soundux ctl resume 3

  # Stop everything the daemon is playing
  soundux ctl list -f ids | xargs -n1 soundux ctl stop

  # Set a device volume to 40%
  soundux ctl volume Speakers 40`,
}

var ctlListCmd = &cobra.Command{
	Use:   "list",
	Short: "List playing sounds",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		playing, err := c.PlayingSounds(ctx)
		if err != nil {
			return err
		}
		return createFormatter(ctlOpts.format).Playing(os.Stdout, playing)
	}),
}

var ctlSoundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "List the daemon's sound library",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		sounds, err := c.Sounds(ctx)
		if err != nil {
			return err
		}
		return createFormatter(ctlOpts.format).Sounds(os.Stdout, sounds)
	}),
}

var ctlDevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the daemon's playback devices",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		devices, err := c.Devices(ctx)
		if err != nil {
			return err
		}
		return createFormatter(ctlOpts.format).Devices(os.Stdout, devices)
	}),
}

var ctlPlayCmd = &cobra.Command{
	Use:   "play <ref>",
	Short: "Play a sound on the daemon",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		p, err := c.Play(ctx, output.ParseIndex(args[0], ""), ctlOpts.device)
		if err != nil {
			return err
		}
		return printPlaying(p)
	}),
}

var ctlStopCmd = &cobra.Command{
	Use:   "stop <id>...",
	Short: "Stop playing sounds",
	Args:  cobra.MinimumNArgs(1),
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			if err := c.Stop(ctx, id); err != nil {
				return fmt.Errorf("stop %d: %w", id, err)
			}
		}
		return nil
	}),
}

var ctlStopAllCmd = &cobra.Command{
	Use:   "stop-all",
	Short: "Stop every playing sound",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		return c.StopAll(ctx)
	}),
}

var ctlPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause a playing sound",
	Args:  cobra.ExactArgs(1),
	RunE:  withID((*dbus.Client).Pause),
}

var ctlResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused sound",
	Args:  cobra.ExactArgs(1),
	RunE:  withID((*dbus.Client).Resume),
}

var ctlSeekCmd = &cobra.Command{
	Use:   "seek <id> <position>",
	Short: "Seek a playing sound",
	Long: `Seek a playing sound. The position is milliseconds, a Go duration
("1m30s") or minutes:seconds ("1:30").`,
	Args: cobra.ExactArgs(2),
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ms, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		p, err := c.Seek(ctx, id, ms)
		if err != nil {
			return err
		}
		return printPlaying(p)
	}),
}

var ctlRepeatCmd = &cobra.Command{
	Use:   "repeat <id> <on|off>",
	Short: "Toggle repeat for a playing sound",
	Args:  cobra.ExactArgs(2),
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		repeat, err := parseSwitch(args[1])
		if err != nil {
			return err
		}
		p, err := c.SetRepeat(ctx, id, repeat)
		if err != nil {
			return err
		}
		return printPlaying(p)
	}),
}

var ctlVolumeCmd = &cobra.Command{
	Use:   "volume <device> <percent>",
	Short: "Set a device volume (0-100)",
	Args:  cobra.ExactArgs(2),
	RunE: withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		volume, err := parsePercent(args[1])
		if err != nil {
			return err
		}
		d, err := c.SetVolume(ctx, args[0], volume)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", d.Name, output.FormatVolume(d.Volume))
		return nil
	}),
}

var ctlWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print playback events as JSON lines",
	Long: `Subscribe to the daemon's playback signals and print one JSON object
per event until interrupted. Progress events are skipped unless --progress
is given.`,
	Args: cobra.NoArgs,
	RunE: runCtlWatch,
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.AddCommand(ctlListCmd, ctlSoundsCmd, ctlDevicesCmd, ctlPlayCmd, ctlStopCmd,
		ctlStopAllCmd, ctlPauseCmd, ctlResumeCmd, ctlSeekCmd, ctlRepeatCmd, ctlVolumeCmd,
		ctlWatchCmd)

	ctlCmd.PersistentFlags().StringVarP(&ctlOpts.format, "format", "f", "plain",
		"Output format (dmenu, json, yaml, plain, ids)")
	ctlPlayCmd.Flags().StringVarP(&ctlOpts.device, "device", "d", "",
		"Playback device name (default device if empty)")
	ctlWatchCmd.Flags().BoolVar(&ctlOpts.progress, "progress", false,
		"Include progress events")
}

// withClient connects to the daemon for the duration of one command.
func withClient(fn func(ctx context.Context, c *dbus.Client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), ctlTimeout)
		defer cancel()

		c, err := dbus.Connect()
		if err != nil {
			return fmt.Errorf("is sounduxd running? %w", err)
		}
		defer func() { _ = c.Close() }()

		return fn(ctx, c, args)
	}
}

func withID(call func(*dbus.Client, context.Context, uint32) (model.PlayingSound, error)) func(*cobra.Command, []string) error {
	return withClient(func(ctx context.Context, c *dbus.Client, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := call(c, ctx, id)
		if err != nil {
			return err
		}
		return printPlaying(p)
	})
}

func runCtlWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := dbus.Connect()
	if err != nil {
		return fmt.Errorf("is sounduxd running? %w", err)
	}
	defer func() { _ = c.Close() }()

	json := output.NewJSONFormatter(output.FormatterOptions{Compact: true})
	err = c.Watch(ctx, func(e audio.Event) {
		if e.Type == audio.EventProgressed && !ctlOpts.progress {
			return
		}
		if err := json.Event(os.Stdout, e.Type.String(), e.Sound); err != nil {
			logger.Warn("failed to write event", "error", err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printPlaying(p model.PlayingSound) error {
	return createFormatter(ctlOpts.format).Playing(os.Stdout, []model.PlayingSound{p})
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid sound id %q", s)
	}
	return uint32(id), nil
}

// parsePosition accepts milliseconds, a Go duration or m:ss.
func parsePosition(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseUint(s, 10, 64); err == nil {
		return ms, nil
	}

	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, errM := strconv.ParseUint(mins, 10, 64)
		sec, errS := strconv.ParseFloat(secs, 64)
		if errM != nil || errS != nil || sec < 0 || sec >= 60 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		return m*60_000 + uint64(sec*1000), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return uint64(d.Milliseconds()), nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

// parsePercent converts "40" or "40%" to a linear volume.
func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil || v < 0 || v > 100 {
		return 0, fmt.Errorf("volume must be between 0 and 100, got %q", s)
	}
	return v / 100, nil
}
