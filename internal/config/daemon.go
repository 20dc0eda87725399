package config

import (
	"fmt"
	"strconv"
	"time"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "20ms", "1s", "1m30s", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '20ms', '1s', '1m30s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() int {
	return int(time.Duration(d).Milliseconds())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig contains sounduxd settings.
type DaemonConfig struct {
	ProgressSignals bool     `toml:"progress_signals"` // Emit SoundProgressed over D-Bus
	WatchLibrary    bool     `toml:"watch_library"`    // Rescan library dirs on change
	WatchConfig     bool     `toml:"watch_config"`     // Hot-reload this file
	PollInterval    Duration `toml:"poll_interval"`    // Config file poll interval
}

// DefaultDaemonConfig returns a DaemonConfig with default values.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		ProgressSignals: true,
		WatchLibrary:    true,
		WatchConfig:     true,
		PollInterval:    Duration(time.Second),
	}
}

// Validate checks the daemon section.
func (d DaemonConfig) Validate() error {
	if d.WatchConfig && d.PollInterval.Duration() < 100*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 100ms, got %s", d.PollInterval.Duration())
	}
	return nil
}
