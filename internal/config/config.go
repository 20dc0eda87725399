// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultPeriod       = 20 * time.Millisecond
	DefaultQueueSize    = 64
	DefaultQueueWorkers = 1
	DefaultDeviceVolume = 100
)

// DefaultExtensions lists the audio file extensions the decoders understand.
var DefaultExtensions = []string{".wav", ".mp3", ".ogg", ".flac"}

// Config represents the soundux configuration.
type Config struct {
	Playback PlaybackConfig  `toml:"playback"`
	Queue    QueueConfig     `toml:"queue"`
	Library  LibraryConfig   `toml:"library"`
	Daemon   DaemonConfig    `toml:"daemon"`
	Devices  []DeviceSetting `toml:"devices"`
}

// PlaybackConfig holds playback behaviour.
type PlaybackConfig struct {
	AllowOverlapping bool     `toml:"allow_overlapping"` // false = new sounds stop playing ones
	Period           Duration `toml:"period"`            // Hardware buffer period, e.g. "20ms"
}

// QueueConfig sizes the finish queue.
type QueueConfig struct {
	Size    int `toml:"size"`
	Workers int `toml:"workers"`
}

// LibraryConfig lists where sounds are found.
type LibraryConfig struct {
	Dirs       []string `toml:"dirs"`
	Extensions []string `toml:"extensions"`
}

// DeviceSetting is a persisted per-device volume override.
type DeviceSetting struct {
	Name   string `toml:"name"`
	Volume int    `toml:"volume"` // 0-100
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			AllowOverlapping: true,
			Period:           Duration(DefaultPeriod),
		},
		Queue: QueueConfig{
			Size:    DefaultQueueSize,
			Workers: DefaultQueueWorkers,
		},
		Library: LibraryConfig{
			Dirs:       []string{},
			Extensions: slices.Clone(DefaultExtensions),
		},
		Daemon:  DefaultDaemonConfig(),
		Devices: []DeviceSetting{},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "soundux", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed and replaces the file atomically.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Playback.Period.Duration() < 0 {
		return fmt.Errorf("period must not be negative, got %s", c.Playback.Period.Duration())
	}

	if c.Queue.Size < 1 || c.Queue.Size > 4096 {
		return fmt.Errorf("queue size must be between 1 and 4096, got %d", c.Queue.Size)
	}
	if c.Queue.Workers < 1 || c.Queue.Workers > 16 {
		return fmt.Errorf("queue workers must be between 1 and 16, got %d", c.Queue.Workers)
	}

	seen := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if d.Name == "" {
			return errors.New("device name cannot be empty")
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate device %q", d.Name)
		}
		seen[d.Name] = true

		if d.Volume < 0 || d.Volume > 100 {
			return fmt.Errorf("volume for device %q must be between 0 and 100, got %d", d.Name, d.Volume)
		}
	}

	for _, ext := range c.Library.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}

	return c.Daemon.Validate()
}

// VolumeOverrides returns the per-device volumes as linear gains (0.0 to 1.0).
func (c *Config) VolumeOverrides() map[string]float64 {
	overrides := make(map[string]float64, len(c.Devices))
	for _, d := range c.Devices {
		overrides[d.Name] = float64(d.Volume) / 100.0
	}
	return overrides
}

// SetDeviceVolume records a volume override (0.0 to 1.0) for a device,
// replacing any existing entry.
func (c *Config) SetDeviceVolume(name string, volume float64) {
	v := int(volume*100 + 0.5)
	v = max(0, min(v, 100))

	for i := range c.Devices {
		if c.Devices[i].Name == name {
			c.Devices[i].Volume = v
			return
		}
	}
	c.Devices = append(c.Devices, DeviceSetting{Name: name, Volume: v})
}

// LibraryDirs returns the library directories with ~ expanded.
func (c *Config) LibraryDirs() []string {
	dirs := make([]string, 0, len(c.Library.Dirs))
	for _, d := range c.Library.Dirs {
		dirs = append(dirs, ExpandPath(d))
	}
	return dirs
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
