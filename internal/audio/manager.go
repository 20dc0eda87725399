package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/soundux/internal/config"
	"github.com/jmylchreest/soundux/internal/model"
	"github.com/jmylchreest/soundux/internal/queue"
)

// Manager wires the device registry, finish queue and player together from
// the configuration.
type Manager struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	backend  Backend
	devices  *Registry
	finishes *queue.Queue
	player   *Player
	config   *config.Config
}

// NewManager creates a new playback manager. A nil sink discards
// notifications.
func NewManager(cfg *config.Config, backend Backend, sink Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	devices := NewRegistry(logger)
	finishes := queue.New(cfg.Queue.Size, cfg.Queue.Workers, logger)
	player := NewPlayer(backend, devices, finishes, sink, logger)
	player.SetAllowOverlapping(cfg.Playback.AllowOverlapping)
	player.SetPeriod(cfg.Playback.Period.Duration())

	return &Manager{
		logger:   logger,
		backend:  backend,
		devices:  devices,
		finishes: finishes,
		player:   player,
		config:   cfg,
	}
}

// Start enumerates devices and starts the finish queue. Device enumeration
// failures are logged; playback falls back to the backend default device.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.RLock()
	overrides := m.config.VolumeOverrides()
	m.mu.RUnlock()

	if err := m.devices.Init(m.backend, overrides); err != nil {
		m.logger.Warn("continuing without device list", "error", err)
	}

	m.finishes.Start(ctx)

	m.logger.Info("playback manager started", "devices", m.devices.Len())
	return nil
}

// Stop stops every sound, drains the finish queue and closes the backend.
func (m *Manager) Stop() {
	m.player.StopAll()
	m.finishes.Stop()
	if err := m.backend.Close(); err != nil {
		m.logger.Warn("failed to close audio backend", "error", err)
	}
	m.logger.Debug("playback manager stopped")
}

// UpdateConfig applies a reloaded configuration. Playing sounds keep their
// streams; new volumes apply on their next callback.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.devices.ApplyOverrides(cfg.VolumeOverrides())
	m.player.SetAllowOverlapping(cfg.Playback.AllowOverlapping)
	m.player.SetPeriod(cfg.Playback.Period.Duration())

	m.logger.Debug("playback manager config updated")
}

// Config returns the active configuration.
func (m *Manager) Config() *config.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SaveConfig writes the active configuration, including volumes changed
// with SetVolume, to path.
func (m *Manager) SaveConfig(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Save(path)
}

// Play plays sound on the named device, or on the default device when
// deviceName is empty.
func (m *Manager) Play(sound model.Sound, deviceName string) (model.PlayingSound, error) {
	if deviceName == "" {
		return m.player.Play(sound, nil)
	}

	device, ok := m.devices.Resolve(deviceName)
	if !ok {
		return model.PlayingSound{}, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceName)
	}
	return m.player.Play(sound, &device)
}

// SetVolume changes the volume of a device and records it in the
// configuration. The caller decides whether to save the configuration.
func (m *Manager) SetVolume(deviceName string, volume float64) (model.AudioDevice, error) {
	device, ok := m.devices.Resolve(deviceName)
	if !ok {
		return model.AudioDevice{}, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceName)
	}

	if err := m.devices.SetVolume(device.Name, volume); err != nil {
		return model.AudioDevice{}, err
	}

	m.mu.Lock()
	m.config.SetDeviceVolume(device.Name, model.ClampVolume(volume))
	m.mu.Unlock()

	device, _ = m.devices.Lookup(device.Name)
	m.logger.Info("device volume changed", "device", device.Name, "volume", device.Volume)
	return device, nil
}

// StopSound stops the sound with the given id.
func (m *Manager) StopSound(id uint32) error { return m.player.Stop(id) }

// StopAll stops every sound.
func (m *Manager) StopAll() { m.player.StopAll() }

// Pause pauses the sound with the given id.
func (m *Manager) Pause(id uint32) (model.PlayingSound, error) { return m.player.Pause(id) }

// Resume resumes the sound with the given id.
func (m *Manager) Resume(id uint32) (model.PlayingSound, error) { return m.player.Resume(id) }

// Seek moves the sound with the given id to positionMs.
func (m *Manager) Seek(id uint32, positionMs uint64) (model.PlayingSound, error) {
	return m.player.Seek(id, positionMs)
}

// SetRepeat toggles looping of the sound with the given id.
func (m *Manager) SetRepeat(id uint32, repeat bool) (model.PlayingSound, error) {
	return m.player.SetRepeat(id, repeat)
}

// PlayingSounds returns the active sounds.
func (m *Manager) PlayingSounds() []model.PlayingSound { return m.player.PlayingSounds() }

// Devices returns the known playback devices.
func (m *Manager) Devices() []model.AudioDevice { return m.devices.Devices() }

// Player returns the underlying player.
func (m *Manager) Player() *Player { return m.player }

// Registry returns the device registry.
func (m *Manager) Registry() *Registry { return m.devices }
