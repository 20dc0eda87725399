package audio

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jmylchreest/soundux/internal/model"
)

// Registry tracks the playback devices and their volumes.
// Volume is read on every render callback, so readers only take the read lock.
type Registry struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	devices map[string]*model.AudioDevice
	def     string
}

// NewRegistry creates an empty device registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:  logger,
		devices: make(map[string]*model.AudioDevice),
	}
}

// Init enumerates the playback devices and applies volume overrides.
// On enumeration failure the registry is left empty; the error is logged and
// returned so callers can report it, but playback on the default device
// remains possible.
func (r *Registry) Init(lister DeviceLister, overrides map[string]float64) error {
	infos, err := lister.Devices()
	if err != nil {
		r.logger.Error("failed to enumerate playback devices", "error", err)

		r.mu.Lock()
		r.devices = make(map[string]*model.AudioDevice)
		r.def = ""
		r.mu.Unlock()

		return fmt.Errorf("%w: %w", ErrDeviceEnumeration, err)
	}

	devices := make(map[string]*model.AudioDevice, len(infos))
	def := ""
	for _, info := range infos {
		devices[info.Name] = &model.AudioDevice{
			Name:      info.Name,
			IsDefault: info.IsDefault,
			Volume:    model.DefaultVolume,
		}
		if info.IsDefault && def == "" {
			def = info.Name
		}
	}

	r.mu.Lock()
	r.devices = devices
	r.def = def
	r.mu.Unlock()

	r.ApplyOverrides(overrides)

	r.logger.Info("playback devices enumerated", "count", len(devices), "default", def)
	return nil
}

// ApplyOverrides sets the volume of every known device named in overrides.
// Unknown names are ignored.
func (r *Registry) ApplyOverrides(overrides map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, volume := range overrides {
		d, ok := r.devices[name]
		if !ok {
			r.logger.Debug("volume override for unknown device", "device", name)
			continue
		}
		d.Volume = model.ClampVolume(volume)
	}
}

// Volume returns the volume of the named device, or the default volume when
// the device is unknown.
func (r *Registry) Volume(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.devices[name]; ok {
		return d.Volume
	}
	return model.DefaultVolume
}

// SetVolume changes the volume of a known device. Playing sounds pick it up on
// their next callback.
func (r *Registry) SetVolume(name string, volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, name)
	}
	d.Volume = model.ClampVolume(volume)
	return nil
}

// Default returns the OS default device.
func (r *Registry) Default() (model.AudioDevice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[r.def]
	if !ok {
		return model.AudioDevice{}, false
	}
	return *d, true
}

// Lookup returns the device with the given name.
func (r *Registry) Lookup(name string) (model.AudioDevice, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[name]
	if !ok {
		return model.AudioDevice{}, false
	}
	return *d, true
}

// Devices returns all devices sorted by name.
func (r *Registry) Devices() []model.AudioDevice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.AudioDevice, 0, len(r.devices))
	for _, name := range slices.Sorted(maps.Keys(r.devices)) {
		result = append(result, *r.devices[name])
	}
	return result
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Resolve finds a device by exact name, falling back to a case-insensitive
// match.
func (r *Registry) Resolve(name string) (model.AudioDevice, bool) {
	if d, ok := r.Lookup(name); ok {
		return d, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if strings.EqualFold(d.Name, name) {
			return *d, true
		}
	}
	return model.AudioDevice{}, false
}
