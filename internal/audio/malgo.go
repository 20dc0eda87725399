package audio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// MalgoBackend drives playback devices through miniaudio.
type MalgoBackend struct {
	mu     sync.Mutex
	logger *slog.Logger
	ctx    *malgo.AllocatedContext

	// Device IDs by name, refreshed on every enumeration
	ids map[string]malgo.DeviceID

	nextID atomic.Uint64
}

// NewMalgoBackend initializes a miniaudio context.
func NewMalgoBackend(logger *slog.Logger) (*MalgoBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &MalgoBackend{
		logger: logger,
		ctx:    ctx,
		ids:    make(map[string]malgo.DeviceID),
	}, nil
}

// Devices enumerates playback devices.
func (b *MalgoBackend) Devices() ([]DeviceInfo, error) {
	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceEnumeration, err)
	}

	ids := make(map[string]malgo.DeviceID, len(infos))
	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		name := infos[i].Name()
		ids[name] = infos[i].ID
		devices = append(devices, DeviceInfo{
			Name:      name,
			IsDefault: infos[i].IsDefault != 0,
		})
	}

	b.mu.Lock()
	b.ids = ids
	b.mu.Unlock()

	return devices, nil
}

// OpenStream initializes a float32 playback device. The stream is not started.
func (b *MalgoBackend) OpenStream(cfg StreamConfig, render RenderFunc) (Stream, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = cfg.SampleRate
	deviceConfig.Alsa.NoMMap = 1
	if cfg.Period > 0 {
		deviceConfig.PeriodSizeInMilliseconds = uint32(cfg.Period.Milliseconds())
	}

	if cfg.Device != "" {
		b.mu.Lock()
		id, ok := b.ids[cfg.Device]
		b.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, cfg.Device)
		}
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	streamID := StreamID(b.nextID.Add(1))
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, _ []byte, frameCount uint32) {
			render(streamID, pOutputSample, int(frameCount))
		},
	}

	device, err := malgo.InitDevice(b.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device %q: %w", cfg.Device, err)
	}

	b.logger.Debug("stream opened",
		"stream", streamID,
		"device", cfg.Device,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
	)

	return &malgoStream{id: streamID, device: device}, nil
}

// Close releases the miniaudio context.
func (b *MalgoBackend) Close() error {
	if err := b.ctx.Uninit(); err != nil {
		b.logger.Warn("audio context uninit error", "error", err)
	}
	b.ctx.Free()
	return nil
}

// malgoStream is one miniaudio playback device.
type malgoStream struct {
	id     StreamID
	device *malgo.Device
	once   sync.Once
}

func (s *malgoStream) ID() StreamID { return s.id }

func (s *malgoStream) Start() error {
	return s.device.Start()
}

// Stop blocks until miniaudio has halted the device.
func (s *malgoStream) Stop() error {
	return s.device.Stop()
}

func (s *malgoStream) Close() error {
	s.once.Do(s.device.Uninit)
	return nil
}
