package audio

import (
	"errors"
	"time"
)

// Errors returned by the playback core. All are recoverable: a failed
// operation leaves other playing sounds untouched.
var (
	ErrDeviceEnumeration = errors.New("failed to enumerate playback devices")
	ErrDecoderInit       = errors.New("failed to create decoder")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrStreamInit        = errors.New("failed to create playback stream")
	ErrStreamStart       = errors.New("failed to start playback stream")
	ErrNotFound          = errors.New("sound does not exist")
	ErrUnknownDevice     = errors.New("unknown playback device")
)

// StreamID identifies one open hardware output stream. IDs are never reused
// by a backend.
type StreamID uint64

// BytesPerSample is the size of one output sample. Streams always carry
// interleaved 32-bit float samples.
const BytesPerSample = 4

// StreamConfig describes the stream to open.
type StreamConfig struct {
	Device     string // Empty selects the system default device
	SampleRate uint32
	Channels   int
	Period     time.Duration // Zero lets the backend choose
}

// RenderFunc fills out with frames for the stream id. It runs on the audio
// thread and must not block.
type RenderFunc func(id StreamID, out []byte, frames int)

// Stream is one hardware output stream.
type Stream interface {
	ID() StreamID
	// Start begins invoking the render function.
	Start() error
	// Stop halts the stream. It returns once the render function is no
	// longer running.
	Stop() error
	// Close stops and releases the stream. Calling Close more than once is
	// safe.
	Close() error
}

// DeviceInfo describes an enumerated playback device.
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// DeviceLister enumerates playback devices.
type DeviceLister interface {
	Devices() ([]DeviceInfo, error)
}

// Backend is the audio subsystem: it enumerates devices and opens streams.
type Backend interface {
	DeviceLister
	OpenStream(cfg StreamConfig, render RenderFunc) (Stream, error)
	Close() error
}
