package dbus

import (
	"errors"
	"io/fs"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/core"
	"github.com/jmylchreest/soundux/internal/model"
)

const (
	// Interface is the control interface name.
	Interface = "io.github.jmylchreest.Soundux"
	// Path is the control object path.
	Path dbus.ObjectPath = "/io/github/jmylchreest/Soundux"
	// BusName is the bus name claimed by sounduxd.
	BusName = "io.github.jmylchreest.Soundux"
)

// Signal names.
const (
	SignalSoundPlayed     = "SoundPlayed"
	SignalSoundProgressed = "SoundProgressed"
	SignalSoundFinished   = "SoundFinished"
)

// D-Bus error names returned by the Service.
const (
	ErrorNotFound          = Interface + ".Error.NotFound"
	ErrorAmbiguous         = Interface + ".Error.Ambiguous"
	ErrorUnknownDevice     = Interface + ".Error.UnknownDevice"
	ErrorUnsupportedFormat = Interface + ".Error.UnsupportedFormat"
	ErrorPlaybackFailed    = Interface + ".Error.PlaybackFailed"
	ErrorFailed            = Interface + ".Error.Failed"
)

// PlayingInfo is the wire form of model.PlayingSound, signature (ussssttbb).
type PlayingInfo struct {
	ID       uint32
	SoundID  string
	Name     string
	Path     string
	Device   string
	LengthMs uint64
	ReadMs   uint64
	Paused   bool
	Repeat   bool
}

// NewPlayingInfo converts a snapshot to its wire form.
func NewPlayingInfo(p model.PlayingSound) PlayingInfo {
	return PlayingInfo{
		ID:       p.ID,
		SoundID:  p.Sound.ID,
		Name:     p.Sound.Name,
		Path:     p.Sound.Path,
		Device:   p.Device.Name,
		LengthMs: p.LengthInMs,
		ReadMs:   p.ReadInMs,
		Paused:   p.Paused,
		Repeat:   p.Repeat,
	}
}

// Model converts the wire form back into a snapshot. Frame counts are not
// transported, so Length and ReadFrames are expressed in milliseconds.
func (i PlayingInfo) Model() model.PlayingSound {
	return model.PlayingSound{
		ID:         i.ID,
		Sound:      model.Sound{ID: i.SoundID, Name: i.Name, Path: i.Path},
		Device:     model.AudioDevice{Name: i.Device},
		SampleRate: 1000,
		Length:     i.LengthMs,
		LengthInMs: i.LengthMs,
		ReadFrames: i.ReadMs,
		ReadInMs:   i.ReadMs,
		Paused:     i.Paused,
		Repeat:     i.Repeat,
	}
}

// DeviceInfo is the wire form of model.AudioDevice, signature (sbd).
type DeviceInfo struct {
	Name    string
	Default bool
	Volume  float64
}

// NewDeviceInfo converts a device to its wire form.
func NewDeviceInfo(d model.AudioDevice) DeviceInfo {
	return DeviceInfo{Name: d.Name, Default: d.IsDefault, Volume: d.Volume}
}

// Model converts the wire form back into a device.
func (i DeviceInfo) Model() model.AudioDevice {
	return model.AudioDevice{Name: i.Name, IsDefault: i.Default, Volume: i.Volume}
}

// SoundInfo is the wire form of model.Sound, signature (sssxx).
type SoundInfo struct {
	ID      string
	Name    string
	Path    string
	Size    int64
	ModTime int64
}

// NewSoundInfo converts a sound to its wire form.
func NewSoundInfo(s model.Sound) SoundInfo {
	return SoundInfo{ID: s.ID, Name: s.Name, Path: s.Path, Size: s.Size, ModTime: s.ModTime}
}

// Model converts the wire form back into a sound.
func (i SoundInfo) Model() model.Sound {
	return model.Sound{ID: i.ID, Name: i.Name, Path: i.Path, Size: i.Size, ModTime: i.ModTime}
}

func convert[T, W any](in []T, fn func(T) W) []W {
	out := make([]W, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// errorName maps an error to the D-Bus error name reported for it.
func errorName(err error) string {
	switch {
	case errors.Is(err, audio.ErrNotFound), errors.Is(err, core.ErrNoMatch), errors.Is(err, fs.ErrNotExist):
		return ErrorNotFound
	case errors.Is(err, core.ErrAmbiguous):
		return ErrorAmbiguous
	case errors.Is(err, audio.ErrUnknownDevice):
		return ErrorUnknownDevice
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return ErrorUnsupportedFormat
	case errors.Is(err, audio.ErrDecoderInit), errors.Is(err, audio.ErrStreamInit), errors.Is(err, audio.ErrStreamStart):
		return ErrorPlaybackFailed
	default:
		return ErrorFailed
	}
}

// toDBusError converts err into a named D-Bus error carrying its message.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.NewError(errorName(err), []any{err.Error()})
}

// ErrPlaybackFailed is returned by the Client when the daemon could not open
// or start a stream.
var ErrPlaybackFailed = errors.New("playback failed")

// RemoteError is an error reported by sounduxd. It unwraps to the matching
// local sentinel so callers can use errors.Is across the bus.
type RemoteError struct {
	Name    string
	Message string
	kind    error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Name
}

func (e *RemoteError) Unwrap() error { return e.kind }

// fromDBusError converts a D-Bus error reply into a RemoteError.
// Errors that did not come from the Service are returned unchanged.
func fromDBusError(err error) error {
	if err == nil {
		return nil
	}

	var dErr dbus.Error
	if !errors.As(err, &dErr) {
		var pErr *dbus.Error
		if !errors.As(err, &pErr) || pErr == nil {
			return err
		}
		dErr = *pErr
	}

	remote := &RemoteError{Name: dErr.Name}
	if len(dErr.Body) > 0 {
		if msg, ok := dErr.Body[0].(string); ok {
			remote.Message = msg
		}
	}

	switch dErr.Name {
	case ErrorNotFound:
		remote.kind = audio.ErrNotFound
	case ErrorAmbiguous:
		remote.kind = core.ErrAmbiguous
	case ErrorUnknownDevice:
		remote.kind = audio.ErrUnknownDevice
	case ErrorUnsupportedFormat:
		remote.kind = audio.ErrUnsupportedFormat
	case ErrorPlaybackFailed:
		remote.kind = ErrPlaybackFailed
	default:
		if remote.Message == "" {
			return err
		}
	}
	return remote
}
