package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/model"
)

// Emitter sends signals. *dbus.Conn implements it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// SignalSink is an audio.Sink that re-publishes playback events as D-Bus
// signals. Events are buffered and emitted by Run so the audio path never
// waits on the bus; when the buffer is full events are dropped.
type SignalSink struct {
	events   chan audio.Event
	logger   *slog.Logger
	progress atomic.Bool
	dropped  atomic.Uint64
}

// NewSignalSink creates a SignalSink with a buffer of size events.
func NewSignalSink(size int, logger *slog.Logger) *SignalSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SignalSink{
		events: make(chan audio.Event, max(size, 1)),
		logger: logger,
	}
	s.progress.Store(true)
	return s
}

// SetProgress enables or disables SoundProgressed signals.
func (s *SignalSink) SetProgress(enabled bool) {
	s.progress.Store(enabled)
}

// Dropped returns how many events were discarded.
func (s *SignalSink) Dropped() uint64 { return s.dropped.Load() }

func (s *SignalSink) send(e audio.Event) {
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *SignalSink) SoundPlayed(p model.PlayingSound) {
	s.send(audio.Event{Type: audio.EventPlayed, Sound: p})
}

func (s *SignalSink) SoundProgressed(p model.PlayingSound) {
	if s.progress.Load() {
		s.send(audio.Event{Type: audio.EventProgressed, Sound: p})
	}
}

func (s *SignalSink) SoundFinished(p model.PlayingSound) {
	s.send(audio.Event{Type: audio.EventFinished, Sound: p})
}

// Run emits buffered events on emitter until ctx is cancelled.
func (s *SignalSink) Run(ctx context.Context, emitter Emitter) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-s.events:
			if err := emit(emitter, e); err != nil {
				s.logger.Warn("failed to emit signal", "event", e.Type.String(), "id", e.Sound.ID, "error", err)
			}
		}
	}
}

// signalName returns the member name for an event type.
func signalName(t audio.EventType) string {
	switch t {
	case audio.EventPlayed:
		return SignalSoundPlayed
	case audio.EventProgressed:
		return SignalSoundProgressed
	case audio.EventFinished:
		return SignalSoundFinished
	default:
		return ""
	}
}

func emit(emitter Emitter, e audio.Event) error {
	name := signalName(e.Type)
	if name == "" {
		return fmt.Errorf("unknown event type %d", e.Type)
	}
	if err := emitter.Emit(Path, Interface+"."+name, NewPlayingInfo(e.Sound)); err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", name, err)
	}
	return nil
}

// decodeSignal converts a received signal into an audio.Event.
func decodeSignal(sig *dbus.Signal) (audio.Event, bool) {
	if sig == nil || sig.Path != Path {
		return audio.Event{}, false
	}

	var t audio.EventType
	switch sig.Name {
	case Interface + "." + SignalSoundPlayed:
		t = audio.EventPlayed
	case Interface + "." + SignalSoundProgressed:
		t = audio.EventProgressed
	case Interface + "." + SignalSoundFinished:
		t = audio.EventFinished
	default:
		return audio.Event{}, false
	}

	var info PlayingInfo
	if err := dbus.Store(sig.Body, &info); err != nil {
		return audio.Event{}, false
	}
	return audio.Event{Type: t, Sound: info.Model()}, true
}
