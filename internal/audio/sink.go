package audio

import (
	"log/slog"
	"sync/atomic"

	"github.com/jmylchreest/soundux/internal/model"
)

// Sink receives playback notifications. Calls are fire-and-forget:
// SoundProgressed runs on the audio thread and SoundFinished on a queue worker,
// so implementations must return quickly and never call back into the Player.
type Sink interface {
	SoundPlayed(sound model.PlayingSound)
	SoundProgressed(sound model.PlayingSound)
	SoundFinished(sound model.PlayingSound)
}

// EventType identifies a playback notification.
type EventType int

const (
	EventPlayed EventType = iota
	EventProgressed
	EventFinished
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventPlayed:
		return "played"
	case EventProgressed:
		return "progressed"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is a notification delivered through a ChanSink.
type Event struct {
	Type  EventType
	Sound model.PlayingSound
}

// NopSink discards notifications.
type NopSink struct{}

func (NopSink) SoundPlayed(model.PlayingSound)     {}
func (NopSink) SoundProgressed(model.PlayingSound) {}
func (NopSink) SoundFinished(model.PlayingSound)   {}

// LogSink logs notifications. Progress is logged at debug level.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s LogSink) SoundPlayed(p model.PlayingSound) {
	s.logger().Info("sound played", "id", p.ID, "sound", p.Sound.Name, "device", p.Device.Name)
}

func (s LogSink) SoundProgressed(p model.PlayingSound) {
	s.logger().Debug("sound progressed", "id", p.ID, "position", p.Position())
}

func (s LogSink) SoundFinished(p model.PlayingSound) {
	s.logger().Info("sound finished", "id", p.ID, "sound", p.Sound.Name)
}

// ChanSink forwards notifications to a buffered channel. Events are dropped
// when the channel is full.
type ChanSink struct {
	events  chan Event
	dropped atomic.Uint64
}

// NewChanSink creates a ChanSink with the given buffer size.
func NewChanSink(size int) *ChanSink {
	return &ChanSink{events: make(chan Event, max(size, 1))}
}

// Events returns the notification channel.
func (s *ChanSink) Events() <-chan Event { return s.events }

// Dropped returns how many events were discarded.
func (s *ChanSink) Dropped() uint64 { return s.dropped.Load() }

func (s *ChanSink) send(e Event) {
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *ChanSink) SoundPlayed(p model.PlayingSound) { s.send(Event{Type: EventPlayed, Sound: p}) }

func (s *ChanSink) SoundProgressed(p model.PlayingSound) {
	s.send(Event{Type: EventProgressed, Sound: p})
}

func (s *ChanSink) SoundFinished(p model.PlayingSound) { s.send(Event{Type: EventFinished, Sound: p}) }

// MultiSink fans notifications out to several sinks.
type MultiSink []Sink

func (m MultiSink) SoundPlayed(p model.PlayingSound) {
	for _, s := range m {
		s.SoundPlayed(p)
	}
}

func (m MultiSink) SoundProgressed(p model.PlayingSound) {
	for _, s := range m {
		s.SoundProgressed(p)
	}
}

func (m MultiSink) SoundFinished(p model.PlayingSound) {
	for _, s := range m {
		s.SoundFinished(p)
	}
}
