package audio

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/soundux/internal/model"
	"github.com/jmylchreest/soundux/internal/queue"
)

// Player is the table of playing sounds and its control API. Each sound is
// keyed by the id of the stream playing it.
type Player struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	backend  Backend
	devices  *Registry
	finishes *queue.Queue
	sink     Sink
	open     DecoderOpener

	// Serializes Play while overlapping playback is disallowed
	playMu sync.Mutex

	allowOverlapping atomic.Bool
	period           atomic.Int64

	nextID   atomic.Uint32
	sessions map[StreamID]*session
}

// NewPlayer creates a player. finishes must be started by the caller for
// sounds to be torn down when they end.
func NewPlayer(backend Backend, devices *Registry, finishes *queue.Queue, sink Sink, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NopSink{}
	}

	p := &Player{
		logger:   logger,
		backend:  backend,
		devices:  devices,
		finishes: finishes,
		sink:     sink,
		open:     OpenDecoder,
		sessions: make(map[StreamID]*session),
	}
	p.allowOverlapping.Store(true)

	return p
}

// SetDecoderOpener replaces the function used to open sound files.
func (p *Player) SetDecoderOpener(open DecoderOpener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = open
}

// SetAllowOverlapping sets whether a new sound may play alongside others.
func (p *Player) SetAllowOverlapping(allow bool) {
	p.allowOverlapping.Store(allow)
}

// AllowOverlapping reports whether sounds may overlap.
func (p *Player) AllowOverlapping() bool {
	return p.allowOverlapping.Load()
}

// SetPeriod sets the buffer period requested for new streams.
func (p *Player) SetPeriod(d time.Duration) {
	p.period.Store(int64(d))
}

// Play starts playing sound on device, or on the default device when device
// is nil. When overlapping is disallowed every playing sound is stopped
// first. No resources are left behind on failure.
func (p *Player) Play(sound model.Sound, device *model.AudioDevice) (model.PlayingSound, error) {
	if !p.allowOverlapping.Load() {
		p.playMu.Lock()
		defer p.playMu.Unlock()
		p.StopAll()
	}

	p.mu.RLock()
	open := p.open
	p.mu.RUnlock()

	dec, err := open(sound.Path)
	if err != nil {
		p.logger.Error("failed to create decoder", "path", sound.Path, "error", err)
		return model.PlayingSound{}, fmt.Errorf("%w: %s: %w", ErrDecoderInit, sound.Path, err)
	}

	target := p.resolveDevice(device)

	stream, err := p.backend.OpenStream(StreamConfig{
		Device:     target.Name,
		SampleRate: dec.SampleRate(),
		Channels:   dec.Channels(),
		Period:     time.Duration(p.period.Load()),
	}, p.render)
	if err != nil {
		p.closeDecoder(dec)
		p.logger.Error("failed to create stream", "path", sound.Path, "device", target.Name, "error", err)
		return model.PlayingSound{}, fmt.Errorf("%w: %w", ErrStreamInit, err)
	}

	length := dec.Len()
	s := &session{
		streamID: stream.ID(),
		stream:   stream,
		decoder:  dec,
		state:    stateStarting,
		info: model.PlayingSound{
			ID:         p.nextID.Add(1),
			Sound:      sound,
			Device:     target,
			SampleRate: dec.SampleRate(),
			Length:     length,
			LengthInMs: model.LengthInMs(length, dec.SampleRate()),
		},
	}
	// Built here so end-of-stream callbacks push without allocating.
	s.finishJob = func() { p.finish(s.streamID) }

	s.ctl.Lock()
	defer s.ctl.Unlock()

	p.mu.Lock()
	p.sessions[s.streamID] = s
	p.mu.Unlock()

	if err := stream.Start(); err != nil {
		s.mu.Lock()
		s.state = stateStopping
		s.mu.Unlock()

		p.release(s)
		p.remove(s.streamID)

		p.logger.Error("failed to start stream", "path", sound.Path, "device", target.Name, "error", err)
		return model.PlayingSound{}, fmt.Errorf("%w: %w", ErrStreamStart, err)
	}

	s.mu.Lock()
	s.state = statePlaying
	snap := s.snapshot()
	s.mu.Unlock()

	p.logger.Debug("sound started",
		"id", snap.ID,
		"path", sound.Path,
		"device", target.Name,
		"sample_rate", snap.SampleRate,
		"length_ms", snap.LengthInMs,
	)
	p.sink.SoundPlayed(snap)

	return snap, nil
}

// resolveDevice picks the playback target: the explicit device (as known to
// the registry), else the default device, else the backend default.
func (p *Player) resolveDevice(device *model.AudioDevice) model.AudioDevice {
	if device != nil {
		if d, ok := p.devices.Lookup(device.Name); ok {
			return d
		}
		return *device
	}
	if d, ok := p.devices.Default(); ok {
		return d
	}
	return model.AudioDevice{Volume: model.DefaultVolume}
}

// Stop stops and removes the sound with the given id.
func (p *Player) Stop(id uint32) error {
	s := p.find(id)
	if s == nil || !p.stopSession(s) {
		p.logger.Warn("sound not found", "id", id)
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	p.logger.Debug("sound stopped", "id", id)
	return nil
}

// StopAll stops every sound, including ones still starting.
func (p *Player) StopAll() {
	p.mu.RLock()
	sessions := slices.Collect(maps.Values(p.sessions))
	p.mu.RUnlock()

	stopped := 0
	for _, s := range sessions {
		if p.stopSession(s) {
			stopped++
		}
	}

	if stopped > 0 {
		p.logger.Debug("stopped all sounds", "count", stopped)
	}
}

// stopSession releases and removes s unless another caller already did.
func (p *Player) stopSession(s *session) bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.state == stateStopping {
		s.mu.Unlock()
		return false
	}
	s.state = stateStopping
	s.mu.Unlock()

	p.release(s)
	p.remove(s.streamID)
	return true
}

// Pause halts the stream of a sound without releasing it. Pausing a paused
// sound returns its snapshot unchanged.
func (p *Player) Pause(id uint32) (model.PlayingSound, error) {
	s := p.find(id)
	if s == nil {
		p.logger.Warn("sound not found", "id", id)
		return model.PlayingSound{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	switch s.state {
	case statePaused:
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, nil
	case stateStopping:
		s.mu.Unlock()
		return model.PlayingSound{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.mu.Unlock()

	if err := s.stream.Stop(); err != nil {
		p.logger.Error("failed to pause stream", "id", id, "error", err)
		return p.snapshotOf(s), fmt.Errorf("failed to pause sound %d: %w", id, err)
	}

	s.mu.Lock()
	s.state = statePaused
	snap := s.snapshot()
	s.mu.Unlock()

	p.logger.Debug("sound paused", "id", id)
	return snap, nil
}

// Resume restarts a paused sound. Resuming a playing sound returns its
// snapshot unchanged. On failure the sound stays paused.
func (p *Player) Resume(id uint32) (model.PlayingSound, error) {
	s := p.find(id)
	if s == nil {
		p.logger.Warn("sound not found", "id", id)
		return model.PlayingSound{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	switch s.state {
	case statePlaying:
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, nil
	case stateStopping:
		s.mu.Unlock()
		return model.PlayingSound{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.mu.Unlock()

	if err := s.stream.Start(); err != nil {
		p.logger.Error("failed to resume stream", "id", id, "error", err)
		return p.snapshotOf(s), fmt.Errorf("%w: %w", ErrStreamStart, err)
	}

	s.mu.Lock()
	s.state = statePlaying
	snap := s.snapshot()
	s.mu.Unlock()

	p.logger.Debug("sound resumed", "id", id)
	return snap, nil
}

// Seek requests a jump to positionMs. The audio thread applies it on its next
// callback; the returned snapshot already reports the target position.
func (p *Player) Seek(id uint32, positionMs uint64) (model.PlayingSound, error) {
	s := p.find(id)
	if s == nil {
		p.logger.Warn("sound not found", "id", id)
		return model.PlayingSound{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := model.FrameAt(positionMs, s.info.Length, s.info.LengthInMs)
	s.seekPending = true
	s.seekTo = target
	s.setPosition(target)

	p.logger.Debug("seek requested", "id", id, "ms", positionMs, "frame", target)
	return s.snapshot(), nil
}

// SetRepeat sets whether a sound starts over when it reaches the end.
func (p *Player) SetRepeat(id uint32, repeat bool) (model.PlayingSound, error) {
	s := p.find(id)
	if s == nil {
		p.logger.Warn("sound not found", "id", id)
		return model.PlayingSound{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.info.Repeat = repeat
	return s.snapshot(), nil
}

// PlayingSounds returns snapshots of the playing and paused sounds ordered by id.
func (p *Player) PlayingSounds() []model.PlayingSound {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]model.PlayingSound, 0, len(p.sessions))
	for _, s := range p.sessions {
		s.mu.Lock()
		if s.active() {
			result = append(result, s.snapshot())
		}
		s.mu.Unlock()
	}

	slices.SortFunc(result, func(a, b model.PlayingSound) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// PlayingSound returns the snapshot of the sound playing on stream id.
func (p *Player) PlayingSound(id StreamID) (model.PlayingSound, bool) {
	p.mu.RLock()
	s, ok := p.sessions[id]
	p.mu.RUnlock()

	if !ok {
		return model.PlayingSound{}, false
	}
	return p.snapshotOf(s), true
}

// find returns the active session with the given sound id.
func (p *Player) find(id uint32) *session {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.sessions {
		s.mu.Lock()
		match := s.info.ID == id && s.active()
		s.mu.Unlock()
		if match {
			return s
		}
	}
	return nil
}

func (p *Player) snapshotOf(s *session) model.PlayingSound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// release closes the stream, which waits for a running callback, then the
// decoder.
func (p *Player) release(s *session) {
	if err := s.stream.Close(); err != nil {
		p.logger.Warn("failed to close stream", "stream", s.streamID, "error", err)
	}
	p.closeDecoder(s.decoder)
}

func (p *Player) closeDecoder(dec Decoder) {
	if err := dec.Close(); err != nil {
		p.logger.Warn("failed to close decoder", "error", err)
	}
}

func (p *Player) remove(id StreamID) {
	p.mu.Lock()
	delete(p.sessions, id)
	p.mu.Unlock()
}
