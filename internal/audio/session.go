package audio

import (
	"sync"

	"github.com/jmylchreest/soundux/internal/model"
	"github.com/jmylchreest/soundux/internal/queue"
)

type sessionState int

const (
	stateStarting sessionState = iota
	statePlaying
	statePaused
	stateStopping // Resources are being released; the entry is about to go
)

func (s sessionState) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case statePlaying:
		return "playing"
	case statePaused:
		return "paused"
	case stateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// session is one playing sound. It exclusively owns its stream and decoder.
//
// Lock order: ctl, then Player.mu, then mu.
type session struct {
	// Serializes the operations that start, stop or release the stream
	ctl sync.Mutex

	streamID StreamID
	stream   Stream
	decoder  Decoder // Touched only by render until the stream is closed

	mu          sync.Mutex
	state       sessionState
	info        model.PlayingSound
	seekPending bool
	seekTo      uint64
	buffered    uint64 // Frames since the last progress notification
	produced    bool   // Frames were decoded since the last rewind to frame 0
	finishJob   queue.Job
}

// snapshot returns a copy of the public state. Callers hold mu.
func (s *session) snapshot() model.PlayingSound {
	info := s.info
	info.Paused = s.state == statePaused
	return info
}

// setPosition moves the read position, clamped to the length when known.
// Callers hold mu.
func (s *session) setPosition(frame uint64) {
	if s.info.Length > 0 {
		frame = min(frame, s.info.Length)
	}
	s.info.ReadFrames = frame
	s.info.ReadInMs = model.MsAt(frame, s.info.Length, s.info.LengthInMs)
}

// active reports whether the control API can see the session.
func (s *session) active() bool {
	return s.state == statePlaying || s.state == statePaused
}

// render fills one hardware buffer for the stream id. It runs on the audio
// thread: it never releases resources or calls blocking stream operations,
// and it holds locks only while copying state.
//
// Frames decoded in the callback that applies a pending seek are played but
// not counted; the position jumps to the seek target instead.
func (p *Player) render(id StreamID, out []byte, frames int) {
	p.mu.RLock()
	s, ok := p.sessions[id]
	p.mu.RUnlock()

	if !ok {
		clear(out)
		return
	}

	s.mu.Lock()
	if s.state == stateStopping {
		s.mu.Unlock()
		clear(out)
		return
	}
	device := s.info.Device.Name
	s.mu.Unlock()

	volume := p.devices.Volume(device)
	s.decoder.SetVolume(volume)
	n := s.decoder.Read(out, frames)

	var progress *model.PlayingSound

	s.mu.Lock()
	s.info.Device.Volume = volume

	seeked := s.seekPending
	target := s.seekTo
	if seeked {
		s.seekPending = false
		s.buffered = 0
		s.setPosition(target)
		s.produced = target > 0
	} else if n > 0 {
		s.produced = true
		s.setPosition(s.info.ReadFrames + uint64(n))
		s.buffered += uint64(n)
		if s.buffered > uint64(s.info.SampleRate/2) {
			snap := s.snapshot()
			progress = &snap
			s.buffered = 0
		}
	}

	// A repeating sound that decoded nothing since it was last rewound to
	// frame 0 is corrupt or empty and finishes instead of spinning.
	loop := !seeked && n == 0 && s.info.Repeat && s.produced
	if loop {
		s.produced = false
		s.buffered = 0
		s.setPosition(0)
	}
	s.mu.Unlock()

	switch {
	case seeked:
		if err := s.decoder.Seek(target); err != nil {
			p.logger.Warn("seek failed", "stream", id, "frame", target, "error", err)
		}
	case loop:
		if err := s.decoder.Seek(0); err != nil {
			p.logger.Warn("repeat seek failed", "stream", id, "error", err)
		}
	case n == 0:
		// Teardown is not allowed from inside the stream's own callback. A
		// rejected push is retried by the next callback.
		p.finishes.PushUnique(uint64(id), s.finishJob)
	}

	if progress != nil {
		p.sink.SoundProgressed(*progress)
	}
}

// finish tears down a sound that reached the end of its stream. It runs on a
// queue worker. A sound stopped or paused in the meantime is left alone, so
// a racing Stop never causes a second release or a SoundFinished.
func (p *Player) finish(id StreamID) {
	p.mu.RLock()
	s, ok := p.sessions[id]
	p.mu.RUnlock()

	if !ok {
		p.logger.Debug("finished stream already removed", "stream", id)
		return
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.mu.Lock()
	if s.state != statePlaying {
		state := s.state
		s.mu.Unlock()
		p.logger.Debug("skipping finish", "stream", id, "state", state)
		return
	}
	s.state = stateStopping
	snap := s.snapshot()
	s.mu.Unlock()

	p.release(s)
	p.remove(id)

	p.logger.Debug("sound finished", "id", snap.ID, "stream", id)
	p.sink.SoundFinished(snap)
}
