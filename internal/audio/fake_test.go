package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"sync"

	"github.com/jmylchreest/soundux/internal/model"
)

// fakeBackend is an in-memory Backend. Tests drive the render callback by
// hand through fakeStream.pump.
type fakeBackend struct {
	mu       sync.Mutex
	devices  []DeviceInfo
	devErr   error
	openErr  error
	startErr error
	nextID   StreamID
	streams  []*fakeStream
	closed   bool
}

func (b *fakeBackend) Devices() ([]DeviceInfo, error) {
	if b.devErr != nil {
		return nil, b.devErr
	}
	return b.devices, nil
}

func (b *fakeBackend) OpenStream(cfg StreamConfig, render RenderFunc) (Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openErr != nil {
		return nil, b.openErr
	}

	b.nextID++
	s := &fakeStream{id: b.nextID, cfg: cfg, render: render, startErr: b.startErr}
	b.streams = append(b.streams, s)
	return s, nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) stream(i int) *fakeStream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[i]
}

func (b *fakeBackend) streamCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.streams)
}

type fakeStream struct {
	id       StreamID
	cfg      StreamConfig
	render   RenderFunc
	startErr error

	// Held while the callback runs so Stop and Close wait for it
	cb sync.Mutex

	mu      sync.Mutex
	running bool
	starts  int
	stops   int
	closes  int
}

func (s *fakeStream) ID() StreamID { return s.id }

func (s *fakeStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.running = true
	s.starts++
	return nil
}

func (s *fakeStream) Stop() error {
	s.cb.Lock()
	defer s.cb.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.stops++
	return nil
}

func (s *fakeStream) Close() error {
	s.cb.Lock()
	defer s.cb.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.closes++
	return nil
}

// pump runs one callback of frames if the stream is running and returns the
// rendered buffer, or nil when the stream is halted.
func (s *fakeStream) pump(frames int) []byte {
	s.cb.Lock()
	defer s.cb.Unlock()

	s.mu.Lock()
	running := s.running && s.closes == 0
	s.mu.Unlock()

	if !running {
		return nil
	}

	out := make([]byte, frames*max(s.cfg.Channels, 1)*BytesPerSample)
	s.render(s.id, out, frames)
	return out
}

func (s *fakeStream) counts() (starts, stops, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.closes
}

// fakeDecoder yields length frames of a constant sample scaled by volume.
type fakeDecoder struct {
	mu       sync.Mutex
	rate     uint32
	channels int
	length   uint64
	corrupt  bool // Never produces frames

	pos    uint64
	volume float64
	seeks  []uint64
	closes int
}

func newFakeDecoder(rate uint32, length uint64) *fakeDecoder {
	return &fakeDecoder{rate: rate, channels: 2, length: length, volume: 1}
}

func (d *fakeDecoder) SampleRate() uint32 { return d.rate }
func (d *fakeDecoder) Channels() int      { return d.channels }
func (d *fakeDecoder) Len() uint64        { return d.length }

func (d *fakeDecoder) SetVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
}

func (d *fakeDecoder) Read(out []byte, frames int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(out)
	if d.corrupt {
		return 0
	}

	n := int(min(uint64(frames), d.length-d.pos))
	sample := math.Float32bits(float32(0.5 * d.volume))
	for i := range n * d.channels {
		binary.LittleEndian.PutUint32(out[i*BytesPerSample:], sample)
	}
	d.pos += uint64(n)
	return n
}

func (d *fakeDecoder) Seek(frame uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = min(frame, d.length)
	d.seeks = append(d.seeks, frame)
	return nil
}

func (d *fakeDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

func (d *fakeDecoder) position() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

func (d *fakeDecoder) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

func (d *fakeDecoder) currentVolume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// fakeOpener serves decoders by path.
func fakeOpener(decoders map[string]*fakeDecoder) DecoderOpener {
	return func(path string) (Decoder, error) {
		d, ok := decoders[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return d, nil
	}
}

// recordingSink counts notifications.
type recordingSink struct {
	mu         sync.Mutex
	played     []model.PlayingSound
	progressed []model.PlayingSound
	finished   []model.PlayingSound
}

func (s *recordingSink) SoundPlayed(p model.PlayingSound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, p)
}

func (s *recordingSink) SoundProgressed(p model.PlayingSound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressed = append(s.progressed, p)
}

func (s *recordingSink) SoundFinished(p model.PlayingSound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, p)
}

func (s *recordingSink) counts() (played, progressed, finished int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.played), len(s.progressed), len(s.finished)
}

var errHardware = errors.New("device busy")
