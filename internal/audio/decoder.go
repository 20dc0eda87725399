package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Decoder is a seekable source of PCM frames. Only the audio thread of the
// owning stream reads or seeks it; Close is called after the stream is closed.
type Decoder interface {
	SampleRate() uint32
	Channels() int
	// Len returns the total length in frames.
	Len() uint64
	// SetVolume sets the linear gain applied to subsequent reads.
	SetVolume(volume float64)
	// Read writes up to frames interleaved float32 frames into out and
	// zero-fills the rest of the requested range. It returns the number of
	// frames decoded; zero means the end of the stream.
	Read(out []byte, frames int) int
	// Seek moves the read position to frame.
	Seek(frame uint64) error
	Close() error
}

// DecoderOpener opens a decoder for an audio file.
type DecoderOpener func(path string) (Decoder, error)

// OpenDecoder opens path with the beep decoder matching its extension.
// Supports WAV, MP3, OGG Vorbis and FLAC.
func OpenDecoder(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}

	return newBeepDecoder(f, streamer, format), nil
}

// beepDecoder adapts a beep streamer to the Decoder interface.
type beepDecoder struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	gain     *effects.Gain
	format   beep.Format
	channels int

	// Reused between reads so the audio thread does not allocate
	buf [][2]float64
}

func newBeepDecoder(f *os.File, streamer beep.StreamSeekCloser, format beep.Format) *beepDecoder {
	// beep streams are always stereo pairs; mono sources repeat the sample
	channels := min(max(format.NumChannels, 1), 2)

	return &beepDecoder{
		file:     f,
		streamer: streamer,
		gain:     &effects.Gain{Streamer: streamer},
		format:   format,
		channels: channels,
	}
}

func (d *beepDecoder) SampleRate() uint32 { return uint32(d.format.SampleRate) }

func (d *beepDecoder) Channels() int { return d.channels }

func (d *beepDecoder) Len() uint64 { return uint64(max(d.streamer.Len(), 0)) }

// SetVolume maps a linear volume onto beep's gain, which scales by 1+Gain.
func (d *beepDecoder) SetVolume(volume float64) {
	d.gain.Gain = volume - 1
}

func (d *beepDecoder) Read(out []byte, frames int) int {
	if cap(d.buf) < frames {
		d.buf = make([][2]float64, frames)
	}
	buf := d.buf[:frames]

	n := 0
	for n < frames {
		k, ok := d.gain.Stream(buf[n:])
		n += k
		if !ok || k == 0 {
			break
		}
	}

	written := writeFloat32(out, buf[:n], d.channels)
	clear(out[written:min(len(out), frames*d.channels*BytesPerSample)])
	return n
}

func (d *beepDecoder) Seek(frame uint64) error {
	pos := int(min(frame, d.Len()))
	return d.streamer.Seek(pos)
}

func (d *beepDecoder) Close() error {
	err := d.streamer.Close()
	if cerr := d.file.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

// writeFloat32 interleaves samples into out as little-endian float32 and
// returns the number of bytes written.
func writeFloat32(out []byte, samples [][2]float64, channels int) int {
	off := 0
	for _, s := range samples {
		for ch := range channels {
			if off+BytesPerSample > len(out) {
				return off
			}
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(float32(s[ch])))
			off += BytesPerSample
		}
	}
	return off
}
