package model

import (
	"fmt"
	"math"
)

// DefaultVolume is the gain used for devices without an override.
const DefaultVolume = 1.0

// AudioDevice is a playback-capable output device.
type AudioDevice struct {
	Name      string  `json:"name" yaml:"name"`
	IsDefault bool    `json:"default" yaml:"default"`
	Volume    float64 `json:"volume" yaml:"volume"`
}

// ClampVolume limits a linear volume to the range [0, 1].
func ClampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PlayingSound is a point-in-time snapshot of an active playback.
type PlayingSound struct {
	ID         uint32      `json:"id" yaml:"id"`
	Sound      Sound       `json:"sound" yaml:"sound"`
	Device     AudioDevice `json:"device" yaml:"device"`
	SampleRate uint32      `json:"sample_rate" yaml:"sample_rate"`
	Length     uint64      `json:"length" yaml:"length"`
	LengthInMs uint64      `json:"length_ms" yaml:"length_ms"`
	ReadFrames uint64      `json:"read_frames" yaml:"read_frames"`
	ReadInMs   uint64      `json:"read_ms" yaml:"read_ms"`
	Paused     bool        `json:"paused" yaml:"paused"`
	Repeat     bool        `json:"repeat" yaml:"repeat"`
}

// Progress returns the playback position as a fraction in [0, 1].
func (p *PlayingSound) Progress() float64 {
	if p.Length == 0 {
		return 0
	}
	return math.Min(float64(p.ReadFrames)/float64(p.Length), 1)
}

// State returns a human-readable playback state.
func (p *PlayingSound) State() string {
	if p.Paused {
		return "paused"
	}
	return "playing"
}

// Position formats the read position and total length as m:ss/m:ss.
func (p *PlayingSound) Position() string {
	return fmt.Sprintf("%s/%s", FormatMs(p.ReadInMs), FormatMs(p.LengthInMs))
}

// FormatMs formats milliseconds as m:ss.
func FormatMs(ms uint64) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Frame and millisecond conversions all round to the nearest integer
// (half away from zero). A zero length always converts to zero.

// LengthInMs returns the duration in milliseconds of frames at sampleRate.
func LengthInMs(frames uint64, sampleRate uint32) uint64 {
	if sampleRate == 0 {
		return 0
	}
	return uint64(math.Round(float64(frames) / float64(sampleRate) * 1000))
}

// MsAt returns the millisecond position of frame within a sound of
// length frames lasting lengthMs milliseconds.
func MsAt(frame, length, lengthMs uint64) uint64 {
	if length == 0 {
		return 0
	}
	return uint64(math.Round(float64(frame) / float64(length) * float64(lengthMs)))
}

// FrameAt returns the frame at millisecond position ms, clamped to length.
func FrameAt(ms, length, lengthMs uint64) uint64 {
	if lengthMs == 0 {
		return 0
	}
	frame := uint64(math.Round(float64(ms) / float64(lengthMs) * float64(length)))
	return min(frame, length)
}
