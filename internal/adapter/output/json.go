package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/soundux/internal/model"
)

// JSONFormatter formats output as JSON arrays.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// Sounds writes sounds as a JSON array.
func (f *JSONFormatter) Sounds(w io.Writer, sounds []model.Sound) error {
	return f.encode(w, nonNil(sounds))
}

// Devices writes devices as a JSON array.
func (f *JSONFormatter) Devices(w io.Writer, devices []model.AudioDevice) error {
	return f.encode(w, nonNil(devices))
}

// Playing writes playing sounds as a JSON array.
func (f *JSONFormatter) Playing(w io.Writer, playing []model.PlayingSound) error {
	return f.encode(w, nonNil(playing))
}

// Event writes a single playback event as one compact JSON line.
func (f *JSONFormatter) Event(w io.Writer, event string, p model.PlayingSound) error {
	return json.NewEncoder(w).Encode(struct {
		Event string             `json:"event"`
		Sound model.PlayingSound `json:"sound"`
	}{event, p})
}

// nonNil makes empty results encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
