package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/soundux/internal/model"
)

// YAMLFormatter formats output as YAML sequences.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// Sounds writes sounds as YAML.
func (f *YAMLFormatter) Sounds(w io.Writer, sounds []model.Sound) error {
	return f.encode(w, nonNil(sounds))
}

// Devices writes devices as YAML.
func (f *YAMLFormatter) Devices(w io.Writer, devices []model.AudioDevice) error {
	return f.encode(w, nonNil(devices))
}

// Playing writes playing sounds as YAML.
func (f *YAMLFormatter) Playing(w io.Writer, playing []model.PlayingSound) error {
	return f.encode(w, nonNil(playing))
}
