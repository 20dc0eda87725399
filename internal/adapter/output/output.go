// Package output provides output formatters for sounds, devices and
// playing sounds.
package output

import (
	"io"

	"github.com/jmylchreest/soundux/internal/model"
)

// Formatter formats library and playback state for output.
type Formatter interface {
	// Sounds writes library entries to the writer.
	Sounds(w io.Writer, sounds []model.Sound) error
	// Devices writes playback devices to the writer.
	Devices(w io.Writer, devices []model.AudioDevice) error
	// Playing writes playing sound snapshots to the writer.
	Playing(w io.Writer, playing []model.PlayingSound) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
	FormatIDs   FormatType = "ids"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter()
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for dmenu/plain sound lines
	ShowIndex bool   // Show 1-based index prefix
	ShowSize  bool   // Show file size
	ShowTime  bool   // Show relative modification time
	ShowPath  bool   // Show the full path instead of the name
	Separator string // Field separator for dmenu format
	Compact   bool   // JSON without indentation
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowSize:  true,
		ShowTime:  false,
		Separator: " | ",
	}
}
