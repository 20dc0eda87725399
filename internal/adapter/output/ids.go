package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/soundux/internal/model"
)

// IDsFormatter outputs just identifiers, one per line: sound ULIDs, device
// names or playing sound ids. Useful for piping to other commands
// (e.g., soundux ctl stop).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Sounds writes sound IDs to the writer, one per line.
func (f *IDsFormatter) Sounds(w io.Writer, sounds []model.Sound) error {
	for _, s := range sounds {
		if _, err := fmt.Fprintln(w, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Devices writes device names, one per line.
func (f *IDsFormatter) Devices(w io.Writer, devices []model.AudioDevice) error {
	for _, d := range devices {
		if _, err := fmt.Fprintln(w, d.Name); err != nil {
			return err
		}
	}
	return nil
}

// Playing writes playing sound ids, one per line.
func (f *IDsFormatter) Playing(w io.Writer, playing []model.PlayingSound) error {
	for _, p := range playing {
		if _, err := fmt.Fprintln(w, p.ID); err != nil {
			return err
		}
	}
	return nil
}
