package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/soundux/internal/model"
)

// PlainFormatter formats output as human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Sounds writes one sound per line.
func (f *PlainFormatter) Sounds(w io.Writer, sounds []model.Sound) error {
	for i := range sounds {
		if err := f.formatSound(w, i+1, &sounds[i]); err != nil {
			return err
		}
	}
	return nil
}

// formatSound formats a single sound.
func (f *PlainFormatter) formatSound(w io.Writer, index int, s *model.Sound) error {
	if f.template != nil {
		if err := f.template.Execute(w, newTemplateData(index, s)); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	if f.opts.ShowPath {
		sb.WriteString(s.Path)
	} else {
		sb.WriteString(s.Name)
	}

	var details []string
	if f.opts.ShowSize {
		details = append(details, humanize.Bytes(uint64(max(s.Size, 0))))
	}
	if f.opts.ShowTime {
		details = append(details, relativeTime(s.ModTime))
	}
	if len(details) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(details, ", "))
	}

	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Devices writes one device per line, marking the default with '*'.
func (f *PlainFormatter) Devices(w io.Writer, devices []model.AudioDevice) error {
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%s %s (%s)\n", marker, d.Name, FormatVolume(d.Volume)); err != nil {
			return err
		}
	}
	return nil
}

// Playing writes one playing sound per line.
func (f *PlainFormatter) Playing(w io.Writer, playing []model.PlayingSound) error {
	for _, p := range playing {
		if _, err := fmt.Fprintln(w, FormatPlaying(p)); err != nil {
			return err
		}
	}
	return nil
}

// FormatPlaying renders a playing sound as a single status line.
func FormatPlaying(p model.PlayingSound) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%d] %s %s %s", p.ID, p.Sound.Name, p.Position(), p.State())
	if p.Repeat {
		sb.WriteString(" repeat")
	}
	if p.Device.Name != "" {
		fmt.Fprintf(&sb, " on %s", p.Device.Name)
	}
	return sb.String()
}

// FormatVolume renders a linear volume as a percentage.
func FormatVolume(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}
