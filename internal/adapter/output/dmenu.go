package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/soundux/internal/model"
)

// DmenuFormatter formats one entry per line for dmenu/rofi/fuzzel pickers.
// Lines start with the 1-based index so the selection can be fed back to
// "soundux play".
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

func (f *DmenuFormatter) sep() string {
	if f.opts.Separator == "" {
		return " | "
	}
	return f.opts.Separator
}

// Sounds writes sounds in dmenu format (one per line).
func (f *DmenuFormatter) Sounds(w io.Writer, sounds []model.Sound) error {
	for i := range sounds {
		if _, err := fmt.Fprintln(w, f.formatLine(i+1, &sounds[i])); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single sound line.
func (f *DmenuFormatter) formatLine(index int, s *model.Sound) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, s)); err == nil {
			return buf.String()
		}
	}

	// Default format: index | [time] | name | [size]
	var parts []string

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	if f.opts.ShowTime {
		parts = append(parts, relativeTime(s.ModTime))
	}

	if f.opts.ShowPath {
		parts = append(parts, s.Path)
	} else {
		parts = append(parts, s.Name)
	}

	if f.opts.ShowSize {
		parts = append(parts, humanize.Bytes(uint64(max(s.Size, 0))))
	}

	return strings.Join(parts, f.sep())
}

// Devices writes device names, default first.
func (f *DmenuFormatter) Devices(w io.Writer, devices []model.AudioDevice) error {
	ordered := make([]model.AudioDevice, 0, len(devices))
	for _, d := range devices {
		if d.IsDefault {
			ordered = append(ordered, d)
		}
	}
	for _, d := range devices {
		if !d.IsDefault {
			ordered = append(ordered, d)
		}
	}

	for _, d := range ordered {
		if _, err := fmt.Fprintln(w, d.Name); err != nil {
			return err
		}
	}
	return nil
}

// Playing writes "id | name | position" lines.
func (f *DmenuFormatter) Playing(w io.Writer, playing []model.PlayingSound) error {
	for _, p := range playing {
		line := strings.Join([]string{fmt.Sprintf("%d", p.ID), p.Sound.Name, p.Position()}, f.sep())
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ParseIndex extracts the leading index from a line produced by the dmenu
// formatter, so picker output can be passed back as a sound reference.
func ParseIndex(line, sep string) string {
	if sep == "" {
		sep = " | "
	}
	if trimmed := strings.TrimSpace(sep); trimmed != "" {
		sep = trimmed
	}
	head, _, _ := strings.Cut(strings.TrimSpace(line), sep)
	return strings.TrimSpace(head)
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Sound        *model.Sound
	RelativeTime string
	Size         string
}

func newTemplateData(index int, s *model.Sound) templateData {
	return templateData{
		Index:        index,
		Sound:        s,
		RelativeTime: relativeTime(s.ModTime),
		Size:         humanize.Bytes(uint64(max(s.Size, 0))),
	}
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || len(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return s[:maxLen]
			}
			return s[:maxLen-3] + "..."
		},
		"reltime": func(ts int64) string {
			return relativeTime(ts)
		},
		"bytes": func(n int64) string {
			return humanize.Bytes(uint64(max(n, 0)))
		},
		"upper": strings.ToUpper,
	}
}

// relativeTime returns a compact relative time string.
func relativeTime(timestamp int64) string {
	if timestamp == 0 {
		return "unknown"
	}

	d := time.Since(time.Unix(timestamp, 0))

	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
}
