package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundux/internal/adapter/output"
	"github.com/jmylchreest/soundux/internal/core"
	"github.com/jmylchreest/soundux/internal/model"
)

var soundsOpts struct {
	// Filter options
	since  string
	ext    []string
	filter string
	search string
	limit  int

	// Sort options
	sortBy    string
	sortOrder string

	// Output options
	format    string
	template  string
	separator string
	showPath  bool
	showTime  bool
}

var soundsCmd = &cobra.Command{
	Use:   "sounds [ref]",
	Short: "List the sound library",
	Long: `List the sounds found in the library directories.

Without arguments, outputs all sounds in dmenu format (suitable for
fuzzel, walker, rofi, etc.).

With a reference argument (1-based index, ID, ID prefix, name, path or a
picker line), outputs that specific sound.

Filter expressions use field, operator, value triples joined by commas:
  name~door          name contains "door"
  ext=ogg            extension is .ogg
  size>1MB           larger than 1 MB
  modified<7d        changed in the last week

Examples:
  # List all sounds in dmenu format
  soundux sounds

  # Only ogg files changed in the last day
  soundux sounds --ext .ogg --since 1d

  # Pick a sound with fuzzel and play it
  soundux sounds | fuzzel -d | xargs -0 soundux play

  # Output as JSON
  soundux sounds --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSounds,
}

func init() {
	rootCmd.AddCommand(soundsCmd)

	// Filter flags
	soundsCmd.Flags().StringVar(&soundsOpts.since, "since", "",
		"Show sounds modified within the duration (e.g., 1h, 7d, 1w)")
	soundsCmd.Flags().StringSliceVar(&soundsOpts.ext, "ext", nil,
		"Only show these extensions (e.g., .wav,.ogg)")
	soundsCmd.Flags().StringVar(&soundsOpts.filter, "filter", "",
		"Filter expression (e.g., \"name~door,size<1MB\")")
	soundsCmd.Flags().StringVarP(&soundsOpts.search, "search", "s", "",
		"Search in name and path")
	soundsCmd.Flags().IntVarP(&soundsOpts.limit, "limit", "n", 0,
		"Maximum number of sounds to show (0=unlimited)")

	// Sort flags
	soundsCmd.Flags().StringVar(&soundsOpts.sortBy, "sort", "name",
		"Sort by field (name, size, modified)")
	soundsCmd.Flags().StringVar(&soundsOpts.sortOrder, "order", "asc",
		"Sort order (asc, desc)")

	// Output flags
	soundsCmd.Flags().StringVarP(&soundsOpts.format, "format", "f", "dmenu",
		"Output format (dmenu, json, yaml, plain, ids)")
	soundsCmd.Flags().StringVar(&soundsOpts.template, "template", "",
		"Custom Go template for output formatting")
	soundsCmd.Flags().StringVar(&soundsOpts.separator, "separator", " | ",
		"Field separator for dmenu output")
	soundsCmd.Flags().BoolVar(&soundsOpts.showPath, "path", false,
		"Show full paths instead of names")
	soundsCmd.Flags().BoolVar(&soundsOpts.showTime, "time", false,
		"Show relative modification time")
}

func runSounds(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	sounds, err := selectSounds(lib.All())
	if err != nil {
		return err
	}

	if len(args) > 0 {
		ref := output.ParseIndex(args[0], soundsOpts.separator)
		s, err := core.Resolve(sounds, ref)
		if err != nil {
			return err
		}

		// Output as JSON by default for a single sound
		if soundsOpts.format == "dmenu" {
			soundsOpts.format = "json"
		}
		sounds = []model.Sound{*s}
	}

	if len(sounds) == 0 {
		logger.Debug("no sounds to output")
		return nil
	}

	return createFormatter(soundsOpts.format).Sounds(os.Stdout, sounds)
}

// selectSounds applies the filter, search and sort flags so that 1-based
// indexes match the listing the user saw.
func selectSounds(sounds []model.Sound) ([]model.Sound, error) {
	opts := core.FilterOptions{
		Extensions: normalizeExts(soundsOpts.ext),
	}

	if soundsOpts.since != "" {
		d, err := core.ParseDuration(soundsOpts.since)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		opts.Since = d
	}

	sounds = core.Filter(sounds, opts)

	if soundsOpts.filter != "" {
		expr, err := core.ParseFilter(soundsOpts.filter)
		if err != nil {
			return nil, fmt.Errorf("invalid --filter: %w", err)
		}
		sounds = core.FilterWithExpr(sounds, expr)
	}

	if soundsOpts.search != "" {
		sounds = core.Search(sounds, soundsOpts.search)
	}

	field, err := core.ParseSortField(soundsOpts.sortBy)
	if err != nil {
		return nil, err
	}
	order, err := core.ParseSortOrder(soundsOpts.sortOrder)
	if err != nil {
		return nil, err
	}
	core.Sort(sounds, core.SortOptions{Field: field, Order: order})

	if soundsOpts.limit > 0 && len(sounds) > soundsOpts.limit {
		sounds = sounds[:soundsOpts.limit]
	}
	return sounds, nil
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// createFormatter creates the output formatter based on the shared flags.
func createFormatter(format string) output.Formatter {
	opts := output.DefaultFormatterOptions()
	opts.Template = soundsOpts.template
	opts.Separator = soundsOpts.separator
	opts.ShowPath = soundsOpts.showPath
	opts.ShowTime = soundsOpts.showTime

	return output.NewFormatter(output.FormatType(strings.ToLower(format)), opts)
}
