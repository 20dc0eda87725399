package core

import (
	"sort"
	"strings"

	"github.com/jmylchreest/soundux/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByName     SortField = "name"
	SortBySize     SortField = "size"
	SortByModified SortField = "modified"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (alphabetical).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByName,
		Order: SortAsc,
	}
}

// Sort sorts sounds in place based on the provided options.
// Ties are broken by path so listings (and 1-based indexes) are stable.
func Sort(sounds []model.Sound, opts SortOptions) {
	if len(sounds) == 0 {
		return
	}

	sort.SliceStable(sounds, func(i, j int) bool {
		a, b := sounds[i], sounds[j]

		var less, equal bool
		switch opts.Field {
		case SortBySize:
			less, equal = a.Size < b.Size, a.Size == b.Size
		case SortByModified:
			less, equal = a.ModTime < b.ModTime, a.ModTime == b.ModTime
		default:
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			less, equal = an < bn, an == bn
		}

		if equal {
			return a.Path < b.Path
		}
		if opts.Order == SortDesc {
			return !less
		}
		return less
	})
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "size", "s":
		return SortBySize, nil
	case "modified", "mtime", "time", "m":
		return SortByModified, nil
	default:
		return SortByName, nil
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending", "d":
		return SortDesc, nil
	default:
		return SortAsc, nil
	}
}
