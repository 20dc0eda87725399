package core

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/soundux/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: name, path, ext, size, modified
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex    *regexp.Regexp // Compiled regex for ~= operator
	sizeVal  int64          // Parsed size in bytes
	cutoff   time.Time      // Parsed modification cutoff
	extValue string         // Normalized extension
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies criteria for filtering sounds.
type FilterOptions struct {
	Since      time.Duration // Only sounds modified within since (0=all)
	Extensions []string      // Allowed extensions including the dot (empty=all)
	Limit      int           // Maximum results (0=unlimited)
}

// Filter filters sounds based on the provided options.
func Filter(sounds []model.Sound, opts FilterOptions) []model.Sound {
	now := time.Now()
	result := make([]model.Sound, 0, len(sounds))

	for _, s := range sounds {
		if opts.Since > 0 {
			cutoff := now.Add(-opts.Since)
			if time.Unix(s.ModTime, 0).Before(cutoff) {
				continue
			}
		}

		if len(opts.Extensions) > 0 && !slices.Contains(opts.Extensions, s.Ext()) {
			continue
		}

		result = append(result, s)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: name, path, ext, size, modified
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "name~bell" - name contains "bell"
//   - "ext=.ogg" - Ogg Vorbis files only
//   - "size>1MB" - larger than one megabyte
//   - "modified<7d" - changed within the last week
//   - "path~=(?i)/alerts/" - path matches regex
func ParseFilter(expr string) (*FilterExpr, error) {
	if expr == "" {
		return &FilterExpr{}, nil
	}

	filter := &FilterExpr{
		Conditions: make([]FilterCondition, 0),
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "name=bell" or "size>1MB"
func parseCondition(s string) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "="
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			cond := FilterCondition{
				Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
				Operator: op,
				Value:    strings.TrimSpace(s[idx+len(op):]),
			}

			if err := cond.init(); err != nil {
				return FilterCondition{}, err
			}

			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "name", "title":
		c.Field = "name"
	case "path", "file":
		c.Field = "path"
	case "ext", "extension", "format":
		c.Field = "ext"
		c.extValue = strings.ToLower(c.Value)
		if !strings.HasPrefix(c.extValue, ".") {
			c.extValue = "." + c.extValue
		}
	case "size":
		size, err := humanize.ParseBytes(c.Value)
		if err != nil {
			return fmt.Errorf("invalid size value: %w", err)
		}
		c.sizeVal = int64(size)
	case "modified", "mtime", "age":
		c.Field = "modified"
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid modified value: %w", err)
		}
		c.cutoff = time.Now().Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

// Match tests if a sound matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(s model.Sound) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(s) {
			return false
		}
	}
	return true
}

// Match tests if a sound matches this single condition.
func (c *FilterCondition) Match(s model.Sound) bool {
	switch c.Field {
	case "name":
		return c.matchString(s.Name)
	case "path":
		return c.matchString(s.Path)
	case "ext":
		switch c.Operator {
		case FilterOpEqual:
			return s.Ext() == c.extValue
		case FilterOpNotEqual:
			return s.Ext() != c.extValue
		default:
			return c.matchString(s.Ext())
		}
	case "size":
		return c.matchInt(s.Size, c.sizeVal)
	case "modified":
		return c.matchAge(time.Unix(s.ModTime, 0))
	default:
		return false
	}
}

// matchString matches a string field.
func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

// matchInt matches an integer field with numeric comparison.
func (c *FilterCondition) matchInt(fieldValue, condValue int64) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == condValue
	case FilterOpNotEqual:
		return fieldValue != condValue
	case FilterOpGreater:
		return fieldValue > condValue
	case FilterOpLess:
		return fieldValue < condValue
	case FilterOpGreaterEq:
		return fieldValue >= condValue
	case FilterOpLessEq:
		return fieldValue <= condValue
	default:
		return false
	}
}

// matchAge compares a modification time against an age: "<7d" means
// modified less than seven days ago.
func (c *FilterCondition) matchAge(modified time.Time) bool {
	switch c.Operator {
	case FilterOpLess:
		return modified.After(c.cutoff)
	case FilterOpLessEq:
		return !modified.Before(c.cutoff)
	case FilterOpGreater:
		return modified.Before(c.cutoff)
	case FilterOpGreaterEq:
		return !modified.After(c.cutoff)
	default:
		return false
	}
}

// FilterWithExpr filters sounds using a filter expression.
func FilterWithExpr(sounds []model.Sound, expr *FilterExpr) []model.Sound {
	if expr == nil || len(expr.Conditions) == 0 {
		return sounds
	}

	result := make([]model.Sound, 0, len(sounds))
	for _, s := range sounds {
		if expr.Match(s) {
			result = append(result, s)
		}
	}
	return result
}
