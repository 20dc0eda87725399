// Package core provides filtering, sorting, and lookup logic for sounds.
package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmylchreest/soundux/internal/model"
)

// Lookup errors.
var (
	ErrNoMatch   = errors.New("no sound matches")
	ErrAmbiguous = errors.New("reference matches more than one sound")
)

// LookupByID finds a sound by its ULID.
// Returns nil if not found.
func LookupByID(sounds []model.Sound, id string) *model.Sound {
	for i := range sounds {
		if sounds[i].ID == id {
			return &sounds[i]
		}
	}
	return nil
}

// LookupByIDPrefix finds the sound whose ID starts with prefix
// (case-insensitive). Returns nil if none or more than one match.
func LookupByIDPrefix(sounds []model.Sound, prefix string) *model.Sound {
	if prefix == "" {
		return nil
	}

	prefix = strings.ToUpper(prefix)
	var found *model.Sound
	for i := range sounds {
		if strings.HasPrefix(sounds[i].ID, prefix) {
			if found != nil {
				return nil
			}
			found = &sounds[i]
		}
	}
	return found
}

// LookupByIndex finds a sound by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(sounds []model.Sound, index int) *model.Sound {
	idx := index - 1
	if idx < 0 || idx >= len(sounds) {
		return nil
	}
	return &sounds[idx]
}

// LookupByName finds a sound by display name, case-insensitive.
func LookupByName(sounds []model.Sound, name string) *model.Sound {
	for i := range sounds {
		if strings.EqualFold(sounds[i].Name, name) {
			return &sounds[i]
		}
	}
	return nil
}

// LookupByPath finds a sound by path. Relative paths are resolved first.
func LookupByPath(sounds []model.Sound, path string) *model.Sound {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	for i := range sounds {
		if sounds[i].Path == abs {
			return &sounds[i]
		}
	}
	return nil
}

// Resolve finds a sound from a user supplied reference, trying in order:
// full ID, 1-based index, exact name, path, unique ID prefix and finally a
// unique name search.
func Resolve(sounds []model.Sound, ref string) (*model.Sound, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrNoMatch)
	}

	if s := LookupByID(sounds, strings.ToUpper(ref)); s != nil {
		return s, nil
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		if s := LookupByIndex(sounds, idx); s != nil {
			return s, nil
		}
	}
	if s := LookupByName(sounds, ref); s != nil {
		return s, nil
	}
	if s := LookupByPath(sounds, ref); s != nil {
		return s, nil
	}
	if s := LookupByIDPrefix(sounds, ref); s != nil {
		return s, nil
	}

	switch matches := Search(sounds, ref); len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, ref)
	case 1:
		return LookupByID(sounds, matches[0].ID), nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d sounds", ErrAmbiguous, ref, len(matches))
	}
}

// Search finds sounds whose name or path contains term.
// Case-insensitive substring match.
func Search(sounds []model.Sound, term string) []model.Sound {
	if term == "" {
		return sounds
	}

	term = strings.ToLower(term)
	var result []model.Sound

	for _, s := range sounds {
		if strings.Contains(strings.ToLower(s.Name), term) ||
			strings.Contains(strings.ToLower(s.Path), term) {
			result = append(result, s)
		}
	}

	return result
}

// UniqueDirs returns a sorted list of the directories containing sounds.
func UniqueDirs(sounds []model.Sound) []string {
	seen := make(map[string]bool)
	var dirs []string

	for _, s := range sounds {
		dir := filepath.Dir(s.Path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	sortStrings(dirs)
	return dirs
}

// sortStrings sorts strings in place (simple insertion sort for small lists).
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && strings.ToLower(s[j]) < strings.ToLower(s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
