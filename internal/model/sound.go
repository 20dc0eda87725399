// Package model defines the core data structures for soundux.
package model

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sound is a playable audio file. The playback core only reads Path;
// the other fields exist for listing and lookup.
type Sound struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path" yaml:"path"`
	Size    int64  `json:"size" yaml:"size"`
	ModTime int64  `json:"mod_time" yaml:"mod_time"`
}

// Validation errors.
var (
	ErrEmptyPath = errors.New("sound path cannot be empty")
	ErrNotAFile  = errors.New("sound path is not a regular file")
)

// NewSound creates a Sound for the file at path.
// The ID is a ULID built from the file's modification time with entropy
// derived from the absolute path, so rescanning the same file yields the same ID.
func NewSound(path string) (*Sound, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sound path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat sound file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, abs)
	}

	id, err := SoundID(abs, info.ModTime())
	if err != nil {
		return nil, err
	}

	return &Sound{
		ID:      id,
		Name:    SoundName(abs),
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}, nil
}

// SoundID returns the deterministic ULID for a file path and modification time.
func SoundID(path string, modTime time.Time) (string, error) {
	sum := sha256.Sum256([]byte(path))
	id, err := ulid.New(ulid.Timestamp(modTime), bytes.NewReader(sum[:]))
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// SoundName returns the display name for a sound file: its base name
// without extension.
func SoundName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ext returns the lower-cased file extension including the dot.
func (s *Sound) Ext() string {
	return strings.ToLower(filepath.Ext(s.Path))
}
