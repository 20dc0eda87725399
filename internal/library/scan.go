package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmylchreest/soundux/internal/model"
)

// Scan walks dirs recursively and returns the files whose extension is in
// exts. Missing directories are skipped with a warning; unreadable entries
// are logged and skipped.
func Scan(dirs, exts []string, logger *slog.Logger) ([]model.Sound, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make([]string, 0, len(exts))
	for _, e := range exts {
		allowed = append(allowed, strings.ToLower(e))
	}

	seen := make(map[string]bool)
	var sounds []model.Sound

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("sound directory not found", "dir", dir)
				continue
			}
			return nil, fmt.Errorf("failed to read sound directory: %w", err)
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path != dir && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}

			if !slices.Contains(allowed, strings.ToLower(filepath.Ext(path))) {
				return nil
			}

			s, err := model.NewSound(path)
			if err != nil {
				logger.Debug("skipping file", "path", path, "error", err)
				return nil
			}

			if seen[s.ID] {
				return nil
			}
			seen[s.ID] = true
			sounds = append(sounds, *s)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	}

	return sounds, nil
}

// IsSoundFile reports whether path has one of the extensions in exts.
func IsSoundFile(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
