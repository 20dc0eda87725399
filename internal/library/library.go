// Package library indexes the sound files found in the configured
// directories.
package library

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/jmylchreest/soundux/internal/core"
	"github.com/jmylchreest/soundux/internal/model"
)

// ErrLibraryClosed is returned by operations on a closed library.
var ErrLibraryClosed = errors.New("library is closed")

// ChangeType indicates the type of library change.
type ChangeType int

const (
	// ChangeTypeRescan indicates the library was rebuilt from disk.
	ChangeTypeRescan ChangeType = iota
	// ChangeTypeAdd indicates a sound was added by hand.
	ChangeTypeAdd
)

// ChangeEvent signals library content changes.
type ChangeEvent struct {
	Type    ChangeType
	Count   int // Sounds in the library after the change
	Added   int
	Removed int
}

// Library is a thread-safe, sorted set of sounds.
type Library struct {
	mu     sync.RWMutex
	logger *slog.Logger
	dirs   []string
	exts   []string

	sounds []model.Sound
	index  map[string]int // id -> slice index

	subscribers []chan ChangeEvent
	closed      bool
}

// New creates an empty library over dirs, accepting files with the given
// extensions.
func New(dirs, exts []string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}

	return &Library{
		logger: logger,
		dirs:   slices.Clone(dirs),
		exts:   slices.Clone(exts),
		index:  make(map[string]int),
	}
}

// Dirs returns the scanned directories.
func (l *Library) Dirs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.dirs)
}

// Extensions returns the accepted file extensions.
func (l *Library) Extensions() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.exts)
}

// SetDirs changes the scanned directories and extensions. The next Rescan
// uses them.
func (l *Library) SetDirs(dirs, exts []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirs = slices.Clone(dirs)
	l.exts = slices.Clone(exts)
}

// Rescan rebuilds the library from disk. Sounds that did not change keep
// their IDs.
func (l *Library) Rescan() error {
	l.mu.RLock()
	dirs, exts := l.dirs, l.exts
	l.mu.RUnlock()

	sounds, err := Scan(dirs, exts, l.logger)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLibraryClosed
	}

	added, removed := diff(l.index, sounds)
	l.replace(sounds)

	l.logger.Debug("library rescanned", "sounds", len(sounds), "added", added, "removed", removed)

	if added > 0 || removed > 0 {
		l.notifyChange(ChangeEvent{
			Type:    ChangeTypeRescan,
			Count:   len(sounds),
			Added:   added,
			Removed: removed,
		})
	}
	return nil
}

// Add adds a single file to the library, returning the existing entry if it
// is already present.
func (l *Library) Add(path string) (model.Sound, error) {
	s, err := model.NewSound(path)
	if err != nil {
		return model.Sound{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return model.Sound{}, ErrLibraryClosed
	}

	if idx, ok := l.index[s.ID]; ok {
		return l.sounds[idx], nil
	}

	sounds := append(slices.Clone(l.sounds), *s)
	l.replace(sounds)

	l.notifyChange(ChangeEvent{Type: ChangeTypeAdd, Count: len(l.sounds), Added: 1})
	return *s, nil
}

// replace swaps in sounds sorted by name. Callers hold mu.
func (l *Library) replace(sounds []model.Sound) {
	core.Sort(sounds, core.DefaultSortOptions())

	index := make(map[string]int, len(sounds))
	for i, s := range sounds {
		index[s.ID] = i
	}
	l.sounds = sounds
	l.index = index
}

// diff counts the sounds added and removed relative to index.
func diff(index map[string]int, sounds []model.Sound) (added, removed int) {
	seen := make(map[string]bool, len(sounds))
	for _, s := range sounds {
		seen[s.ID] = true
		if _, ok := index[s.ID]; !ok {
			added++
		}
	}
	for id := range index {
		if !seen[id] {
			removed++
		}
	}
	return added, removed
}

// All returns every sound, sorted by name.
func (l *Library) All() []model.Sound {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.sounds)
}

// Count returns the number of sounds.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sounds)
}

// Get returns the sound with the given ID.
func (l *Library) Get(id string) (model.Sound, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.index[id]
	if !ok {
		return model.Sound{}, false
	}
	return l.sounds[idx], true
}

// Resolve finds a sound by ID, 1-based index, name, path or ID prefix.
// References to existing files outside the library resolve to an unindexed
// sound.
func (l *Library) Resolve(ref string) (model.Sound, error) {
	l.mu.RLock()
	s, err := core.Resolve(l.sounds, ref)
	var found model.Sound
	if err == nil {
		found = *s
	}
	l.mu.RUnlock()

	if err == nil {
		return found, nil
	}

	if direct, serr := model.NewSound(ref); serr == nil {
		return *direct, nil
	}
	return model.Sound{}, err
}

// Subscribe returns a channel that receives change events.
// The channel is closed when the library is closed.
func (l *Library) Subscribe() <-chan ChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	if l.closed {
		close(ch)
		return ch
	}
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription channel.
func (l *Library) Unsubscribe(ch <-chan ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sub := range l.subscribers {
		if sub == ch {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// notifyChange sends a change event to all subscribers without blocking.
// Callers hold mu.
func (l *Library) notifyChange(event ChangeEvent) {
	for _, ch := range l.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow; it will pick up the state on its next read
		}
	}
}

// Close closes all subscriptions.
func (l *Library) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	for _, ch := range l.subscribers {
		close(ch)
	}
	l.subscribers = nil
}
