package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testExts = []string{".wav", ".mp3", ".ogg", ".flac"}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
}

func names(l *Library) []string {
	var result []string
	for _, s := range l.All() {
		result = append(result, s.Name)
	}
	return result
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bell.wav"))
	writeFile(t, filepath.Join(dir, "Chime.OGG"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "nested", "rain.flac"))
	writeFile(t, filepath.Join(dir, ".hidden", "secret.wav"))

	sounds, err := Scan([]string{dir, filepath.Join(dir, "missing")}, testExts, nil)
	require.NoError(t, err)

	found := map[string]bool{}
	for _, s := range sounds {
		found[s.Name] = true
		assert.Len(t, s.ID, 26)
		assert.True(t, filepath.IsAbs(s.Path))
	}
	assert.Equal(t, map[string]bool{"bell": true, "Chime": true, "rain": true}, found)
}

func TestScan_OverlappingDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sub", "bell.wav"))

	sounds, err := Scan([]string{dir, filepath.Join(dir, "sub")}, testExts, nil)
	require.NoError(t, err)
	assert.Len(t, sounds, 1)
}

func TestLibrary_RescanKeepsIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.wav"))
	writeFile(t, filepath.Join(dir, "a.mp3"))

	l := New([]string{dir}, testExts, nil)
	defer l.Close()

	events := l.Subscribe()
	require.NoError(t, l.Rescan())
	assert.Equal(t, []string{"a", "b"}, names(l))

	select {
	case e := <-events:
		assert.Equal(t, ChangeTypeRescan, e.Type)
		assert.Equal(t, 2, e.Added)
	case <-time.After(time.Second):
		t.Fatal("no change event")
	}

	before := l.All()
	require.NoError(t, l.Rescan())
	assert.Equal(t, before, l.All())

	select {
	case e := <-events:
		t.Fatalf("unexpected event for unchanged rescan: %+v", e)
	default:
	}

	require.NoError(t, os.Remove(filepath.Join(dir, "a.mp3")))
	require.NoError(t, l.Rescan())
	assert.Equal(t, []string{"b"}, names(l))

	e := <-events
	assert.Equal(t, 1, e.Removed)
	assert.Equal(t, 1, e.Count)
}

func TestLibrary_GetAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bell.wav"))
	writeFile(t, filepath.Join(dir, "chime.wav"))
	outside := filepath.Join(t.TempDir(), "other.ogg")
	writeFile(t, outside)

	l := New([]string{dir}, testExts, nil)
	require.NoError(t, l.Rescan())

	all := l.All()
	require.Len(t, all, 2)

	got, ok := l.Get(all[1].ID)
	require.True(t, ok)
	assert.Equal(t, "chime", got.Name)

	s, err := l.Resolve("1")
	require.NoError(t, err)
	assert.Equal(t, "bell", s.Name)

	s, err = l.Resolve("chime")
	require.NoError(t, err)
	assert.Equal(t, all[1].ID, s.ID)

	s, err = l.Resolve(outside)
	require.NoError(t, err, "existing files outside the library resolve directly")
	assert.Equal(t, "other", s.Name)

	_, err = l.Resolve("thunder")
	assert.Error(t, err)
}

func TestLibrary_Add(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bell.wav")
	writeFile(t, path)

	l := New(nil, testExts, nil)
	s, err := l.Add(path)
	require.NoError(t, err)

	again, err := l.Add(path)
	require.NoError(t, err)
	assert.Equal(t, s, again)
	assert.Equal(t, 1, l.Count())

	_, err = l.Add(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)

	l.Close()
	_, err = l.Add(path)
	assert.ErrorIs(t, err, ErrLibraryClosed)
}

func TestLibrary_CloseClosesSubscribers(t *testing.T) {
	l := New(nil, testExts, nil)
	ch := l.Subscribe()
	l.Close()

	_, ok := <-ch
	assert.False(t, ok)

	_, ok = <-l.Subscribe()
	assert.False(t, ok, "subscribing after close yields a closed channel")
}

func TestWatcher_RescansOnNewFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bell.wav"))

	l := New([]string{dir}, testExts, nil)
	require.NoError(t, l.Rescan())

	w := NewWatcher(l, testExts, nil)
	w.SetDebounce(10 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()
	assert.True(t, w.IsRunning())

	writeFile(t, filepath.Join(dir, "chime.ogg"))
	require.Eventually(t, func() bool { return l.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(dir, "deep", "rain.flac"))
	require.Eventually(t, func() bool { return l.Count() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestIsSoundFile(t *testing.T) {
	assert.True(t, IsSoundFile("/a/b.WAV", testExts))
	assert.True(t, IsSoundFile("x.flac", testExts))
	assert.False(t, IsSoundFile("x.txt", testExts))
	assert.False(t, IsSoundFile("wav", testExts))
}
