package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/soundux/internal/model"
)

func sortFixture() []model.Sound {
	return []model.Sound{
		{Name: "chime", Path: "/a/chime.ogg", Size: 300, ModTime: 20},
		{Name: "Bell", Path: "/b/bell.wav", Size: 100, ModTime: 30},
		{Name: "bell", Path: "/a/bell.wav", Size: 200, ModTime: 10},
	}
}

func names(sounds []model.Sound) []string {
	result := make([]string, 0, len(sounds))
	for _, s := range sounds {
		result = append(result, s.Path)
	}
	return result
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		opts SortOptions
		want []string
	}{
		{"name asc, ties by path", DefaultSortOptions(), []string{"/a/bell.wav", "/b/bell.wav", "/a/chime.ogg"}},
		{"name desc", SortOptions{Field: SortByName, Order: SortDesc}, []string{"/a/chime.ogg", "/a/bell.wav", "/b/bell.wav"}},
		{"size asc", SortOptions{Field: SortBySize, Order: SortAsc}, []string{"/b/bell.wav", "/a/bell.wav", "/a/chime.ogg"}},
		{"size desc", SortOptions{Field: SortBySize, Order: SortDesc}, []string{"/a/chime.ogg", "/a/bell.wav", "/b/bell.wav"}},
		{"modified asc", SortOptions{Field: SortByModified, Order: SortAsc}, []string{"/a/bell.wav", "/a/chime.ogg", "/b/bell.wav"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sounds := sortFixture()
			Sort(sounds, tt.opts)
			assert.Equal(t, tt.want, names(sounds))
		})
	}
}

func TestSort_Empty(t *testing.T) {
	Sort(nil, DefaultSortOptions())
}

func TestParseSortField(t *testing.T) {
	tests := map[string]SortField{
		"name":     SortByName,
		"":         SortByName,
		"SIZE":     SortBySize,
		"s":        SortBySize,
		"modified": SortByModified,
		"mtime":    SortByModified,
		"bogus":    SortByName,
	}

	for input, want := range tests {
		got, err := ParseSortField(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got, input)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := map[string]SortOrder{
		"asc":        SortAsc,
		"descending": SortDesc,
		"d":          SortDesc,
		"":           SortAsc,
	}

	for input, want := range tests {
		got, err := ParseSortOrder(input)
		assert.NoError(t, err)
		assert.Equal(t, want, got, input)
	}
}
