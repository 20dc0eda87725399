package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"1500", 1500},
		{"0", 0},
		{"1:30", 90_000},
		{"0:05.5", 5_500},
		{"1m30s", 90_000},
		{"250ms", 250},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePosition(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "1:75", "-5s", "x:10"} {
		_, err := parsePosition(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSwitch(t *testing.T) {
	on, err := parseSwitch("ON")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := parseSwitch("off")
	require.NoError(t, err)
	assert.False(t, off)

	_, err = parseSwitch("maybe")
	assert.Error(t, err)
}

func TestParsePercent(t *testing.T) {
	v, err := parsePercent("40%")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, v, 1e-9)

	_, err = parsePercent("101")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)

	_, err = parseID("-1")
	assert.Error(t, err)
}

func TestNormalizeExts(t *testing.T) {
	assert.Equal(t, []string{".ogg", ".wav"}, normalizeExts([]string{"OGG", " .wav", ""}))
}
