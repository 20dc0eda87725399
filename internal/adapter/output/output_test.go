package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/soundux/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testSounds() []model.Sound {
	now := time.Now()
	return []model.Sound{
		{
			ID:      "01HQ0AAAAAAAAAAAAAAAAAAAAA",
			Name:    "bell",
			Path:    "/alerts/bell.wav",
			Size:    2_000_000,
			ModTime: now.Add(-5 * time.Minute).Unix(),
		},
		{
			ID:      "01HQ0BBBBBBBBBBBBBBBBBBBBB",
			Name:    "chime",
			Path:    "/alerts/chime.ogg",
			Size:    500,
			ModTime: now.Add(-2 * time.Hour).Unix(),
		},
	}
}

func testDevices() []model.AudioDevice {
	return []model.AudioDevice{
		{Name: "Headphones", Volume: 0.5},
		{Name: "Speakers", IsDefault: true, Volume: 1},
	}
}

func testPlaying() []model.PlayingSound {
	return []model.PlayingSound{
		{
			ID:         3,
			Sound:      model.Sound{Name: "bell"},
			Device:     model.AudioDevice{Name: "Speakers"},
			LengthInMs: 65000,
			ReadInMs:   5000,
			Repeat:     true,
		},
		{ID: 4, Sound: model.Sound{Name: "chime"}, Paused: true},
	}
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestPlainFormatter_Sounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Sounds(&buf, testSounds()))

	got := lines(&buf)
	require.Len(t, got, 2)
	assert.Equal(t, "[1] bell (2.0 MB)", got[0])
	assert.Equal(t, "[2] chime (500 B)", got[1])
}

func TestPlainFormatter_SoundsOptions(t *testing.T) {
	var buf bytes.Buffer
	opts := FormatterOptions{ShowPath: true, ShowTime: true}
	require.NoError(t, NewPlainFormatter(opts).Sounds(&buf, testSounds()))

	got := lines(&buf)
	assert.Equal(t, "/alerts/bell.wav (5m)", got[0])
	assert.Equal(t, "/alerts/chime.ogg (2h)", got[1])
}

func TestPlainFormatter_Template(t *testing.T) {
	var buf bytes.Buffer
	opts := FormatterOptions{Template: "{{.Index}}:{{.Sound.Name | upper}}:{{.Size}}"}
	require.NoError(t, NewPlainFormatter(opts).Sounds(&buf, testSounds()))

	assert.Equal(t, []string{"1:BELL:2.0 MB", "2:CHIME:500 B"}, lines(&buf))
}

func TestPlainFormatter_Devices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Devices(&buf, testDevices()))

	assert.Equal(t, []string{"  Headphones (50%)", "* Speakers (100%)"}, lines(&buf))
}

func TestPlainFormatter_Playing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Playing(&buf, testPlaying()))

	assert.Equal(t, []string{
		"[3] bell 0:05/1:05 playing repeat on Speakers",
		"[4] chime 0:00/0:00 paused",
	}, lines(&buf))
}

func TestDmenuFormatter_Sounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDmenuFormatter(DefaultFormatterOptions()).Sounds(&buf, testSounds()))

	got := lines(&buf)
	assert.Equal(t, "1 | bell | 2.0 MB", got[0])
	assert.Equal(t, "2", ParseIndex(got[1], ""))
}

func TestDmenuFormatter_CustomSeparator(t *testing.T) {
	var buf bytes.Buffer
	opts := FormatterOptions{ShowIndex: true, Separator: "\t"}
	require.NoError(t, NewDmenuFormatter(opts).Sounds(&buf, testSounds()))

	got := lines(&buf)
	assert.Equal(t, "1\tbell", got[0])
	assert.Equal(t, "1", ParseIndex(got[0], "\t"))
}

func TestDmenuFormatter_DevicesDefaultFirst(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDmenuFormatter(DefaultFormatterOptions()).Devices(&buf, testDevices()))

	assert.Equal(t, []string{"Speakers", "Headphones"}, lines(&buf))
}

func TestJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(DefaultFormatterOptions())

	var buf bytes.Buffer
	require.NoError(t, f.Devices(&buf, testDevices()))

	var devices []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &devices))
	require.Len(t, devices, 2)
	assert.Equal(t, "Speakers", devices[1]["name"])
	assert.Equal(t, true, devices[1]["default"])

	buf.Reset()
	require.NoError(t, f.Playing(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))

	buf.Reset()
	require.NoError(t, f.Event(&buf, "finished", testPlaying()[0]))
	assert.Contains(t, buf.String(), `"event":"finished"`)
	assert.Contains(t, buf.String(), `"read_ms":5000`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter().Sounds(&buf, testSounds()))

	var sounds []model.Sound
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &sounds))
	assert.Equal(t, testSounds()[0].ID, sounds[0].ID)
	assert.Contains(t, buf.String(), "path: /alerts/bell.wav")
}

func TestIDsFormatter(t *testing.T) {
	f := NewIDsFormatter()

	var buf bytes.Buffer
	require.NoError(t, f.Sounds(&buf, testSounds()))
	assert.Equal(t, []string{"01HQ0AAAAAAAAAAAAAAAAAAAAA", "01HQ0BBBBBBBBBBBBBBBBBBBBB"}, lines(&buf))

	buf.Reset()
	require.NoError(t, f.Playing(&buf, testPlaying()))
	assert.Equal(t, []string{"3", "4"}, lines(&buf))
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, opts))
	assert.IsType(t, &DmenuFormatter{}, NewFormatter(FormatDmenu, opts))
	assert.IsType(t, &IDsFormatter{}, NewFormatter(FormatIDs, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("unknown", opts))
}

func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "0%", FormatVolume(0))
	assert.Equal(t, "55%", FormatVolume(0.55))
	assert.Equal(t, "100%", FormatVolume(1))
}
