// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/library"
	"github.com/jmylchreest/soundux/internal/model"
)

// seekStep is how far the seek keys move a sound.
const seekStep = 5 * time.Second

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeSearch
	ModeHelp
)

// Pane is the part of the screen that receives navigation keys.
type Pane int

const (
	PaneSounds Pane = iota
	PanePlaying
)

// Controller is the playback API the TUI drives. *audio.Manager implements it.
type Controller interface {
	Play(sound model.Sound, deviceName string) (model.PlayingSound, error)
	StopSound(id uint32) error
	StopAll()
	Pause(id uint32) (model.PlayingSound, error)
	Resume(id uint32) (model.PlayingSound, error)
	Seek(id uint32, positionMs uint64) (model.PlayingSound, error)
	SetRepeat(id uint32, repeat bool) (model.PlayingSound, error)
	PlayingSounds() []model.PlayingSound
	Devices() []model.AudioDevice
}

// Model is the main TUI model.
type Model struct {
	ctl     Controller
	library *library.Library

	mode Mode
	pane Pane

	// Components
	list        list.Model
	searchInput textinput.Model
	help        help.Model
	bar         progress.Model

	// State
	sounds      []model.Sound
	playing     []model.PlayingSound
	cursor      int // selected playing sound
	devices     []model.AudioDevice
	device      int // index into devices, -1 = system default
	searchQuery string
	width       int
	height      int
	ready       bool

	keys KeyMap

	statusMsg string
	statusErr bool

	events    <-chan audio.Event
	refreshCh <-chan library.ChangeEvent
}

// soundItem wraps a sound for the list component.
type soundItem struct {
	sound model.Sound
	index int
}

func (i soundItem) Title() string {
	return fmt.Sprintf("%d. %s", i.index+1, i.sound.Name)
}

func (i soundItem) Description() string {
	return fmt.Sprintf("%s  %s  %s",
		i.sound.Ext(),
		humanize.Bytes(uint64(max(i.sound.Size, 0))),
		i.sound.Path)
}

func (i soundItem) FilterValue() string {
	return i.sound.Name + " " + i.sound.Path
}

// New creates a new TUI model. events carries playback notifications (from
// an audio.ChanSink); lib may be nil.
func New(ctl Controller, lib *library.Library, events <-chan audio.Event) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Sounds"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "name, or ext=wav,size>1MB"
	searchInput.CharLimit = 100

	m := Model{
		ctl:         ctl,
		library:     lib,
		mode:        ModeList,
		pane:        PaneSounds,
		list:        l,
		searchInput: searchInput,
		help:        help.New(),
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		device:      -1,
		keys:        DefaultKeyMap(),
		events:      events,
	}

	if lib != nil {
		m.refreshCh = lib.Subscribe()
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSounds,
		m.waitForEvent,
		m.watchForChanges,
	)
}

type loadSoundsMsg struct{}

func (m Model) loadSounds() tea.Msg {
	return loadSoundsMsg{}
}

type playbackMsg audio.Event

// waitForEvent waits for the next playback notification.
func (m Model) waitForEvent() tea.Msg {
	if m.events == nil {
		return nil
	}
	e, ok := <-m.events
	if !ok {
		return nil
	}
	return playbackMsg(e)
}

type refreshMsg struct{}

// watchForChanges waits for the library to change on disk.
func (m Model) watchForChanges() tea.Msg {
	if m.refreshCh == nil {
		return nil
	}
	if _, ok := <-m.refreshCh; !ok {
		return nil
	}
	return refreshMsg{}
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.bar.Width = max(msg.Width/3, 10)
		m.resize()
		return m, nil

	case loadSoundsMsg:
		m.reload()
		return m, nil

	case refreshMsg:
		m.reload()
		return m, m.watchForChanges

	case playbackMsg:
		m.refreshPlaying()
		if msg.Type == audio.EventFinished {
			return m, tea.Batch(m.waitForEvent, status("Finished "+msg.Sound.Sound.Name, false))
		}
		return m, m.waitForEvent

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied path to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModeSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	return m.handleListKey(msg)
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus):
		if m.pane == PaneSounds && len(m.playing) > 0 {
			m.pane = PanePlaying
		} else {
			m.pane = PaneSounds
		}
		return m, nil

	case key.Matches(msg, m.keys.Play):
		item, ok := m.list.SelectedItem().(soundItem)
		if !ok {
			return m, nil
		}
		p, err := m.ctl.Play(item.sound, m.deviceName())
		if err != nil {
			return m, status("Play failed: "+err.Error(), true)
		}
		m.refreshPlaying()
		m.selectPlaying(p.ID)
		return m, status(fmt.Sprintf("Playing %s on %s", p.Sound.Name, p.Device.Name), false)

	case key.Matches(msg, m.keys.Pause):
		return m.control(func(p model.PlayingSound) (model.PlayingSound, error) {
			if p.Paused {
				return m.ctl.Resume(p.ID)
			}
			return m.ctl.Pause(p.ID)
		})

	case key.Matches(msg, m.keys.Stop):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		err := m.ctl.StopSound(p.ID)
		m.refreshPlaying()
		if err != nil {
			return m, status("Stop failed: "+err.Error(), true)
		}
		return m, status("Stopped "+p.Sound.Name, false)

	case key.Matches(msg, m.keys.StopAll):
		m.ctl.StopAll()
		m.refreshPlaying()
		return m, status("Stopped all sounds", false)

	case key.Matches(msg, m.keys.Repeat):
		return m.control(func(p model.PlayingSound) (model.PlayingSound, error) {
			return m.ctl.SetRepeat(p.ID, !p.Repeat)
		})

	case key.Matches(msg, m.keys.SeekBack):
		return m.control(func(p model.PlayingSound) (model.PlayingSound, error) {
			step := uint64(seekStep.Milliseconds())
			return m.ctl.Seek(p.ID, p.ReadInMs-min(step, p.ReadInMs))
		})

	case key.Matches(msg, m.keys.SeekAhead):
		return m.control(func(p model.PlayingSound) (model.PlayingSound, error) {
			return m.ctl.Seek(p.ID, p.ReadInMs+uint64(seekStep.Milliseconds()))
		})

	case key.Matches(msg, m.keys.NextDevice):
		m.devices = m.ctl.Devices()
		m.device++
		if m.device >= len(m.devices) {
			m.device = -1
		}
		return m, status("Output: "+m.deviceLabel(), false)

	case key.Matches(msg, m.keys.Copy):
		if item, ok := m.list.SelectedItem().(soundItem); ok {
			path := item.sound.Path
			return m, func() tea.Msg {
				return copyResultMsg{err: copyText(path)}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue(m.searchQuery)
		m.mode = ModeSearch
		m.pane = PaneSounds
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		if m.library == nil {
			return m, nil
		}
		lib := m.library
		return m, func() tea.Msg {
			if err := lib.Rescan(); err != nil {
				return statusMsg{text: "Rescan failed: " + err.Error(), isErr: true}
			}
			return loadSoundsMsg{}
		}
	}

	if m.pane == PanePlaying {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.cursor = max(m.cursor-1, 0)
		case key.Matches(msg, m.keys.Down):
			m.cursor = min(m.cursor+1, max(len(m.playing)-1, 0))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// control applies fn to the selected playing sound and reports failures.
func (m Model) control(fn func(p model.PlayingSound) (model.PlayingSound, error)) (tea.Model, tea.Cmd) {
	p, ok := m.selected()
	if !ok {
		return m, status("Nothing is playing", true)
	}
	_, err := fn(p)
	m.refreshPlaying()
	if err != nil {
		return m, status(err.Error(), true)
	}
	return m, nil
}

// handleSearchKey handles keys in search mode.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.rebuildList()
		return m, nil

	case tea.KeyEnter:
		m.mode = ModeList
		m.searchInput.Blur()
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Live filtering
	m.searchQuery = m.searchInput.Value()
	m.rebuildList()

	return m, cmd
}

// reload refetches sounds, playing sounds and devices.
func (m *Model) reload() {
	if m.library != nil {
		m.sounds = m.library.All()
	}
	m.devices = m.ctl.Devices()
	if m.device >= len(m.devices) {
		m.device = -1
	}
	m.rebuildList()
	m.refreshPlaying()
}

func (m *Model) rebuildList() {
	sounds := filterSounds(m.sounds, m.searchQuery)
	items := make([]list.Item, len(sounds))
	for i, s := range sounds {
		items[i] = soundItem{sound: s, index: i}
	}
	m.list.SetItems(items)
}

func (m *Model) refreshPlaying() {
	m.playing = m.ctl.PlayingSounds()
	if m.cursor >= len(m.playing) {
		m.cursor = max(len(m.playing)-1, 0)
	}
	if len(m.playing) == 0 {
		m.pane = PaneSounds
	}
	m.resize()
}

func (m *Model) selectPlaying(id uint32) {
	for i, p := range m.playing {
		if p.ID == id {
			m.cursor = i
			return
		}
	}
}

// selected returns the playing sound under the cursor.
func (m Model) selected() (model.PlayingSound, bool) {
	if m.cursor < 0 || m.cursor >= len(m.playing) {
		return model.PlayingSound{}, false
	}
	return m.playing[m.cursor], true
}

func (m Model) deviceName() string {
	if m.device < 0 || m.device >= len(m.devices) {
		return ""
	}
	return m.devices[m.device].Name
}

func (m Model) deviceLabel() string {
	if name := m.deviceName(); name != "" {
		return name
	}
	return "system default"
}

// resize gives the list whatever the playing panel leaves over.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	panel := len(m.playing) + 2
	m.list.SetSize(m.width, max(m.height-panel-2, 3))
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeHelp:
		return m.viewHelp()
	case ModeSearch:
		return m.viewSearch()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	return m.list.View() + "\n" + m.viewPlaying() + "\n" + m.viewFooter()
}

func (m Model) viewSearch() string {
	count := dimStyle.Render(fmt.Sprintf("(%d matches)", len(m.list.Items())))
	searchBar := "Search: " + m.searchInput.View() + " " + count
	return searchBar + "\n" + m.list.View() + "\n" + m.viewPlaying()
}

// viewPlaying renders one line per playing sound with a progress bar.
func (m Model) viewPlaying() string {
	var b strings.Builder

	title := fmt.Sprintf("Playing (%d)  output: %s", len(m.playing), m.deviceLabel())
	b.WriteString(headerStyle.Render(title))

	if len(m.playing) == 0 {
		b.WriteString("\n" + dimStyle.Render("  nothing playing"))
		return b.String()
	}

	for i, p := range m.playing {
		marker := "  "
		name := p.Sound.Name
		if i == m.cursor && m.pane == PanePlaying {
			marker = "> "
			name = selectedStyle.Render(name)
		}

		state := p.State()
		if p.Repeat {
			state += " repeat"
		}

		fmt.Fprintf(&b, "\n%s%-3d %s %s %s %s",
			marker, p.ID, m.bar.ViewAs(p.Progress()), p.Position(), name, dimStyle.Render(state+" on "+p.Device.Name))
	}

	return b.String()
}

func (m Model) viewFooter() string {
	if m.statusMsg != "" {
		if m.statusErr {
			return errStyle.Render(m.statusMsg)
		}
		return m.statusMsg
	}
	return m.help.View(m.keys)
}

func (m Model) viewHelp() string {
	h := m.help
	h.ShowAll = true

	s := headerStyle.Render("Keyboard Shortcuts") + "\n\n"
	s += h.View(m.keys) + "\n\n"
	s += dimStyle.Render("Search accepts plain text or filters such as ext=wav,size>1MB,modified<7d") + "\n"
	s += dimStyle.Render("Press ? or esc to return")
	return s
}

// RunOptions configures the TUI.
type RunOptions struct {
	Controller Controller
	Library    *library.Library
	Events     <-chan audio.Event
}

// Run starts the TUI and blocks until the user quits.
func Run(opts RunOptions) error {
	m := New(opts.Controller, opts.Library, opts.Events)
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err := p.Run()

	if opts.Library != nil && m.refreshCh != nil {
		opts.Library.Unsubscribe(m.refreshCh)
	}
	return err
}
