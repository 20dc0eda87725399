package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/soundux/internal/model"
)

// Controller is the playback API served over D-Bus. *audio.Manager
// implements it.
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
	SetVolume(deviceName string, volume float64) (model.AudioDevice, error)
}

// SoundSource resolves sound references. *library.Library implements it.
type SoundSource interface {
	Resolve(ref string) (model.Sound, error)
	All() []model.Sound
}

// VolumeHandler is called after a device volume was changed over D-Bus.
type VolumeHandler func(device model.AudioDevice)

// Service holds the exported D-Bus methods. Every method returning a
// *dbus.Error is callable as Interface.<Method>.
type Service struct {
	ctl      Controller
	sounds   SoundSource
	logger   *slog.Logger
	onVolume VolumeHandler
}

// NewService creates a Service backed by ctl and sounds.
func NewService(ctl Controller, sounds SoundSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ctl: ctl, sounds: sounds, logger: logger}
}

// SetVolumeHandler sets the handler called after SetVolume succeeds.
func (s *Service) SetVolumeHandler(handler VolumeHandler) {
	s.onVolume = handler
}

// Play resolves ref and starts it on device ("" for the default device).
// D-Bus method: Play(ss) -> (ussssttbb)
func (s *Service) Play(ref, device string) (PlayingInfo, *dbus.Error) {
	s.logger.Debug("Play called", "ref", ref, "device", device)

	sound, err := s.sounds.Resolve(ref)
	if err != nil {
		return PlayingInfo{}, toDBusError(err)
	}
	p, err := s.ctl.Play(sound, device)
	if err != nil {
		s.logger.Warn("play failed", "path", sound.Path, "error", err)
		return PlayingInfo{}, toDBusError(err)
	}
	return NewPlayingInfo(p), nil
}

// Stop stops a playing sound.
// D-Bus method: Stop(u)
func (s *Service) Stop(id uint32) *dbus.Error {
	s.logger.Debug("Stop called", "id", id)
	return toDBusError(s.ctl.StopSound(id))
}

// StopAll stops every playing sound.
// D-Bus method: StopAll()
func (s *Service) StopAll() *dbus.Error {
	s.logger.Debug("StopAll called")
	s.ctl.StopAll()
	return nil
}

// Pause pauses a playing sound.
// D-Bus method: Pause(u) -> (ussssttbb)
func (s *Service) Pause(id uint32) (PlayingInfo, *dbus.Error) {
	return s.reply(s.ctl.Pause(id))
}

// Resume resumes a paused sound.
// D-Bus method: Resume(u) -> (ussssttbb)
func (s *Service) Resume(id uint32) (PlayingInfo, *dbus.Error) {
	return s.reply(s.ctl.Resume(id))
}

// Seek moves a sound to positionMs milliseconds.
// D-Bus method: Seek(ut) -> (ussssttbb)
func (s *Service) Seek(id uint32, positionMs uint64) (PlayingInfo, *dbus.Error) {
	return s.reply(s.ctl.Seek(id, positionMs))
}

// SetRepeat toggles looping.
// D-Bus method: SetRepeat(ub) -> (ussssttbb)
func (s *Service) SetRepeat(id uint32, repeat bool) (PlayingInfo, *dbus.Error) {
	return s.reply(s.ctl.SetRepeat(id, repeat))
}

func (s *Service) reply(p model.PlayingSound, err error) (PlayingInfo, *dbus.Error) {
	if err != nil {
		return PlayingInfo{}, toDBusError(err)
	}
	return NewPlayingInfo(p), nil
}

// PlayingSounds lists active sounds.
// D-Bus method: PlayingSounds() -> a(ussssttbb)
func (s *Service) PlayingSounds() ([]PlayingInfo, *dbus.Error) {
	return convert(s.ctl.PlayingSounds(), NewPlayingInfo), nil
}

// Devices lists playback devices.
// D-Bus method: Devices() -> a(sbd)
func (s *Service) Devices() ([]DeviceInfo, *dbus.Error) {
	return convert(s.ctl.Devices(), NewDeviceInfo), nil
}

// Sounds lists the sound library.
// D-Bus method: Sounds() -> a(sssxx)
func (s *Service) Sounds() ([]SoundInfo, *dbus.Error) {
	return convert(s.sounds.All(), NewSoundInfo), nil
}

// SetVolume sets a device volume in [0, 1]. Playing sounds pick it up on
// their next buffer.
// D-Bus method: SetVolume(sd) -> (sbd)
func (s *Service) SetVolume(device string, volume float64) (DeviceInfo, *dbus.Error) {
	s.logger.Debug("SetVolume called", "device", device, "volume", volume)

	d, err := s.ctl.SetVolume(device, volume)
	if err != nil {
		return DeviceInfo{}, toDBusError(err)
	}
	if s.onVolume != nil {
		s.onVolume(d)
	}
	return NewDeviceInfo(d), nil
}

// Server owns the bus connection and exports a Service on it.
type Server struct {
	conn    *dbus.Conn
	service *Service
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewServer creates a Server for service.
func NewServer(service *Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{service: service, logger: logger}
}

// Start connects to the session bus, exports the service and claims BusName.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := s.export(conn); err != nil {
		_ = conn.Close()
		return err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf("bus name %s already taken (is sounduxd already running?)", BusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus control server started", "interface", Interface, "path", Path)
	return nil
}

func (s *Server) export(conn *dbus.Conn) error {
	if err := conn.Export(s.service, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: serviceMethods(),
				Signals: serviceSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	err := s.conn.Close()

	s.logger.Info("D-Bus control server stopped")
	return err
}

// Conn returns the bus connection, or nil before Start.
func (s *Server) Conn() *dbus.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

const (
	playingSig = "(ussssttbb)"
	deviceSig  = "(sbd)"
	soundSig   = "(sssxx)"
)

// serviceMethods returns the D-Bus method introspection data.
func serviceMethods() []introspect.Method {
	idArg := introspect.Arg{Name: "id", Type: "u", Direction: "in"}
	soundOut := introspect.Arg{Name: "sound", Type: playingSig, Direction: "out"}

	return []introspect.Method{
		{
			Name: "Play",
			Args: []introspect.Arg{
				{Name: "ref", Type: "s", Direction: "in"},
				{Name: "device", Type: "s", Direction: "in"},
				soundOut,
			},
		},
		{Name: "Stop", Args: []introspect.Arg{idArg}},
		{Name: "StopAll"},
		{Name: "Pause", Args: []introspect.Arg{idArg, soundOut}},
		{Name: "Resume", Args: []introspect.Arg{idArg, soundOut}},
		{
			Name: "Seek",
			Args: []introspect.Arg{
				idArg,
				{Name: "position_ms", Type: "t", Direction: "in"},
				soundOut,
			},
		},
		{
			Name: "SetRepeat",
			Args: []introspect.Arg{
				idArg,
				{Name: "repeat", Type: "b", Direction: "in"},
				soundOut,
			},
		},
		{
			Name: "PlayingSounds",
			Args: []introspect.Arg{{Name: "sounds", Type: "a" + playingSig, Direction: "out"}},
		},
		{
			Name: "Devices",
			Args: []introspect.Arg{{Name: "devices", Type: "a" + deviceSig, Direction: "out"}},
		},
		{
			Name: "Sounds",
			Args: []introspect.Arg{{Name: "sounds", Type: "a" + soundSig, Direction: "out"}},
		},
		{
			Name: "SetVolume",
			Args: []introspect.Arg{
				{Name: "device", Type: "s", Direction: "in"},
				{Name: "volume", Type: "d", Direction: "in"},
				{Name: "result", Type: deviceSig, Direction: "out"},
			},
		},
	}
}

// serviceSignals returns the D-Bus signal introspection data.
func serviceSignals() []introspect.Signal {
	arg := []introspect.Arg{{Name: "sound", Type: playingSig}}
	return []introspect.Signal{
		{Name: SignalSoundPlayed, Args: arg},
		{Name: SignalSoundProgressed, Args: arg},
		{Name: SignalSoundFinished, Args: arg},
	}
}
