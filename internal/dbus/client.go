package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/model"
)

// Client calls a running sounduxd over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Connect opens a private session bus connection to sounduxd.
func Connect() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(BusName, Path)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, args ...any) *dbus.Call {
	return c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...)
}

func (c *Client) playing(ctx context.Context, method string, args ...any) (model.PlayingSound, error) {
	var info PlayingInfo
	if err := c.call(ctx, method, args...).Store(&info); err != nil {
		return model.PlayingSound{}, fromDBusError(err)
	}
	return info.Model(), nil
}

// Play starts ref on device ("" for the default device).
func (c *Client) Play(ctx context.Context, ref, device string) (model.PlayingSound, error) {
	return c.playing(ctx, "Play", ref, device)
}

// Stop stops a playing sound.
func (c *Client) Stop(ctx context.Context, id uint32) error {
	return fromDBusError(c.call(ctx, "Stop", id).Err)
}

// StopAll stops every playing sound.
func (c *Client) StopAll(ctx context.Context) error {
	return fromDBusError(c.call(ctx, "StopAll").Err)
}

// Pause pauses a playing sound.
func (c *Client) Pause(ctx context.Context, id uint32) (model.PlayingSound, error) {
	return c.playing(ctx, "Pause", id)
}

// Resume resumes a paused sound.
func (c *Client) Resume(ctx context.Context, id uint32) (model.PlayingSound, error) {
	return c.playing(ctx, "Resume", id)
}

// Seek moves a sound to positionMs.
func (c *Client) Seek(ctx context.Context, id uint32, positionMs uint64) (model.PlayingSound, error) {
	return c.playing(ctx, "Seek", id, positionMs)
}

// SetRepeat toggles looping.
func (c *Client) SetRepeat(ctx context.Context, id uint32, repeat bool) (model.PlayingSound, error) {
	return c.playing(ctx, "SetRepeat", id, repeat)
}

// PlayingSounds lists active sounds.
func (c *Client) PlayingSounds(ctx context.Context) ([]model.PlayingSound, error) {
	var infos []PlayingInfo
	if err := c.call(ctx, "PlayingSounds").Store(&infos); err != nil {
		return nil, fromDBusError(err)
	}
	return convert(infos, PlayingInfo.Model), nil
}

// Devices lists playback devices known to the daemon.
func (c *Client) Devices(ctx context.Context) ([]model.AudioDevice, error) {
	var infos []DeviceInfo
	if err := c.call(ctx, "Devices").Store(&infos); err != nil {
		return nil, fromDBusError(err)
	}
	return convert(infos, DeviceInfo.Model), nil
}

// Sounds lists the daemon's sound library.
func (c *Client) Sounds(ctx context.Context) ([]model.Sound, error) {
	var infos []SoundInfo
	if err := c.call(ctx, "Sounds").Store(&infos); err != nil {
		return nil, fromDBusError(err)
	}
	return convert(infos, SoundInfo.Model), nil
}

// SetVolume sets a device volume in [0, 1].
func (c *Client) SetVolume(ctx context.Context, device string, volume float64) (model.AudioDevice, error) {
	var info DeviceInfo
	if err := c.call(ctx, "SetVolume", device, volume).Store(&info); err != nil {
		return model.AudioDevice{}, fromDBusError(err)
	}
	return info.Model(), nil
}

// Watch delivers daemon playback signals to fn until ctx is cancelled.
func (c *Client) Watch(ctx context.Context, fn func(audio.Event)) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return fmt.Errorf("failed to add signal match: %w", err)
	}
	defer func() { _ = c.conn.RemoveMatchSignal(opts...) }()

	ch := make(chan *dbus.Signal, 64)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return fmt.Errorf("bus connection closed")
			}
			if e, ok := decodeSignal(sig); ok {
				fn(e)
			}
		}
	}
}
