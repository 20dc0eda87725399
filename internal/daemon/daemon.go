package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/soundux/internal/audio"
	"github.com/jmylchreest/soundux/internal/config"
	"github.com/jmylchreest/soundux/internal/dbus"
	"github.com/jmylchreest/soundux/internal/library"
	"github.com/jmylchreest/soundux/internal/model"
)

// signalBuffer is the number of playback events held for D-Bus emission.
const signalBuffer = 256

// Daemon runs the playback manager behind the D-Bus control interface.
type Daemon struct {
	logger     *slog.Logger
	configPath string
	config     *config.Config

	manager  *audio.Manager
	library  *library.Library
	signals  *dbus.SignalSink
	service  *dbus.Service
	server   *dbus.Server
	reloader *ConfigWatcher

	mu            sync.Mutex
	runCtx        context.Context
	watcher       *library.Watcher
	persistVolume bool
}

// New creates a daemon from cfg. configPath is the file hot-reloaded and
// written when volumes change; empty means config.ConfigPath().
func New(cfg *config.Config, configPath string, backend audio.Backend, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if configPath == "" {
		configPath = config.ConfigPath()
	}

	signals := dbus.NewSignalSink(signalBuffer, logger)
	signals.SetProgress(cfg.Daemon.ProgressSignals)

	sink := audio.MultiSink{audio.LogSink{Logger: logger}, signals}
	manager := audio.NewManager(cfg, backend, sink, logger)
	lib := library.New(cfg.LibraryDirs(), cfg.Library.Extensions, logger)
	service := dbus.NewService(manager, lib, logger)

	d := &Daemon{
		logger:        logger,
		configPath:    configPath,
		config:        cfg,
		manager:       manager,
		library:       lib,
		signals:       signals,
		service:       service,
		server:        dbus.NewServer(service, logger),
		reloader:      NewConfigWatcher(configPath, logger),
		persistVolume: true,
	}

	service.SetVolumeHandler(d.volumeChanged)
	d.reloader.SetPollInterval(cfg.Daemon.PollInterval.Duration())
	d.reloader.SetReloadCallback(d.applyConfig)
	d.reloader.SetErrorCallback(func(err error) {
		logger.Error("keeping previous configuration", "error", err)
	})

	return d
}

// SetPersistVolume controls whether volume changes are written to the
// config file.
func (d *Daemon) SetPersistVolume(persist bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.persistVolume = persist
}

// Manager returns the playback manager.
func (d *Daemon) Manager() *audio.Manager { return d.manager }

// Library returns the sound library.
func (d *Daemon) Library() *library.Library { return d.library }

// Run starts every component and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.library.Rescan(); err != nil {
		d.logger.Warn("failed to scan sound library", "error", err)
	}
	d.logger.Info("sound library loaded", "dirs", len(d.library.Dirs()), "sounds", d.library.Count())

	if err := d.manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start playback manager: %w", err)
	}
	defer d.manager.Stop()

	if err := d.server.Start(); err != nil {
		return err
	}
	defer func() {
		if err := d.server.Stop(); err != nil {
			d.logger.Warn("error stopping D-Bus server", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	d.mu.Lock()
	d.runCtx = gctx
	d.mu.Unlock()

	g.Go(func() error {
		return d.signals.Run(gctx, d.server.Conn())
	})

	changes := d.library.Subscribe()
	g.Go(func() error {
		d.logLibraryChanges(gctx, changes)
		return nil
	})

	if d.config.Daemon.WatchLibrary {
		d.startLibraryWatcher(gctx)
	}
	if d.config.Daemon.WatchConfig {
		if err := d.reloader.Start(gctx, d.config); err != nil {
			d.logger.Warn("failed to start config watcher", "error", err)
		}
	}

	d.logger.Info("sounduxd ready", "bus_name", dbus.BusName)

	err := g.Wait()

	d.reloader.Stop()
	d.stopLibraryWatcher()
	d.library.Unsubscribe(changes)
	d.library.Close()

	return err
}

func (d *Daemon) logLibraryChanges(ctx context.Context, changes <-chan library.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-changes:
			if !ok {
				return
			}
			d.logger.Info("sound library changed", "sounds", e.Count, "added", e.Added, "removed", e.Removed)
		}
	}
}

func (d *Daemon) startLibraryWatcher(ctx context.Context) {
	w := library.NewWatcher(d.library, d.library.Extensions(), d.logger)
	if err := w.Start(ctx); err != nil {
		d.logger.Warn("failed to watch sound library", "error", err)
		return
	}

	d.mu.Lock()
	d.watcher = w
	d.mu.Unlock()
}

func (d *Daemon) stopLibraryWatcher() {
	d.mu.Lock()
	w := d.watcher
	d.watcher = nil
	d.mu.Unlock()

	if w != nil {
		if err := w.Stop(); err != nil {
			d.logger.Debug("error stopping library watcher", "error", err)
		}
	}
}

// applyConfig applies a reloaded configuration. Playing sounds keep their
// streams.
func (d *Daemon) applyConfig(cfg *config.Config) {
	d.manager.UpdateConfig(cfg)
	d.signals.SetProgress(cfg.Daemon.ProgressSignals)

	dirs := cfg.LibraryDirs()
	if slices.Equal(dirs, d.library.Dirs()) && slices.Equal(cfg.Library.Extensions, d.library.Extensions()) {
		return
	}

	d.library.SetDirs(dirs, cfg.Library.Extensions)
	if err := d.library.Rescan(); err != nil {
		d.logger.Warn("failed to rescan sound library", "error", err)
	}

	d.mu.Lock()
	ctx := d.runCtx
	watching := d.watcher != nil
	d.mu.Unlock()

	if watching && ctx != nil {
		d.stopLibraryWatcher()
		d.startLibraryWatcher(ctx)
	}
}

// volumeChanged persists a volume set over D-Bus.
func (d *Daemon) volumeChanged(device model.AudioDevice) {
	d.mu.Lock()
	persist := d.persistVolume
	d.mu.Unlock()

	if !persist {
		return
	}
	if err := d.manager.SaveConfig(d.configPath); err != nil {
		d.logger.Warn("failed to save device volume", "device", device.Name, "error", err)
	}
}
