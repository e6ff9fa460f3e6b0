// Package main is the entry point for the blazedock dock.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/blazedock/internal/config"
	"github.com/jmylchreest/blazedock/internal/daemon"
	"github.com/jmylchreest/blazedock/internal/dbus"
	"github.com/jmylchreest/blazedock/internal/dock"
	"github.com/jmylchreest/blazedock/internal/launcher"
	"github.com/jmylchreest/blazedock/internal/tracker"
)

const appID = "io.github.jmylchreest.BlazeDock"

var (
	// Build-time variables
	version = "dev"
)

// controlledDock adds config reloading to the row so it can be driven over D-Bus.
type controlledDock struct {
	*dock.Row
	watcher *daemon.ConfigWatcher
}

func (d controlledDock) ReloadConfig() error {
	_, err := d.watcher.Reload()
	return err
}

func (d controlledDock) State() dbus.State {
	st := d.Row.State()
	return dbus.State{
		Source:  st.Source.String(),
		Focused: int32(st.Focused),
		Enabled: st.Enabled,
	}
}

// pinnedCommands returns the command line of every pinned app.
func pinnedCommands(cfg *config.Config) []string {
	commands := make([]string, len(cfg.Pinned))
	for i, app := range cfg.Pinned {
		commands[i] = app.Command
	}
	return commands
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/blazedock/blazedock.toml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("blazedock version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	os.Exit(run(path, logger))
}

func run(path string, logger *slog.Logger) int {
	logger.Info("starting blazedock", "version", version, "config", path)

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		return 1
	}
	for _, warning := range cfg.Sanitize() {
		logger.Warn("config adjusted", "reason", warning)
	}

	app := adw.NewApplication(appID, 0)

	// Shared state between the GTK main loop and the signal handler
	var (
		window        *dock.Window
		controlServer *dbus.ControlServer
		configWatcher *daemon.ConfigWatcher
		appTracker    *tracker.Tracker
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Debug("already running, presenting dock")
			if window != nil {
				window.Present()
			}
			return
		}
		running.Store(true)

		notifier := daemon.NewNotifier(nil, logger)

		row := dock.NewRow(cfg, launcher.New(logger), logger)
		row.SetLaunchErrorCallback(func(item config.PinnedApp, err error) {
			go notifier.NotifyLaunchFailed(item.Name, err)
		})
		window = dock.NewWindow(&app.Application, row, cfg, logger)

		appTracker = tracker.New(logger)
		appTracker.Track(pinnedCommands(cfg))
		appTracker.SetChangeCallback(func() {
			glib.IdleAdd(func() {
				row.UpdateRunning(appTracker.AppRunning)
			})
		})
		row.UpdateRunning(appTracker.AppRunning)

		configWatcher = daemon.NewConfigWatcher(path, logger)
		configWatcher.SetReloadCallback(func(newConfig *config.Config) {
			glib.IdleAdd(func() {
				window.Reload(newConfig)
				appTracker.Track(pinnedCommands(newConfig))
				go func() { _, _ = appTracker.Refresh() }()
			})
		})
		configWatcher.SetErrorCallback(func(err error) {
			// Reloads requested over D-Bus report errors on the UI thread
			go notifier.NotifyConfigError(err)
		})

		controlServer = dbus.NewControlServer(controlledDock{Row: row, watcher: configWatcher}, logger)
		controlServer.SetDispatcher(func(fn func()) {
			glib.IdleAdd(fn)
		})
		if err := controlServer.Start(); err != nil {
			// The dock still works without remote control
			logger.Warn("failed to start D-Bus control server", "error", err)
		} else {
			row.SetScalesCallback(controlServer.NotifyScalesChanged)
		}

		if err := configWatcher.Start(ctx, cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}
		if err := appTracker.Start(ctx); err != nil {
			logger.Warn("failed to start app tracker", "error", err)
		}

		window.Present()
		logger.Info("blazedock ready", "position", cfg.Dock.Position, "pinned", len(cfg.Pinned), "dbus_interface", dbus.DBusInterface)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if appTracker != nil {
			appTracker.Stop()
		}
		if controlServer != nil {
			_ = controlServer.Stop()
		}
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("blazedock stopped")
	return 0
}
