// Package launcher starts pinned applications detached from the dock.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"

	"github.com/jmylchreest/blazedock/internal/config"
)

// ErrEmptyCommand is returned for a pinned app without a command.
var ErrEmptyCommand = errors.New("pinned app has no command")

// Launcher spawns pinned app commands.
type Launcher struct {
	logger *slog.Logger

	// start runs the prepared command; replaced in tests
	start func(cmd *exec.Cmd) error
}

// New creates a Launcher.
func New(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		logger: logger,
		start:  startDetached,
	}
}

// Command builds the process for app without starting it.
// The command line is split on whitespace; no shell is involved.
func Command(app config.PinnedApp) (*exec.Cmd, error) {
	parts := strings.Fields(app.Command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCommand, app.Name)
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	// Own process group so the app survives the dock and its signals
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd, nil
}

// Launch starts app and returns once the process is running.
func (l *Launcher) Launch(app config.PinnedApp) error {
	cmd, err := Command(app)
	if err != nil {
		return err
	}

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to launch %s: %w", app.Name, err)
	}

	l.logger.Info("launched app", "name", app.Name, "command", app.Command)
	return nil
}

// startDetached starts cmd and reaps it in the background.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
