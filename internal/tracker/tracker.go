// Package tracker reports which pinned apps currently have a running
// process. It polls the process table on an interval and matches process
// names against the executable of each pinned command.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultInterval is how often the process table is polled.
const DefaultInterval = 2 * time.Second

// commLen is the longest process name the kernel reports.
const commLen = 15

// ListFunc returns the names of all running processes.
type ListFunc func() (map[string]struct{}, error)

// Tracker polls for the processes behind pinned app commands.
type Tracker struct {
	mu     sync.RWMutex
	logger *slog.Logger

	list     ListFunc
	interval time.Duration

	// Process name -> running
	states map[string]bool

	onChange func()

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// New creates a tracker that reads the process table from /proc.
func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger:   logger,
		list:     ListProcesses,
		interval: DefaultInterval,
		states:   make(map[string]bool),
	}
}

// ProcessName returns the name the kernel reports for the process started
// by command: the base name of its executable, truncated like
// /proc/<pid>/comm. It is empty for an empty command.
func ProcessName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	name := filepath.Base(fields[0])
	if len(name) > commLen {
		name = name[:commLen]
	}
	return name
}

// SetListFunc replaces the process lister.
func (t *Tracker) SetListFunc(fn ListFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.list = fn
}

// SetInterval sets the polling interval used by the next Start.
func (t *Tracker) SetInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = d
}

// SetChangeCallback sets the callback invoked after a poll that changed
// the running state of any tracked app. It runs on the polling goroutine.
func (t *Tracker) SetChangeCallback(callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = callback
}

// Track replaces the set of tracked commands. Commands that were already
// tracked keep their last known state; new ones start as not running
// until the next poll.
func (t *Tracker) Track(commands []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	states := make(map[string]bool, len(commands))
	for _, command := range commands {
		name := ProcessName(command)
		if name == "" {
			continue
		}
		states[name] = t.states[name]
	}
	t.states = states
	t.logger.Debug("tracking apps", "count", len(states))
}

// AppRunning reports whether the process behind command was running at the
// last poll.
func (t *Tracker) AppRunning(command string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[ProcessName(command)]
}

// Refresh polls the process table once. It reports whether any tracked
// app changed state and invokes the change callback if so.
func (t *Tracker) Refresh() (bool, error) {
	t.mu.RLock()
	list := t.list
	t.mu.RUnlock()

	procs, err := list()
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	t.mu.Lock()
	changed := false
	for name, was := range t.states {
		_, now := procs[name]
		if now != was {
			t.states[name] = now
			changed = true
			t.logger.Debug("app running state changed", "process", name, "running", now)
		}
	}
	callback := t.onChange
	t.mu.Unlock()

	if changed && callback != nil {
		callback()
	}
	return changed, nil
}

// Start polls immediately and then on every interval until Stop is called
// or ctx is done.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	if t.interval <= 0 {
		t.mu.Unlock()
		return fmt.Errorf("invalid poll interval %s", t.interval)
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	interval := t.interval
	t.mu.Unlock()

	go t.pollLoop(ctx, interval)

	t.logger.Debug("app tracker started", "interval", interval)
	return nil
}

// Stop stops polling and waits for the poll loop to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopCh)
	doneCh := t.doneCh
	t.mu.Unlock()

	<-doneCh
	t.logger.Debug("app tracker stopped")
}

// IsRunning returns whether the poll loop is active.
func (t *Tracker) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

func (t *Tracker) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(t.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.poll()
		}
	}
}

func (t *Tracker) poll() {
	if _, err := t.Refresh(); err != nil {
		t.logger.Warn("app tracker poll failed", "error", err)
	}
}
