package dbus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// DefaultCallTimeout bounds how long a method call waits for the UI thread.
const DefaultCallTimeout = 2 * time.Second

// Dispatcher runs fn on the thread that owns the dock.
type Dispatcher func(fn func())

// ControlServer implements the io.github.jmylchreest.BlazeDock1 D-Bus interface.
type ControlServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	dock        Dock
	dispatch    Dispatcher
	callTimeout time.Duration

	scales *throttle

	mu      sync.RWMutex
	running bool
}

// NewControlServer creates a new ControlServer for dock.
// Calls run on the D-Bus goroutine until SetDispatcher is used.
func NewControlServer(dock Dock, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ControlServer{
		logger:      logger,
		dock:        dock,
		dispatch:    func(fn func()) { fn() },
		callTimeout: DefaultCallTimeout,
	}
	s.scales = newThrottle(DefaultSignalInterval, s.emitScalesChanged)
	return s
}

// SetDispatcher sets how dock calls are marshaled onto the UI thread.
func (s *ControlServer) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatch = d
}

// SetCallTimeout sets how long a method waits for the dispatcher.
func (s *ControlServer) SetCallTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callTimeout = d
}

// Start connects to the session bus and exports the control interface.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	// Export the control object
	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	if err := conn.Export(introspect.NewIntrospectable(introspectNode()), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	// Request the bus name
	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken, is another dock running?", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus control server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name and unexports the object.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.scales.Stop()

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		_ = s.conn.Export(nil, DBusPath, DBusInterface)
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// onUI runs fn through the dispatcher and waits for it to finish.
func (s *ControlServer) onUI(fn func()) *dbus.Error {
	s.mu.RLock()
	dispatch := s.dispatch
	timeout := s.callTimeout
	s.mu.RUnlock()

	done := make(chan struct{})
	dispatch(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		s.logger.Warn("dock did not answer in time", "timeout", timeout)
		return dbus.NewError(ErrorTimeout, []interface{}{"dock did not respond"})
	}
}

// FocusItem moves keyboard focus to the item at index.
// D-Bus method: FocusItem(i) -> nothing
func (s *ControlServer) FocusItem(index int32) *dbus.Error {
	s.logger.Debug("FocusItem called", "index", index)
	var err error
	if derr := s.onUI(func() { err = s.dock.FocusIndex(int(index)) }); derr != nil {
		return derr
	}
	return toDBusError(err)
}

// MoveFocus moves keyboard focus by delta items, clamped to the row.
// D-Bus method: MoveFocus(i) -> nothing
func (s *ControlServer) MoveFocus(delta int32) *dbus.Error {
	s.logger.Debug("MoveFocus called", "delta", delta)
	var err error
	if derr := s.onUI(func() { err = s.dock.MoveFocus(int(delta)) }); derr != nil {
		return derr
	}
	return toDBusError(err)
}

// ClearFocus removes keyboard focus.
// D-Bus method: ClearFocus() -> nothing
func (s *ControlServer) ClearFocus() *dbus.Error {
	s.logger.Debug("ClearFocus called")
	return s.onUI(s.dock.ClearFocus)
}

// ActivateItem launches the pinned app at index.
// D-Bus method: ActivateItem(i) -> nothing
func (s *ControlServer) ActivateItem(index int32) *dbus.Error {
	s.logger.Debug("ActivateItem called", "index", index)
	var err error
	if derr := s.onUI(func() { err = s.dock.Activate(int(index)) }); derr != nil {
		return derr
	}
	return toDBusError(err)
}

// GetScales returns the current target scale of every item.
// D-Bus method: GetScales() -> ad
func (s *ControlServer) GetScales() ([]float64, *dbus.Error) {
	var scales []float64
	if derr := s.onUI(func() { scales = s.dock.Scales() }); derr != nil {
		return nil, derr
	}
	if scales == nil {
		scales = []float64{}
	}
	return scales, nil
}

// GetState returns the active reference source, focused index and whether
// magnification is enabled.
// D-Bus method: GetState() -> (sib)
func (s *ControlServer) GetState() (string, int32, bool, *dbus.Error) {
	var st State
	if derr := s.onUI(func() { st = s.dock.State() }); derr != nil {
		return "", -1, false, derr
	}
	return st.Source, st.Focused, st.Enabled, nil
}

// ReloadConfig re-reads the configuration file.
// D-Bus method: ReloadConfig() -> nothing
func (s *ControlServer) ReloadConfig() *dbus.Error {
	s.logger.Debug("ReloadConfig called")
	var err error
	if derr := s.onUI(func() { err = s.dock.ReloadConfig() }); derr != nil {
		return derr
	}
	return toDBusError(err)
}

// introspectNode describes the exported object.
func introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "FocusItem",
			Args: []introspect.Arg{
				{Name: "index", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "MoveFocus",
			Args: []introspect.Arg{
				{Name: "delta", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "ClearFocus",
		},
		{
			Name: "ActivateItem",
			Args: []introspect.Arg{
				{Name: "index", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "GetScales",
			Args: []introspect.Arg{
				{Name: "scales", Type: "ad", Direction: "out"},
			},
		},
		{
			Name: "GetState",
			Args: []introspect.Arg{
				{Name: "source", Type: "s", Direction: "out"},
				{Name: "focused", Type: "i", Direction: "out"},
				{Name: "enabled", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "ReloadConfig",
		},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "ScalesChanged",
			Args: []introspect.Arg{
				{Name: "scales", Type: "ad"},
			},
		},
	}
}
