package dbus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/blazedock/internal/magnify"
)

const (
	// DBusInterface is the control interface name.
	DBusInterface = "io.github.jmylchreest.BlazeDock1"
	// DBusPath is the control object path.
	DBusPath = "/io/github/jmylchreest/BlazeDock1"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.BlazeDock1"
)

// Error names returned by the control interface.
const (
	ErrorInvalidIndex = DBusInterface + ".Error.InvalidIndex"
	ErrorFailed       = DBusInterface + ".Error.Failed"
	ErrorTimeout      = DBusInterface + ".Error.Timeout"
)

var (
	// ErrInvalidIndex is returned by a Dock when an item index is out of range.
	// It is the same value as magnify.ErrInvalidIndex so dock errors map
	// onto the InvalidIndex reply.
	ErrInvalidIndex = magnify.ErrInvalidIndex
	// ErrNotRunning is returned when the dock is not on the bus.
	ErrNotRunning = errors.New("blazedock is not running")
)

// State is a snapshot of the dock's magnification state.
type State struct {
	Source  string `json:"source" yaml:"source"`   // "none", "pointer" or "focus"
	Focused int32  `json:"focused" yaml:"focused"` // -1 when nothing is focused
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Dock is the set of operations the control interface drives.
// Implementations are only called through the server's dispatcher.
type Dock interface {
	FocusIndex(index int) error
	MoveFocus(delta int) error
	ClearFocus()
	Activate(index int) error
	Scales() []float64
	State() State
	ReloadConfig() error
}

// toDBusError converts a dock error into a named D-Bus error.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	name := ErrorFailed
	if errors.Is(err, ErrInvalidIndex) {
		name = ErrorInvalidIndex
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}

// fromDBusError converts a D-Bus error reply back into a Go error so that
// callers can test it with errors.Is.
func fromDBusError(err error) error {
	if err == nil {
		return nil
	}

	var name string
	var body []interface{}
	var e dbus.Error
	var pe *dbus.Error
	switch {
	case errors.As(err, &pe):
		name, body = pe.Name, pe.Body
	case errors.As(err, &e):
		name, body = e.Name, e.Body
	default:
		return err
	}

	msg := name
	if len(body) > 0 {
		if s, ok := body[0].(string); ok {
			msg = s
		}
	}

	switch name {
	case ErrorInvalidIndex:
		return fmt.Errorf("%w%s", ErrInvalidIndex, strings.TrimPrefix(msg, ErrInvalidIndex.Error()))
	case "org.freedesktop.DBus.Error.ServiceUnknown", "org.freedesktop.DBus.Error.NameHasNoOwner":
		return ErrNotRunning
	}
	return errors.New(msg)
}
