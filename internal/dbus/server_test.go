package dbus

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/blazedock/internal/magnify"
)

type fakeDock struct {
	n        int
	focused  int
	reloaded int
	launched []int
}

func newFakeDock(n int) *fakeDock {
	return &fakeDock{n: n, focused: -1}
}

func (d *fakeDock) FocusIndex(i int) error {
	if i < 0 || i >= d.n {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	d.focused = i
	return nil
}

func (d *fakeDock) MoveFocus(delta int) error {
	if d.n == 0 {
		return ErrInvalidIndex
	}
	d.focused = max(0, min(d.n-1, d.focused+delta))
	return nil
}

func (d *fakeDock) ClearFocus() { d.focused = -1 }

func (d *fakeDock) Activate(i int) error {
	if i < 0 || i >= d.n {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	d.launched = append(d.launched, i)
	return nil
}

func (d *fakeDock) Scales() []float64 {
	out := make([]float64, d.n)
	for i := range out {
		out[i] = 1
	}
	if d.focused >= 0 {
		out[d.focused] = 1.5
	}
	return out
}

func (d *fakeDock) State() State {
	if d.focused < 0 {
		return State{Source: "none", Focused: -1, Enabled: true}
	}
	return State{Source: "focus", Focused: int32(d.focused), Enabled: true}
}

func (d *fakeDock) ReloadConfig() error {
	d.reloaded++
	if d.reloaded > 1 {
		return errors.New("broken config")
	}
	return nil
}

func TestControlServer_Focus(t *testing.T) {
	dock := newFakeDock(4)
	s := NewControlServer(dock, nil)

	require.Nil(t, s.FocusItem(2))
	assert.Equal(t, 2, dock.focused)

	source, focused, enabled, derr := s.GetState()
	require.Nil(t, derr)
	assert.Equal(t, "focus", source)
	assert.Equal(t, int32(2), focused)
	assert.True(t, enabled)

	require.Nil(t, s.MoveFocus(5))
	assert.Equal(t, 3, dock.focused, "clamped at the end")

	require.Nil(t, s.ClearFocus())
	_, focused, _, _ = s.GetState()
	assert.Equal(t, int32(-1), focused)
}

func TestControlServer_InvalidIndex(t *testing.T) {
	s := NewControlServer(newFakeDock(3), nil)

	derr := s.FocusItem(7)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorInvalidIndex, derr.Name)

	derr = s.ActivateItem(-1)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorInvalidIndex, derr.Name)
}

func TestControlServer_ActivateAndScales(t *testing.T) {
	dock := newFakeDock(3)
	s := NewControlServer(dock, nil)

	require.Nil(t, s.ActivateItem(1))
	assert.Equal(t, []int{1}, dock.launched)

	require.Nil(t, s.FocusItem(0))
	scales, derr := s.GetScales()
	require.Nil(t, derr)
	assert.Equal(t, []float64{1.5, 1, 1}, scales)
}

func TestControlServer_EmptyScalesNotNil(t *testing.T) {
	s := NewControlServer(newFakeDock(0), nil)
	scales, derr := s.GetScales()
	require.Nil(t, derr)
	assert.NotNil(t, scales)
	assert.Empty(t, scales)
}

func TestControlServer_ReloadError(t *testing.T) {
	dock := newFakeDock(1)
	s := NewControlServer(dock, nil)

	require.Nil(t, s.ReloadConfig())
	derr := s.ReloadConfig()
	require.NotNil(t, derr)
	assert.Equal(t, ErrorFailed, derr.Name)
	assert.Equal(t, 2, dock.reloaded)
}

func TestControlServer_Dispatcher(t *testing.T) {
	dock := newFakeDock(2)
	s := NewControlServer(dock, nil)

	// Run calls on a dedicated goroutine like a UI main loop
	queue := make(chan func(), 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for fn := range queue {
			fn()
		}
	}()
	t.Cleanup(func() {
		close(queue)
		<-done
	})

	var mu sync.Mutex
	dispatched := 0
	s.SetDispatcher(func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		queue <- fn
	})

	require.Nil(t, s.FocusItem(1))
	scales, derr := s.GetScales()
	require.Nil(t, derr)
	assert.Equal(t, []float64{1, 1.5}, scales)

	mu.Lock()
	assert.Equal(t, 2, dispatched)
	mu.Unlock()
}

func TestControlServer_DispatcherTimeout(t *testing.T) {
	s := NewControlServer(newFakeDock(2), nil)
	s.SetCallTimeout(20 * time.Millisecond)
	s.SetDispatcher(func(fn func()) {}) // UI thread never runs it

	derr := s.FocusItem(0)
	require.NotNil(t, derr)
	assert.Equal(t, ErrorTimeout, derr.Name)
}

func TestControlServer_SignalsRequireConnection(t *testing.T) {
	s := NewControlServer(newFakeDock(1), nil)
	assert.Error(t, s.EmitScalesChanged([]float64{1}))

	// Not running: queued signals are dropped without panicking
	s.NotifyScalesChanged([]float64{1})
	require.NoError(t, s.Stop())
}

func TestIntrospection(t *testing.T) {
	node := introspectNode()
	require.Len(t, node.Interfaces, 2)

	iface := node.Interfaces[1]
	assert.Equal(t, DBusInterface, iface.Name)

	var names []string
	for _, m := range iface.Methods {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"FocusItem", "MoveFocus", "ClearFocus", "ActivateItem",
		"GetScales", "GetState", "ReloadConfig",
	}, names)

	require.Len(t, iface.Signals, 1)
	assert.Equal(t, "ScalesChanged", iface.Signals[0].Name)
	assert.Equal(t, "ad", iface.Signals[0].Args[0].Type)
}

func TestErrorConversion(t *testing.T) {
	assert.Nil(t, toDBusError(nil))
	assert.NoError(t, fromDBusError(nil))

	derr := toDBusError(fmt.Errorf("%w: 9", ErrInvalidIndex))
	err := fromDBusError(derr)
	assert.ErrorIs(t, err, ErrInvalidIndex)
	assert.Contains(t, err.Error(), "9")

	err = fromDBusError(*toDBusError(errors.New("boom")))
	assert.EqualError(t, err, "boom")

	unknown := dbus.NewError("org.freedesktop.DBus.Error.ServiceUnknown", nil)
	assert.ErrorIs(t, fromDBusError(unknown), ErrNotRunning)

	plain := errors.New("plain")
	assert.Same(t, plain, fromDBusError(plain))
}

func TestErrorConversion_MagnifyIndexErrors(t *testing.T) {
	// The dock reports bad indexes with the controller's sentinel
	derr := toDBusError(fmt.Errorf("%w: 4 (dock has 3 items)", magnify.ErrInvalidIndex))
	require.NotNil(t, derr)
	assert.Equal(t, ErrorInvalidIndex, derr.Name)
	assert.ErrorIs(t, fromDBusError(derr), magnify.ErrInvalidIndex)
}
