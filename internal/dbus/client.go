package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client calls the control interface of a running dock.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	bus  dbus.BusObject // org.freedesktop.DBus
	own  bool
}

// NewClient opens a private session bus connection.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	c := NewClientWithConn(conn)
	c.own = true
	return c, nil
}

// NewClientWithConn creates a client over an existing connection.
func NewClientWithConn(conn *dbus.Conn) *Client {
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
		bus:  conn.BusObject(),
	}
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if c.own {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) *dbus.Call {
	return c.obj.CallWithContext(ctx, DBusInterface+"."+method, 0, args...)
}

// FocusItem moves keyboard focus to index.
func (c *Client) FocusItem(ctx context.Context, index int) error {
	return fromDBusError(c.call(ctx, "FocusItem", int32(index)).Err)
}

// MoveFocus moves keyboard focus by delta.
func (c *Client) MoveFocus(ctx context.Context, delta int) error {
	return fromDBusError(c.call(ctx, "MoveFocus", int32(delta)).Err)
}

// ClearFocus removes keyboard focus.
func (c *Client) ClearFocus(ctx context.Context) error {
	return fromDBusError(c.call(ctx, "ClearFocus").Err)
}

// ActivateItem launches the pinned app at index.
func (c *Client) ActivateItem(ctx context.Context, index int) error {
	return fromDBusError(c.call(ctx, "ActivateItem", int32(index)).Err)
}

// ReloadConfig asks the dock to re-read its configuration.
func (c *Client) ReloadConfig(ctx context.Context) error {
	return fromDBusError(c.call(ctx, "ReloadConfig").Err)
}

// GetScales returns the dock's current target scales.
func (c *Client) GetScales(ctx context.Context) ([]float64, error) {
	var scales []float64
	if err := c.call(ctx, "GetScales").Store(&scales); err != nil {
		return nil, fromDBusError(err)
	}
	return scales, nil
}

// GetState returns the dock's magnification state.
func (c *Client) GetState(ctx context.Context) (State, error) {
	var st State
	if err := c.call(ctx, "GetState").Store(&st.Source, &st.Focused, &st.Enabled); err != nil {
		return State{}, fromDBusError(err)
	}
	return st, nil
}

// Running reports whether a dock currently owns the control bus name.
func (c *Client) Running(ctx context.Context) (bool, error) {
	var owned bool
	call := c.bus.CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, DBusBusName)
	if err := call.Store(&owned); err != nil {
		return false, fmt.Errorf("failed to query bus name owner: %w", err)
	}
	return owned, nil
}

// WatchScales calls fn for every ScalesChanged signal until ctx is done.
// It returns ErrNotRunning when no dock is on the bus, or when the dock
// leaves the bus while being watched.
func (c *Client) WatchScales(ctx context.Context, fn func(scales []float64)) error {
	running, err := c.Running(ctx)
	if err != nil {
		return err
	}
	if !running {
		return ErrNotRunning
	}

	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
		dbus.WithMatchMember("ScalesChanged"),
	}
	ownerOpts := []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, DBusBusName),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return fmt.Errorf("failed to subscribe to ScalesChanged: %w", err)
	}
	defer func() {
		_ = c.conn.RemoveMatchSignal(opts...)
	}()
	if err := c.conn.AddMatchSignalContext(ctx, ownerOpts...); err != nil {
		return fmt.Errorf("failed to subscribe to NameOwnerChanged: %w", err)
	}
	defer func() {
		_ = c.conn.RemoveMatchSignal(ownerOpts...)
	}()

	ch := make(chan *dbus.Signal, 16)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			if sig.Name == "org.freedesktop.DBus.NameOwnerChanged" {
				if ownerLost(sig.Body) {
					return ErrNotRunning
				}
				continue
			}
			if sig.Name != DBusInterface+".ScalesChanged" || len(sig.Body) == 0 {
				continue
			}
			if scales, ok := sig.Body[0].([]float64); ok {
				fn(scales)
			}
		}
	}
}

// ownerLost reports whether a NameOwnerChanged body says the dock's bus
// name was released.
func ownerLost(body []interface{}) bool {
	if len(body) != 3 {
		return false
	}
	name, _ := body[0].(string)
	newOwner, _ := body[2].(string)
	return name == DBusBusName && newOwner == ""
}
