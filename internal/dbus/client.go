package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hpswitch/internal/model"
)

// Client talks to a running hpswitchd.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, dbus.ObjectPath(DBusPath)),
	}, nil
}

// Running reports whether hpswitchd owns its bus name.
func (c *Client) Running() bool {
	var hasOwner bool
	err := c.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, DBusBusName).Store(&hasOwner)
	return err == nil && hasOwner
}

// GetState returns the daemon's indicator state.
func (c *Client) GetState() (State, error) {
	var st State
	var glyph string
	err := c.obj.Call(DBusInterface+".GetState", 0).Store(&st.Present, &glyph, &st.InternalChecked, &st.HeadphoneChecked)
	if err != nil {
		return State{}, fmt.Errorf("failed to get state: %w", err)
	}
	st.Glyph = model.Glyph(glyph)
	return st, nil
}

// Activate asks the daemon to switch to route.
func (c *Client) Activate(route model.Route) error {
	if err := c.obj.Call(DBusInterface+".Activate", 0, route.String()).Err; err != nil {
		return fmt.Errorf("failed to activate %s: %w", route, err)
	}
	return nil
}
