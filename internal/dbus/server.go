package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/store"
)

// ErrSurfaceAttached is returned by NewSurface while another indicator is live.
var ErrSurfaceAttached = errors.New("an indicator is already attached")

// IndicatorServer implements indicator.Panel on the session bus. The
// attached indicator's state is served by GetState, broadcast with
// StateChanged and written to the shared state file.
type IndicatorServer struct {
	conn      *dbus.Conn
	logger    *slog.Logger
	statePath string

	mu        sync.RWMutex
	surface   *surface
	published State
	running   bool
}

// NewIndicatorServer creates a new IndicatorServer. statePath is the shared
// state file; empty disables it.
func NewIndicatorServer(statePath string, logger *slog.Logger) *IndicatorServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndicatorServer{
		logger:    logger,
		statePath: statePath,
	}
}

// Start connects to the session bus and exports the indicator service.
func (s *IndicatorServer) Start() error {
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

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: indicatorMethods(),
				Signals: indicatorSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken, is hpswitchd already running?", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus indicator server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *IndicatorServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus indicator server stopped")
	return nil
}

// NewSurface implements indicator.Panel.
func (s *IndicatorServer) NewSurface(name string) (indicator.Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface != nil {
		return nil, ErrSurfaceAttached
	}
	s.surface = &surface{
		server:  s,
		name:    name,
		entries: make(map[model.Route]*entry, len(model.Routes)),
	}
	s.logger.Debug("indicator surface attached", "name", name)
	return s.surface, nil
}

// State returns the state of the attached indicator.
func (s *IndicatorServer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *IndicatorServer) stateLocked() State {
	if s.surface == nil {
		return State{}
	}
	return s.surface.state()
}

// GetState returns the indicator state.
// D-Bus method: GetState() -> (bsbb)
func (s *IndicatorServer) GetState() (bool, string, bool, bool, *dbus.Error) {
	st := s.State()
	return st.Present, string(st.Glyph), st.InternalChecked, st.HeadphoneChecked, nil
}

// Activate picks a route as if its menu entry was clicked. The switch
// itself happens asynchronously on the daemon loop.
// D-Bus method: Activate(s) -> nothing
func (s *IndicatorServer) Activate(name string) *dbus.Error {
	route, err := model.ParseRoute(name)
	if err != nil {
		return dbus.MakeFailedError(err)
	}

	s.mu.RLock()
	var onActivate func()
	var activateErr error
	switch {
	case s.surface == nil:
		activateErr = errors.New("no indicator, headphones are not present")
	case s.surface.entries[route] == nil:
		activateErr = fmt.Errorf("no menu entry for %s", route)
	case !s.surface.entries[route].sensitive:
		activateErr = fmt.Errorf("%s is already selected", route)
	default:
		onActivate = s.surface.entries[route].onActivate
	}
	s.mu.RUnlock()

	if activateErr != nil {
		s.logger.Debug("activate refused", "route", route, "error", activateErr)
		return dbus.MakeFailedError(activateErr)
	}

	s.logger.Debug("activate requested over D-Bus", "route", route)
	if onActivate != nil {
		onActivate()
	}
	return nil
}

// Sync writes and broadcasts the current state unconditionally, replacing
// whatever a previous daemon left in the state file.
func (s *IndicatorServer) Sync() {
	s.publishState(true)
}

func (s *IndicatorServer) publish() {
	s.publishState(false)
}

// publishState broadcasts the current state if it differs from the last
// published one.
func (s *IndicatorServer) publishState(force bool) {
	s.mu.Lock()
	st := s.stateLocked()
	if st == s.published && !force {
		s.mu.Unlock()
		return
	}
	s.published = st
	s.mu.Unlock()

	if s.statePath != "" {
		if err := store.SaveSharedStateTo(s.statePath, st.Shared()); err != nil {
			s.logger.Warn("failed to write state file", "path", s.statePath, "error", err)
		}
	}
	if err := s.EmitStateChanged(st); err != nil {
		s.logger.Debug("state change not broadcast", "error", err)
	}
}

// surface is the indicator attached to the server.
type surface struct {
	server    *IndicatorServer
	name      string
	glyph     model.Glyph
	entries   map[model.Route]*entry
	destroyed bool
}

// state must be called with the server lock held.
func (sf *surface) state() State {
	st := State{Present: !sf.destroyed, Glyph: sf.glyph}
	if e := sf.entries[model.RouteInternal]; e != nil {
		st.InternalChecked = e.ornament == model.OrnamentCheck
	}
	if e := sf.entries[model.RouteHeadphone]; e != nil {
		st.HeadphoneChecked = e.ornament == model.OrnamentCheck
	}
	return st
}

// AddChild implements indicator.Surface.
func (sf *surface) AddChild(glyph model.Glyph) {
	sf.server.mu.Lock()
	defer sf.server.mu.Unlock()
	sf.glyph = glyph
}

// RemoveChild implements indicator.Surface.
func (sf *surface) RemoveChild(glyph model.Glyph) {
	sf.server.mu.Lock()
	defer sf.server.mu.Unlock()
	if sf.glyph == glyph {
		sf.glyph = ""
	}
}

// AddEntry implements indicator.Surface.
func (sf *surface) AddEntry(route model.Route, label string, onActivate func()) indicator.MenuEntry {
	sf.server.mu.Lock()
	defer sf.server.mu.Unlock()
	e := &entry{surface: sf, label: label, onActivate: onActivate, sensitive: true}
	sf.entries[route] = e
	return e
}

// Commit implements indicator.Committer.
func (sf *surface) Commit() {
	sf.server.publish()
}

// Destroy implements indicator.Surface.
func (sf *surface) Destroy() {
	s := sf.server
	s.mu.Lock()
	if sf.destroyed {
		s.mu.Unlock()
		return
	}
	sf.destroyed = true
	if s.surface == sf {
		s.surface = nil
	}
	s.mu.Unlock()

	s.logger.Debug("indicator surface detached", "name", sf.name)
	s.publish()
}

// entry is one menu item of a surface.
type entry struct {
	surface    *surface
	label      string
	onActivate func()
	ornament   model.Ornament
	sensitive  bool
}

// SetOrnament implements indicator.MenuEntry.
func (e *entry) SetOrnament(o model.Ornament) {
	e.surface.server.mu.Lock()
	defer e.surface.server.mu.Unlock()
	e.ornament = o
}

// SetSensitive implements indicator.MenuEntry.
func (e *entry) SetSensitive(sensitive bool) {
	e.surface.server.mu.Lock()
	defer e.surface.server.mu.Unlock()
	e.sensitive = sensitive
}
