// Package indicatortest provides an in-memory Panel for tests.
package indicatortest

import (
	"errors"
	"sync"

	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/model"
)

// ErrPanelUnavailable is returned by NewSurface when Fail is set.
var ErrPanelUnavailable = errors.New("panel unavailable")

// Panel records every surface it hands out.
type Panel struct {
	mu       sync.Mutex
	Surfaces []*Surface
	Fail     bool
}

// NewSurface implements indicator.Panel.
func (p *Panel) NewSurface(name string) (indicator.Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail {
		return nil, ErrPanelUnavailable
	}
	s := &Surface{Name: name, Entries: make(map[model.Route]*Entry)}
	p.Surfaces = append(p.Surfaces, s)
	return s, nil
}

// Last returns the most recently created surface, or nil.
func (p *Panel) Last() *Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Surfaces) == 0 {
		return nil
	}
	return p.Surfaces[len(p.Surfaces)-1]
}

// Count returns how many surfaces were created.
func (p *Panel) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Surfaces)
}

// Surface records children and mutations.
type Surface struct {
	Name      string
	Children  []model.Glyph
	Entries   map[model.Route]*Entry
	Destroyed bool
	Mutations int
	Commits   int
}

// AddChild implements indicator.Surface.
func (s *Surface) AddChild(glyph model.Glyph) {
	s.Children = append(s.Children, glyph)
	s.Mutations++
}

// RemoveChild implements indicator.Surface.
func (s *Surface) RemoveChild(glyph model.Glyph) {
	for i, g := range s.Children {
		if g == glyph {
			s.Children = append(s.Children[:i], s.Children[i+1:]...)
			break
		}
	}
	s.Mutations++
}

// AddEntry implements indicator.Surface.
func (s *Surface) AddEntry(route model.Route, label string, onActivate func()) indicator.MenuEntry {
	e := &Entry{surface: s, Label: label, activate: onActivate}
	s.Entries[route] = e
	return e
}

// Destroy implements indicator.Surface.
func (s *Surface) Destroy() {
	s.Destroyed = true
}

// Commit implements indicator.Committer.
func (s *Surface) Commit() {
	s.Commits++
}

// Activate simulates the user clicking the entry for route.
func (s *Surface) Activate(route model.Route) {
	if e, ok := s.Entries[route]; ok && e.activate != nil {
		e.activate()
	}
}

// Checked reports whether route's entry shows the check ornament.
func (s *Surface) Checked(route model.Route) bool {
	e, ok := s.Entries[route]
	return ok && e.Ornament == model.OrnamentCheck
}

// Entry records the state pushed to one menu item.
type Entry struct {
	surface        *Surface
	activate       func()
	Label          string
	Ornament       model.Ornament
	Sensitive      bool
	OrnamentCalls  int
	SensitiveCalls int
}

// SetOrnament implements indicator.MenuEntry.
func (e *Entry) SetOrnament(o model.Ornament) {
	e.Ornament = o
	e.OrnamentCalls++
	e.surface.Mutations++
}

// SetSensitive implements indicator.MenuEntry.
func (e *Entry) SetSensitive(sensitive bool) {
	e.Sensitive = sensitive
	e.SensitiveCalls++
	e.surface.Mutations++
}
