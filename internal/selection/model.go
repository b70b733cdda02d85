// Package selection implements the two-route exclusive choice between the
// internal speakers and the headphone.
package selection

import (
	"errors"

	"github.com/jmylchreest/hpswitch/internal/model"
)

// ErrBothChecked is returned by a transition that would leave both routes
// checked. The sibling must be cleared first.
var ErrBothChecked = errors.New("at most one route may be checked")

// View is the rendering projection of the model. It is derived on demand
// and never stored.
type View struct {
	Glyph     model.Glyph
	Ornaments map[model.Route]model.Ornament
	Sensitive map[model.Route]bool
}

// Renderer receives the projection after every state-changing transition.
type Renderer interface {
	Render(v View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(v View)

// Render calls f(v).
func (f RendererFunc) Render(v View) { f(v) }

// Model holds the checked flag for each route. At most one route is
// checked; both may be unchecked.
//
// Model is not safe for concurrent use. It is owned by an indicator and
// only touched from the reconciliation loop goroutine.
type Model struct {
	checked  [2]bool
	renderer Renderer
}

// NewModel creates a Model with both routes unchecked.
func NewModel(renderer Renderer) *Model {
	return &Model{renderer: renderer}
}

// Checked reports whether route is the selected route.
func (m *Model) Checked(route model.Route) bool {
	return m.checked[route]
}

// Selected returns the checked route, if any.
func (m *Model) Selected() (model.Route, bool) {
	for _, r := range model.Routes {
		if m.checked[r] {
			return r, true
		}
	}
	return 0, false
}

// SetExplicit forces route's checked flag to active. It reports whether the
// state changed. It never clears the sibling on its own.
func (m *Model) SetExplicit(route model.Route, active bool) (bool, error) {
	if m.checked[route] == active {
		return false, nil
	}
	if active && m.checked[route.Other()] {
		return false, ErrBothChecked
	}
	m.checked[route] = active
	m.render()
	return true, nil
}

// Toggle flips route's checked flag and returns the new value.
func (m *Model) Toggle(route model.Route) (bool, error) {
	next := !m.checked[route]
	if _, err := m.SetExplicit(route, next); err != nil {
		return m.checked[route], err
	}
	return next, nil
}

// Glyph returns the indicator icon: internal speakers when internal is
// checked, headphone otherwise.
func (m *Model) Glyph() model.Glyph {
	if m.checked[model.RouteInternal] {
		return model.GlyphInternal
	}
	return model.GlyphHeadphone
}

// View returns the current rendering projection.
func (m *Model) View() View {
	v := View{
		Glyph:     m.Glyph(),
		Ornaments: make(map[model.Route]model.Ornament, 2),
		Sensitive: make(map[model.Route]bool, 2),
	}
	for _, r := range model.Routes {
		if m.checked[r] {
			v.Ornaments[r] = model.OrnamentCheck
		} else {
			v.Ornaments[r] = model.OrnamentNone
		}
		// A checked entry can't be picked again
		v.Sensitive[r] = !m.checked[r]
	}
	return v
}

func (m *Model) render() {
	if m.renderer != nil {
		m.renderer.Render(m.View())
	}
}
