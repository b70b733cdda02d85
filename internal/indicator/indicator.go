// Package indicator drives the status indicator shown while headphones are
// present: its menu entries, its icon, and the user actions behind them.
// Rendering itself is delegated to a Panel implementation.
package indicator

import (
	"fmt"

	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/selection"
)

// Name is the accessible name of the indicator.
const Name = "Headphone Switch Indicator"

// Panel is the display container indicators are attached to.
type Panel interface {
	NewSurface(name string) (Surface, error)
}

// Surface is one attached indicator as seen by the display toolkit.
type Surface interface {
	AddChild(glyph model.Glyph)
	RemoveChild(glyph model.Glyph)
	AddEntry(route model.Route, label string, onActivate func()) MenuEntry
	Destroy()
}

// Committer is implemented by surfaces that batch mutations. Commit is
// called once after each rendered view.
type Committer interface {
	Commit()
}

// MenuEntry is an opaque handle to one menu item.
type MenuEntry interface {
	SetOrnament(o model.Ornament)
	SetSensitive(sensitive bool)
}

// Indicator owns a Surface, its two menu entries and the selection model
// they display.
type Indicator struct {
	surface   Surface
	entries   map[model.Route]*entry
	glyph     model.Glyph
	selection *selection.Model
	destroyed bool
}

// entry remembers what was last pushed to a MenuEntry so unchanged
// properties are not re-sent.
type entry struct {
	handle    MenuEntry
	ornament  model.Ornament
	sensitive bool
	applied   bool
}

// New creates an indicator on panel. activate is called with the route
// whenever the user picks a menu entry.
func New(panel Panel, activate func(model.Route)) (*Indicator, error) {
	surface, err := panel.NewSurface(Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create indicator surface: %w", err)
	}

	ind := &Indicator{
		surface: surface,
		entries: make(map[model.Route]*entry, len(model.Routes)),
	}
	for _, r := range model.Routes {
		route := r
		handle := surface.AddEntry(route, route.Label(), func() {
			if activate != nil {
				activate(route)
			}
		})
		ind.entries[route] = &entry{handle: handle}
	}

	ind.selection = selection.NewModel(selection.RendererFunc(ind.apply))
	ind.apply(ind.selection.View())
	return ind, nil
}

// Selection returns the selection model owned by the indicator.
func (i *Indicator) Selection() *selection.Model {
	return i.selection
}

// Glyph returns the glyph currently attached to the surface.
func (i *Indicator) Glyph() model.Glyph {
	return i.glyph
}

// Destroyed reports whether Destroy has been called.
func (i *Indicator) Destroyed() bool {
	return i.destroyed
}

// Destroy detaches the indicator from the display. Safe to call twice.
func (i *Indicator) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.surface.Destroy()
}

// apply pushes a selection view to the surface.
func (i *Indicator) apply(v selection.View) {
	if i.destroyed {
		return
	}

	for _, r := range model.Routes {
		e := i.entries[r]
		ornament, sensitive := v.Ornaments[r], v.Sensitive[r]
		if !e.applied || e.ornament != ornament {
			e.handle.SetOrnament(ornament)
			e.ornament = ornament
		}
		if !e.applied || e.sensitive != sensitive {
			e.handle.SetSensitive(sensitive)
			e.sensitive = sensitive
		}
		e.applied = true
	}

	if v.Glyph != i.glyph {
		if i.glyph != "" {
			i.surface.RemoveChild(i.glyph)
		}
		i.surface.AddChild(v.Glyph)
		i.glyph = v.Glyph
	}

	if c, ok := i.surface.(Committer); ok {
		c.Commit()
	}
}
