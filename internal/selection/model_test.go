package selection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/model"
)

type recorder struct {
	views []View
}

func (r *recorder) Render(v View) {
	r.views = append(r.views, v)
}

func TestNewModel_BothUnchecked(t *testing.T) {
	m := NewModel(nil)
	assert.False(t, m.Checked(model.RouteInternal))
	assert.False(t, m.Checked(model.RouteHeadphone))
	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Equal(t, model.GlyphHeadphone, m.Glyph())
}

func TestSetExplicit(t *testing.T) {
	rec := &recorder{}
	m := NewModel(rec)

	changed, err := m.SetExplicit(model.RouteHeadphone, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, m.Checked(model.RouteHeadphone))
	require.Len(t, rec.views, 1)
	assert.Equal(t, model.OrnamentCheck, rec.views[0].Ornaments[model.RouteHeadphone])
	assert.False(t, rec.views[0].Sensitive[model.RouteHeadphone])
	assert.True(t, rec.views[0].Sensitive[model.RouteInternal])

	// Same value is a no-op and does not render
	changed, err = m.SetExplicit(model.RouteHeadphone, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, rec.views, 1)
}

func TestSetExplicit_DoesNotClearSibling(t *testing.T) {
	m := NewModel(nil)
	_, err := m.SetExplicit(model.RouteHeadphone, true)
	require.NoError(t, err)

	changed, err := m.SetExplicit(model.RouteInternal, true)
	assert.ErrorIs(t, err, ErrBothChecked)
	assert.False(t, changed)
	assert.True(t, m.Checked(model.RouteHeadphone))
	assert.False(t, m.Checked(model.RouteInternal))

	// Clearing the sibling first makes the switch legal
	_, err = m.SetExplicit(model.RouteHeadphone, false)
	require.NoError(t, err)
	_, err = m.SetExplicit(model.RouteInternal, true)
	require.NoError(t, err)

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, model.RouteInternal, sel)
}

func TestToggle(t *testing.T) {
	rec := &recorder{}
	m := NewModel(rec)

	v, err := m.Toggle(model.RouteInternal)
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, model.GlyphInternal, m.Glyph())

	v, err = m.Toggle(model.RouteInternal)
	require.NoError(t, err)
	assert.False(t, v)
	assert.Equal(t, model.GlyphHeadphone, m.Glyph())
	assert.Len(t, rec.views, 2)
}

func TestToggle_RefusesSecondChecked(t *testing.T) {
	m := NewModel(nil)
	_, err := m.Toggle(model.RouteInternal)
	require.NoError(t, err)

	v, err := m.Toggle(model.RouteHeadphone)
	assert.ErrorIs(t, err, ErrBothChecked)
	assert.False(t, v)
}

func TestGlyphFollowsState(t *testing.T) {
	rec := &recorder{}
	m := NewModel(rec)

	_, _ = m.SetExplicit(model.RouteInternal, true)
	assert.Equal(t, model.GlyphInternal, rec.views[len(rec.views)-1].Glyph)

	_, _ = m.SetExplicit(model.RouteInternal, false)
	assert.Equal(t, model.GlyphHeadphone, rec.views[len(rec.views)-1].Glyph, "both unchecked shows headphone")
}

func TestNeverBothChecked(t *testing.T) {
	// Random walk over every transition; never both checked after any step.
	rng := rand.New(rand.NewSource(1))
	m := NewModel(nil)

	for i := 0; i < 2000; i++ {
		route := model.Routes[rng.Intn(2)]
		if rng.Intn(2) == 0 {
			_, _ = m.Toggle(route)
		} else {
			_, _ = m.SetExplicit(route, rng.Intn(2) == 0)
		}
		require.False(t, m.Checked(model.RouteInternal) && m.Checked(model.RouteHeadphone), "step %d", i)
	}
}
