package dbus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/store"
)

func newAttached(t *testing.T) (*IndicatorServer, *indicator.Indicator, *[]model.Route, string) {
	t.Helper()
	statePath := filepath.Join(t.TempDir(), "state.json")
	srv := NewIndicatorServer(statePath, nil)

	var activated []model.Route
	ind, err := indicator.New(srv, func(r model.Route) { activated = append(activated, r) })
	require.NoError(t, err)
	_, err = ind.Selection().SetExplicit(model.RouteHeadphone, true)
	require.NoError(t, err)
	return srv, ind, &activated, statePath
}

func TestIndicatorServer_NoIndicator(t *testing.T) {
	srv := NewIndicatorServer("", nil)

	present, glyph, internal, headphone, dErr := srv.GetState()
	assert.Nil(t, dErr)
	assert.False(t, present)
	assert.Empty(t, glyph)
	assert.False(t, internal)
	assert.False(t, headphone)

	assert.NotNil(t, srv.Activate("internal"))
}

func TestIndicatorServer_ProjectsIndicator(t *testing.T) {
	srv, ind, _, statePath := newAttached(t)

	assert.Equal(t, State{
		Present:          true,
		Glyph:            model.GlyphHeadphone,
		HeadphoneChecked: true,
	}, srv.State())

	shared, err := store.LoadSharedStateFrom(statePath)
	require.NoError(t, err)
	assert.True(t, shared.Present)
	assert.True(t, shared.HeadphoneChecked)
	assert.Equal(t, "headphone", shared.Alt())

	_, err = ind.Selection().SetExplicit(model.RouteHeadphone, false)
	require.NoError(t, err)
	_, err = ind.Selection().SetExplicit(model.RouteInternal, true)
	require.NoError(t, err)

	present, glyph, internal, headphone, dErr := srv.GetState()
	assert.Nil(t, dErr)
	assert.True(t, present)
	assert.Equal(t, string(model.GlyphInternal), glyph)
	assert.True(t, internal)
	assert.False(t, headphone)

	shared, err = store.LoadSharedStateFrom(statePath)
	require.NoError(t, err)
	assert.Equal(t, "internal", shared.Alt())
}

func TestIndicatorServer_Activate(t *testing.T) {
	srv, _, activated, _ := newAttached(t)

	assert.Nil(t, srv.Activate("internal"))
	assert.Equal(t, []model.Route{model.RouteInternal}, *activated)

	// Checked entry is insensitive
	assert.NotNil(t, srv.Activate("headphone"))
	assert.NotNil(t, srv.Activate("subwoofer"))
	assert.Len(t, *activated, 1)
}

func TestIndicatorServer_Destroy(t *testing.T) {
	srv, ind, activated, statePath := newAttached(t)

	ind.Destroy()

	assert.Equal(t, State{}, srv.State())
	assert.NotNil(t, srv.Activate("internal"))
	assert.Empty(t, *activated)

	shared, err := store.LoadSharedStateFrom(statePath)
	require.NoError(t, err)
	assert.False(t, shared.Present)

	// A new indicator can attach after the old one is gone
	_, err = indicator.New(srv, nil)
	assert.NoError(t, err)
}

func TestIndicatorServer_OneSurfaceAtATime(t *testing.T) {
	srv := NewIndicatorServer("", nil)
	_, err := srv.NewSurface(indicator.Name)
	require.NoError(t, err)

	_, err = srv.NewSurface(indicator.Name)
	assert.ErrorIs(t, err, ErrSurfaceAttached)
}

func TestIndicatorServer_SyncWritesState(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, store.SaveSharedStateTo(statePath, &store.SharedState{Present: true, InternalChecked: true}))

	srv := NewIndicatorServer(statePath, nil)
	srv.Sync()

	shared, err := store.LoadSharedStateFrom(statePath)
	require.NoError(t, err)
	assert.False(t, shared.Present)
}

func TestEmitStateChanged_NotConnected(t *testing.T) {
	srv := NewIndicatorServer("", nil)
	assert.Error(t, srv.EmitStateChanged(State{Present: true}))
}

func TestIntrospection(t *testing.T) {
	methods := indicatorMethods()
	require.Len(t, methods, 2)
	assert.Equal(t, "GetState", methods[0].Name)
	assert.Len(t, methods[0].Args, 4)
	assert.Equal(t, "Activate", methods[1].Name)

	signals := indicatorSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "StateChanged", signals[0].Name)
	for _, arg := range signals[0].Args {
		assert.Empty(t, arg.Direction)
	}
}

func TestState_Shared(t *testing.T) {
	st := State{Present: true, Glyph: model.GlyphInternal, InternalChecked: true}
	shared := st.Shared()
	assert.True(t, shared.Present)
	assert.Equal(t, model.GlyphInternal, shared.Glyph)
	assert.Equal(t, store.CurrentSchemaVersion, shared.SchemaVersion)
	assert.NotZero(t, shared.UpdatedAt)
	assert.True(t, st.Checked(model.RouteInternal))
	assert.False(t, st.Checked(model.RouteHeadphone))
}
