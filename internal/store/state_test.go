package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/model"
)

func TestLoadSharedStateFrom_MissingFile(t *testing.T) {
	state, err := LoadSharedStateFrom(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSharedState(), state)
	assert.Equal(t, "absent", state.Alt())
}

func TestLoadSharedStateFrom_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	state, err := LoadSharedStateFrom(path)
	require.NoError(t, err)
	assert.False(t, state.Present)
}

func TestSaveSharedStateTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	in := &SharedState{
		Present:          true,
		Glyph:            model.GlyphHeadphone,
		HeadphoneChecked: true,
	}
	in.Touch()

	require.NoError(t, SaveSharedStateTo(path, in))
	assert.Equal(t, CurrentSchemaVersion, in.SchemaVersion)

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	out, err := LoadSharedStateFrom(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestStatePaths_UseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	path, err := StateFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hpswitch", "state.json"), path)

	require.NoError(t, SaveSharedState(&SharedState{Present: true, InternalChecked: true}))
	state, err := LoadSharedState()
	require.NoError(t, err)
	assert.True(t, state.InternalChecked)
}

func TestSharedState_Selected(t *testing.T) {
	tests := []struct {
		name  string
		state SharedState
		route model.Route
		ok    bool
		alt   string
	}{
		{"absent", SharedState{InternalChecked: true}, 0, false, "absent"},
		{"internal", SharedState{Present: true, InternalChecked: true}, model.RouteInternal, true, "internal"},
		{"headphone", SharedState{Present: true, HeadphoneChecked: true}, model.RouteHeadphone, true, "headphone"},
		{"none", SharedState{Present: true}, 0, false, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, ok := tt.state.Selected()
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.route, route)
				assert.True(t, tt.state.Checked(route))
			}
			assert.Equal(t, tt.alt, tt.state.Alt())
		})
	}
}

func TestSharedState_UpdatedTime(t *testing.T) {
	var s SharedState
	assert.True(t, s.UpdatedTime().IsZero())

	s.UpdatedAt = 1700000000
	assert.Equal(t, time.Unix(1700000000, 0), s.UpdatedTime())
}

func TestFileWatcher_ReportsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	var mu sync.Mutex
	var got *SharedState
	fw, err := NewFileWatcher(path, func(state *SharedState) {
		mu.Lock()
		defer mu.Unlock()
		got = state
	})
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	defer func() { _ = fw.Stop() }()

	require.NoError(t, SaveSharedStateTo(path, &SharedState{Present: true, HeadphoneChecked: true}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.HeadphoneChecked
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())
}
