package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hpswitchd.toml")
	w := NewConfigWatcher(path, nil)

	var reloaded []*config.DaemonConfig
	var errs []error
	w.SetReloadCallback(func(cfg *config.DaemonConfig) { reloaded = append(reloaded, cfg) })
	w.SetErrorCallback(func(err error) { errs = append(errs, err) })

	// Missing file is ignored
	w.Reload()
	assert.Empty(t, reloaded)
	assert.Empty(t, errs)

	writeConfig(t, path, "[poll]\ninterval = \"500ms\"\n")
	w.Reload()
	require.Len(t, reloaded, 1)
	assert.Equal(t, 500*time.Millisecond, reloaded[0].Poll.Interval.Duration())
	assert.Same(t, reloaded[0], w.GetCurrentConfig())

	// Unchanged content does not fire again
	w.Reload()
	assert.Len(t, reloaded, 1)

	writeConfig(t, path, "[poll]\npresence_policy = \"sometimes\"\n")
	w.Reload()
	assert.Len(t, reloaded, 1)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "presence_policy")
	assert.Equal(t, 500*time.Millisecond, w.GetCurrentConfig().Poll.Interval.Duration())
}

func TestConfigWatcher_WatchesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hpswitch")
	path := filepath.Join(dir, "hpswitchd.toml")
	w := NewConfigWatcher(path, nil)

	var mu sync.Mutex
	var got *config.DaemonConfig
	w.SetReloadCallback(func(cfg *config.DaemonConfig) {
		mu.Lock()
		defer mu.Unlock()
		got = cfg
	})

	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	defer w.Stop()

	// Start creates the directory
	_, err := os.Stat(dir)
	require.NoError(t, err)

	writeConfig(t, path, "[mixer]\nspeaker_control = \"Master\"\n")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.Mixer.SpeakerControl == "Master"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "hpswitchd.toml"), nil)
	require.NoError(t, w.Start(context.Background(), config.DefaultDaemonConfig()))
	w.Stop()
	assert.NotPanics(t, w.Stop)
}
