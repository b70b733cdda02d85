// Package store persists the indicator state shared between hpswitchd and
// the hpswitch CLI.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmylchreest/hpswitch/internal/config"
	"github.com/jmylchreest/hpswitch/internal/model"
)

// SharedState is what the daemon's indicator currently shows.
// This is persisted to ~/.local/share/hpswitch/state.json
type SharedState struct {
	Present          bool        `json:"present" yaml:"present"`                     // Headphones present, indicator shown
	Glyph            model.Glyph `json:"glyph,omitempty" yaml:"glyph,omitempty"`     // Icon currently attached
	InternalChecked  bool        `json:"internal_checked" yaml:"internal_checked"`   // Internal speakers entry checked
	HeadphoneChecked bool        `json:"headphone_checked" yaml:"headphone_checked"` // Headphone entry checked
	UpdatedAt        int64       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	// Version for compatibility
	SchemaVersion int `json:"schema_version" yaml:"schema_version"`
}

const (
	// CurrentSchemaVersion is the current version of the state schema.
	CurrentSchemaVersion = 1
)

// stateFileMutex protects concurrent access to the state file.
var stateFileMutex sync.RWMutex

// DefaultSharedState returns the state of a daemon showing nothing.
func DefaultSharedState() *SharedState {
	return &SharedState{
		SchemaVersion: CurrentSchemaVersion,
	}
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// LoadSharedState loads the shared state from the default path.
func LoadSharedState() (*SharedState, error) {
	path, err := StateFilePath()
	if err != nil {
		return nil, err
	}
	return LoadSharedStateFrom(path)
}

// LoadSharedStateFrom loads the shared state from path.
// If the file doesn't exist, returns a default state.
func LoadSharedStateFrom(path string) (*SharedState, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSharedState(), nil
		}
		return nil, err
	}

	var state SharedState
	if err := json.Unmarshal(data, &state); err != nil {
		// If the file is corrupted, return default state
		return DefaultSharedState(), nil
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	return &state, nil
}

// SaveSharedState saves the shared state to the default path.
func SaveSharedState(state *SharedState) error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}
	return SaveSharedStateTo(path, state)
}

// SaveSharedStateTo saves the shared state to path.
func SaveSharedStateTo(path string, state *SharedState) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// Touch stamps the state with the current time.
func (s *SharedState) Touch() {
	s.UpdatedAt = time.Now().Unix()
}

// UpdatedTime returns UpdatedAt as a time, zero if never set.
func (s *SharedState) UpdatedTime() time.Time {
	if s.UpdatedAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.UpdatedAt, 0)
}

// Selected returns the checked route, if any.
func (s *SharedState) Selected() (model.Route, bool) {
	switch {
	case !s.Present:
		return 0, false
	case s.InternalChecked:
		return model.RouteInternal, true
	case s.HeadphoneChecked:
		return model.RouteHeadphone, true
	default:
		return 0, false
	}
}

// Checked reports whether route's entry is checked.
func (s *SharedState) Checked(route model.Route) bool {
	if route == model.RouteInternal {
		return s.InternalChecked
	}
	return s.HeadphoneChecked
}

// Alt returns a short status keyword: "absent", "internal", "headphone"
// or "none" when present with nothing checked.
func (s *SharedState) Alt() string {
	if !s.Present {
		return "absent"
	}
	if route, ok := s.Selected(); ok {
		return route.String()
	}
	return "none"
}
