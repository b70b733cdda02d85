package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DaemonConfig is the configuration for hpswitchd.
// Loaded from ~/.config/hpswitch/hpswitchd.toml
type DaemonConfig struct {
	Mixer    MixerConfig    `toml:"mixer"`
	Poll     PollConfig     `toml:"poll"`
	Notify   NotifyConfig   `toml:"notify"`
	Feedback FeedbackConfig `toml:"feedback"`
	Shutdown ShutdownConfig `toml:"shutdown"`
}

// MixerConfig describes the mixer binary and the controls it drives.
type MixerConfig struct {
	Binary           string   `toml:"binary"`            // amixer executable
	Card             int      `toml:"card"`              // ALSA card index
	SpeakerControl   string   `toml:"speaker_control"`   // Simple control for the internal speakers
	HeadphoneControl string   `toml:"headphone_control"` // Simple control for the headphone jack
	FullVolume       string   `toml:"full_volume"`       // Volume restored when speakers are enabled
	MutedVolume      string   `toml:"muted_volume"`      // Volume set when speakers are disabled
	CommandTimeout   Duration `toml:"command_timeout"`   // Max time a single mixer call may take
}

// PollConfig controls the reconciliation loop.
type PollConfig struct {
	Interval       Duration `toml:"interval"`        // Tick period
	PresencePolicy string   `toml:"presence_policy"` // "volume" or "switch"
}

// NotifyConfig controls user-visible failure notifications.
type NotifyConfig struct {
	Enabled     bool     `toml:"enabled"`
	Method      string   `toml:"method"`       // "dbus", "beeep" or "none"
	MinInterval Duration `toml:"min_interval"` // Suppress repeats of the same notification
}

// FeedbackConfig controls the optional sound played after a route switch.
type FeedbackConfig struct {
	Sound  string `toml:"sound"`  // wav, ogg or mp3; empty disables
	Volume int    `toml:"volume"` // 0-100
}

// ShutdownConfig controls the best-effort restore on daemon exit.
type ShutdownConfig struct {
	RestoreSpeakers bool     `toml:"restore_speakers"` // Silence speakers if headphones are present
	Timeout         Duration `toml:"timeout"`
}

// PresencePolicy names.
const (
	PresencePolicyVolume = "volume"
	PresencePolicySwitch = "switch"
)

// Notification methods.
const (
	NotifyMethodDBus  = "dbus"
	NotifyMethodBeeep = "beeep"
	NotifyMethodNone  = "none"
)

// ValidPresencePolicies returns all valid presence policy values.
func ValidPresencePolicies() []string {
	return []string{PresencePolicyVolume, PresencePolicySwitch}
}

// ValidNotifyMethods returns all valid notification method values.
func ValidNotifyMethods() []string {
	return []string{NotifyMethodDBus, NotifyMethodBeeep, NotifyMethodNone}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Mixer: MixerConfig{
			Binary:           "amixer",
			Card:             0,
			SpeakerControl:   "Speaker",
			HeadphoneControl: "Headphone",
			FullVolume:       "100",
			MutedVolume:      "0",
			CommandTimeout:   Duration(5 * time.Second),
		},
		Poll: PollConfig{
			Interval:       Duration(2 * time.Second),
			PresencePolicy: PresencePolicyVolume,
		},
		Notify: NotifyConfig{
			Enabled:     true,
			Method:      NotifyMethodDBus,
			MinInterval: Duration(0),
		},
		Feedback: FeedbackConfig{
			Sound:  "",
			Volume: 80,
		},
		Shutdown: ShutdownConfig{
			RestoreSpeakers: true,
			Timeout:         Duration(3 * time.Second),
		},
	}
}

// LoadDaemonConfig loads the daemon configuration from the default path.
// If the file doesn't exist, returns the default configuration.
func LoadDaemonConfig() (*DaemonConfig, error) {
	path, err := DaemonConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadDaemonConfigFrom(path)
}

// LoadDaemonConfigFrom loads the daemon configuration from path.
func LoadDaemonConfigFrom(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig saves the daemon configuration to path.
func SaveDaemonConfig(config *DaemonConfig, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := config.Marshal()
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Marshal renders the configuration as TOML.
func (c *DaemonConfig) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Mixer.Binary == "" {
		return fmt.Errorf("mixer binary must not be empty")
	}
	if c.Mixer.Card < 0 {
		return fmt.Errorf("mixer card must be >= 0, got %d", c.Mixer.Card)
	}
	if c.Mixer.SpeakerControl == "" || c.Mixer.HeadphoneControl == "" {
		return fmt.Errorf("mixer speaker_control and headphone_control must not be empty")
	}
	if c.Mixer.CommandTimeout.Duration() <= 0 {
		return fmt.Errorf("mixer command_timeout must be positive")
	}

	if c.Poll.Interval.Duration() < 100*time.Millisecond {
		return fmt.Errorf("poll interval must be at least 100ms, got %s", c.Poll.Interval.Duration())
	}
	if !slices.Contains(ValidPresencePolicies(), c.Poll.PresencePolicy) {
		return fmt.Errorf("invalid presence_policy %q, must be one of: %v", c.Poll.PresencePolicy, ValidPresencePolicies())
	}

	if !slices.Contains(ValidNotifyMethods(), c.Notify.Method) {
		return fmt.Errorf("invalid notify method %q, must be one of: %v", c.Notify.Method, ValidNotifyMethods())
	}
	if c.Notify.MinInterval.Duration() < 0 {
		return fmt.Errorf("notify min_interval must not be negative")
	}

	if c.Feedback.Volume < 0 || c.Feedback.Volume > 100 {
		return fmt.Errorf("feedback volume must be between 0 and 100, got %d", c.Feedback.Volume)
	}

	if c.Shutdown.Timeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	return nil
}

// FeedbackSoundPath returns the feedback sound path with ~ expanded.
func (c *DaemonConfig) FeedbackSoundPath() string {
	return expandPath(c.Feedback.Sound)
}
