package mixer

import (
	"strconv"

	"github.com/jmylchreest/hpswitch/internal/config"
	"github.com/jmylchreest/hpswitch/internal/model"
)

// Markers searched for in amixer control status output.
const (
	MarkerOn         = "[on]"
	MarkerZeroVolume = "[0%]"
)

// Commands builds amixer argument vectors for the configured card and controls.
type Commands struct {
	Binary           string
	Card             int
	SpeakerControl   string
	HeadphoneControl string
	FullVolume       string
	MutedVolume      string
}

// NewCommands creates a Commands from the mixer configuration.
func NewCommands(cfg config.MixerConfig) Commands {
	return Commands{
		Binary:           cfg.Binary,
		Card:             cfg.Card,
		SpeakerControl:   cfg.SpeakerControl,
		HeadphoneControl: cfg.HeadphoneControl,
		FullVolume:       cfg.FullVolume,
		MutedVolume:      cfg.MutedVolume,
	}
}

// DefaultCommands returns Commands for card 0 with the stock control names.
func DefaultCommands() Commands {
	return NewCommands(config.DefaultDaemonConfig().Mixer)
}

// Control returns the mixer control that reports a route's state.
func (c Commands) Control(route model.Route) string {
	if route == model.RouteInternal {
		return c.SpeakerControl
	}
	return c.HeadphoneControl
}

// Get returns the query command for a control, e.g. amixer -c0 get Speaker.
func (c Commands) Get(control string) []string {
	return []string{c.Binary, "-c" + strconv.Itoa(c.Card), "get", control}
}

// Set returns the mutate command for a control, e.g.
// amixer -c 0 set Speaker on 100. An empty volume is omitted.
func (c Commands) Set(control string, on bool, volume string) []string {
	state := "off"
	if on {
		state = "on"
	}
	argv := []string{c.Binary, "-c", strconv.Itoa(c.Card), "set", control, state}
	if volume != "" {
		argv = append(argv, volume)
	}
	return argv
}

// SpeakersOn enables the speakers at full volume.
func (c Commands) SpeakersOn() []string {
	return c.Set(c.SpeakerControl, true, c.FullVolume)
}

// SpeakersOff disables the speakers and zeroes their volume.
func (c Commands) SpeakersOff() []string {
	return c.Set(c.SpeakerControl, false, c.MutedVolume)
}

// RouteCommand returns the command that turns a route on or off.
// Both routes share the speaker switch: selecting the headphone silences
// the speakers and deselecting it brings them back.
func (c Commands) RouteCommand(route model.Route, on bool) []string {
	speakers := on
	if route == model.RouteHeadphone {
		speakers = !on
	}
	if speakers {
		return c.SpeakersOn()
	}
	return c.SpeakersOff()
}
