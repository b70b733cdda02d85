package dbus

import (
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/store"
)

const (
	// DBusInterface is the indicator interface name.
	DBusInterface = "io.github.jmylchreest.HPSwitch"
	// DBusPath is the indicator object path.
	DBusPath = "/io/github/jmylchreest/HPSwitch"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.HPSwitch"
)

// State is the indicator as seen on the bus.
type State struct {
	Present          bool
	Glyph            model.Glyph
	InternalChecked  bool
	HeadphoneChecked bool
}

// Checked reports whether route's entry is checked.
func (s State) Checked(route model.Route) bool {
	if route == model.RouteInternal {
		return s.InternalChecked
	}
	return s.HeadphoneChecked
}

// Shared converts the state for the state file.
func (s State) Shared() *store.SharedState {
	shared := store.DefaultSharedState()
	shared.Present = s.Present
	shared.Glyph = s.Glyph
	shared.InternalChecked = s.InternalChecked
	shared.HeadphoneChecked = s.HeadphoneChecked
	shared.Touch()
	return shared
}

// stateArgs returns the state as the (bsbb) tuple used by GetState and
// StateChanged.
func stateArgs(s State) []any {
	return []any{s.Present, string(s.Glyph), s.InternalChecked, s.HeadphoneChecked}
}

func stateOutArgs() []introspect.Arg {
	return []introspect.Arg{
		{Name: "present", Type: "b", Direction: "out"},
		{Name: "glyph", Type: "s", Direction: "out"},
		{Name: "internal_checked", Type: "b", Direction: "out"},
		{Name: "headphone_checked", Type: "b", Direction: "out"},
	}
}

// indicatorMethods returns the D-Bus method introspection data.
func indicatorMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetState",
			Args: stateOutArgs(),
		},
		{
			Name: "Activate",
			Args: []introspect.Arg{
				{Name: "route", Type: "s", Direction: "in"},
			},
		},
	}
}

// indicatorSignals returns the D-Bus signal introspection data.
func indicatorSignals() []introspect.Signal {
	args := stateOutArgs()
	for i := range args {
		args[i].Direction = ""
	}
	return []introspect.Signal{
		{
			Name: "StateChanged",
			Args: args,
		},
	}
}
