// Package model defines the core data structures for hpswitch.
package model

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Route identifies one of the two selectable audio outputs.
type Route int

const (
	// RouteInternal is the built-in speaker output.
	RouteInternal Route = iota
	// RouteHeadphone is the headphone jack output.
	RouteHeadphone
)

// Routes lists both routes in display order.
var Routes = []Route{RouteInternal, RouteHeadphone}

// String returns the route name used in config, logs and on the bus.
func (r Route) String() string {
	switch r {
	case RouteInternal:
		return "internal"
	case RouteHeadphone:
		return "headphone"
	default:
		return "unknown"
	}
}

// Label returns the menu label for the route.
func (r Route) Label() string {
	switch r {
	case RouteInternal:
		return "Internal Speakers"
	case RouteHeadphone:
		return "Headphone"
	default:
		return ""
	}
}

// Other returns the sibling route.
func (r Route) Other() Route {
	if r == RouteInternal {
		return RouteHeadphone
	}
	return RouteInternal
}

// Valid reports whether r is one of the two known routes.
func (r Route) Valid() bool {
	return r == RouteInternal || r == RouteHeadphone
}

// ParseRoute converts a route name into a Route.
func ParseRoute(s string) (Route, error) {
	switch s {
	case "internal", "speakers", "speaker":
		return RouteInternal, nil
	case "headphone", "headphones":
		return RouteHeadphone, nil
	default:
		return 0, fmt.Errorf("unknown route %q, must be internal or headphone", s)
	}
}

// RouteState is the hardware state of a route as seen by a probe or
// reported by a successful mixer command.
type RouteState struct {
	Active bool
}

// Snapshot is the last observed mixer state, used only to detect deltas
// between ticks. The zero value is the "nothing observed yet" sentinel.
type Snapshot struct {
	Known            bool
	HeadphonePresent bool
	InternalActive   bool
	HeadphoneActive  bool
}

// Active returns the cached state for a route.
func (s Snapshot) Active(r Route) bool {
	if r == RouteInternal {
		return s.InternalActive
	}
	return s.HeadphoneActive
}

// SetActive updates the cached state for a route.
func (s *Snapshot) SetActive(r Route, active bool) {
	if r == RouteInternal {
		s.InternalActive = active
		return
	}
	s.HeadphoneActive = active
}

// Glyph is a symbolic icon name shown on the status indicator.
type Glyph string

const (
	GlyphInternal  Glyph = "audio-speakers-symbolic"
	GlyphHeadphone Glyph = "audio-headphones-symbolic"
)

// GlyphFor returns the glyph representing a route.
func GlyphFor(r Route) Glyph {
	if r == RouteInternal {
		return GlyphInternal
	}
	return GlyphHeadphone
}

// Ornament is the decoration drawn next to a menu entry.
type Ornament int

const (
	OrnamentNone Ornament = iota
	OrnamentCheck
)

// String returns the string representation of the ornament.
func (o Ornament) String() string {
	switch o {
	case OrnamentNone:
		return "none"
	case OrnamentCheck:
		return "check"
	default:
		return "unknown"
	}
}

// NewRequestID returns a sortable identifier used to correlate the log
// lines of a single user action.
func NewRequestID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return id.String()
}
