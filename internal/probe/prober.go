// Package probe reads the hardware state of each output route from the mixer.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmylchreest/hpswitch/internal/config"
	"github.com/jmylchreest/hpswitch/internal/mixer"
	"github.com/jmylchreest/hpswitch/internal/model"
)

// PresencePolicy decides how headphone activity is read from the
// Headphone control. The same predicate drives both headphone presence and
// the headphone route state.
type PresencePolicy string

const (
	// PolicyVolume treats the headphone as active unless its volume is 0%.
	PolicyVolume PresencePolicy = config.PresencePolicyVolume
	// PolicySwitch treats the headphone as active when its switch is [on].
	PolicySwitch PresencePolicy = config.PresencePolicySwitch
)

// ErrUnexpectedOutput is wrapped when the mixer prints nothing usable.
var ErrUnexpectedOutput = errors.New("unexpected mixer output")

// ProbeError wraps any failure while probing a route.
type ProbeError struct {
	Route model.Route
	Err   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Route, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Prober queries route state through a mixer Runner.
type Prober struct {
	mu       sync.RWMutex
	runner   mixer.Runner
	commands mixer.Commands
	policy   PresencePolicy
	logger   *slog.Logger
}

// NewProber creates a Prober.
func NewProber(runner mixer.Runner, commands mixer.Commands, policy PresencePolicy, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = PolicyVolume
	}
	return &Prober{
		runner:   runner,
		commands: commands,
		policy:   policy,
		logger:   logger,
	}
}

// Configure replaces the commands and presence policy, e.g. after a config reload.
func (p *Prober) Configure(commands mixer.Commands, policy PresencePolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = commands
	if policy != "" {
		p.policy = policy
	}
}

// Policy returns the active presence policy.
func (p *Prober) Policy() PresencePolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.policy
}

// ProbeRoute queries the mixer control backing route and interprets it.
func (p *Prober) ProbeRoute(ctx context.Context, route model.Route) (model.RouteState, error) {
	p.mu.RLock()
	argv := p.commands.Get(p.commands.Control(route))
	policy := p.policy
	p.mu.RUnlock()

	res, err := p.runner.Run(ctx, argv)
	if err != nil {
		return model.RouteState{}, &ProbeError{Route: route, Err: err}
	}

	out := res.Output()
	if !res.ExitedCleanly || strings.TrimSpace(out) == "" {
		return model.RouteState{}, &ProbeError{Route: route, Err: ErrUnexpectedOutput}
	}

	state := model.RouteState{Active: Interpret(route, policy, out)}
	p.logger.Debug("probed route", "route", route, "active", state.Active)
	return state, nil
}

// Presence reports whether headphone hardware is active at all,
// independent of which route is selected.
func (p *Prober) Presence(ctx context.Context) (bool, error) {
	state, err := p.ProbeRoute(ctx, model.RouteHeadphone)
	if err != nil {
		return false, err
	}
	return state.Active, nil
}

// Interpret applies the route predicate to raw control status output.
func Interpret(route model.Route, policy PresencePolicy, output string) bool {
	if route == model.RouteInternal {
		return strings.Contains(output, mixer.MarkerOn)
	}
	if policy == PolicySwitch {
		return strings.Contains(output, mixer.MarkerOn)
	}
	return !strings.Contains(output, mixer.MarkerZeroVolume)
}
