package indicator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/hpswitch/internal/mixer"
	"github.com/jmylchreest/hpswitch/internal/model"
)

// ActionError wraps a failure while applying a user-selected route.
type ActionError struct {
	Route model.Route
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("activate %s: %v", e.Route, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// FailureNotifier surfaces action failures to the user.
type FailureNotifier interface {
	NotifyActionFailed(route model.Route, err error)
}

// Feedback is told about every successful route switch.
type Feedback interface {
	RouteSwitched(route model.Route)
}

// Dispatcher turns menu activations into mixer commands and commits the
// selection change only when the mixer reports success.
type Dispatcher struct {
	mu       sync.RWMutex
	runner   mixer.Runner
	commands mixer.Commands
	notifier FailureNotifier
	feedback Feedback
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. notifier and feedback may be nil.
func NewDispatcher(runner mixer.Runner, commands mixer.Commands, notifier FailureNotifier, feedback Feedback, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		runner:   runner,
		commands: commands,
		notifier: notifier,
		feedback: feedback,
		logger:   logger,
	}
}

// SetCommands replaces the mixer commands, e.g. after a config reload.
func (d *Dispatcher) SetCommands(commands mixer.Commands) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = commands
}

// Activate handles a user picking route on ind. It returns nil for a no-op
// or a committed switch, and an *ActionError (already reported to the
// user) when the mixer command failed.
func (d *Dispatcher) Activate(ctx context.Context, ind *Indicator, route model.Route) error {
	if ind == nil || ind.Destroyed() {
		d.logger.Debug("activation ignored, no indicator", "route", route)
		return nil
	}

	sel := ind.Selection()
	if sel.Checked(route) && !sel.Checked(route.Other()) {
		d.logger.Debug("route already selected", "route", route)
		return nil
	}

	reqID := model.NewRequestID()
	on := !sel.Checked(route)

	d.mu.RLock()
	argv := d.commands.RouteCommand(route, on)
	d.mu.RUnlock()

	logger := d.logger.With("request_id", reqID, "route", route, "on", on)
	logger.Info("switching route", "argv", argv)

	res, err := d.runner.Run(ctx, argv)
	if err == nil && !res.ExitedCleanly {
		err = errors.New("mixer did not exit cleanly")
	}
	if err != nil {
		actionErr := &ActionError{Route: route, Err: err}
		if errors.Is(err, mixer.ErrCancelled) {
			// Shutting down; nothing for the user to act on
			logger.Debug("route switch cancelled")
			return actionErr
		}
		logger.Error("failed to switch route", "error", err)
		if d.notifier != nil {
			d.notifier.NotifyActionFailed(route, actionErr)
		}
		return actionErr
	}

	if on {
		if _, err := sel.SetExplicit(route.Other(), false); err != nil {
			logger.Warn("failed to clear sibling route", "error", err)
		}
		if _, err := sel.SetExplicit(route, true); err != nil {
			logger.Warn("failed to check route", "error", err)
		}
	} else if _, err := sel.Toggle(route); err != nil {
		logger.Warn("failed to toggle route", "error", err)
	}

	logger.Info("route switched")
	if on && d.feedback != nil {
		d.feedback.RouteSwitched(route)
	}
	return nil
}
