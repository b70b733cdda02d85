package daemon

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/selection"
)

// DefaultTaskQueue is the number of posted tasks that may wait for the loop.
const DefaultTaskQueue = 16

// RouteProber reads route state from the mixer.
type RouteProber interface {
	Presence(ctx context.Context) (bool, error)
	ProbeRoute(ctx context.Context, route model.Route) (model.RouteState, error)
}

// Activator applies a user route selection to an indicator.
type Activator interface {
	Activate(ctx context.Context, ind *indicator.Indicator, route model.Route) error
}

// Task is a unit of work executed on the loop goroutine.
type Task func(ctx context.Context)

// Loop is the reconciliation loop. Every tick it probes the mixer, updates
// the indicator's selection from observed deltas and creates or destroys
// the indicator as headphone presence changes.
//
// The snapshot and the indicator are only touched from the goroutine
// running Run (or the caller of Tick when Run is not active). Other
// goroutines hand work to it with Post.
type Loop struct {
	logger    *slog.Logger
	prober    RouteProber
	activator Activator
	panel     indicator.Panel
	interval  time.Duration
	ticker    *time.Ticker
	tasks     chan Task
	snapshot  model.Snapshot
	indicator *indicator.Indicator
}

// NewLoop creates a Loop.
func NewLoop(prober RouteProber, activator Activator, panel indicator.Panel, interval time.Duration, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger:    logger,
		prober:    prober,
		activator: activator,
		panel:     panel,
		interval:  interval,
		tasks:     make(chan Task, DefaultTaskQueue),
	}
}

// Post queues task to run on the loop goroutine. It returns false if the
// queue is full and the task was dropped.
func (l *Loop) Post(task Task) bool {
	select {
	case l.tasks <- task:
		return true
	default:
		l.logger.Warn("loop task queue full, dropping task")
		return false
	}
}

// Run ticks immediately and then every interval until ctx is done.
// Posted tasks run between ticks.
func (l *Loop) Run(ctx context.Context) {
	l.ticker = time.NewTicker(l.interval)
	defer l.ticker.Stop()

	l.logger.Debug("reconciliation loop started", "interval", l.interval)
	l.safeTick(ctx)

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("reconciliation loop stopped")
			return
		case <-l.ticker.C:
			l.safeTick(ctx)
		case task := <-l.tasks:
			l.runTask(ctx, task)
		}
	}
}

// SetInterval changes the tick period. Call it from the loop goroutine.
func (l *Loop) SetInterval(interval time.Duration) {
	if interval <= 0 || interval == l.interval {
		return
	}
	l.interval = interval
	if l.ticker != nil {
		l.ticker.Reset(interval)
	}
	l.logger.Info("poll interval changed", "interval", interval)
}

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Indicator returns the current indicator, or nil while headphones are absent.
func (l *Loop) Indicator() *indicator.Indicator {
	return l.indicator
}

// Snapshot returns the last observed mixer state.
func (l *Loop) Snapshot() model.Snapshot {
	return l.snapshot
}

// Tick runs one reconciliation pass. Any probe failure ends the tick early
// and leaves all state as it was.
func (l *Loop) Tick(ctx context.Context) {
	present, err := l.prober.Presence(ctx)
	if err != nil {
		l.logger.Warn("failed to check headphone status", "error", err)
		return
	}

	if l.indicator != nil {
		if err := l.reconcile(ctx, present); err != nil {
			l.logger.Warn("failed to probe route state", "error", err)
			return
		}
	}

	if l.snapshot.Known && present == l.snapshot.HeadphonePresent {
		return
	}

	if present {
		if !l.createIndicator() {
			// Leave the snapshot alone so the next tick retries
			return
		}
	} else {
		l.DestroyIndicator()
	}

	l.snapshot.Known = true
	l.snapshot.HeadphonePresent = present
	l.logger.Info("headphone presence changed", "present", present)
}

// reconcile compares the probed route state with the snapshot and applies
// each delta to the indicator's selection. headphoneActive is the presence
// result of this tick; presence and headphone state share one predicate.
func (l *Loop) reconcile(ctx context.Context, headphoneActive bool) error {
	internal, err := l.prober.ProbeRoute(ctx, model.RouteInternal)
	if err != nil {
		return err
	}

	sel := l.indicator.Selection()

	if internal.Active != l.snapshot.InternalActive {
		if internal.Active {
			l.setExplicit(sel, model.RouteHeadphone, false)
			l.setExplicit(sel, model.RouteInternal, true)
		} else {
			l.setExplicit(sel, model.RouteInternal, false)
			// Don't leave present headphones with nothing checked
			if headphoneActive {
				l.setExplicit(sel, model.RouteHeadphone, true)
			}
		}
		l.snapshot.SetActive(model.RouteInternal, internal.Active)
	}

	if headphoneActive != l.snapshot.HeadphoneActive {
		switch {
		case !headphoneActive:
			l.setExplicit(sel, model.RouteHeadphone, false)
		case !sel.Checked(model.RouteInternal):
			// Speakers that are on keep the selection
			l.setExplicit(sel, model.RouteHeadphone, true)
		}
		l.snapshot.SetActive(model.RouteHeadphone, headphoneActive)
	}

	return nil
}

func (l *Loop) setExplicit(sel *selection.Model, route model.Route, active bool) {
	changed, err := sel.SetExplicit(route, active)
	if err != nil {
		l.logger.Warn("selection transition refused", "route", route, "active", active, "error", err)
		return
	}
	if changed {
		l.logger.Debug("selection updated from mixer", "route", route, "checked", active)
	}
}

// createIndicator attaches a new indicator, assuming the headphone is the
// selected route until the next tick probes otherwise.
func (l *Loop) createIndicator() bool {
	if l.indicator == nil {
		var ind *indicator.Indicator
		ind, err := indicator.New(l.panel, func(route model.Route) {
			l.Post(func(ctx context.Context) {
				l.activate(ctx, ind, route)
			})
		})
		if err != nil {
			l.logger.Error("failed to create indicator", "error", err)
			return false
		}
		l.indicator = ind
		l.logger.Debug("indicator created")
	}

	sel := l.indicator.Selection()
	l.setExplicit(sel, model.RouteInternal, false)
	l.setExplicit(sel, model.RouteHeadphone, true)
	l.snapshot.InternalActive = false
	l.snapshot.HeadphoneActive = true
	return true
}

// DestroyIndicator releases the indicator if there is one.
func (l *Loop) DestroyIndicator() {
	if l.indicator == nil {
		return
	}
	l.indicator.Destroy()
	l.indicator = nil
	l.logger.Debug("indicator destroyed")
}

// Reset forgets the snapshot so the next tick starts from scratch.
func (l *Loop) Reset() {
	l.snapshot = model.Snapshot{}
}

// activate runs a user action for ind if it is still the live indicator.
func (l *Loop) activate(ctx context.Context, ind *indicator.Indicator, route model.Route) {
	if ind == nil || ind != l.indicator {
		l.logger.Debug("activation for stale indicator ignored", "route", route)
		return
	}
	// Failures are reported to the user by the activator
	_ = l.activator.Activate(ctx, ind, route)
}

func (l *Loop) safeTick(ctx context.Context) {
	defer l.recoverPanic("tick")
	l.Tick(ctx)
}

func (l *Loop) runTask(ctx context.Context, task Task) {
	defer l.recoverPanic("task")
	task(ctx)
}

func (l *Loop) recoverPanic(where string) {
	if r := recover(); r != nil {
		l.logger.Error("recovered panic in reconciliation loop", "where", where, "panic", r, "stack", string(debug.Stack()))
	}
}
