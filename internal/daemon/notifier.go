package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/notify"
)

// Notifier sends user-visible notifications about hpswitchd events.
// Repeats of the same notification within minInterval are dropped.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender notify.Sender

	// Rate limiting
	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewNotifier creates a Notifier delivering through sender.
func NewNotifier(sender notify.Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		sender:         sender,
		lastNotifyTime: make(map[string]time.Time),
		now:            time.Now,
		enabled:        true,
	}
}

// SetSender replaces the delivery channel.
func (n *Notifier) SetSender(sender notify.Sender) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sender = sender
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless disabled or rate-limited.
// The key groups notifications for rate limiting.
func (n *Notifier) Notify(key, summary, body string, level notify.Level) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return
	}

	sender := n.sender
	if sender == nil {
		n.mu.Unlock()
		n.logger.Debug("notification skipped: no sender", "summary", summary)
		return
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && n.minInterval > 0 {
		if now.Sub(lastTime) < n.minInterval {
			n.mu.Unlock()
			n.logger.Debug("notification rate-limited", "key", key, "summary", summary)
			return
		}
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending notification", "key", key, "summary", summary, "level", level)

	// Sent without the lock so a slow server only delays this caller
	msg := notify.Message{Summary: summary, Body: body, Level: level}
	if err := sender.Send(msg); err != nil {
		n.logger.Warn("failed to send notification", "summary", summary, "error", err)
	}
}

// NotifyActionFailed reports that switching to route failed.
func (n *Notifier) NotifyActionFailed(route model.Route, err error) {
	var summary string
	switch route {
	case model.RouteInternal:
		summary = "Error activating internal speakers"
	default:
		summary = "Error activating headphone"
	}

	body := ""
	if err != nil {
		body = err.Error()
	}
	n.Notify("action-"+route.String(), summary, body, notify.LevelError)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *Notifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"hpswitchd configuration has been successfully reloaded.",
		notify.LevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *Notifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		notify.LevelWarning,
	)
}
