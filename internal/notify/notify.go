// Package notify delivers desktop notifications on behalf of hpswitchd.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/hpswitch/internal/config"
)

// AppName is reported to the notification server.
const AppName = "hpswitchd"

// Level indicates the urgency of a notification.
type Level int

const (
	// LevelInfo is for informational messages (low urgency).
	LevelInfo Level = iota
	// LevelWarning is for warning messages (normal urgency).
	LevelWarning
	// LevelError is for error messages (critical urgency).
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Urgency returns the freedesktop urgency byte for the level.
func (l Level) Urgency() byte {
	switch l {
	case LevelInfo:
		return 0
	case LevelError:
		return 2
	default:
		return 1
	}
}

// Icon returns the themed icon name for the level.
func (l Level) Icon() string {
	switch l {
	case LevelInfo:
		return "dialog-information"
	case LevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// Message is one notification.
type Message struct {
	Summary string
	Body    string
	Icon    string // themed icon name, defaults to the level icon
	Level   Level
}

func (m Message) icon() string {
	if m.Icon != "" {
		return m.Icon
	}
	return m.Level.Icon()
}

// Sender delivers notifications to the user.
type Sender interface {
	Send(msg Message) error
}

// Freedesktop notification service coordinates.
const (
	NotificationsBusName   = "org.freedesktop.Notifications"
	NotificationsPath      = "/org/freedesktop/Notifications"
	NotificationsInterface = "org.freedesktop.Notifications"
)

// DefaultSendTimeout bounds a single Notify call so a hung notification
// server cannot stall the caller.
const DefaultSendTimeout = 2 * time.Second

// DBusSender sends notifications through org.freedesktop.Notifications.
type DBusSender struct {
	obj           dbus.BusObject
	expireTimeout int32
	sendTimeout   time.Duration
}

// NewDBusSender creates a DBusSender on the session bus.
func NewDBusSender() (*DBusSender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return newDBusSender(conn.Object(NotificationsBusName, dbus.ObjectPath(NotificationsPath))), nil
}

func newDBusSender(obj dbus.BusObject) *DBusSender {
	return &DBusSender{
		obj:           obj,
		expireTimeout: 5000,
		sendTimeout:   DefaultSendTimeout,
	}
}

// Send implements Sender. It gives up after the send timeout.
func (s *DBusSender) Send(msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	call := s.obj.CallWithContext(ctx, NotificationsInterface+".Notify", 0, notifyArgs(msg, s.expireTimeout)...)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

// notifyArgs builds the Notify(susssasa{sv}i) argument list.
func notifyArgs(msg Message, expireTimeout int32) []any {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(msg.Level.Urgency()),
		"category":      dbus.MakeVariant("device"),
		"transient":     dbus.MakeVariant(true),
		"desktop-entry": dbus.MakeVariant(AppName),
	}
	return []any{
		AppName,
		uint32(0),
		msg.icon(),
		msg.Summary,
		msg.Body,
		[]string{},
		hints,
		expireTimeout,
	}
}

// BeeepSender sends notifications through beeep.
type BeeepSender struct {
	notify func(title, message, icon string) error
}

// NewBeeepSender creates a BeeepSender.
func NewBeeepSender() *BeeepSender {
	return &BeeepSender{
		notify: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Send implements Sender.
func (s *BeeepSender) Send(msg Message) error {
	if err := s.notify(msg.Summary, msg.Body, msg.icon()); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// NopSender drops every notification.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(Message) error { return nil }

// NewSender returns the Sender for a configured method. A D-Bus sender
// that cannot reach the session bus falls back to beeep.
func NewSender(method string, logger *slog.Logger) (Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch method {
	case config.NotifyMethodNone:
		return NopSender{}, nil
	case config.NotifyMethodBeeep:
		return NewBeeepSender(), nil
	case config.NotifyMethodDBus, "":
		s, err := NewDBusSender()
		if err != nil {
			logger.Warn("D-Bus notifications unavailable, falling back to beeep", "error", err)
			return NewBeeepSender(), nil
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown notification method %q", method)
	}
}
