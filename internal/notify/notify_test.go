package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/config"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		level   Level
		name    string
		urgency byte
		icon    string
	}{
		{LevelInfo, "info", 0, "dialog-information"},
		{LevelWarning, "warning", 1, "dialog-warning"},
		{LevelError, "error", 2, "dialog-error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.level.String())
			assert.Equal(t, tt.urgency, tt.level.Urgency())
			assert.Equal(t, tt.icon, tt.level.Icon())
		})
	}
}

func TestNotifyArgs(t *testing.T) {
	args := notifyArgs(Message{Summary: "Error activating headphone", Level: LevelError}, 5000)
	require.Len(t, args, 8)

	assert.Equal(t, AppName, args[0])
	assert.Equal(t, uint32(0), args[1])
	assert.Equal(t, "dialog-error", args[2])
	assert.Equal(t, "Error activating headphone", args[3])
	assert.Equal(t, "", args[4])
	assert.Equal(t, []string{}, args[5])
	assert.Equal(t, int32(5000), args[7])

	hints, ok := args[6].(map[string]dbus.Variant)
	require.True(t, ok)
	assert.Equal(t, byte(2), hints["urgency"].Value())
	assert.Equal(t, true, hints["transient"].Value())
}

func TestNotifyArgs_CustomIcon(t *testing.T) {
	args := notifyArgs(Message{Summary: "x", Icon: "audio-headphones-symbolic"}, 0)
	assert.Equal(t, "audio-headphones-symbolic", args[2])
}

func TestBeeepSender(t *testing.T) {
	var title, body, icon string
	s := &BeeepSender{notify: func(ti, m, i string) error {
		title, body, icon = ti, m, i
		return nil
	}}

	require.NoError(t, s.Send(Message{Summary: "Configuration Reloaded", Body: "ok", Level: LevelInfo}))
	assert.Equal(t, "Configuration Reloaded", title)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "dialog-information", icon)

	boom := errors.New("no notification daemon")
	s.notify = func(string, string, string) error { return boom }
	assert.ErrorIs(t, s.Send(Message{Summary: "x"}), boom)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.NotifyMethodNone, nil)
	require.NoError(t, err)
	assert.IsType(t, NopSender{}, s)
	assert.NoError(t, s.Send(Message{Summary: "dropped"}))

	s, err = NewSender(config.NotifyMethodBeeep, nil)
	require.NoError(t, err)
	assert.IsType(t, &BeeepSender{}, s)

	_, err = NewSender("carrier-pigeon", nil)
	assert.Error(t, err)
}

// stalledObject is a notification server that never answers.
type stalledObject struct {
	dbus.BusObject
	method string
}

func (o *stalledObject) CallWithContext(ctx context.Context, method string, _ dbus.Flags, _ ...any) *dbus.Call {
	o.method = method
	<-ctx.Done()
	return &dbus.Call{Err: ctx.Err()}
}

func TestDBusSender_StalledServerTimesOut(t *testing.T) {
	obj := &stalledObject{}
	s := newDBusSender(obj)
	s.sendTimeout = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- s.Send(Message{Summary: "Error activating headphone", Level: LevelError}) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a server that never replies")
	}
	assert.Equal(t, NotificationsInterface+".Notify", obj.method)
}
