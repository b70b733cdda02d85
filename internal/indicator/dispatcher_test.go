package indicator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/indicator/indicatortest"
	"github.com/jmylchreest/hpswitch/internal/mixer"
	"github.com/jmylchreest/hpswitch/internal/model"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, argv []string) (mixer.Result, error) {
	f.calls = append(f.calls, argv)
	if f.err != nil {
		return mixer.Result{}, f.err
	}
	return mixer.Result{ExitedCleanly: true}, nil
}

type fakeNotifier struct {
	routes []model.Route
	errs   []error
}

func (n *fakeNotifier) NotifyActionFailed(route model.Route, err error) {
	n.routes = append(n.routes, route)
	n.errs = append(n.errs, err)
}

type fakeFeedback struct {
	routes []model.Route
}

func (f *fakeFeedback) RouteSwitched(route model.Route) {
	f.routes = append(f.routes, route)
}

func newHeadphoneSelected(t *testing.T) (*indicator.Indicator, *indicatortest.Surface) {
	t.Helper()
	panel := &indicatortest.Panel{}
	ind, err := indicator.New(panel, nil)
	require.NoError(t, err)
	_, err = ind.Selection().SetExplicit(model.RouteHeadphone, true)
	require.NoError(t, err)
	return ind, panel.Last()
}

func TestActivate_NoOpWhenAlreadySelected(t *testing.T) {
	ind, s := newHeadphoneSelected(t)
	runner := &fakeRunner{}
	notifier := &fakeNotifier{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), notifier, nil, nil)

	before := s.Mutations
	err := d.Activate(context.Background(), ind, model.RouteHeadphone)
	require.NoError(t, err)

	assert.Empty(t, runner.calls, "no mixer command for a no-op")
	assert.Empty(t, notifier.routes)
	assert.Equal(t, before, s.Mutations)
	assert.True(t, ind.Selection().Checked(model.RouteHeadphone))
}

func TestActivate_InternalSuccess(t *testing.T) {
	ind, s := newHeadphoneSelected(t)
	runner := &fakeRunner{}
	feedback := &fakeFeedback{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), &fakeNotifier{}, feedback, nil)

	err := d.Activate(context.Background(), ind, model.RouteInternal)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"amixer", "-c", "0", "set", "Speaker", "on", "100"}, runner.calls[0])
	assert.True(t, ind.Selection().Checked(model.RouteInternal))
	assert.False(t, ind.Selection().Checked(model.RouteHeadphone))
	assert.True(t, s.Checked(model.RouteInternal))
	assert.Equal(t, []model.Glyph{model.GlyphInternal}, s.Children)
	assert.Equal(t, []model.Route{model.RouteInternal}, feedback.routes)
}

func TestActivate_InternalFromBothUnchecked(t *testing.T) {
	panel := &indicatortest.Panel{}
	ind, err := indicator.New(panel, nil)
	require.NoError(t, err)

	runner := &fakeRunner{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), nil, nil, nil)

	require.NoError(t, d.Activate(context.Background(), ind, model.RouteInternal))
	assert.True(t, ind.Selection().Checked(model.RouteInternal))
}

func TestActivate_HeadphoneSilencesSpeakers(t *testing.T) {
	panel := &indicatortest.Panel{}
	ind, err := indicator.New(panel, nil)
	require.NoError(t, err)
	_, err = ind.Selection().SetExplicit(model.RouteInternal, true)
	require.NoError(t, err)

	runner := &fakeRunner{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), nil, nil, nil)

	require.NoError(t, d.Activate(context.Background(), ind, model.RouteHeadphone))
	assert.Equal(t, []string{"amixer", "-c", "0", "set", "Speaker", "off", "0"}, runner.calls[0])
	assert.True(t, ind.Selection().Checked(model.RouteHeadphone))
	assert.False(t, ind.Selection().Checked(model.RouteInternal))
}

func TestActivate_FailureLeavesStateAndNotifiesOnce(t *testing.T) {
	ind, s := newHeadphoneSelected(t)
	cause := &mixer.CommandFailedError{Argv: []string{"amixer"}, ExitStatus: 1}
	runner := &fakeRunner{err: cause}
	notifier := &fakeNotifier{}
	feedback := &fakeFeedback{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), notifier, feedback, nil)

	before := s.Mutations
	err := d.Activate(context.Background(), ind, model.RouteInternal)
	require.Error(t, err)

	var actionErr *indicator.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, model.RouteInternal, actionErr.Route)
	assert.ErrorIs(t, err, cause)

	assert.False(t, ind.Selection().Checked(model.RouteInternal))
	assert.True(t, ind.Selection().Checked(model.RouteHeadphone))
	assert.Equal(t, before, s.Mutations)
	assert.Equal(t, []model.Route{model.RouteInternal}, notifier.routes)
	assert.Empty(t, feedback.routes)
}

func TestActivate_DestroyedIndicatorIgnored(t *testing.T) {
	ind, _ := newHeadphoneSelected(t)
	ind.Destroy()

	runner := &fakeRunner{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), nil, nil, nil)

	require.NoError(t, d.Activate(context.Background(), ind, model.RouteInternal))
	assert.Empty(t, runner.calls)
	require.NoError(t, d.Activate(context.Background(), nil, model.RouteInternal))
}

func TestSetCommands(t *testing.T) {
	ind, _ := newHeadphoneSelected(t)
	runner := &fakeRunner{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), nil, nil, nil)

	cmds := mixer.DefaultCommands()
	cmds.Card = 1
	d.SetCommands(cmds)

	require.NoError(t, d.Activate(context.Background(), ind, model.RouteInternal))
	assert.Equal(t, []string{"amixer", "-c", "1", "set", "Speaker", "on", "100"}, runner.calls[0])
}

func TestActivate_CancelledDoesNotNotify(t *testing.T) {
	ind, _ := newHeadphoneSelected(t)
	runner := &fakeRunner{err: mixer.ErrCancelled}
	notifier := &fakeNotifier{}
	feedback := &fakeFeedback{}
	d := indicator.NewDispatcher(runner, mixer.DefaultCommands(), notifier, feedback, nil)

	err := d.Activate(context.Background(), ind, model.RouteInternal)

	var actionErr *indicator.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.ErrorIs(t, err, mixer.ErrCancelled)
	assert.Empty(t, notifier.routes)
	assert.Empty(t, feedback.routes)
	assert.True(t, ind.Selection().Checked(model.RouteHeadphone))
	assert.False(t, ind.Selection().Checked(model.RouteInternal))
}
