package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hpswitch/internal/model"
	"github.com/jmylchreest/hpswitch/internal/probe"
)

type stubProber struct {
	present  bool
	internal bool
	err      error
}

func (s stubProber) Presence(context.Context) (bool, error) {
	return s.present, s.err
}

func (s stubProber) ProbeRoute(_ context.Context, route model.Route) (model.RouteState, error) {
	if route == model.RouteInternal {
		return model.RouteState{Active: s.internal}, nil
	}
	return model.RouteState{Active: s.present}, nil
}

func (s stubProber) Policy() probe.PresencePolicy {
	return probe.PolicySwitch
}

func TestReadMixer(t *testing.T) {
	result, err := readMixer(context.Background(), stubProber{present: true, internal: false})
	require.NoError(t, err)
	assert.Equal(t, ProbeResult{
		Policy:    "switch",
		Present:   true,
		Internal:  false,
		Headphone: true,
	}, result)
}

func TestReadMixer_Error(t *testing.T) {
	_, err := readMixer(context.Background(), stubProber{err: errors.New("amixer: not found")})
	assert.Error(t, err)
}

func TestOnOff(t *testing.T) {
	assert.Equal(t, "on", onOff(true))
	assert.Equal(t, "off", onOff(false))
}
