// Package dbus exposes the headphone switch indicator on the session bus
// as io.github.jmylchreest.HPSwitch. The IndicatorServer is the display
// backend the daemon attaches its indicator to; the Client is used by the
// hpswitch CLI to read the state and pick a route.
package dbus
