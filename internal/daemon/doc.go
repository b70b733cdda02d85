// Package daemon provides the main orchestration for hpswitchd.
// It runs the reconciliation loop that polls the mixer, owns the status
// indicator lifecycle, serialises user actions onto the loop goroutine,
// and handles configuration hot-reload and user notifications.
package daemon
