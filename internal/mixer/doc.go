// Package mixer runs the ALSA mixer command-line utility.
// It executes amixer as a literal argument vector (never through a shell),
// serialises invocations so only one mixer process is in flight at a time,
// and classifies failures into spawn, command and cancellation errors.
package mixer
