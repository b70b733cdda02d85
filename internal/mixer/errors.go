package mixer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the caller's context ends before the
// mixer process completes. The process is killed.
var ErrCancelled = errors.New("mixer command cancelled")

// SpawnError is returned when the mixer process could not be started.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// CommandFailedError is returned when the mixer process exits non-zero or
// does not finish within the command timeout. ExitStatus is -1 when the
// process was killed by the timeout.
type CommandFailedError struct {
	Argv       []string
	ExitStatus int
	Stderr     string
	Err        error
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", strings.Join(e.Argv, " "), e.ExitStatus)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}
