package mixer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Result is the outcome of a mixer invocation that ran to completion.
type Result struct {
	ExitedCleanly bool
	OutputLines   []string
	Stderr        string
}

// Output returns the captured stdout joined back into a single string.
func (r Result) Output() string {
	return strings.Join(r.OutputLines, "\n")
}

// Runner executes a mixer command. Gateway is the production implementation.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// Gateway executes mixer commands as child processes.
type Gateway struct {
	// Serialises invocations: one mixer process in flight at a time
	mu sync.Mutex

	logger  *slog.Logger
	timeout time.Duration
}

// NewGateway creates a Gateway that kills commands running longer than timeout.
// A zero timeout disables the limit.
func NewGateway(timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger:  logger,
		timeout: timeout,
	}
}

// SetTimeout changes the per-command timeout.
func (g *Gateway) SetTimeout(timeout time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timeout = timeout
}

// Run spawns argv[0] with the remaining arguments, waits for it to exit and
// returns its stdout split into lines. Cancelling ctx kills the process and
// yields ErrCancelled.
func (g *Gateway) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, &SpawnError{Argv: argv, Err: errors.New("empty argument vector")}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Don't start anything once the caller has gone away
	if err := ctx.Err(); err != nil {
		return Result{}, ErrCancelled
	}

	runCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Debug("running mixer command", "argv", argv)

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Argv: argv, Err: err}
	}

	waitErr := cmd.Wait()
	errText := strings.TrimSpace(stderr.String())
	if errText != "" {
		g.logger.Debug("mixer command stderr", "argv", argv, "stderr", errText)
	}

	// Parent cancellation wins over everything else
	if ctx.Err() != nil {
		return Result{}, ErrCancelled
	}

	if waitErr != nil {
		status := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.Exited() {
			status = exitErr.ExitCode()
		}
		return Result{}, &CommandFailedError{
			Argv:       argv,
			ExitStatus: status,
			Stderr:     errText,
			Err:        waitErr,
		}
	}

	return Result{
		ExitedCleanly: true,
		OutputLines:   splitLines(stdout.String()),
		Stderr:        errText,
	}, nil
}

// splitLines splits output into lines, dropping the trailing empty line.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
