package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jmylchreest/hpswitch/internal/config"
	"github.com/jmylchreest/hpswitch/internal/mixer"
)

// ErrAlreadyEnabled is returned by Enable on a running Service.
var ErrAlreadyEnabled = errors.New("service already enabled")

// Service binds the reconciliation loop to the host lifecycle.
type Service struct {
	mu     sync.Mutex
	logger *slog.Logger

	loop     *Loop
	prober   RouteProber
	runner   mixer.Runner
	commands mixer.Commands
	shutdown config.ShutdownConfig

	// Hooks applied on the loop goroutine when the config changes
	configHooks []func(cfg *config.DaemonConfig)

	cancel  context.CancelFunc
	doneCh  chan struct{}
	running bool
}

// NewService creates a Service. prober and runner are used for the
// corrective command on Disable.
func NewService(loop *Loop, prober RouteProber, runner mixer.Runner, commands mixer.Commands, shutdown config.ShutdownConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		loop:     loop,
		prober:   prober,
		runner:   runner,
		commands: commands,
		shutdown: shutdown,
	}
}

// AddConfigHook registers a function run on every config update.
func (s *Service) AddConfigHook(hook func(cfg *config.DaemonConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configHooks = append(s.configHooks, hook)
}

// Running reports whether the loop is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Enable starts the reconciliation loop. The first tick runs immediately.
func (s *Service) Enable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyEnabled
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.doneCh = make(chan struct{})
	s.running = true

	done := s.doneCh
	go func() {
		defer close(done)
		s.loop.Run(loopCtx)
	}()

	s.logger.Info("headphone switch enabled", "interval", s.loop.Interval())
	return nil
}

// Disable stops the loop, silences the speakers if headphones are present
// and removes the indicator. Calling it on a stopped Service does nothing.
func (s *Service) Disable() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.doneCh
	shutdown, commands := s.shutdown, s.commands
	s.mu.Unlock()

	// Cancelling kills any in-flight mixer call
	cancel()
	<-done

	if shutdown.RestoreSpeakers {
		s.restoreSpeakers(shutdown, commands)
	}

	s.loop.DestroyIndicator()
	s.loop.Reset()
	s.logger.Info("headphone switch disabled")
}

// restoreSpeakers is the best-effort corrective action on teardown.
// Failures are logged and swallowed.
func (s *Service) restoreSpeakers(shutdown config.ShutdownConfig, commands mixer.Commands) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdown.Timeout.Duration())
	defer cancel()

	present, err := s.prober.Presence(ctx)
	if err != nil {
		s.logger.Warn("failed to check headphone status on shutdown", "error", err)
		return
	}
	if !present {
		return
	}

	argv := commands.SpeakersOff()
	res, err := s.runner.Run(ctx, argv)
	if err == nil && !res.ExitedCleanly {
		err = errors.New("mixer did not exit cleanly")
	}
	if err != nil {
		s.logger.Warn("failed to silence speakers on shutdown", "argv", argv, "error", err)
		return
	}
	s.logger.Debug("speakers silenced on shutdown")
}

// UpdateConfig applies a reloaded configuration. While the loop runs the
// change is made on the loop goroutine.
func (s *Service) UpdateConfig(cfg *config.DaemonConfig) {
	apply := func(context.Context) {
		s.mu.Lock()
		s.commands = mixer.NewCommands(cfg.Mixer)
		s.shutdown = cfg.Shutdown
		hooks := append([]func(*config.DaemonConfig){}, s.configHooks...)
		s.mu.Unlock()

		for _, hook := range hooks {
			hook(cfg)
		}
		s.loop.SetInterval(cfg.Poll.Interval.Duration())
	}

	if s.Running() {
		s.loop.Post(apply)
		return
	}
	apply(context.Background())
}
