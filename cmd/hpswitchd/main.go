// Package main is the entry point for the hpswitchd headphone switch daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/hpswitch/internal/audio"
	"github.com/jmylchreest/hpswitch/internal/config"
	"github.com/jmylchreest/hpswitch/internal/daemon"
	"github.com/jmylchreest/hpswitch/internal/dbus"
	"github.com/jmylchreest/hpswitch/internal/indicator"
	"github.com/jmylchreest/hpswitch/internal/mixer"
	"github.com/jmylchreest/hpswitch/internal/notify"
	"github.com/jmylchreest/hpswitch/internal/probe"
	"github.com/jmylchreest/hpswitch/internal/store"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/hpswitch/hpswitchd.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("hpswitchd version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("hpswitchd failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	logger.Info("starting hpswitchd", "version", version)

	if configPath == "" {
		var err error
		configPath, err = config.DaemonConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	cfg, err := config.LoadDaemonConfigFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	statePath, err := store.StateFilePath()
	if err != nil {
		return fmt.Errorf("failed to get state path: %w", err)
	}

	// Mixer access
	gateway := mixer.NewGateway(cfg.Mixer.CommandTimeout.Duration(), logger)
	commands := mixer.NewCommands(cfg.Mixer)
	prober := probe.NewProber(gateway, commands, probe.PresencePolicy(cfg.Poll.PresencePolicy), logger)

	// User notifications
	sender, err := notify.NewSender(cfg.Notify.Method, logger)
	if err != nil {
		return err
	}
	notifier := daemon.NewNotifier(sender, logger)
	notifier.SetEnabled(cfg.Notify.Enabled)
	notifier.SetMinInterval(cfg.Notify.MinInterval.Duration())

	feedback := audio.NewFeedback(cfg, logger)
	defer feedback.Close()

	dispatcher := indicator.NewDispatcher(gateway, commands, notifier, feedback, logger)

	// Display surface
	server := dbus.NewIndicatorServer(statePath, logger)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}
	defer func() { _ = server.Stop() }()
	server.Sync()

	loop := daemon.NewLoop(prober, dispatcher, server, cfg.Poll.Interval.Duration(), logger)
	service := daemon.NewService(loop, prober, gateway, commands, cfg.Shutdown, logger)

	notifyMethod := cfg.Notify.Method
	service.AddConfigHook(func(newConfig *config.DaemonConfig) {
		newCommands := mixer.NewCommands(newConfig.Mixer)
		gateway.SetTimeout(newConfig.Mixer.CommandTimeout.Duration())
		prober.Configure(newCommands, probe.PresencePolicy(newConfig.Poll.PresencePolicy))
		dispatcher.SetCommands(newCommands)
		feedback.Configure(newConfig)

		notifier.SetEnabled(newConfig.Notify.Enabled)
		notifier.SetMinInterval(newConfig.Notify.MinInterval.Duration())
		if newConfig.Notify.Method != notifyMethod {
			newSender, err := notify.NewSender(newConfig.Notify.Method, logger)
			if err != nil {
				logger.Warn("failed to switch notification method", "method", newConfig.Notify.Method, "error", err)
				return
			}
			notifier.SetSender(newSender)
			notifyMethod = newConfig.Notify.Method
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Config hot reload
	configWatcher := daemon.NewConfigWatcher(configPath, logger)
	configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
		service.UpdateConfig(newConfig)
		notifier.NotifyConfigReloaded()
	})
	configWatcher.SetErrorCallback(func(err error) {
		notifier.NotifyConfigError(err)
	})
	if err := configWatcher.Start(ctx, cfg); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}
	defer configWatcher.Stop()

	if err := service.Enable(ctx); err != nil {
		return err
	}

	logger.Info("hpswitchd ready",
		"dbus_interface", dbus.DBusInterface,
		"config", configPath,
		"interval", cfg.Poll.Interval.Duration(),
		"presence_policy", cfg.Poll.PresencePolicy,
	)

	<-ctx.Done()
	logger.Info("received signal, shutting down")

	service.Disable()

	logger.Info("hpswitchd stopped")
	return nil
}
