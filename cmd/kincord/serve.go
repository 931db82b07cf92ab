package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tuikaDLC/Kincord/config"
	"github.com/tuikaDLC/Kincord/diagnostics"
	"github.com/tuikaDLC/Kincord/discord"
	"github.com/tuikaDLC/Kincord/internal/http/chi"
	"github.com/tuikaDLC/Kincord/listener"
	"github.com/tuikaDLC/Kincord/metrics"
	"github.com/tuikaDLC/Kincord/notify"
	"github.com/tuikaDLC/Kincord/relay"
	"github.com/tuikaDLC/Kincord/status"
	statusredis "github.com/tuikaDLC/Kincord/status/redis"
)

const cleanupTimeout = 30 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), loader, *cfg, log)
		},
	}
}

// recorders fans a relay result out to several recorders.
type recorders []relay.Recorder

func (rs recorders) ObserveResult(st relay.Status, outcome discord.Outcome) {
	for _, r := range rs {
		r.ObserveResult(st, outcome)
	}
}

func newDiscordClient(cfg config.Config, log zerolog.Logger, onRetry func(discord.RetryEvent)) *discord.Client {
	opts := []discord.Option{
		discord.WithLogger(log.With().Str("component", "discord").Logger()),
		discord.WithRateLimit(cfg.Discord.RatePerSec),
		discord.WithProbeContent(discord.LocaleFor(cfg.Discord.Locale).ProbeContent),
	}
	if onRetry != nil {
		opts = append(opts, discord.WithRetryHook(onRetry))
	}
	return discord.NewClient(cfg.Discord.Timeout, opts...)
}

func serve(ctx context.Context, loader *config.Loader, cfg config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	settings := config.NewStore(cfg)
	recorder := metrics.NewRecorder()
	hub := notify.NewHub(log.With().Str("component", "notifications").Logger())
	defer hub.Close()

	notifier := notify.WhenEnabled(
		func() bool { return settings.Current().App.ShowNotifications },
		notify.Multi(notify.Log(log), hub),
	)

	buildClient := func(c config.Config) *discord.Client {
		return newDiscordClient(c, log, recorder.ObserveRetry)
	}
	client := newDiscordSwitch(buildClient(cfg))

	var (
		manager   *listener.Manager
		publisher *status.Publisher
		recs      = recorders{recorder}
	)

	if cfg.Redis.Addr != "" {
		repo, err := statusredis.NewRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable; heartbeats disabled")
		} else {
			repo.SetLogger(log.With().Str("component", "redis").Logger())
			defer repo.Close(context.Background())
			recs = append(recs, repo)
			publisher = status.NewPublisher(repo, func() (string, string) {
				return manager.State().String(), manager.Addr()
			}, cfg.Redis.HeartbeatTTL, relay.Version, log.With().Str("component", "heartbeat").Logger())
		}
	}

	svc := relay.NewService(settings, client,
		relay.WithNotifier(notifier),
		relay.WithRecorder(recs),
		relay.WithLogger(log.With().Str("component", "relay").Logger()),
	)

	routerOpts := []chi.Option{
		chi.WithNotifications(hub),
		chi.WithLogging(cfg.Logging.Level, cfg.Logging.Format),
	}
	if cfg.Server.MetricsEnabled {
		exporter, err := metrics.NewOTelExporter(recorder)
		if err != nil {
			return fmt.Errorf("failed to setup metrics: %w", err)
		}
		defer exporter.Shutdown(context.Background())
		routerOpts = append(routerOpts, chi.WithMetrics(exporter.ServeHTTP()))
	}
	router := chi.Handlers(svc, routerOpts...)

	manager = listener.NewManager(settings, router,
		listener.WithLogger(log.With().Str("component", "listener").Logger()),
		listener.WithNotifier(notifier),
		listener.WithShutdownHook(hub.Disconnect),
		listener.WithStateHook(func(s listener.State) {
			recorder.SetListener(s.String(), manager.Addr(), s == listener.Running)
			if publisher != nil {
				publisher.Trigger()
			}
			if s == listener.Running {
				daemon.SdNotify(false, daemon.SdNotifyReady)
			}
		}),
	)

	if publisher != nil {
		go publisher.Run(ctx)
	}

	if cfg.Diagnostics.Schedule != "" {
		prober := diagnostics.NewProber(settings, client,
			diagnostics.WithLogger(log.With().Str("component", "diagnostics").Logger()),
			diagnostics.WithOwnListener(func() (bool, int) {
				return manager.State() == listener.Running, settings.Current().Server.Port
			}),
		)
		scheduler, err := diagnostics.NewScheduler(cfg.Diagnostics.Schedule, prober, notifier, log)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if loader.File() != "" {
		r := &reloader{
			settings:  settings,
			clients:   client,
			newClient: buildClient,
			listener:  manager,
			log:       log.With().Str("file", loader.File()).Logger(),
		}
		loader.Watch(func(next *config.Config, err error) {
			r.apply(ctx, next, err)
		})
	}

	if cfg.Server.AutoStart {
		if _, err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start listener: %w", err)
		}
	} else {
		log.Info().Msg("auto start disabled; send SIGHUP to start the listener")
	}

	log.Info().
		Str("version", relay.Version).
		Str("addr", cfg.Server.Addr()).
		Bool("metrics", cfg.Server.MetricsEnabled).
		Bool("redis", publisher != nil).
		Msg("Kincord is running")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return shutdown(manager, log)
		case sig := <-signals:
			if sig != syscall.SIGHUP {
				return shutdown(manager, log)
			}
			log.Info().Msg("SIGHUP received; restarting listener")
			if _, err := manager.Restart(ctx); err != nil {
				log.Error().Err(err).Msg("restarting listener")
			}
		}
	}
}

func shutdown(manager *listener.Manager, log zerolog.Logger) error {
	log.Info().Msg("shutting down...")
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if _, err := manager.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("listener shutdown error")
	}
	log.Info().Msg("Kincord stopped")
	return nil
}
