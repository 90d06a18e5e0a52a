package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/bjaus/slackdispatch"
	"github.com/bjaus/slackdispatch/cmd/slackdispatch/internal"
	"github.com/bjaus/slackdispatch/internal/config"
	"github.com/bjaus/slackdispatch/internal/logger"
	"github.com/bjaus/slackdispatch/telemetry"
	"github.com/bjaus/slackdispatch/webhook"
)

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		Interval:    cfg.Telemetry.Interval.Std(),
		ServiceName: "slackdispatch",
		Version:     internal.GetVersion(),
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn("telemetry shutdown", "error", err)
		}
	}()

	d, handler, err := build(cfg, slack.New(cfg.Slack.BotToken), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr, "version", internal.FormatVersion())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), d.Close(shutdownCtx))
	})

	if cfg.Dialogs.PendingTTL > 0 {
		g.Go(func() error {
			sweep(gctx, d, cfg.Dialogs.SweepInterval.Std(), log)
			return nil
		})
	}

	return g.Wait()
}

// build wires the dispatcher, demo bot and webhook handler from cfg.
func build(cfg *config.Config, client slackdispatch.Client, log *slog.Logger) (*slackdispatch.Dispatcher, http.Handler, error) {
	hooks, err := telemetry.Hooks(otel.Meter(telemetry.ScopeName))
	if err != nil {
		return nil, nil, err
	}

	opts := []slackdispatch.Option{
		slackdispatch.WithLogger(log),
		slackdispatch.WithPendingTTL(cfg.Dialogs.PendingTTL.Std()),
		slackdispatch.WithCallTimeout(cfg.Slack.CallTimeout.Std()),
		slackdispatch.WithOnFailure(func(ctx context.Context, kind slackdispatch.Kind, key string, err error, d time.Duration) {
			log.ErrorContext(ctx, "handler failed", "kind", kind, "key", key, "error", err, "duration", d)
		}),
		slackdispatch.WithOnUnmatched(func(ctx context.Context, kind slackdispatch.Kind, key string) {
			log.DebugContext(ctx, "no handler", "kind", kind, "key", key)
		}),
	}
	d := slackdispatch.New(client, append(opts, hooks...)...)
	register(d)

	handler := webhook.New(d,
		webhook.WithSigningSecret(cfg.Slack.SigningSecret),
		webhook.WithLogger(log),
		webhook.WithIgnoreBotMessages(cfg.Slack.IgnoreBotMessages),
		webhook.WithPaths(webhook.Paths{
			Events:       cfg.Server.EventsPath,
			Commands:     cfg.Server.CommandsPath,
			Interactions: cfg.Server.InteractionsPath,
		}),
	)
	return d, handler, nil
}

// sweep evicts expired dialogs every interval until ctx is done.
func sweep(ctx context.Context, d *slackdispatch.Dispatcher, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(); n > 0 {
				log.Info("expired pending dialogs", "count", n, "pending", d.Pending())
			}
		}
	}
}
