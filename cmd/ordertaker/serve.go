package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/ordertaker/internal/config"
	"github.com/nadzzz/ordertaker/internal/delivery"
	"github.com/nadzzz/ordertaker/internal/dispatch"
	"github.com/nadzzz/ordertaker/internal/extract"
	"github.com/nadzzz/ordertaker/internal/health"
	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/policy"
	"github.com/nadzzz/ordertaker/internal/session"
	"github.com/nadzzz/ordertaker/internal/stt"
	"github.com/nadzzz/ordertaker/internal/transport"
	grpctransport "github.com/nadzzz/ordertaker/internal/transport/grpc"
	httptransport "github.com/nadzzz/ordertaker/internal/transport/http"
)

const shutdownTimeout = 30 * time.Second

var serveConfig string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the call service",
	Long: `Run the call service until SIGINT or SIGTERM.

Open calls are ended and delivered on shutdown.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "path to config file (e.g. configs/ordertaker.yaml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.SetupLogging(cfg.Logging, os.Stdout)
	slog.Info("ordertaker starting", "version", version)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	var transports []transport.Transport
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port))
	}

	healthServer := health.New(cfg.Server.HealthPort, d)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.ListenAndServe(ctx) })
	g.Go(func() error { return d.Run(ctx) })
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, d); err != nil {
				return fmt.Errorf("transport %s: %w", t.Name(), err)
			}
			return nil
		})
	}

	healthServer.SetReady(true)
	slog.Info("ordertaker ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	err = g.Wait()
	healthServer.SetReady(false)
	slog.Info("shutting down, ending open calls", "active_calls", d.Active())

	for _, t := range transports {
		if cerr := t.Close(); cerr != nil {
			slog.Error("transport close error", "name", t.Name(), "error", cerr)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if serr := d.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, serr)
	}

	slog.Info("ordertaker stopped")
	return err
}

// newDispatcher wires the engine, the sink and optional STT from cfg.
func newDispatcher(cfg *config.Config) (*dispatch.Dispatcher, error) {
	bundle, err := locale.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("loading restaurant pack: %w", err)
	}
	slog.Info("restaurant pack loaded",
		"restaurant", bundle.Restaurant,
		"items", len(bundle.Catalog.Entries()),
		"path", cfg.Catalog.Path)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	pacing, _ := policy.ParsePacing(cfg.Policy.Pacing)
	scope, _ := extract.ParseScope(cfg.Policy.ModifierScope)

	kit := session.NewKit(bundle, session.Options{
		Pacing:   pacing,
		Scope:    scope,
		Location: loc,
	})

	var sink delivery.Sink = delivery.LogSink{}
	if cfg.Delivery.WebhookURL != "" {
		sink = delivery.NewWebhook(cfg.Delivery.WebhookURL,
			delivery.WithAttempts(cfg.Delivery.Attempts),
			delivery.WithBackoff(cfg.Delivery.Backoff),
			delivery.WithTimeout(cfg.Delivery.Timeout),
		)
	} else {
		slog.Warn("delivery.webhook_url not set, orders will only be logged")
	}

	opts := []dispatch.Option{
		dispatch.WithIdleTimeout(cfg.Session.IdleTimeout),
		dispatch.WithReapInterval(cfg.Session.ReapInterval),
	}
	if cfg.STT.Enabled {
		opts = append(opts, dispatch.WithTranscriber(stt.New(stt.Config{
			Endpoint:  cfg.STT.Endpoint,
			Type:      cfg.STT.Type,
			Language:  cfg.STT.Language,
			Model:     cfg.STT.Model,
			Prompt:    cfg.STT.Prompt,
			VADFilter: cfg.STT.VADFilter,
			Timeout:   cfg.STT.Timeout,
		})))
		slog.Info("speech-to-text enabled", "endpoint", cfg.STT.Endpoint, "type", cfg.STT.Type)
	}

	return dispatch.New(kit, sink, opts...), nil
}
