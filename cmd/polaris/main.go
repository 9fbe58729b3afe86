package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/polaris/handler"
	"github.com/dmitrymomot/polaris/modules/uploads"
	"github.com/dmitrymomot/polaris/pkg/config"
	"github.com/dmitrymomot/polaris/pkg/httpserver"
	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/redis"
	"github.com/dmitrymomot/polaris/pkg/requestid"
	"github.com/dmitrymomot/polaris/pkg/uploader"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

type appConfig struct {
	Logger    logger.Config
	Queue     uploadqueue.Config
	Storage   uploader.Config
	Redis     redis.Config
	HTTP      httpserver.Config
	MaxUpload int64 `env:"HTTP_MAX_REQUEST_SIZE" envDefault:"1073741824"`
}

func main() {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	opts := append(logger.FromConfig(cfg.Logger), logger.WithContextExtractors(requestid.LoggerExtractor()))
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("polaris stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("polaris stopped")
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	backend, err := uploader.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	scheduler, err := uploadqueue.NewFromConfig(cfg.Queue, backend,
		uploadqueue.WithLogger(log.With(logger.Component("scheduler"))),
	)
	if err != nil {
		return err
	}

	checks := []httpserver.Check{backend.Healthcheck}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			_ = scheduler.Close()
			return err
		}
		defer func() { _ = client.Close() }()
		checks = append(checks, redis.Healthcheck(client))

		relay, err := redis.NewEventRelay(client, cfg.Redis.EventChannel, redis.WithRelayLogger(log))
		if err != nil {
			_ = scheduler.Close()
			return err
		}
		g.Go(relay.Run(gctx, scheduler))
	}

	module := uploads.New(scheduler,
		uploads.WithLogger(log),
		uploads.WithErrorHandler(handler.NewErrorHandler(log)),
		uploads.WithSpoolDir(cfg.Storage.SpoolDir),
		uploads.WithMaxFileSize(cfg.Storage.MaxFileSize),
		uploads.WithMaxRequestSize(cfg.MaxUpload),
		uploads.WithLanguages(language.English, language.German, language.French, language.Spanish),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, checks...))
	r.Mount(uploads.DefaultBasePath, module.Handle())

	server := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g.Go(scheduler.Run(gctx))
	g.Go(func() error {
		return server.Run(gctx, r)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
