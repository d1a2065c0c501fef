package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"example.com/technotes/app/internal/config"
	"example.com/technotes/app/internal/infra/events"
	"example.com/technotes/app/internal/infra/logging"
	"example.com/technotes/app/internal/infra/persistence"
	"example.com/technotes/app/internal/infra/security"
	httpapi "example.com/technotes/app/internal/interface/http"
	useruc "example.com/technotes/app/internal/usecase/user"
)

func main() {
	app := &cli.App{
		Name:   "technotes",
		Usage:  "user administration API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "apply pending migrations",
						Action: migrateUp,
					},
					{
						Name:   "down",
						Usage:  "revert the last applied migration",
						Action: migrateDown,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("technotes exited")
	}
}

func bootstrap() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func serve(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	log.WithField("config", cfg.String()).Info("starting")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	hasher, err := security.NewBcryptHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	var publisher useruc.EventPublisher
	if cfg.AMQP.URL != "" {
		p := events.NewPublisher(events.Config{
			URL:         cfg.AMQP.URL,
			Queue:       cfg.AMQP.Queue,
			DialTimeout: cfg.AMQP.DialTimeout,
			Logger:      log,
		})
		defer func() {
			if err := p.Close(); err != nil {
				log.WithError(err).Warn("close event publisher")
			}
		}()
		publisher = p
	}

	userSvc := useruc.NewService(useruc.Dependencies{
		Users:     store.Users,
		Notes:     store.Notes,
		Hasher:    hasher,
		Publisher: publisher,
		Logger:    log,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api := httpapi.NewAPI(httpapi.Dependencies{
		UserService: userSvc,
		Logger:      log,
		Registry:    reg,
		RateLimit: httpapi.RateLimit{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
		HealthCheck: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return store.Ping(ctx)
		},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.Router(),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Infof("server running on port %s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server has been gracefully terminated")
	return nil
}

func migrateUp(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	store, err := persistence.Connect(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Migrate(c.Context)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"driver": store.Driver(), "applied": n}).Info("schema is up to date")
	return nil
}

func migrateDown(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	store, err := persistence.Connect(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	version, err := store.Rollback(c.Context)
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("no migrations to revert")
		return nil
	}
	log.WithField("version", version).Info("migration reverted")
	return nil
}
