package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/restaurant-pos-api/config"
	"github.com/kendall-kelly/restaurant-pos-api/events"
	"github.com/kendall-kelly/restaurant-pos-api/metrics"
	"github.com/kendall-kelly/restaurant-pos-api/realtime"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
	"github.com/kendall-kelly/restaurant-pos-api/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Restaurant POS API stopped: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.IsDevelopment() {
		logger.Warn("development mode: built-in admin password and JWT secret apply unless set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := newApplication(ctx, cfg, logger, registry)
	if err != nil {
		return err
	}
	defer app.Close()

	router, err := setupRouter(app)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "storage", cfg.StorageDriver, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return app.housekeeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// hijacked websocket connections are not tracked by Shutdown
		app.hub.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// application holds the wired components shared by the router and the
// background jobs
type application struct {
	cfg         *config.Config
	logger      *slog.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	db          *gorm.DB // nil for the memory store
	store       repository.Store
	hub         *realtime.Hub
	publisher   *events.AMQPPublisher
	orders      *services.OrderService
	auth        *services.AuthService
	images      services.ImageService
	housekeeper *services.Housekeeper
}

func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (*application, error) {
	app := &application{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
	}

	if err := app.openStore(ctx); err != nil {
		return nil, err
	}

	app.auth = services.NewAuthService(app.store, cfg, logger)
	if err := app.auth.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to provision admin user: %w", err)
	}

	app.hub = realtime.NewHub(logger, app.metrics)
	notifiers := services.Notifiers{app.hub}
	if cfg.AMQPURL != "" {
		publisher, err := events.DialAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			// the relay is an optional export; the POS keeps working without it
			logger.Error("order events will not be relayed", "error", err)
		} else {
			app.publisher = publisher
			notifiers = append(notifiers, publisher)
		}
	}
	app.orders = services.NewOrderService(app.store, notifiers, logger, app.metrics)

	if cfg.S3Enabled() {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		app.images = services.NewS3ImageService(s3Service)
		logger.Info("menu images stored in S3", "bucket", cfg.AWSS3Bucket, "region", cfg.AWSRegion)
	} else {
		app.images = services.NewLocalImageService(cfg.UploadDir)
		logger.Info("menu images stored on local disk", "dir", cfg.UploadDir)
	}

	app.housekeeper = services.NewHousekeeper(app.store, cfg.RetentionDays, cfg.HousekeepingHour, logger, app.metrics)
	return app, nil
}

// openStore picks the memory store or a migrated and seeded SQL store
func (app *application) openStore(ctx context.Context) error {
	if app.cfg.StorageDriver == config.DriverMemory {
		store, err := repository.NewMemoryStore()
		if err != nil {
			return fmt.Errorf("failed to create memory store: %w", err)
		}
		app.store = store
		app.logger.Warn("using the in-memory store; orders are lost on restart")
		return nil
	}

	if err := config.ConnectDatabase(app.cfg); err != nil {
		return err
	}
	db := config.GetDB()
	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	app.logger.Info("database migration completed", "driver", app.cfg.StorageDriver)

	store := repository.NewGormStore(db)
	menu, err := repository.DefaultSeedMenu()
	if err != nil {
		return err
	}
	seeded, err := repository.Seed(ctx, store, menu)
	if err != nil {
		return fmt.Errorf("failed to seed menu: %w", err)
	}
	if seeded {
		app.logger.Info("seeded default menu", "categories", len(menu.Categories))
	}

	app.db = db
	app.store = store
	return nil
}

// Close releases the event relay and the database handle
func (app *application) Close() {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Warn("failed to close AMQP publisher", "error", err)
		}
	}
	if app.db != nil {
		if sqlDB, err := app.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
