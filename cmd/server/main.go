package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Skufu/glucorisk/internal/cache"
	"github.com/Skufu/glucorisk/internal/config"
	"github.com/Skufu/glucorisk/internal/database"
	"github.com/Skufu/glucorisk/internal/handlers"
	"github.com/Skufu/glucorisk/internal/middleware"
	"github.com/Skufu/glucorisk/internal/ml"
	"github.com/Skufu/glucorisk/internal/observability"
	"github.com/Skufu/glucorisk/internal/reload"
	"github.com/Skufu/glucorisk/internal/workerpool"
	"github.com/Skufu/glucorisk/pkg/logger"
	"github.com/Skufu/glucorisk/web"
)

const serviceName = "glucorisk"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, cfg.Production); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.WithModule("server")

	gin.SetMode(cfg.GinMode())

	var cleanups cleanupStack
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if errs := cleanups.run(ctx); errs != nil {
			logger.Error("shutdown cleanup failed", zap.Error(errs))
			err = multierr.Append(err, errs)
		}
	}()

	shutdownTracing, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Environment: cfg.GinMode(),
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	cleanups.push(shutdownTracing)

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	cleanups.push(func(context.Context) error { return store.Close() })

	pool := workerpool.New(cfg.WorkerPoolSize)
	cleanups.push(func(context.Context) error {
		pool.Close()
		return nil
	})

	engine, err := ml.NewEngine(cfg.DatasetPath, ml.WithPool(pool))
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	log.Info("dataset loaded", zap.String("path", engine.Path()), zap.String("fingerprint", engine.Fingerprint()))

	watcher := reload.NewWatcher(engine, cfg.DatasetWatch)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("start dataset watch: %w", err)
	}
	cleanups.push(func(ctx context.Context) error {
		select {
		case <-watcher.Stop().Done():
		case <-ctx.Done():
		}
		return nil
	})

	go func() {
		if _, err := engine.Model(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("model warm-up failed", zap.Error(err))
		}
	}()

	router, err := setupRouter(handlers.NewRiskHandler(store, engine), store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	cleanups.push(func(ctx context.Context) error {
		log.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.BindAddr), zap.Bool("production", cfg.Production))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		return nil
	}
}

// cleanupStack releases resources in reverse acquisition order.
type cleanupStack []func(context.Context) error

func (s *cleanupStack) push(fn func(context.Context) error) {
	*s = append(*s, fn)
}

func (s cleanupStack) run(ctx context.Context) error {
	var errs error
	for i := len(s) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, s[i](ctx))
	}
	return errs
}

func openStore(ctx context.Context, cfg database.Config) (cache.Store, error) {
	if strings.EqualFold(cfg.Driver, database.DriverPostgres) {
		pool, err := database.ConnectPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return cache.NewPgxStore(pool), nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewGormStore(db), nil
}

func setupRouter(risk *handlers.RiskHandler, store handlers.Pinger) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.LimitBodySize(1<<20),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}),
	)
	router.NoRoute(middleware.NotFound)

	router.GET("/", risk.Check)
	router.GET("/healthz", handlers.Health())
	router.GET("/readyz", handlers.Ready(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router, nil
}
