package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/animerec/internal/backend"
	"github.com/temcen/animerec/internal/config"
	"github.com/temcen/animerec/internal/controller"
	"github.com/temcen/animerec/internal/database"
	"github.com/temcen/animerec/internal/handlers"
	"github.com/temcen/animerec/internal/messaging"
	"github.com/temcen/animerec/internal/middleware"
	"github.com/temcen/animerec/internal/services"
	"github.com/temcen/animerec/internal/session"
	"github.com/temcen/animerec/internal/titlecache"
	"github.com/temcen/animerec/internal/view"
)

type App struct {
	config    *config.Config
	logger    *logrus.Logger
	registry  *prometheus.Registry
	backend   *backend.Client
	redis     *redis.Client
	publisher messaging.Publisher
	sessions  *session.Store
	health    *services.HealthService
	limiter   *services.RateLimiter
	handlers  *handlers.Handlers
	router    *gin.Engine

	stop context.CancelFunc
}

// New wires the page server. Redis and Kafka are used only when configured.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		config:   cfg,
		logger:   NewLogger(cfg.Logging),
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := backend.NewClient(backend.Options{
		BaseURL:    cfg.Backend.URL,
		Timeout:    cfg.Backend.Timeout,
		Registerer: app.registry,
		Logger:     app.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend client: %w", err)
	}
	app.backend = client

	redisClient, err := database.NewRedis(cfg.Redis, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	app.redis = redisClient

	app.publisher = messaging.NewPublisher(cfg.Kafka, app.logger)

	var titles titlecache.Store
	if app.redis != nil {
		titles = titlecache.NewRedisStore(app.redis, cfg.Redis.TitlesKey, cfg.Redis.TitlesTTL)
		if cfg.Security.RateLimit.Requests > 0 {
			app.limiter = services.NewRateLimiter(app.redis, cfg.Security.RateLimit.Requests, cfg.Security.RateLimit.Window, app.logger)
		}
	}

	app.sessions = session.NewStore(func(id string) (*controller.Controller, error) {
		return controller.New(controller.Options{
			Backend:         app.backend,
			Titles:          titles,
			Publisher:       app.publisher,
			SessionID:       id,
			DefaultCount:    cfg.Page.DefaultCount,
			Categories:      cfg.Page.Categories,
			InitialCategory: cfg.Page.InitialCategory,
			Registerer:      app.registry,
			Logger:          app.logger,
		})
	}, session.Options{
		CookieName:    cfg.Session.CookieName,
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		Registerer:    app.registry,
		Logger:        app.logger,
	})

	app.health = services.NewHealthService(app.logger, app.registry)
	app.health.AddCritical("backend", app.backend.Ping)
	if app.redis != nil {
		app.health.AddNonCritical("redis", func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		})
	}

	app.handlers = handlers.New(app.logger, app.health, app.sessions, cfg.Page.DefaultCount)

	if err := app.setupRouter(); err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	app.stop = stop
	go app.sessions.Run(ctx)
	go app.health.CollectSystemMetrics(ctx, 15*time.Second)

	app.logger.WithFields(logrus.Fields{
		"backend": cfg.Backend.URL,
		"redis":   app.redis != nil,
		"kafka":   len(cfg.Kafka.Brokers) > 0,
	}).Info("Application initialized")

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	a.stop()

	var errs []error
	if err := a.handlers.Page.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("waiting for page requests: %w", err))
	}
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.WithError(err).Error("Error during shutdown")
		return err
	}
	return nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() error {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := view.Templates(a.config.Page.PollInterval)
	if err != nil {
		return fmt.Errorf("failed to parse page templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.HTTPMetrics(a.registry))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config.Security.CORS))
	router.Use(middleware.Security())
	router.Use(middleware.CompressionMiddleware("/metrics"))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	var actions []gin.HandlerFunc
	if a.limiter != nil {
		actions = append(actions, middleware.RateLimit(a.limiter, a.config.Session.CookieName, a.logger))
	}
	a.handlers.Register(router, actions...)

	a.router = router
	return nil
}

// Run serves HTTP on the configured port until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + a.config.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.logger.WithField("port", a.config.Server.Port).Info("Server started")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Server forced to shutdown")
	}
	if err := a.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("Server exited")
	return nil
}
