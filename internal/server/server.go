package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/careerchat/config"
	"github.com/mohammad-safakhou/careerchat/internal/jobs"
	"github.com/mohammad-safakhou/careerchat/internal/knowledge"
	"github.com/mohammad-safakhou/careerchat/internal/router"
	"github.com/mohammad-safakhou/careerchat/internal/runtime"
	"github.com/mohammad-safakhou/careerchat/provider"
	"github.com/mohammad-safakhou/careerchat/repository"
	"github.com/mohammad-safakhou/careerchat/repository/redis_repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registrar mounts a group of API routes.
type Registrar interface {
	Register(g *echo.Group)
}

// NewEcho builds the HTTP surface: error handling, CORS, request timeout,
// health and metrics endpoints, and every handler's routes under /api.
func NewEcho(cfg config.ServerConfig, registry *prometheus.Registry, handlers ...Registrar) *echo.Echo {
	cfg = cfg.Normalize()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := internalErrorMessage
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(middleware.ContextTimeout(cfg.RequestTimeout))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	for _, h := range handlers {
		h.Register(api)
	}
	return e
}

// Run wires every dependency from cfg and serves until SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := log.New(log.Writer(), "[SERVE] ", log.LstdFlags)

	tel, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{ServiceVersion: "dev"})
	if err != nil {
		return err
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	if cfg.Server.AutoMigrate && cfg.Storage.Backend == config.StorageBackendPostgres {
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return err
		}
		if err := Migrate(cfg.Server.MigrationsDir, dsn, "up", 0); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	repo, err := repository.NewConversationRepository(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("conversation store: %w", err)
	}
	defer repo.Close()

	llm, err := provider.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}

	index, err := knowledge.Load(ctx, cfg.Knowledge, llm, nil)
	if err != nil {
		return fmt.Errorf("knowledge index: %w", err)
	}
	defer index.Close()
	logger.Printf("knowledge index ready with %d chunks", index.Len())

	var jobProvider jobs.Provider = jobs.NewAdzunaProvider(cfg.Jobs, nil)
	if cfg.Storage.Redis.Enabled() && cfg.Jobs.CacheTTL > 0 {
		rdb, err := redis_repository.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			logger.Printf("warn: job cache disabled: %v", err)
		} else {
			defer rdb.Close()
			jobProvider = jobs.NewCachedProvider(jobProvider, rdb, cfg.Jobs.CacheTTL, nil)
		}
	}
	offline := jobs.LoadOfflineCache(cfg.Jobs.OfflineSnapshot)
	if err := offline.Err(); err != nil {
		logger.Printf("warn: %v", err)
	}

	rt, err := router.New(router.Options{
		Store:           repo,
		Jobs:            jobProvider,
		Offline:         offline,
		Retriever:       index,
		LLM:             llm,
		JobsConfig:      cfg.Jobs,
		KnowledgeConfig: cfg.Knowledge,
		MemoryConfig:    cfg.Memory,
		LLMTimeout:      cfg.LLM.Timeout,
		Meter:           tel.Meter,
		Tracer:          tel.Tracer,
	})
	if err != nil {
		return err
	}

	e := NewEcho(cfg.Server, tel.Registry,
		&ChatHandler{Router: rt},
		&JobsHandler{Provider: jobProvider, Offline: offline, Config: cfg.Jobs},
	)
	addr := cfg.Server.Normalize().Address
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
