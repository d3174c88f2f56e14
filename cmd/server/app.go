package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"workflow-sync/backend/internal/api"
	"workflow-sync/backend/internal/auth"
	"workflow-sync/backend/internal/config"
	"workflow-sync/backend/internal/logging"
	"workflow-sync/backend/internal/mcp"
	"workflow-sync/backend/internal/metrics"
	"workflow-sync/backend/internal/repository"
	"workflow-sync/backend/internal/services"
	"workflow-sync/backend/internal/universalloader"
)

// app holds the long-lived components shared by the serve and sync commands.
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	pool       *pgxpool.Pool
	metrics    *metrics.Metrics
	workflows  *services.WorkflowService
	reconciler *services.Reconciler
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	pool, err := repository.NewPool(ctx, cfg.DSN(), cfg.DB.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}
	logger.Info("Database connected", "host", cfg.DB.Host, "name", cfg.DB.Name)

	m, err := metrics.New(cfg.Metrics.Enabled)
	if err != nil {
		pool.Close()
		return nil, err
	}

	ul := cfg.UniversalLoader
	tokens := auth.NewTokenCache(
		universalloader.NewAuthenticator(ul.BaseURL, ul.Timeout),
		auth.Credentials{CompanyID: ul.CompanyID, UserID: ul.UserID, UserSecret: ul.UserSecret},
		logger.With("component", "token_cache"),
		auth.WithRefreshObserver(m),
	)
	client := universalloader.NewClient(ul.BaseURL, ul.Timeout, tokens, logger.With("component", "universal_loader"))
	store := repository.NewPostgresWorkflowStore(pool)

	logger.Info("Service layer initialized", "remote", ul.BaseURL)
	return &app{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		metrics:    m,
		workflows:  services.NewWorkflowService(client, logger.With("component", "workflow_service")),
		reconciler: services.NewReconciler(client, store, logger.With("component", "reconciler"), services.WithRecorder(m)),
	}, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shut down metrics", "error", err)
	}
	a.pool.Close()
}

func (a *app) newEcho(ctx context.Context) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.ProblemErrorHandler(a.logger)

	httpLogger := a.logger.With("component", "http")
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			httpLogger.Info("Request handled",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(otelecho.Middleware("workflow-sync"))

	srv := api.NewServer(a.workflows, a.logger.With("component", "api"), version)
	e.GET("/health", srv.HandleHealth)
	if a.metrics.Enabled() {
		e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	}

	apiGroup := e.Group("/api/v1")
	if issuer := a.cfg.APIAuth.Issuer; issuer != "" {
		verifier, err := auth.NewBearerVerifier(ctx, issuer, a.logger.With("component", "api_auth"))
		if err != nil {
			return nil, fmt.Errorf("auth initialization failed: %w", err)
		}
		apiGroup.Use(echo.WrapMiddleware(verifier.RequireAuth))
		a.logger.Info("Bearer verification enabled", "issuer", issuer)
	}
	api.RegisterHandlers(apiGroup, srv)
	a.logger.Info("REST API handlers mounted")

	if a.cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(a.workflows, a.logger.With("component", "mcp"), version)
		mcpHandlers := http.NewServeMux()
		mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
		e.Any("/mcp", echo.WrapHandler(mcpHandlers))
		e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))
		a.logger.Info("MCP protocol handlers mounted")
	}
	return e, nil
}
