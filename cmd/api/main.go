package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/lorrc/defect-triage/internal/adapters/primary/http"
	mw "github.com/lorrc/defect-triage/internal/adapters/primary/http/middleware"
	"github.com/lorrc/defect-triage/internal/adapters/primary/websocket"
	"github.com/lorrc/defect-triage/internal/adapters/secondary/jira"
	"github.com/lorrc/defect-triage/internal/auth"
	"github.com/lorrc/defect-triage/internal/config"
	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/lorrc/defect-triage/internal/core/services"
	"github.com/lorrc/defect-triage/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	// 3. Assignee directory and tracker client
	directory, err := jql.LoadDirectory(cfg.Triage.AssigneeDirectoryFile)
	if err != nil {
		logger.Error("failed to load assignee directory", "error", err)
		os.Exit(1)
	}
	logger.Info("assignee directory loaded", "entries", len(directory.People()))

	tracker, err := jira.NewClient(jira.Config{
		BaseURL: cfg.Tracker.BaseURL,
		Token:   cfg.Tracker.Token,
		Timeout: cfg.Tracker.Timeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create tracker client", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Security & Real-time Components
	var tokenManager *auth.TokenManager
	if cfg.Auth.Enabled {
		tokenManager = auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TTL)
	} else {
		logger.Warn("dashboard sessions are disabled; every caller can write to the tracker")
	}

	hub := websocket.NewHub(logger, websocket.WithKeepalive(cfg.WebSocket.PingInterval, cfg.WebSocket.PongWait))
	go hub.Run()
	defer hub.Stop()

	// 5. Initialize Rate Limiters
	var generalLimit, writeLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		generalRateLimiter := mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer generalRateLimiter.Stop()
		generalLimit = generalRateLimiter.Middleware

		writeCfg := mw.WriteRateLimiterConfig()
		writeCfg.RequestsPerSecond = cfg.RateLimit.WriteRPS
		writeCfg.BurstSize = cfg.RateLimit.WriteBurst
		writeRateLimiter := mw.NewRateLimitByKey(writeCfg)
		defer writeRateLimiter.Stop()
		writeLimit = writeRateLimiter.Middleware
	}

	// 6. Dependency Injection (Wiring the Hexagon)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	builder := jql.NewBuilder(directory)
	summaryService := services.NewSummaryService(tracker, builder)
	ticketService := services.NewTicketService(tracker, builder)
	triageService := services.NewTriageService(tracker, hub, cfg.Triage.EditableFields)
	commentService := services.NewCommentService(tracker, hub)

	commentHandler := httpAdapter.NewCommentHandler(commentService, errorHandler, logger)
	ticketHandler := httpAdapter.NewTicketHandler(
		summaryService, ticketService, triageService, commentHandler, directory, errorHandler, logger,
	)

	// 7. Setup Router
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Logger:         logger,
		Tickets:        ticketHandler,
		Assignees:      httpAdapter.NewAssigneeHandler(directory, logger),
		Me:             httpAdapter.NewMeHandler(tracker, errorHandler, logger),
		Config:         httpAdapter.NewConfigHandler(tracker.BaseURL()),
		Health:         httpAdapter.NewHealthHandler(tracker, cfg.App.Version).WithRealtime(hub),
		WebSocket:      httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger),
		TokenManager:   tokenManager,
		GeneralLimit:   generalLimit,
		WriteLimit:     writeLimit,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
