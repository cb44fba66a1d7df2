package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/defect-triage/internal/adapters/primary/http/middleware"
	"github.com/lorrc/defect-triage/internal/auth"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
)

// RouterDeps collects everything the API router mounts. Optional members
// may be nil.
type RouterDeps struct {
	Logger *slog.Logger

	Tickets   *TicketHandler
	Assignees *AssigneeHandler
	Me        *MeHandler
	Config    *ConfigHandler
	Health    *HealthHandler
	WebSocket http.Handler

	// TokenManager enables session checks on /api routes when set.
	TokenManager *auth.TokenManager

	// GeneralLimit applies to every request; WriteLimit additionally to
	// routes that write to the tracker.
	GeneralLimit func(http.Handler) http.Handler
	WriteLimit   func(http.Handler) http.Handler

	AllowedOrigins []string
}

// NewRouter builds the HTTP surface of the service.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(mw.RecoveryLogger(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if d.GeneralLimit != nil {
		r.Use(d.GeneralLimit)
	}

	// Health check endpoints (outside /api for standard health check paths)
	if d.Health != nil {
		d.Health.RegisterRoutes(r)
	}

	errorHandler := NewErrorHandler(d.Logger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.Handle(w, r, apperrors.NewNotFoundError(apperrors.ErrNotFound, "Route not found"))
	})

	r.Route("/api", func(r chi.Router) {
		if d.Config != nil {
			r.Get("/config", d.Config.HandleConfig)
		}

		// WebSocket route (authentication is handled inside the handler)
		if d.WebSocket != nil {
			r.Get("/ws", d.WebSocket.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			if d.TokenManager != nil {
				r.Use(mw.JWTMiddleware(d.TokenManager))
			}

			if d.Tickets != nil {
				r.Route("/tickets", func(r chi.Router) {
					d.Tickets.RegisterRoutes(r, d.WriteLimit)
				})
			}
			if d.Assignees != nil {
				r.Route("/assignees", d.Assignees.RegisterRoutes)
			}
			if d.Me != nil {
				r.Route("/me", d.Me.RegisterRoutes)
			}
		})
	})

	return r
}
