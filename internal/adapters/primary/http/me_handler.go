package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/lorrc/defect-triage/internal/adapters/primary/http/middleware"
	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
)

// MeResponse describes who is using the dashboard and which tracker
// account performs its writes.
type MeResponse struct {
	Session *SessionDTO         `json:"session,omitempty"`
	Tracker *domain.TrackerUser `json:"tracker"`
}

// SessionDTO is the dashboard session, present when sessions are enabled.
type SessionDTO struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// MeHandler handles HTTP requests about the current identity.
type MeHandler struct {
	tracker      TrackerPinger
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(tracker TrackerPinger, errorHandler *ErrorHandler, logger *slog.Logger) *MeHandler {
	return &MeHandler{
		tracker:      tracker,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "me"),
	}
}

// RegisterRoutes registers the /me routes.
func (h *MeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleMe)
}

// HandleMe handles GET /me.
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.trackerUser(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	resp := MeResponse{Tracker: user}
	if claims, ok := mw.GetClaims(r.Context()); ok {
		resp.Session = &SessionDTO{
			AccountID:   claims.AccountID,
			DisplayName: claims.DisplayName,
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (h *MeHandler) trackerUser(ctx context.Context) (*domain.TrackerUser, error) {
	user, err := h.tracker.Myself(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamError("myself", err)
	}
	return user, nil
}
