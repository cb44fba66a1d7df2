package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/defect-triage/internal/adapters/primary/validation"
	"github.com/lorrc/defect-triage/internal/core/ports"
	"github.com/lorrc/defect-triage/internal/core/services"
	"github.com/lorrc/defect-triage/internal/infrastructure/logging"
)

// CommentHandler handles a ticket's discussion and history.
type CommentHandler struct {
	commentService ports.CommentService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(
	commentService ports.CommentService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "comment"),
	}
}

// RegisterRoutes registers the endpoints relative to
// /api/tickets/{issueKey}.
func (h *CommentHandler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/comments", h.HandleListComments)
	r.Get("/history", h.HandleHistory)

	r.Group(func(r chi.Router) {
		if writeLimit != nil {
			r.Use(writeLimit)
		}
		r.Post("/comments", h.HandleCreateComment)
	})
}

// CreateCommentRequest defines the expected JSON body for creating a comment
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// Validate validates the create comment request
func (r *CreateCommentRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("body", r.Body).
		MaxLength("body", r.Body, services.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListComments handles GET /tickets/{issueKey}/comments
func (h *CommentHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	issueKey, ok := parseIssueKey(w, r, h.errorHandler)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), issueKey)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, comments)
}

// HandleCreateComment handles POST /tickets/{issueKey}/comments
func (h *CommentHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	issueKey, ok := parseIssueKey(w, r, h.errorHandler)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateCommentRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ctx := logging.WithTicketKey(r.Context(), issueKey)
	comment, err := h.commentService.AddComment(ctx, ports.AddCommentParams{
		TicketKey: issueKey,
		Body:      req.Body,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	logging.LoggerFromContext(ctx, h.logger).Info("comment added", "comment_id", comment.ID)

	WriteCreated(w, comment)
}

// HandleHistory handles GET /tickets/{issueKey}/history. The tracker's
// changelog is passed through unchanged.
func (h *CommentHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	issueKey, ok := parseIssueKey(w, r, h.errorHandler)
	if !ok {
		return
	}

	history, err := h.commentService.History(r.Context(), issueKey)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, history)
}
