package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/lorrc/defect-triage/internal/adapters/primary/http/middleware"
	"github.com/lorrc/defect-triage/internal/adapters/primary/validation"
	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/lorrc/defect-triage/internal/core/ports"
	"github.com/lorrc/defect-triage/internal/core/services"
	"github.com/lorrc/defect-triage/internal/infrastructure/logging"
)

// TicketHandler handles the dashboard's ticket endpoints.
type TicketHandler struct {
	summaryService ports.SummaryService
	ticketService  ports.TicketService
	triageService  ports.TriageService
	commentHandler *CommentHandler
	directory      *jql.Directory
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	summaryService ports.SummaryService,
	ticketService ports.TicketService,
	triageService ports.TriageService,
	commentHandler *CommentHandler,
	directory *jql.Directory,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		summaryService: summaryService,
		ticketService:  ticketService,
		triageService:  triageService,
		commentHandler: commentHandler,
		directory:      directory,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints, relative to
// /api/tickets. Write routes go through writeLimit when it is non-nil.
func (h *TicketHandler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/", h.HandleListTickets)
	r.Get("/summary", h.HandleSummary)

	r.Route("/{issueKey}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if writeLimit != nil {
				r.Use(writeLimit)
			}
			r.Put("/state", h.HandleApplyState)
			r.Put("/field", h.HandleUpdateField)
			r.Put("/labels", h.HandleAddLabel)
		})

		if h.commentHandler != nil {
			h.commentHandler.RegisterRoutes(r, writeLimit)
		}
	})
}

// --- Request DTOs ---

// ApplyStateRequest defines the expected JSON body for a triage transition
type ApplyStateRequest struct {
	TargetState string `json:"targetState"`
}

var targetStateValues = []string{
	string(domain.StatePending),
	string(domain.StateCompleted),
	string(domain.StateNeedMoreInfo),
	string(domain.StateRejected),
	string(domain.StateNotApplicable),
}

// Validate validates the transition request
func (r *ApplyStateRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("targetState", r.TargetState).
		OneOf("targetState", r.TargetState, targetStateValues)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateFieldRequest defines the expected JSON body for a field write
type UpdateFieldRequest struct {
	FieldID string `json:"fieldId"`
	Value   any    `json:"value"`
}

// Validate validates the field write request
func (r *UpdateFieldRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("fieldId", r.FieldID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AddLabelRequest defines the expected JSON body for adding a label
type AddLabelRequest struct {
	Label string `json:"label"`
}

// Validate validates the label request
func (r *AddLabelRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("label", r.Label).
		MaxLength("label", r.Label, services.MaxLabelLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandleSummary handles GET /tickets/summary
func (h *TicketHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	criteria, err := validation.ParseFilterCriteria(r, h.directory)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	summary, err := h.summaryService.Summarize(r.Context(), criteria)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, summary)
}

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	criteria, err := validation.ParseFilterCriteria(r, h.directory)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	v := validation.NewValidator()
	startAt := validation.ParseOptionalInt(r, validation.ParamStartAt, v)
	maxResults := validation.ParseOptionalInt(r, validation.ParamMaxResults, v)
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	result, err := h.ticketService.Search(r.Context(), ports.SearchTicketsParams{
		Criteria:   criteria,
		Fields:     r.URL.Query().Get(validation.ParamFields),
		StartAt:    startAt,
		MaxResults: maxResults,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleApplyState handles PUT /tickets/{issueKey}/state
func (h *TicketHandler) HandleApplyState(w http.ResponseWriter, r *http.Request) {
	issueKey, ok := h.issueKey(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[ApplyStateRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ctx := logging.WithTicketKey(r.Context(), issueKey)
	mutation, err := h.triageService.ApplyState(ctx, ports.ApplyStateParams{
		TicketKey: issueKey,
		Target:    domain.TriageState(req.TargetState),
		ActorName: actorName(r),
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	logging.LoggerFromContext(ctx, h.logger).Info("triage state applied",
		"target_state", req.TargetState,
		"added", mutation.Add,
	)

	WriteNoContent(w)
}

// HandleUpdateField handles PUT /tickets/{issueKey}/field
func (h *TicketHandler) HandleUpdateField(w http.ResponseWriter, r *http.Request) {
	issueKey, ok := h.issueKey(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[UpdateFieldRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ctx := logging.WithTicketKey(r.Context(), issueKey)
	err = h.triageService.UpdateField(ctx, ports.UpdateFieldParams{
		TicketKey: issueKey,
		FieldID:   req.FieldID,
		Value:     req.Value,
		ActorName: actorName(r),
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	logging.LoggerFromContext(ctx, h.logger).Info("ticket field updated", "field_id", req.FieldID)

	WriteNoContent(w)
}

// HandleAddLabel handles PUT /tickets/{issueKey}/labels
func (h *TicketHandler) HandleAddLabel(w http.ResponseWriter, r *http.Request) {
	issueKey, ok := h.issueKey(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[AddLabelRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ctx := logging.WithTicketKey(r.Context(), issueKey)
	err = h.triageService.AddLabel(ctx, ports.AddLabelParams{
		TicketKey: issueKey,
		Label:     req.Label,
		ActorName: actorName(r),
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	logging.LoggerFromContext(ctx, h.logger).Info("label added", "label", req.Label)

	WriteNoContent(w)
}

// --- Helper methods ---

// issueKey extracts and validates the ticket key from the URL
func (h *TicketHandler) issueKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	return parseIssueKey(w, r, h.errorHandler)
}

func parseIssueKey(w http.ResponseWriter, r *http.Request, eh *ErrorHandler) (string, bool) {
	key := chi.URLParam(r, "issueKey")
	if err := domain.ValidateTicketKey(key); err != nil {
		v := validation.NewValidator()
		v.Custom("issueKey", false, err.Error())
		eh.Handle(w, r, v.Errors())
		return "", false
	}
	return key, true
}

// actorName names the session behind a write, if sessions are enabled.
func actorName(r *http.Request) string {
	if claims, ok := mw.GetClaims(r.Context()); ok {
		if claims.DisplayName != "" {
			return claims.DisplayName
		}
		return claims.AccountID
	}
	return ""
}
