package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/defect-triage/internal/core/jql"
)

// AssigneeDTO is one entry of the assignee filter dropdown. The tracker
// identity stays on the server.
type AssigneeDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// AssigneeHandler serves the configured assignee directory.
type AssigneeHandler struct {
	directory *jql.Directory
	logger    *slog.Logger
}

// NewAssigneeHandler creates a new AssigneeHandler.
func NewAssigneeHandler(directory *jql.Directory, logger *slog.Logger) *AssigneeHandler {
	return &AssigneeHandler{
		directory: directory,
		logger:    logger.With("handler", "assignees"),
	}
}

// RegisterRoutes registers the /assignees routes.
func (h *AssigneeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListAssignees)
}

// HandleListAssignees handles GET /assignees.
func (h *AssigneeHandler) HandleListAssignees(w http.ResponseWriter, r *http.Request) {
	WriteList(w, mapAssignees(h.directory.People()))
}

func mapAssignees(people []jql.Person) []AssigneeDTO {
	assignees := make([]AssigneeDTO, 0, len(people))
	for _, p := range people {
		label := p.Label
		if label == "" {
			label = p.Identity
		}
		assignees = append(assignees, AssigneeDTO{Key: p.Key, Label: label})
	}
	return assignees
}
