package ports

import (
	"context"
	"encoding/json"

	"github.com/lorrc/defect-triage/internal/core/domain"
)

// SearchTicketsParams defines the input for a ticket list page. Nil paging
// values take their defaults.
type SearchTicketsParams struct {
	Criteria   domain.FilterCriteria
	Fields     string
	StartAt    *int
	MaxResults *int
}

// ApplyStateParams defines the input for moving a ticket between triage
// states.
type ApplyStateParams struct {
	TicketKey string
	Target    domain.TriageState
	ActorName string
}

// UpdateFieldParams defines the input for a single field write.
type UpdateFieldParams struct {
	TicketKey string
	FieldID   string
	Value     any
	ActorName string
}

// AddLabelParams defines the input for tagging a ticket with a free-form
// label.
type AddLabelParams struct {
	TicketKey string
	Label     string
	ActorName string
}

// AddCommentParams defines the input for posting a comment.
type AddCommentParams struct {
	TicketKey string
	Body      string
}

// SummaryService computes the dashboard counters.
type SummaryService interface {
	Summarize(ctx context.Context, criteria domain.FilterCriteria) (*domain.SummaryRecord, error)
}

// TicketService serves filtered ticket lists.
type TicketService interface {
	Search(ctx context.Context, params SearchTicketsParams) (*domain.SearchResult, error)
}

// TriageService moves tickets through the triage workflow.
type TriageService interface {
	ApplyState(ctx context.Context, params ApplyStateParams) (*domain.LabelMutation, error)
	UpdateField(ctx context.Context, params UpdateFieldParams) error
	AddLabel(ctx context.Context, params AddLabelParams) error
}

// CommentService defines the port for ticket discussion and history.
type CommentService interface {
	ListComments(ctx context.Context, ticketKey string) ([]domain.Comment, error)
	AddComment(ctx context.Context, params AddCommentParams) (*domain.Comment, error)
	History(ctx context.Context, ticketKey string) (json.RawMessage, error)
}
