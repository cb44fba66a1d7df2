package ports

import (
	"context"
	"encoding/json"

	"github.com/lorrc/defect-triage/internal/core/domain"
)

// SearchOptions controls the page and fields returned by a search.
// MaxResults of zero asks for the total only.
type SearchOptions struct {
	Fields     string
	StartAt    int
	MaxResults int
}

// TrackerClient is the port to the external issue tracker, which is the
// system of record for every ticket.
type TrackerClient interface {
	Search(ctx context.Context, jql string, opts SearchOptions) (*domain.SearchResult, error)
	UpdateIssue(ctx context.Context, key string, update domain.IssueUpdate) error
	GetComments(ctx context.Context, key string) ([]domain.Comment, error)
	AddComment(ctx context.Context, key, body string) (*domain.Comment, error)
	GetIssueHistory(ctx context.Context, key string) (json.RawMessage, error)
	Myself(ctx context.Context) (*domain.TrackerUser, error)
}

// EventBroadcaster defines the port for pushing real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
