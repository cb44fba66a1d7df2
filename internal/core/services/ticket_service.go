package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/lorrc/defect-triage/internal/core/ports"
)

// Paging bounds for list views.
const (
	DefaultMaxResults = 50
	MaxMaxResults     = 100
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// TicketService implements the filtered ticket list.
type TicketService struct {
	tracker ports.TrackerClient
	builder *jql.Builder
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(tracker ports.TrackerClient, builder *jql.Builder) ports.TicketService {
	return &TicketService{
		tracker: tracker,
		builder: builder,
	}
}

// Search returns one page of tickets matching the criteria. Out-of-range
// paging is rejected rather than clamped.
func (s *TicketService) Search(ctx context.Context, params ports.SearchTicketsParams) (*domain.SearchResult, error) {
	// 1. Validate paging and fields
	opts := ports.SearchOptions{
		StartAt:    0,
		MaxResults: DefaultMaxResults,
	}
	if params.StartAt != nil {
		if *params.StartAt < 0 {
			return nil, apperrors.NewValidationError(apperrors.ErrInvalidPaging, "startAt")
		}
		opts.StartAt = *params.StartAt
	}
	if params.MaxResults != nil {
		if *params.MaxResults < 1 || *params.MaxResults > MaxMaxResults {
			return nil, apperrors.NewValidationError(apperrors.ErrInvalidPaging, "maxResults")
		}
		opts.MaxResults = *params.MaxResults
	}

	fields, err := normalizeFields(params.Fields)
	if err != nil {
		return nil, err
	}
	opts.Fields = fields

	// 2. Build the predicate
	query, err := s.builder.ListQuery(params.Criteria)
	if err != nil {
		return nil, criteriaError(err)
	}

	// 3. Query the tracker
	result, err := s.tracker.Search(ctx, query, opts)
	if err != nil {
		return nil, apperrors.NewUpstreamError("search", err)
	}

	for i := range result.Tickets {
		t := &result.Tickets[i]
		t.TriageState = domain.StateFor(t.Labels)
		t.PriorityCategory = domain.CategorizePriority(t.Priority)
	}
	return result, nil
}

func normalizeFields(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.DefaultSearchFields, nil
	}

	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts)+1)
	hasLabels := false
	for _, p := range parts {
		f := strings.TrimSpace(p)
		if !fieldNamePattern.MatchString(f) {
			return "", apperrors.NewValidationError(apperrors.ErrInvalidFields, "fields")
		}
		if f == "labels" {
			hasLabels = true
		}
		fields = append(fields, f)
	}
	// Triage state is derived from labels, so they are always fetched.
	if !hasLabels {
		fields = append(fields, "labels")
	}
	return strings.Join(fields, ","), nil
}
