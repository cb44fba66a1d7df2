package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/ports"
)

// MaxCommentLength bounds a posted comment body in bytes.
const MaxCommentLength = 32 * 1024

// CommentService implements the business logic for comments and history.
type CommentService struct {
	tracker     ports.TrackerClient
	broadcaster ports.EventBroadcaster
}

// Ensure implementation matches the interface.
var _ ports.CommentService = (*CommentService)(nil)

// NewCommentService creates a new service for comment logic.
func NewCommentService(tracker ports.TrackerClient, broadcaster ports.EventBroadcaster) ports.CommentService {
	return &CommentService{
		tracker:     tracker,
		broadcaster: broadcaster,
	}
}

// ListComments returns the ticket's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, ticketKey string) ([]domain.Comment, error) {
	if err := domain.ValidateTicketKey(ticketKey); err != nil {
		return nil, apperrors.NewValidationError(err, "issueKey")
	}

	comments, err := s.tracker.GetComments(ctx, ticketKey)
	if err != nil {
		return nil, apperrors.NewUpstreamError("list comments", err)
	}
	return comments, nil
}

// AddComment posts a comment and notifies dashboards watching the ticket.
func (s *CommentService) AddComment(ctx context.Context, params ports.AddCommentParams) (*domain.Comment, error) {
	if err := domain.ValidateTicketKey(params.TicketKey); err != nil {
		return nil, apperrors.NewValidationError(err, "issueKey")
	}

	body := strings.TrimSpace(params.Body)
	if body == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrCommentBodyRequired, "body")
	}
	if len(body) > MaxCommentLength {
		return nil, apperrors.NewValidationError(apperrors.ErrCommentBodyTooLong, "body")
	}

	comment, err := s.tracker.AddComment(ctx, params.TicketKey, body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("add comment", err)
	}

	_ = s.broadcaster.Broadcast(domain.Event{
		Type: domain.EventCommentAdded,
		Payload: domain.CommentAddedPayload{
			TicketKey: params.TicketKey,
			Comment:   *comment,
		},
		TicketKey: params.TicketKey,
	})

	return comment, nil
}

// History returns the tracker's changelog for the ticket as-is.
func (s *CommentService) History(ctx context.Context, ticketKey string) (json.RawMessage, error) {
	if err := domain.ValidateTicketKey(ticketKey); err != nil {
		return nil, apperrors.NewValidationError(err, "issueKey")
	}

	history, err := s.tracker.GetIssueHistory(ctx, ticketKey)
	if err != nil {
		return nil, apperrors.NewUpstreamError("history", err)
	}
	return history, nil
}
