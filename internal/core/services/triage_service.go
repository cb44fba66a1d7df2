package services

import (
	"context"
	"strings"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/ports"
)

// MaxLabelLength is the longest label the tracker accepts.
const MaxLabelLength = 255

// TriageService applies triage state changes and dashboard field edits.
type TriageService struct {
	tracker        ports.TrackerClient
	broadcaster    ports.EventBroadcaster
	editableFields map[string]bool
}

var _ ports.TriageService = (*TriageService)(nil)

// NewTriageService creates a new triage service. editableFields lists the
// tracker field IDs UpdateField may write.
func NewTriageService(
	tracker ports.TrackerClient,
	broadcaster ports.EventBroadcaster,
	editableFields []string,
) ports.TriageService {
	allowed := make(map[string]bool, len(editableFields))
	for _, f := range editableFields {
		allowed[f] = true
	}
	return &TriageService{
		tracker:        tracker,
		broadcaster:    broadcaster,
		editableFields: allowed,
	}
}

// ApplyState moves a ticket into the target state with a single combined
// label update. The current labels are not read first, so concurrent
// changes from other sessions resolve as last write wins.
func (s *TriageService) ApplyState(ctx context.Context, params ports.ApplyStateParams) (*domain.LabelMutation, error) {
	// 1. Validate input
	if err := domain.ValidateTicketKey(params.TicketKey); err != nil {
		return nil, apperrors.NewValidationError(err, "issueKey")
	}

	// 2. Compute the mutation (pure)
	mutation, err := domain.Transition(nil, params.Target)
	if err != nil {
		return nil, apperrors.NewValidationError(err, "targetState")
	}

	// 3. One tracker write carrying every removal and the add
	update := domain.IssueUpdate{Labels: &mutation}
	if err := s.tracker.UpdateIssue(ctx, params.TicketKey, update); err != nil {
		return nil, apperrors.NewUpstreamError("update labels", err)
	}

	// 4. Broadcast real-time event
	_ = s.broadcaster.Broadcast(domain.Event{
		Type: domain.EventTriageStateChanged,
		Payload: domain.TriageStateChangedPayload{
			TicketKey: params.TicketKey,
			State:     params.Target,
			Removed:   mutation.Remove,
			Added:     mutation.Add,
			ChangedBy: params.ActorName,
		},
		TicketKey: params.TicketKey,
	})

	return &mutation, nil
}

// UpdateField writes one allow-listed tracker field.
func (s *TriageService) UpdateField(ctx context.Context, params ports.UpdateFieldParams) error {
	if err := domain.ValidateTicketKey(params.TicketKey); err != nil {
		return apperrors.NewValidationError(err, "issueKey")
	}
	if !s.editableFields[params.FieldID] {
		return apperrors.NewValidationError(apperrors.ErrFieldNotEditable, "fieldId")
	}

	update := domain.IssueUpdate{Fields: map[string]any{params.FieldID: params.Value}}
	if err := s.tracker.UpdateIssue(ctx, params.TicketKey, update); err != nil {
		return apperrors.NewUpstreamError("update field", err)
	}

	_ = s.broadcaster.Broadcast(domain.Event{
		Type: domain.EventFieldUpdated,
		Payload: domain.FieldUpdatedPayload{
			TicketKey: params.TicketKey,
			FieldID:   params.FieldID,
		},
		TicketKey: params.TicketKey,
	})
	return nil
}

// AddLabel adds one free-form label. Triage vocabulary labels are refused
// so that a ticket only ever gains a triage tag through ApplyState.
func (s *TriageService) AddLabel(ctx context.Context, params ports.AddLabelParams) error {
	if err := domain.ValidateTicketKey(params.TicketKey); err != nil {
		return apperrors.NewValidationError(err, "issueKey")
	}

	label := strings.TrimSpace(params.Label)
	if label == "" || len(label) > MaxLabelLength || strings.ContainsAny(label, " \t\r\n") {
		return apperrors.NewValidationError(apperrors.ErrInvalidLabel, "label")
	}
	if domain.IsTriageTag(domain.Tag(label)) {
		return apperrors.NewValidationError(apperrors.ErrReservedLabel, "label")
	}

	update := domain.IssueUpdate{Labels: &domain.LabelMutation{Add: domain.Tag(label)}}
	if err := s.tracker.UpdateIssue(ctx, params.TicketKey, update); err != nil {
		return apperrors.NewUpstreamError("add label", err)
	}

	_ = s.broadcaster.Broadcast(domain.Event{
		Type: domain.EventLabelAdded,
		Payload: domain.LabelAddedPayload{
			TicketKey: params.TicketKey,
			Label:     label,
			AddedBy:   params.ActorName,
		},
		TicketKey: params.TicketKey,
	})
	return nil
}
