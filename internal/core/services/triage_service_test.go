package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/mocks"
	"github.com/lorrc/defect-triage/internal/core/ports"
	"github.com/lorrc/defect-triage/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var techEvalFields = []string{"customfield_16104"}

func TestTriageService_ApplyState(t *testing.T) {
	ctx := context.Background()

	t.Run("single combined update then broadcast", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		wantMutation := domain.LabelMutation{Remove: domain.AllTags(), Add: domain.TagNeedMoreInfo}
		tracker.On("UpdateIssue", ctx, "SWDEV-123", domain.IssueUpdate{Labels: &wantMutation}).Return(nil).Once()
		broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			p, ok := e.Payload.(domain.TriageStateChangedPayload)
			return ok && e.Type == domain.EventTriageStateChanged &&
				e.TicketKey == "SWDEV-123" && p.State == domain.StateNeedMoreInfo && p.ChangedBy == "Doe, Jane"
		})).Return(nil).Once()

		mutation, err := svc.ApplyState(ctx, ports.ApplyStateParams{
			TicketKey: "SWDEV-123",
			Target:    domain.StateNeedMoreInfo,
			ActorName: "Doe, Jane",
		})

		require.NoError(t, err)
		assert.Equal(t, &wantMutation, mutation)
		tracker.AssertNumberOfCalls(t, "UpdateIssue", 1)
		tracker.AssertExpectations(t)
		broadcaster.AssertExpectations(t)
	})

	t.Run("invalid target issues no write", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		_, err := svc.ApplyState(ctx, ports.ApplyStateParams{TicketKey: "SWDEV-1", Target: domain.StateUnknown})

		assert.ErrorIs(t, err, domain.ErrInvalidTargetState)
		tracker.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("invalid key issues no write", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		_, err := svc.ApplyState(ctx, ports.ApplyStateParams{TicketKey: "../myself", Target: domain.StatePending})

		assert.ErrorIs(t, err, domain.ErrInvalidTicketKey)
		tracker.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("tracker failure is surfaced and not broadcast", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		tracker.On("UpdateIssue", ctx, "SWDEV-9", mock.Anything).Return(assert.AnError)

		_, err := svc.ApplyState(ctx, ports.ApplyStateParams{TicketKey: "SWDEV-9", Target: domain.StateCompleted})

		assert.ErrorIs(t, err, apperrors.ErrTrackerFailure)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})
}

func TestTriageService_UpdateField(t *testing.T) {
	ctx := context.Background()

	t.Run("allow-listed field", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		tracker.On("UpdateIssue", ctx, "SWDEV-5", domain.IssueUpdate{
			Fields: map[string]any{"customfield_16104": "Root-caused to NCCL_ALGO"},
		}).Return(nil)
		broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		err := svc.UpdateField(ctx, ports.UpdateFieldParams{
			TicketKey: "SWDEV-5",
			FieldID:   "customfield_16104",
			Value:     "Root-caused to NCCL_ALGO",
		})

		require.NoError(t, err)
		tracker.AssertExpectations(t)
		broadcaster.AssertExpectations(t)
	})

	t.Run("other fields are refused", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTriageService(tracker, mocks.NewMockBroadcaster(), techEvalFields)

		err := svc.UpdateField(ctx, ports.UpdateFieldParams{TicketKey: "SWDEV-5", FieldID: "labels", Value: []string{}})

		assert.ErrorIs(t, err, apperrors.ErrFieldNotEditable)
		tracker.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTriageService_AddLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("adds without touching triage tags", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		tracker.On("UpdateIssue", ctx, "SWDEV-7", domain.IssueUpdate{
			Labels: &domain.LabelMutation{Add: "perf"},
		}).Return(nil).Once()
		broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			p, ok := e.Payload.(domain.LabelAddedPayload)
			return ok && e.Type == domain.EventLabelAdded &&
				e.TicketKey == "SWDEV-7" && p.Label == "perf" && p.AddedBy == "Doe, Jane"
		})).Return(nil).Once()

		err := svc.AddLabel(ctx, ports.AddLabelParams{TicketKey: "SWDEV-7", Label: " perf ", ActorName: "Doe, Jane"})

		require.NoError(t, err)
		tracker.AssertExpectations(t)
		broadcaster.AssertExpectations(t)
	})

	t.Run("triage vocabulary is reserved", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		broadcaster := mocks.NewMockBroadcaster()
		svc := services.NewTriageService(tracker, broadcaster, techEvalFields)

		for _, tag := range domain.AllTags() {
			err := svc.AddLabel(ctx, ports.AddLabelParams{TicketKey: "SWDEV-7", Label: string(tag)})

			assert.ErrorIs(t, err, apperrors.ErrReservedLabel, tag)
		}
		tracker.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("malformed labels", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTriageService(tracker, mocks.NewMockBroadcaster(), techEvalFields)

		for _, label := range []string{"", "   ", "two words", strings.Repeat("x", services.MaxLabelLength+1)} {
			err := svc.AddLabel(ctx, ports.AddLabelParams{TicketKey: "SWDEV-7", Label: label})

			assert.ErrorIs(t, err, apperrors.ErrInvalidLabel, label)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "label", appErr.Details["field"])
		}
		tracker.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid key issues no write", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTriageService(tracker, mocks.NewMockBroadcaster(), techEvalFields)

		err := svc.AddLabel(ctx, ports.AddLabelParams{TicketKey: "swdev 7", Label: "perf"})

		assert.ErrorIs(t, err, domain.ErrInvalidTicketKey)
		tracker.AssertNotCalled(t, "UpdateIssue", mock.Anything, mock.Anything, mock.Anything)
	})
}
