package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/lorrc/defect-triage/internal/core/mocks"
	"github.com/lorrc/defect-triage/internal/core/ports"
	"github.com/lorrc/defect-triage/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const pendingListQuery = "issuetype = Defect AND labels = RCCL_TRIAGE_PENDING ORDER BY updated DESC"

func TestTicketService_Search(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t)
	pending := domain.FilterCriteria{Category: domain.CategoryTriagePending}

	t.Run("defaults and derived state", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTicketService(tracker, b)

		tracker.On("Search", ctx, pendingListQuery, ports.SearchOptions{
			Fields:     domain.DefaultSearchFields,
			StartAt:    0,
			MaxResults: 50,
		}).Return(&domain.SearchResult{
			Total:      2,
			MaxResults: 50,
			Tickets: []domain.Ticket{
				{Key: "SWDEV-1", Fields: json.RawMessage(`{}`), Labels: []string{"RCCL_TRIAGE_PENDING"}, Priority: "P1-Gating"},
				{Key: "SWDEV-2", Fields: json.RawMessage(`{}`), Labels: []string{"RCCL_TRIAGE_NRI", "RCCL_TRIAGE_PENDING"}},
			},
		}, nil)

		result, err := svc.Search(ctx, ports.SearchTicketsParams{Criteria: pending})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, domain.StatePending, result.Tickets[0].TriageState)
		assert.Equal(t, domain.StateNotApplicable, result.Tickets[1].TriageState)
		assert.Equal(t, domain.PriorityP1, result.Tickets[0].PriorityCategory)
		assert.Equal(t, domain.PriorityOther, result.Tickets[1].PriorityCategory)
		tracker.AssertExpectations(t)
	})

	t.Run("explicit paging and fields", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTicketService(tracker, b)

		tracker.On("Search", ctx, pendingListQuery, ports.SearchOptions{
			Fields:     "summary,customfield_16104,labels",
			StartAt:    100,
			MaxResults: 25,
		}).Return(&domain.SearchResult{Total: 101, StartAt: 100}, nil)

		_, err := svc.Search(ctx, ports.SearchTicketsParams{
			Criteria:   pending,
			Fields:     "summary, customfield_16104",
			StartAt:    intPtr(100),
			MaxResults: intPtr(25),
		})

		require.NoError(t, err)
		tracker.AssertExpectations(t)
	})

	t.Run("rejects out-of-range paging", func(t *testing.T) {
		tests := []struct {
			name   string
			params ports.SearchTicketsParams
			field  string
		}{
			{"negative start", ports.SearchTicketsParams{Criteria: pending, StartAt: intPtr(-1)}, "startAt"},
			{"zero page", ports.SearchTicketsParams{Criteria: pending, MaxResults: intPtr(0)}, "maxResults"},
			{"oversized page", ports.SearchTicketsParams{Criteria: pending, MaxResults: intPtr(101)}, "maxResults"},
			{"injected field", ports.SearchTicketsParams{Criteria: pending, Fields: "summary,labels) OR (1"}, "fields"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tracker := mocks.NewMockTrackerClient()
				svc := services.NewTicketService(tracker, b)

				_, err := svc.Search(ctx, tt.params)

				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
				assert.Equal(t, tt.field, appErr.Details["field"])
				tracker.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("incomplete range is a validation error", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTicketService(tracker, b)

		_, err := svc.Search(ctx, ports.SearchTicketsParams{Criteria: domain.FilterCriteria{
			Category:   domain.CategoryOngoing,
			DateWindow: domain.DateWindow{Kind: domain.DateWindowRange, End: "2024-03-01"},
		}})

		assert.ErrorIs(t, err, jql.ErrIncompleteDateRange)
		tracker.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("tracker failure is an upstream error", func(t *testing.T) {
		tracker := mocks.NewMockTrackerClient()
		svc := services.NewTicketService(tracker, b)

		tracker.On("Search", ctx, mock.Anything, mock.Anything).Return(nil, assert.AnError)

		_, err := svc.Search(ctx, ports.SearchTicketsParams{Criteria: pending})

		assert.ErrorIs(t, err, apperrors.ErrTrackerFailure)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
