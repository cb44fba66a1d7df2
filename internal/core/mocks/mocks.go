package mocks

import (
	"context"
	"encoding/json"

	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/lorrc/defect-triage/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTrackerClient is a mock implementation of ports.TrackerClient
type MockTrackerClient struct {
	mock.Mock
}

var _ ports.TrackerClient = (*MockTrackerClient)(nil)

func NewMockTrackerClient() *MockTrackerClient {
	return &MockTrackerClient{}
}

func (m *MockTrackerClient) Search(ctx context.Context, jql string, opts ports.SearchOptions) (*domain.SearchResult, error) {
	args := m.Called(ctx, jql, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResult), args.Error(1)
}

func (m *MockTrackerClient) UpdateIssue(ctx context.Context, key string, update domain.IssueUpdate) error {
	args := m.Called(ctx, key, update)
	return args.Error(0)
}

func (m *MockTrackerClient) GetComments(ctx context.Context, key string) ([]domain.Comment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *MockTrackerClient) AddComment(ctx context.Context, key, body string) (*domain.Comment, error) {
	args := m.Called(ctx, key, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockTrackerClient) GetIssueHistory(ctx context.Context, key string) (json.RawMessage, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockTrackerClient) Myself(ctx context.Context) (*domain.TrackerUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackerUser), args.Error(1)
}

// MockBroadcaster is a mock implementation of ports.EventBroadcaster
type MockBroadcaster struct {
	mock.Mock
}

var _ ports.EventBroadcaster = (*MockBroadcaster)(nil)

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

func (m *MockBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockSummaryService is a mock implementation of ports.SummaryService
type MockSummaryService struct {
	mock.Mock
}

var _ ports.SummaryService = (*MockSummaryService)(nil)

func (m *MockSummaryService) Summarize(ctx context.Context, criteria domain.FilterCriteria) (*domain.SummaryRecord, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryRecord), args.Error(1)
}

// MockTicketService is a mock implementation of ports.TicketService
type MockTicketService struct {
	mock.Mock
}

var _ ports.TicketService = (*MockTicketService)(nil)

func (m *MockTicketService) Search(ctx context.Context, params ports.SearchTicketsParams) (*domain.SearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResult), args.Error(1)
}

// MockTriageService is a mock implementation of ports.TriageService
type MockTriageService struct {
	mock.Mock
}

var _ ports.TriageService = (*MockTriageService)(nil)

func (m *MockTriageService) ApplyState(ctx context.Context, params ports.ApplyStateParams) (*domain.LabelMutation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LabelMutation), args.Error(1)
}

func (m *MockTriageService) UpdateField(ctx context.Context, params ports.UpdateFieldParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockTriageService) AddLabel(ctx context.Context, params ports.AddLabelParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// MockCommentService is a mock implementation of ports.CommentService
type MockCommentService struct {
	mock.Mock
}

var _ ports.CommentService = (*MockCommentService)(nil)

func (m *MockCommentService) ListComments(ctx context.Context, ticketKey string) ([]domain.Comment, error) {
	args := m.Called(ctx, ticketKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *MockCommentService) AddComment(ctx context.Context, params ports.AddCommentParams) (*domain.Comment, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockCommentService) History(ctx context.Context, ticketKey string) (json.RawMessage, error) {
	args := m.Called(ctx, ticketKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
