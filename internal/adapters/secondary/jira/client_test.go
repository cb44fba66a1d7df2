package jira_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/lorrc/defect-triage/internal/adapters/secondary/jira"
	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *jira.Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	client, err := jira.NewClient(jira.Config{
		BaseURL:    server.URL,
		Token:      "test-pat",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := jira.NewClient(jira.Config{BaseURL: "http://jira.example.com", Token: "x"})
	assert.EqualError(t, err, `jira: API client requires HTTPS (got "http://jira.example.com")`)

	_, err = jira.NewClient(jira.Config{BaseURL: "https://jira.example.com"})
	assert.Error(t, err)

	_, err = jira.NewClient(jira.Config{Token: "x"})
	assert.Error(t, err)

	c, err := jira.NewClient(jira.Config{BaseURL: "https://jira.example.com/", Token: "x", Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com", c.BaseURL())
}

func TestClient_Search(t *testing.T) {
	const jql = `issuetype = Defect AND assignee = "Doe, Jane" ORDER BY updated DESC`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/3/search", r.URL.Path)
		assert.Equal(t, "Bearer test-pat", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, jql, q.Get("jql"))
		assert.Equal(t, "25", q.Get("maxResults"))
		assert.Equal(t, "50", q.Get("startAt"))
		assert.Equal(t, "strict", q.Get("validateQuery"))
		assert.Equal(t, "summary,labels", q.Get("fields"))

		_, _ = io.WriteString(w, `{
			"startAt": 50, "maxResults": 25, "total": 51,
			"issues": [{"id": "1001", "key": "SWDEV-9", "fields": {"summary": "hang in allreduce", "priority": {"name": "P1-Gating"}, "labels": ["RCCL_TRIAGE_PENDING", "perf"]}}]
		}`)
	})

	result, err := client.Search(context.Background(), jql, ports.SearchOptions{
		Fields:     "summary,labels",
		StartAt:    50,
		MaxResults: 25,
	})

	require.NoError(t, err)
	assert.Equal(t, 51, result.Total)
	assert.Equal(t, 50, result.StartAt)
	require.Len(t, result.Tickets, 1)
	ticket := result.Tickets[0]
	assert.Equal(t, "SWDEV-9", ticket.Key)
	assert.Equal(t, []string{"RCCL_TRIAGE_PENDING", "perf"}, ticket.Labels)
	assert.Equal(t, "P1-Gating", ticket.Priority)
	assert.JSONEq(t, `{"summary": "hang in allreduce", "priority": {"name": "P1-Gating"}, "labels": ["RCCL_TRIAGE_PENDING", "perf"]}`, string(ticket.Fields))
}

func TestClient_Search_CountOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("maxResults"))
		assert.False(t, r.URL.Query().Has("fields"))
		_, _ = io.WriteString(w, `{"startAt": 0, "maxResults": 0, "issues": []}`)
	})

	result, err := client.Search(context.Background(), "issuetype = Defect", ports.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Total, "missing total reads as zero")
}

func TestClient_UpdateIssue_Labels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/rest/api/3/issue/SWDEV-12", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"update": {"labels": [
			{"remove": "RCCL_TRIAGE_PENDING"},
			{"remove": "RCCL_TRIAGE_COMPLETED"},
			{"remove": "RCCL_TRIAGE_NEED_MORE_INFO"},
			{"remove": "RCCL_TRIAGE_REJECTED"},
			{"remove": "RCCL_TRIAGE_NRI"},
			{"add": "RCCL_TRIAGE_COMPLETED"}
		]}}`, string(body))

		w.WriteHeader(http.StatusNoContent)
	})

	mutation, err := domain.Transition(nil, domain.StateCompleted)
	require.NoError(t, err)

	err = client.UpdateIssue(context.Background(), "SWDEV-12", domain.IssueUpdate{Labels: &mutation})
	require.NoError(t, err)
}

func TestClient_UpdateIssue_AddOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"update": {"labels": [{"add": "perf"}]}}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateIssue(context.Background(), "SWDEV-12", domain.IssueUpdate{
		Labels: &domain.LabelMutation{Add: "perf"},
	})
	require.NoError(t, err)
}

func TestClient_UpdateIssue_Field(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"fields": map[string]any{"customfield_16104": "needs repro"}}, payload)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateIssue(context.Background(), "SWDEV-12", domain.IssueUpdate{
		Fields: map[string]any{"customfield_16104": "needs repro"},
	})
	require.NoError(t, err)
}

func TestClient_Errors(t *testing.T) {
	t.Run("structured body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"errorMessages": ["Field 'labels' cannot be set."], "errors": {"customfield_1": "not on screen"}}`)
		})

		err := client.UpdateIssue(context.Background(), "SWDEV-1", domain.IssueUpdate{Fields: map[string]any{"customfield_1": 1}})

		var apiErr *jira.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, []string{"Field 'labels' cannot be set.", "customfield_1: not on screen"}, apiErr.TrackerMessages())
		assert.Contains(t, err.Error(), "updating issue SWDEV-1: jira: HTTP 400")

		appErr := apperrors.NewUpstreamError("update", err)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"errorMessages": ["Issue does not exist or you do not have permission to see it."]}`)
		})

		_, err := client.GetComments(context.Background(), "SWDEV-404")
		var apiErr *jira.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.TrackerStatus())
		assert.Equal(t, http.StatusNotFound, apperrors.NewUpstreamError("comments", err).StatusCode)
	})

	t.Run("unstructured body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "<html>upstream down</html>")
		})

		_, err := client.Myself(context.Background())
		var apiErr *jira.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, []string{"<html>upstream down</html>"}, apiErr.Messages)
	})

	t.Run("long body is cut on a rune boundary", func(t *testing.T) {
		body := "x" + strings.Repeat("é", 400)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, body)
		})

		_, err := client.Myself(context.Background())
		var apiErr *jira.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Len(t, apiErr.Messages, 1)
		msg := apiErr.Messages[0]
		assert.True(t, utf8.ValidString(msg))
		assert.Len(t, msg, 511)
		assert.True(t, strings.HasPrefix(body, msg))
	})
}

func TestClient_Comments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/rest/api/3/issue/SWDEV-3/comment", r.URL.Path)
			assert.Equal(t, "-created", r.URL.Query().Get("orderBy"))
			_, _ = io.WriteString(w, `{"comments": [
				{"id": "2", "author": {"displayName": "Doe, Jane"}, "body": {"type": "doc"}, "created": "2024-03-02T10:00:00.000+0000", "updated": "2024-03-02T10:00:00.000+0000"},
				{"id": "1", "created": "2024-03-01T10:00:00.000+0000"}
			]}`)
		case http.MethodPost:
			var payload struct {
				Body struct {
					Type    string `json:"type"`
					Content []struct {
						Content []struct {
							Text string `json:"text"`
						} `json:"content"`
					} `json:"content"`
				} `json:"body"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "doc", payload.Body.Type)
			require.Len(t, payload.Body.Content, 2)
			assert.Equal(t, "line two", payload.Body.Content[1].Content[0].Text)

			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id": "3", "author": {"displayName": "Bot"}, "created": "2024-03-03T00:00:00.000+0000"}`)
		}
	})

	comments, err := client.GetComments(context.Background(), "SWDEV-3")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Doe, Jane", comments[0].Author)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), comments[0].Created.UTC())
	assert.Empty(t, comments[1].Author)

	created, err := client.AddComment(context.Background(), "SWDEV-3", "line one\n\nline two")
	require.NoError(t, err)
	assert.Equal(t, "3", created.ID)
	assert.Equal(t, "Bot", created.Author)
}

func TestClient_HistoryAndMyself(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/issue/SWDEV-4":
			assert.Equal(t, "changelog", r.URL.Query().Get("expand"))
			_, _ = io.WriteString(w, `{"key": "SWDEV-4", "changelog": {"total": 1, "histories": [{"id": "9"}]}}`)
		case "/rest/api/3/myself":
			_, _ = io.WriteString(w, `{"accountId": "abc", "displayName": "Triage Bot"}`)
		default:
			http.NotFound(w, r)
		}
	})

	history, err := client.GetIssueHistory(context.Background(), "SWDEV-4")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 1, "histories": [{"id": "9"}]}`, string(history))

	me, err := client.Myself(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &domain.TrackerUser{AccountID: "abc", DisplayName: "Triage Bot"}, me)
}
