package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lorrc/defect-triage/internal/core/domain"
)

// UpdateIssue sends label operations and field values in one PUT. Label
// removals are listed before the add, which Jira applies in order.
func (c *Client) UpdateIssue(ctx context.Context, key string, update domain.IssueUpdate) error {
	req := issueUpdateRequest{Fields: update.Fields}
	if update.Labels != nil {
		ops := make([]labelOp, 0, len(update.Labels.Remove)+1)
		for _, tag := range update.Labels.Remove {
			ops = append(ops, labelOp{Remove: string(tag)})
		}
		if update.Labels.Add != "" {
			ops = append(ops, labelOp{Add: string(update.Labels.Add)})
		}
		req.Update = map[string][]labelOp{"labels": ops}
	}

	if err := c.put(ctx, "/issue/"+url.PathEscape(key), req); err != nil {
		return fmt.Errorf("updating issue %s: %w", key, err)
	}
	return nil
}

// GetIssueHistory returns the issue's changelog object untouched.
func (c *Client) GetIssueHistory(ctx context.Context, key string) (json.RawMessage, error) {
	var payload struct {
		Changelog json.RawMessage `json:"changelog"`
	}
	path := "/issue/" + url.PathEscape(key) + "?expand=changelog&fields=summary"
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("getting history for %s: %w", key, err)
	}
	if len(payload.Changelog) == 0 {
		return json.RawMessage(`{"histories":[]}`), nil
	}
	return payload.Changelog, nil
}

// Myself returns the user the token authenticates as.
func (c *Client) Myself(ctx context.Context) (*domain.TrackerUser, error) {
	var u user
	if err := c.get(ctx, "/myself", &u); err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	id := u.AccountID
	if id == "" {
		id = u.Name
	}
	return &domain.TrackerUser{
		AccountID:   id,
		DisplayName: u.DisplayName,
		Email:       u.EmailAddress,
	}, nil
}
