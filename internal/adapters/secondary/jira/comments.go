package jira

import (
	"context"
	"fmt"
	"net/url"

	"github.com/lorrc/defect-triage/internal/core/domain"
)

// GetComments lists an issue's comments, newest first.
func (c *Client) GetComments(ctx context.Context, key string) ([]domain.Comment, error) {
	var page commentPage
	path := "/issue/" + url.PathEscape(key) + "/comment?orderBy=-created"
	if err := c.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("listing comments for %s: %w", key, err)
	}

	out := make([]domain.Comment, 0, len(page.Comments))
	for _, cm := range page.Comments {
		out = append(out, toDomainComment(cm))
	}
	return out, nil
}

// AddComment posts body as a plain-text comment.
func (c *Client) AddComment(ctx context.Context, key, body string) (*domain.Comment, error) {
	var created comment
	path := "/issue/" + url.PathEscape(key) + "/comment"
	req := map[string]any{"body": plainTextDoc(body)}
	if err := c.post(ctx, path, req, &created); err != nil {
		return nil, fmt.Errorf("adding comment to %s: %w", key, err)
	}
	dc := toDomainComment(created)
	return &dc, nil
}

func toDomainComment(cm comment) domain.Comment {
	out := domain.Comment{
		ID:      cm.ID,
		Body:    cm.Body,
		Created: cm.Created.Time,
		Updated: cm.Updated.Time,
	}
	if cm.Author != nil {
		out.Author = cm.Author.DisplayName
	}
	return out
}
