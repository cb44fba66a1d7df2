package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/lorrc/defect-triage/internal/core/ports"
)

// Search runs a JQL query. A MaxResults of zero returns only the total.
// A response without a total is reported as zero.
func (c *Client) Search(ctx context.Context, jql string, opts ports.SearchOptions) (*domain.SearchResult, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", strconv.Itoa(opts.MaxResults))
	params.Set("startAt", strconv.Itoa(opts.StartAt))
	params.Set("validateQuery", "strict")
	if opts.Fields != "" {
		params.Set("fields", opts.Fields)
	} else if opts.MaxResults > 0 {
		params.Set("fields", domain.DefaultSearchFields)
	}

	var resp searchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}

	result := &domain.SearchResult{
		StartAt:    resp.StartAt,
		MaxResults: resp.MaxResults,
		Tickets:    make([]domain.Ticket, 0, len(resp.Issues)),
	}
	if resp.Total != nil {
		result.Total = *resp.Total
	}

	for _, is := range resp.Issues {
		t := domain.Ticket{
			ID:     is.ID,
			Key:    is.Key,
			Fields: is.Fields,
		}
		if len(is.Fields) > 0 {
			var tf triageFields
			if err := json.Unmarshal(is.Fields, &tf); err == nil {
				t.Labels = tf.Labels
				if tf.Priority != nil {
					t.Priority = tf.Priority.Name
				}
			}
		}
		result.Tickets = append(result.Tickets, t)
	}
	return result, nil
}
