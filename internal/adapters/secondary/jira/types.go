package jira

import (
	"encoding/json"
	"strings"
	"time"
)

type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      *int    `json:"total"`
	Issues     []issue `json:"issues"`
}

type issue struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Fields json.RawMessage `json:"fields"`
}

// triageFields pulls labels and priority out of an otherwise opaque
// fields object.
type triageFields struct {
	Labels   []string `json:"labels"`
	Priority *struct {
		Name string `json:"name"`
	} `json:"priority"`
}

type user struct {
	AccountID    string `json:"accountId"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type comment struct {
	ID      string          `json:"id"`
	Author  *user           `json:"author"`
	Body    json.RawMessage `json:"body"`
	Created timestamp       `json:"created"`
	Updated timestamp       `json:"updated"`
}

type commentPage struct {
	Comments []comment `json:"comments"`
}

// timestamp decodes Jira's 2024-01-02T15:04:05.000+0000 format.
type timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02T15:04:05.000-0700"

func (t *timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// labelOp is one entry of an update.labels array.
type labelOp struct {
	Add    string `json:"add,omitempty"`
	Remove string `json:"remove,omitempty"`
}

type issueUpdateRequest struct {
	Update map[string][]labelOp `json:"update,omitempty"`
	Fields map[string]any       `json:"fields,omitempty"`
}

// adfDoc is the minimal Atlassian Document Format used for comment bodies.
type adfDoc struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

// plainTextDoc turns text into one paragraph per non-blank line.
func plainTextDoc(text string) adfDoc {
	doc := adfDoc{Type: "doc", Version: 1}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.Content = append(doc.Content, adfNode{
			Type:    "paragraph",
			Content: []adfNode{{Type: "text", Text: line}},
		})
	}
	return doc
}
