package domain

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
)

// DefaultSearchFields is the field set fetched for list views.
const DefaultSearchFields = "summary,status,issuetype,priority,created,updated,assignee,labels"

var ErrInvalidTicketKey = errors.New("ticket key must look like PROJECT-123")

var ticketKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[1-9][0-9]*$`)

// ValidateTicketKey checks key against the tracker's PROJECT-123 shape.
func ValidateTicketKey(key string) error {
	if !ticketKeyPattern.MatchString(key) {
		return ErrInvalidTicketKey
	}
	return nil
}

// Ticket is a transient copy of a tracker issue. Fields is passed through
// to the dashboard untouched.
type Ticket struct {
	ID          string          `json:"id"`
	Key         string          `json:"key"`
	Fields      json.RawMessage `json:"fields"`
	Labels      []string        `json:"-"`
	Priority    string          `json:"-"`
	TriageState TriageState     `json:"triageState"`

	PriorityCategory PriorityCategory `json:"priorityCategory"`
}

// SearchResult is one page of tickets. Total counts every match, not just
// the page.
type SearchResult struct {
	Total      int      `json:"total"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Tickets    []Ticket `json:"issues"`
}

// Comment is a tracker comment. Body is the tracker's document format.
type Comment struct {
	ID      string          `json:"id"`
	Author  string          `json:"author"`
	Body    json.RawMessage `json:"body"`
	Created time.Time       `json:"created"`
	Updated time.Time       `json:"updated"`
}

// IssueUpdate is a single tracker write. Labels and Fields travel in the
// same request.
type IssueUpdate struct {
	Labels *LabelMutation
	Fields map[string]any
}

// TrackerUser is the identity the service authenticates to the tracker as.
type TrackerUser struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"emailAddress,omitempty"`
}

// PriorityCategory buckets tracker priority names for display.
type PriorityCategory string

const (
	PriorityP1    PriorityCategory = "P1"
	PriorityP2    PriorityCategory = "P2"
	PriorityOther PriorityCategory = "Other"
)

// P1PriorityName is the tracker priority counted by the active P1 metric.
const P1PriorityName = "P1-Gating"

// CategorizePriority groups a priority name into the P1, P2 and other
// sections of the dashboard.
func CategorizePriority(name string) PriorityCategory {
	switch {
	case strings.HasPrefix(name, "P1"):
		return PriorityP1
	case strings.HasPrefix(name, "P2"):
		return PriorityP2
	default:
		return PriorityOther
	}
}
