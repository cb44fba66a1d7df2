package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventTriageStateChanged EventType = "TRIAGE_STATE_CHANGED"
	EventCommentAdded       EventType = "COMMENT_ADDED"
	EventFieldUpdated       EventType = "FIELD_UPDATED"
	EventLabelAdded         EventType = "LABEL_ADDED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	TicketKey string    `json:"ticketKey"` // Used for routing to ticket "rooms"
}

// TriageStateChangedPayload tells dashboards which ticket moved and where.
type TriageStateChangedPayload struct {
	TicketKey string      `json:"ticketKey"`
	State     TriageState `json:"state"`
	Removed   []Tag       `json:"removed"`
	Added     Tag         `json:"added"`
	ChangedBy string      `json:"changedBy,omitempty"`
}

type CommentAddedPayload struct {
	TicketKey string  `json:"ticketKey"`
	Comment   Comment `json:"comment"`
}

type FieldUpdatedPayload struct {
	TicketKey string `json:"ticketKey"`
	FieldID   string `json:"fieldId"`
}

type LabelAddedPayload struct {
	TicketKey string `json:"ticketKey"`
	Label     string `json:"label"`
	AddedBy   string `json:"addedBy,omitempty"`
}
