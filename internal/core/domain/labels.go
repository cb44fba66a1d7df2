package domain

import "errors"

// Tag is a tracker label that encodes a triage state.
type Tag string

const (
	TagPending       Tag = "RCCL_TRIAGE_PENDING"
	TagCompleted     Tag = "RCCL_TRIAGE_COMPLETED"
	TagNeedMoreInfo  Tag = "RCCL_TRIAGE_NEED_MORE_INFO"
	TagRejected      Tag = "RCCL_TRIAGE_REJECTED"
	TagNotApplicable Tag = "RCCL_TRIAGE_NRI"
)

// TriageState is the workflow position of a defect as seen by the dashboard.
type TriageState string

const (
	StatePending       TriageState = "pending"
	StateCompleted     TriageState = "completed"
	StateNeedMoreInfo  TriageState = "moreInfo"
	StateRejected      TriageState = "rejected"
	StateNotApplicable TriageState = "nri"

	// StateUnknown is reported for tickets that carry no triage tag. It is
	// never a valid mutation target.
	StateUnknown TriageState = "unknown"
)

var ErrInvalidTargetState = errors.New("invalid target triage state")

// allTags is the full vocabulary in sweep order.
var allTags = []Tag{
	TagPending,
	TagCompleted,
	TagNeedMoreInfo,
	TagRejected,
	TagNotApplicable,
}

var tagByState = map[TriageState]Tag{
	StatePending:       TagPending,
	StateCompleted:     TagCompleted,
	StateNeedMoreInfo:  TagNeedMoreInfo,
	StateRejected:      TagRejected,
	StateNotApplicable: TagNotApplicable,
}

// displayPrecedence decides which state wins when a ticket carries several
// tags, e.g. after a manual edit in the tracker.
var displayPrecedence = []TriageState{
	StateNotApplicable,
	StatePending,
	StateCompleted,
	StateNeedMoreInfo,
	StateRejected,
}

// AllTags returns a copy of the triage vocabulary.
func AllTags() []Tag {
	tags := make([]Tag, len(allTags))
	copy(tags, allTags)
	return tags
}

// IsValid reports whether s is a state a ticket can be moved into.
func (s TriageState) IsValid() bool {
	_, ok := tagByState[s]
	return ok
}

// ParseTriageState maps a wire name to a mutation-eligible state.
func ParseTriageState(s string) (TriageState, error) {
	state := TriageState(s)
	if !state.IsValid() {
		return "", ErrInvalidTargetState
	}
	return state, nil
}

// TagFor returns the label encoding state.
func TagFor(state TriageState) (Tag, error) {
	tag, ok := tagByState[state]
	if !ok {
		return "", ErrInvalidTargetState
	}
	return tag, nil
}

// StateFor derives the displayed triage state from a ticket's labels.
func StateFor(labels []string) TriageState {
	present := make(map[Tag]bool, len(labels))
	for _, l := range labels {
		present[Tag(l)] = true
	}
	for _, state := range displayPrecedence {
		if present[tagByState[state]] {
			return state
		}
	}
	return StateUnknown
}

// IsTriageTag reports whether tag belongs to the triage vocabulary.
func IsTriageTag(tag Tag) bool {
	for _, t := range allTags {
		if t == tag {
			return true
		}
	}
	return false
}
