package jql

import (
	"errors"
	"fmt"

	"github.com/lorrc/defect-triage/internal/core/domain"
)

const orderByUpdated = " ORDER BY updated DESC"

var (
	ErrIncompleteDateRange = errors.New("date range needs both start and end")
	ErrInvalidDateRange    = errors.New("date range start is after end")
)

const (
	fieldIssueType = "issuetype"
	fieldLabels    = "labels"
	fieldStatus    = "status"
	fieldAssignee  = "assignee"
	fieldUpdated   = "updated"
	fieldPriority  = "priority"

	issueTypeDefect = "Defect"
)

// Builder turns filter criteria into predicates. It holds no per-request
// state and is safe for concurrent use.
type Builder struct {
	directory *Directory
}

func NewBuilder(directory *Directory) *Builder {
	return &Builder{directory: directory}
}

// Build returns the predicate for c. Extra terms are ANDed after the
// category predicate and before assignee and date scoping.
func (b *Builder) Build(c domain.FilterCriteria, extra ...Expr) (Expr, error) {
	category, err := categoryPredicate(c.Category)
	if err != nil {
		return nil, err
	}

	expr := And{Eq(fieldIssueType, issueTypeDefect)}
	expr = appendTerm(expr, category)
	expr = append(expr, extra...)

	if c.Category.IgnoresScope() {
		return expr, nil
	}

	if !c.Assignee.IsAny() {
		identity, err := b.directory.Resolve(c.Assignee.Key)
		if err != nil {
			return nil, err
		}
		expr = append(expr, Eq(fieldAssignee, identity))
	}

	window, err := datePredicate(c.DateWindow)
	if err != nil {
		return nil, err
	}
	if window != nil {
		expr = appendTerm(expr, window)
	}
	return expr, nil
}

// ListQuery renders the predicate for c with list ordering.
func (b *Builder) ListQuery(c domain.FilterCriteria) (string, error) {
	expr, err := b.Build(c)
	if err != nil {
		return "", err
	}
	return String(expr) + orderByUpdated, nil
}

// CountQuery renders the predicate for c without ordering.
func (b *Builder) CountQuery(c domain.FilterCriteria, extra ...Expr) (string, error) {
	expr, err := b.Build(c, extra...)
	if err != nil {
		return "", err
	}
	return String(expr), nil
}

// PriorityIs restricts a predicate to one tracker priority.
func PriorityIs(name string) Expr {
	return Eq(fieldPriority, name)
}

// appendTerm flattens nested And terms so the serialised form has no
// redundant grouping.
func appendTerm(expr And, term Expr) And {
	if inner, ok := term.(And); ok {
		return append(expr, inner...)
	}
	return append(expr, term)
}

func tagValues(tags ...domain.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// activeTags are the tags a defect carries while it is being worked.
var activeTags = tagValues(
	domain.TagCompleted,
	domain.TagPending,
	domain.TagNeedMoreInfo,
	domain.TagRejected,
)

// doneTags are the active tags plus NRI.
var doneTags = tagValues(
	domain.TagCompleted,
	domain.TagPending,
	domain.TagNeedMoreInfo,
	domain.TagRejected,
	domain.TagNotApplicable,
)

func categoryPredicate(c domain.Category) (Expr, error) {
	switch c {
	case domain.CategoryTriagePending:
		return Eq(fieldLabels, string(domain.TagPending)), nil
	case domain.CategoryWaiting:
		return Eq(fieldLabels, string(domain.TagNeedMoreInfo)), nil
	case domain.CategoryNotApplicable:
		return Eq(fieldLabels, string(domain.TagNotApplicable)), nil
	case domain.CategoryOngoing:
		return And{
			In(fieldLabels, activeTags...),
			In(fieldStatus, "Opened", "Assessed", "Analyzed"),
		}, nil
	case domain.CategoryDone:
		return And{
			In(fieldLabels, doneTags...),
			In(fieldStatus, "Implemented", "Closed"),
		}, nil
	case domain.CategoryRejected:
		return Or{
			Eq(fieldLabels, string(domain.TagRejected)),
			And{
				In(fieldLabels, activeTags...),
				Eq(fieldStatus, "Rejected"),
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, c)
	}
}

func datePredicate(w domain.DateWindow) (Expr, error) {
	switch w.Kind {
	case "", domain.DateWindowNone:
		return nil, nil
	case domain.DateWindowLastWeek:
		return relative(fieldUpdated, OpGte, "-7d"), nil
	case domain.DateWindowLastMonth:
		return relative(fieldUpdated, OpGte, "-30d"), nil
	case domain.DateWindowRange:
		if !w.Complete() {
			return nil, ErrIncompleteDateRange
		}
		// YYYY-MM-DD compares correctly as a string.
		if w.Start > w.End {
			return nil, ErrInvalidDateRange
		}
		return And{
			Clause{Field: fieldUpdated, Op: OpGte, Values: []Value{{Text: w.Start}}},
			Clause{Field: fieldUpdated, Op: OpLte, Values: []Value{{Text: w.End}}},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDateWindow, w.Kind)
	}
}
