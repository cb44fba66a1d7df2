package domain

import (
	"errors"
	"time"
)

// Category selects which slice of the defect backlog a view shows.
type Category string

const (
	CategoryOngoing       Category = "ongoing"
	CategoryTriagePending Category = "triagePending"
	CategoryWaiting       Category = "waiting"
	CategoryDone          Category = "done"
	CategoryRejected      Category = "rejected"
	CategoryNotApplicable Category = "nri"
)

// DateWindowKind bounds a view by last-updated time.
type DateWindowKind string

const (
	DateWindowNone      DateWindowKind = "all"
	DateWindowLastWeek  DateWindowKind = "week"
	DateWindowLastMonth DateWindowKind = "month"
	DateWindowRange     DateWindowKind = "range"
)

// DateLayout is the calendar-date format accepted for explicit ranges.
const DateLayout = "2006-01-02"

var (
	ErrInvalidCategory   = errors.New("invalid filter category")
	ErrInvalidDateWindow = errors.New("invalid date window")
	ErrInvalidDate       = errors.New("date must be formatted as YYYY-MM-DD")
)

// DateWindow is a last-updated bound. Start and End are only meaningful for
// DateWindowRange; either may be empty while the user is still picking.
type DateWindow struct {
	Kind  DateWindowKind
	Start string
	End   string
}

// Complete reports whether a range window has both bounds.
func (w DateWindow) Complete() bool {
	if w.Kind != DateWindowRange {
		return true
	}
	return w.Start != "" && w.End != ""
}

// AssigneeSelector restricts a view to one person. The zero value matches
// any assignee; Key refers to an entry in the assignee directory.
type AssigneeSelector struct {
	Key string
}

func AnyAssignee() AssigneeSelector { return AssigneeSelector{} }

func SpecificPerson(key string) AssigneeSelector { return AssigneeSelector{Key: key} }

func (a AssigneeSelector) IsAny() bool { return a.Key == "" }

// FilterCriteria is the full set of dashboard filters for one request.
type FilterCriteria struct {
	Category   Category
	DateWindow DateWindow
	Assignee   AssigneeSelector
}

// IgnoresScope reports whether the category is an inbox view that does not
// apply date and assignee filters.
func (c Category) IgnoresScope() bool {
	switch c {
	case CategoryTriagePending, CategoryWaiting, CategoryNotApplicable:
		return true
	}
	return false
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryOngoing, CategoryTriagePending, CategoryWaiting,
		CategoryDone, CategoryRejected, CategoryNotApplicable:
		return true
	}
	return false
}

// ParseCategory maps a wire value to a Category. An empty value selects
// the ongoing view.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOngoing, nil
	}
	c := Category(s)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// ParseDateWindow builds a DateWindow from wire values. An empty kind means
// no bound. Dates are checked for format only; completeness and ordering
// are checked when a query is built.
func ParseDateWindow(kind, start, end string) (DateWindow, error) {
	switch DateWindowKind(kind) {
	case "", DateWindowNone:
		return DateWindow{Kind: DateWindowNone}, nil
	case DateWindowLastWeek, DateWindowLastMonth:
		return DateWindow{Kind: DateWindowKind(kind)}, nil
	case DateWindowRange:
		for _, d := range []string{start, end} {
			if d == "" {
				continue
			}
			if _, err := time.Parse(DateLayout, d); err != nil {
				return DateWindow{}, ErrInvalidDate
			}
		}
		return DateWindow{Kind: DateWindowRange, Start: start, End: end}, nil
	default:
		return DateWindow{}, ErrInvalidDateWindow
	}
}
