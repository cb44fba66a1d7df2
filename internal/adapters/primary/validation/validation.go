package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
	"github.com/lorrc/defect-triage/internal/core/jql"
)

// Query parameter names shared with the dashboard.
const (
	ParamCategory   = "activeButtonFilter"
	ParamDateWindow = "selectedDateFilter"
	ParamStartDate  = "startDate"
	ParamEndDate    = "endDate"
	ParamAssignee   = "activeAssigneeFilter"
	ParamFields     = "fields"
	ParamStartAt    = "startAt"
	ParamMaxResults = "maxResults"

	// AllAssignees is the assignee filter value meaning no restriction.
	AllAssignees = "all"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v // Empty is handled by Required
	}

	for _, a := range allowed {
		if value == a {
			return v
		}
	}

	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// DecodeAndValidate decodes a JSON request body. Unknown fields and
// trailing data are rejected.
func DecodeAndValidate[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, apperrors.NewBadRequestError(errors.New("trailing data after JSON body"), "Invalid request body")
	}

	return &req, nil
}

// Category values in the order the dashboard shows them.
var categoryValues = []string{
	string(domain.CategoryOngoing),
	string(domain.CategoryTriagePending),
	string(domain.CategoryWaiting),
	string(domain.CategoryDone),
	string(domain.CategoryRejected),
	string(domain.CategoryNotApplicable),
}

var dateWindowValues = []string{
	string(domain.DateWindowNone),
	string(domain.DateWindowLastWeek),
	string(domain.DateWindowLastMonth),
	string(domain.DateWindowRange),
}

// ParseFilterCriteria reads the dashboard filter dimensions from the query
// string. Every value is checked against its closed set; nothing is
// coerced. Whether a range is complete is left to the caller, because the
// summary and list views treat a half-picked range differently.
func ParseFilterCriteria(r *http.Request, directory *jql.Directory) (domain.FilterCriteria, error) {
	q := r.URL.Query()
	v := NewValidator()

	v.OneOf(ParamCategory, q.Get(ParamCategory), categoryValues)
	v.OneOf(ParamDateWindow, q.Get(ParamDateWindow), dateWindowValues)

	category, _ := domain.ParseCategory(q.Get(ParamCategory))

	window, err := domain.ParseDateWindow(q.Get(ParamDateWindow), q.Get(ParamStartDate), q.Get(ParamEndDate))
	if errors.Is(err, domain.ErrInvalidDate) {
		v.Custom("dateRange", false, err.Error())
	}

	assignee := domain.AnyAssignee()
	if key := q.Get(ParamAssignee); key != "" && key != AllAssignees {
		if directory.Has(key) {
			assignee = domain.SpecificPerson(key)
		} else {
			v.Custom(ParamAssignee, false, "Unknown assignee")
		}
	}

	if v.HasErrors() {
		return domain.FilterCriteria{}, v.Errors()
	}

	return domain.FilterCriteria{
		Category:   category,
		DateWindow: window,
		Assignee:   assignee,
	}, nil
}

// ParseOptionalInt reads an integer query parameter. A missing parameter
// yields nil; a malformed one is recorded on v.
func ParseOptionalInt(r *http.Request, key string, v *Validator) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		v.Custom(key, false, "Must be an integer")
		return nil
	}
	return &value
}
