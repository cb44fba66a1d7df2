package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Domain errors - these represent business rule violations
var (
	// Authentication
	ErrUnauthorized = errors.New("unauthorized")

	// Ticket validation
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrFieldNotEditable = errors.New("field is not editable from the dashboard")
	ErrInvalidPaging    = errors.New("paging parameters out of range")
	ErrInvalidFields    = errors.New("invalid field list")
	ErrInvalidLabel     = errors.New("label must be 1-255 characters without spaces")
	ErrReservedLabel    = errors.New("triage labels can only be set through a state change")

	// Comment validation
	ErrCommentBodyRequired = errors.New("comment body is required")
	ErrCommentBodyTooLong  = errors.New("comment body exceeds maximum length")

	// Tracker
	ErrTrackerFailure  = errors.New("issue tracker request failed")
	ErrAggregateFailed = errors.New("summary aggregation failed")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// TrackerFailure is implemented by tracker client errors that carry the
// upstream HTTP status and messages.
type TrackerFailure interface {
	error
	TrackerStatus() int
	TrackerMessages() []string
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: http.StatusBadRequest,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: http.StatusUnauthorized,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: http.StatusNotFound,
	}
}

// NewValidationError reports a single offending field.
func NewValidationError(err error, field string) *AppError {
	return &AppError{
		Err:        err,
		Message:    err.Error(),
		Code:       "VALIDATION_ERROR",
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]interface{}{"field": field},
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %w", ErrInternal, err),
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: http.StatusInternalServerError,
	}
}

// NewUpstreamError wraps a failed tracker call. The tracker's own status
// decides whether the caller sees a 400, 404 or 502.
func NewUpstreamError(op string, err error) *AppError {
	appErr := &AppError{
		Err:        fmt.Errorf("%w: %s: %w", ErrTrackerFailure, op, err),
		Message:    "The issue tracker could not complete the request",
		Code:       "TRACKER_ERROR",
		StatusCode: http.StatusBadGateway,
		Details:    map[string]interface{}{"operation": op},
	}

	var tf TrackerFailure
	if !errors.As(err, &tf) {
		return appErr
	}
	if msgs := tf.TrackerMessages(); len(msgs) > 0 {
		appErr.Details["tracker"] = msgs
	}
	switch tf.TrackerStatus() {
	case http.StatusNotFound:
		appErr.Err = fmt.Errorf("%w: %w", ErrTicketNotFound, appErr.Err)
		appErr.Message = "Ticket not found in the issue tracker"
		appErr.Code = "TICKET_NOT_FOUND"
		appErr.StatusCode = http.StatusNotFound
	case http.StatusBadRequest:
		appErr.Message = "The issue tracker rejected the request"
		appErr.Code = "TRACKER_REJECTED"
		appErr.StatusCode = http.StatusBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		appErr.Message = "The issue tracker refused the configured credentials"
		appErr.Code = "TRACKER_UNAUTHORIZED"
	}
	return appErr
}

// NewAggregateError reports a summary that could not be completed. failed
// maps each metric name to the error that sank it. Tracker messages are
// kept per metric under Details["tracker"].
func NewAggregateError(failed map[string]error) *AppError {
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := []error{ErrAggregateFailed}
	tracker := make(map[string][]string)
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, failed[name]))

		var tf TrackerFailure
		if errors.As(failed[name], &tf) {
			if msgs := tf.TrackerMessages(); len(msgs) > 0 {
				tracker[name] = msgs
			}
		}
	}

	details := map[string]interface{}{"failedMetrics": names}
	if len(tracker) > 0 {
		details["tracker"] = tracker
	}

	return &AppError{
		Err:        errors.Join(errs...),
		Message:    "Dashboard summary is unavailable",
		Code:       "SUMMARY_FAILED",
		StatusCode: http.StatusBadGateway,
		Details:    details,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
