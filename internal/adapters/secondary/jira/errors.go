package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

// maxErrorText bounds how much of an unstructured error body is kept.
const maxErrorText = 512

// APIError represents a non-2xx response from Jira. Jira reports general
// problems in errorMessages and field problems in errors.
type APIError struct {
	StatusCode int
	Messages   []string
	Errors     map[string]string
}

func (err *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "jira: HTTP %d", err.StatusCode)
	for _, m := range err.Messages {
		fmt.Fprintf(&b, ": %s", m)
	}
	for _, field := range err.sortedFields() {
		fmt.Fprintf(&b, "; %s: %s", field, err.Errors[field])
	}
	return b.String()
}

// TrackerStatus returns the HTTP status Jira answered with.
func (err *APIError) TrackerStatus() int {
	return err.StatusCode
}

// TrackerMessages flattens general and field messages for display.
func (err *APIError) TrackerMessages() []string {
	out := make([]string, 0, len(err.Messages)+len(err.Errors))
	out = append(out, err.Messages...)
	for _, field := range err.sortedFields() {
		out = append(out, field+": "+err.Errors[field])
	}
	return out
}

func (err *APIError) sortedFields() []string {
	fields := make([]string, 0, len(err.Errors))
	for f := range err.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Messages = payload.ErrorMessages
		apiErr.Errors = payload.Errors
	}
	if len(apiErr.Messages) == 0 && len(apiErr.Errors) == 0 {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorText {
			cut := maxErrorText
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		if text == "" {
			text = http.StatusText(status)
		}
		apiErr.Messages = []string{text}
	}
	return apiErr
}
