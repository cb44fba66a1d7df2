package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
)

// writeError renders appErr in the same shape the API error handler uses.
func writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}{appErr.Message, appErr.Code})
}
