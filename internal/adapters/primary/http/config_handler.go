package http

import (
	"net/http"
)

// ConfigResponse is the client-side configuration the dashboard loads at
// startup.
type ConfigResponse struct {
	JiraBaseURL string `json:"jiraBaseUrl"`
}

// ConfigHandler serves non-secret settings to the dashboard.
type ConfigHandler struct {
	response ConfigResponse
}

// NewConfigHandler creates a ConfigHandler. baseURL is used to build
// links into the tracker; it never carries credentials.
func NewConfigHandler(baseURL string) *ConfigHandler {
	return &ConfigHandler{response: ConfigResponse{JiraBaseURL: baseURL}}
}

// HandleConfig handles GET /config.
func (h *ConfigHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.response)
}
