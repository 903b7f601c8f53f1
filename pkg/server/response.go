package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"mercator-hq/rhythm/pkg/telemetry/logging"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		RequestID: logging.GetRequestID(r.Context()),
	})
}

func sortVIPs(vips []VIPResponse) {
	slices.SortFunc(vips, func(a, b VIPResponse) int {
		return strings.Compare(a.Key, b.Key)
	})
}
