package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/folio/internal/logfields"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", logfields.Error(err))
	}
}

// errResponse is the body of every non-2xx response. Kind and Slug are set
// for per-document content failures.
type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
