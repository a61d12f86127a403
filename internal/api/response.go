package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/caseflow-dev/caseflow/internal/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error *errors.FlowError `json:"error"`
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// writeError maps a FlowError to its HTTP status; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	fe := errors.AsFlowError(err)
	if fe == nil {
		fe = errors.Wrap(err, "internal error")
	}
	writeJSON(w, fe.HTTPStatus(), errorBody{Error: fe})
}
