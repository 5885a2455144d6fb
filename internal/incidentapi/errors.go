package incidentapi

import (
	"errors"
	"net/http"

	"github.com/linnemanlabs/warden/internal/analysis"
	"github.com/linnemanlabs/warden/internal/incident"
)

// errorMapping maps a domain error to an HTTP response. Entries are checked
// in order with errors.Is.
var errorMapping = []struct {
	err     error
	status  int
	message string
}{
	{incident.ErrNotFound, http.StatusNotFound, "Incident not found"},
	{incident.ErrInvalidTransition, http.StatusConflict, "invalid status transition"},
	{incident.ErrNotExecutable, http.StatusConflict, "incident action cannot be executed"},
	{incident.ErrSchemaViolation, http.StatusBadRequest, "invalid request"},
}

type errorBody struct {
	Message string                    `json:"message,omitempty"`
	Error   string                    `json:"error,omitempty"`
	Fields  []analysis.FieldViolation `json:"fields,omitempty"`
}

// writeError renders err using errorMapping. Unmapped errors become a 500
// with a generic message; the caller logs them.
func writeError(w http.ResponseWriter, err error) int {
	for _, m := range errorMapping {
		if !errors.Is(err, m.err) {
			continue
		}
		body := errorBody{Message: m.message}
		var sv *analysis.SchemaViolationError
		if errors.As(err, &sv) {
			body.Fields = sv.Fields
		}
		writeJSON(w, m.status, body)
		return m.status
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
	return http.StatusInternalServerError
}
