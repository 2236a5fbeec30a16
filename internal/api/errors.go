package api

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/yourorg/zkvc/pkg/domain-errors"
)

type errorResponse struct {
	Error       dErrors.Code `json:"error"`
	Description string       `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are out; an encoding failure can no longer change the status
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates a domain error into a response. Errors without a
// code are reported as internal without their message.
func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, StatusFor(dErrors.CodeOf(err)), err)
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: dErrors.CodeInternal})
		return
	}
	writeJSON(w, status, errorResponse{Error: de.Code, Description: de.Message})
}

// StatusFor maps a domain code onto an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInputMissing, dErrors.CodeInvalidInput, dErrors.CodeTokenMalformed:
		return http.StatusBadRequest
	case dErrors.CodeSignatureInvalid, dErrors.CodeFieldNotFound, dErrors.CodeFieldNotNumeric, dErrors.CodePredicateRejected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeIdentityMismatch, dErrors.CodeUntrustedIssuer:
		return http.StatusUnauthorized
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeMalformedCommitment, dErrors.CodeProvingFailed, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
