package rest

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
)

// ErrorResponse is the wire shape of every error reply.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an error onto its HTTP status and wire shape. AppError
// carries its own status code; anything else is an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	status := errors.GetStatusCode(err)
	body := ErrorResponse{Error: ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "An internal error occurred",
	}}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Error.Code = appErr.Code
		body.Error.Message = appErr.Message
		body.Error.Details = appErr.Details
	}

	writeJSON(w, status, body)
}
