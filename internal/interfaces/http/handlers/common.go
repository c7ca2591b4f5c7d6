// Package handlers implements the HTTP handlers of the descriptor API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/turtacn/MolDescriptor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolDescriptor/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps err to its HTTP status through the error code table.
// Server-side failures are logged and masked.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	status := errors.HTTPStatus(err)
	resp := ErrorResponse{Code: string(errors.GetCode(err)), Message: err.Error()}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logging.Err(err))
		if status == http.StatusInternalServerError {
			resp = ErrorResponse{Code: string(errors.ErrCodeInternal), Message: "internal server error"}
		}
	}
	writeJSON(w, status, resp)
}

// decodeJSON decodes the request body into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Newf(errors.ErrCodeValidation, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body")
	}
	return nil
}

// queryInt reads a positive integer query parameter, returning def when it
// is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.Newf(errors.ErrCodeValidation, "%s must be a positive integer", name)
	}
	return n, nil
}

//Personal.AI order the ending
