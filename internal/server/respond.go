package server

import (
	"encoding/json"
	"net/http"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	RequestID string      `json:"request_id,omitempty"`
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOr(err, errors.ErrCodeInternal)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", code, "error", err)
	}

	msg := errors.UserMessage(err)
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{RequestID: requestID(r.Context()), Code: code, Message: msg})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidAddress, errors.ErrCodeInvalidTokenID,
		errors.ErrCodeInvalidRequest, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMalformedImage, errors.ErrCodeDimensionMismatch, errors.ErrCodeImagesDiffer:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
