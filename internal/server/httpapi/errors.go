package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"recvault/internal/common"
	"recvault/internal/server/quota"
)

type errorResponse struct {
	Error string `json:"error"`
}

// quotaExceededResponse carries the plan ceiling and current usage as
// decimal strings so clients can render them without integer overflow.
type quotaExceededResponse struct {
	Error string `json:"error"`
	Limit string `json:"limit"`
	Used  string `json:"used"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

func internalServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func isAuthFailure(err error) bool {
	return errors.Is(err, common.ErrMissingCredential) ||
		errors.Is(err, common.ErrInvalidCredential) ||
		errors.Is(err, common.ErrUnknownAccount) ||
		errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrRefreshTokenExpired)
}

// writeServiceError maps service errors onto the HTTP status taxonomy.
// Everything unrecognized is logged and hidden behind a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var exceeded *quota.ExceededError
	switch {
	case isAuthFailure(err):
		unauthorized(w)
	case errors.As(err, &exceeded):
		writeJSON(w, http.StatusForbidden, quotaExceededResponse{
			Error: "storage limit exceeded",
			Limit: exceeded.Limit.String(),
			Used:  exceeded.Used.String(),
		})
	case errors.Is(err, common.ErrorNotFound):
		notFound(w)
	case errors.Is(err, common.ErrorConflict):
		writeError(w, http.StatusConflict, "already exists")
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		internalServerError(w)
	}
}

// decodeJSON parses a request body into dst. Unknown fields are ignored.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
