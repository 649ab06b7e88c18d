package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with full technical detail and the chi request ID
// for correlation, then returned to the client as a sanitized JSON body
// with a stable machine-readable code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/oracle"
)

// ErrSessionNotFound indicates the requested session does not exist or has
// expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrorResponse is the JSON body for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError logs the technical error and writes the sanitized JSON
// response. The status and code are derived from the error class.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classifyError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: code})
}

// classifyError maps an error to HTTP status, machine code, and a client
// message. Internal detail never leaks to the client.
func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format",
			"unsupported file format; accepted: csv, xlsx, xls, pdf"
	case errors.Is(err, extract.ErrParse):
		return http.StatusBadRequest, "parse_error",
			"the file could not be parsed as a catalog"
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found",
			"session not found or expired"
	case errors.Is(err, oracle.ErrGeneration):
		return http.StatusBadGateway, "inference_unavailable",
			"catalog inference is temporarily unavailable"
	}
	return http.StatusInternalServerError, "internal", "internal server error"
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
