package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/service"
)

// Stable error codes returned in the "code" field of error responses.
const (
	codeIdentityUnresolved     = "IDENTITY_UNRESOLVED"
	codeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	codeTenantNotSet           = "TENANT_NOT_SET"
	codeAccessDenied           = "ACCESS_DENIED"
	codeNotFound               = "NOT_FOUND"
	codeConflict               = "CONFLICT"
	codeValidation             = "VALIDATION_FAILED"
	codeTooLarge               = "PAYLOAD_TOO_LARGE"
	codeInternal               = "INTERNAL"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// idParam parses the "id" URL parameter, writing a 400 when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid identifier format")
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeDomainError translates a service error into a status and stable code.
// Not-found responses never say whether the row exists under another tenant.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var denied *authz.DeniedError
	switch {
	case errors.Is(err, domain.ErrIdentityUnresolved):
		writeError(w, http.StatusUnauthorized, codeIdentityUnresolved, "invalid credentials")
	case errors.Is(err, domain.ErrAuthenticationRequired):
		writeError(w, http.StatusUnauthorized, codeAuthenticationRequired, "authentication required")
	case errors.Is(err, domain.ErrTenantNotSet):
		writeError(w, http.StatusBadRequest, codeTenantNotSet, "request has no tenant")
	case errors.As(err, &denied):
		writeError(w, http.StatusForbidden, codeAccessDenied, denied.Message)
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, codeAccessDenied, "forbidden")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, service.ErrTenantInactive):
		writeError(w, http.StatusNotFound, codeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, conflictMessage(err))
	case errors.Is(err, domain.ErrValidation):
		msg := err.Error()
		if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
			msg = msg[i+len(domain.ErrValidation.Error())+2:]
		}
		writeError(w, http.StatusBadRequest, codeValidation, msg)
	default:
		writeInternalError(w, r, err)
	}
}

func conflictMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+domain.ErrConflict.Error()); i > 0 {
		if j := strings.LastIndex(msg[:i], ": "); j >= 0 {
			return msg[j+2 : i]
		}
		return msg[:i]
	}
	return "resource already exists"
}

// writeInternalError logs the actual error server-side and returns a generic message to the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed", "error", err)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}
