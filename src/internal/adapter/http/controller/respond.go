package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/backoffice-ledger/src/internal/commons"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(code string) int {
	switch code {
	case domain.ReasonUnauthorized:
		return http.StatusUnauthorized
	case domain.ReasonForbidden:
		return http.StatusForbidden
	case domain.ReasonNotFound, domain.ReasonRecipientNotFound:
		return http.StatusNotFound
	case domain.ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func respondOK[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T, start time.Time) {
	response := commons.SuccessResponse(message, data)
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

// respondError maps err to its reason code and status. Internal failures
// never echo the underlying error to the caller.
func respondError[T any](w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	code := domain.ReasonCode(err)
	status := statusFor(code)

	message := err.Error()
	var details domain.FieldErrors
	if errors.As(err, &details) {
		message = domain.ErrValidation.Error()
	}
	if code == domain.ReasonInternal {
		message = "internal server error"
		logError(r, err, logger.Fields{"code": code})
	} else {
		logRejected(r, code, err)
	}

	response := commons.ErrorResponse[T](code, message, details...)
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// decodeOptionalBody leaves dst untouched when the body is empty.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

// callerID is the authenticated owner. Admins may act for another owner via
// the ownerId query parameter.
func callerID(r *http.Request) (string, error) {
	identity := middleware.IdentityFrom(r.Context())
	if identity.IsAdmin() {
		if target := r.URL.Query().Get("ownerId"); target != "" {
			return target, nil
		}
	}
	if identity.OwnerID == "" {
		return "", fmt.Errorf("%w: %s header is required", domain.ErrUnauthorized, middleware.HeaderOwnerID)
	}
	return identity.OwnerID, nil
}

func handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc, authMiddleware func(http.Handler) http.Handler, adminOnly bool) {
	var h http.Handler = handler
	if adminOnly {
		h = middleware.RequireAdmin(h)
	}
	if authMiddleware != nil {
		h = authMiddleware(h)
	}
	mux.Handle(pattern, h)
}
