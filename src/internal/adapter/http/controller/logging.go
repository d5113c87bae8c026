package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
)

// requestFields tags every controller log line with the route and the caller.
func requestFields(r *http.Request) logger.Fields {
	identity := middleware.IdentityFrom(r.Context())
	fields := logger.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if identity.OwnerID != "" {
		fields["ownerId"] = identity.OwnerID
	}
	if identity.Role != "" {
		fields["role"] = identity.Role
	}
	if identity.Channel != "" {
		fields["channel"] = identity.Channel
	}
	return fields
}

func logRequest(r *http.Request, payload any) {
	fields := requestFields(r)
	if r.URL.RawQuery != "" {
		fields["query"] = r.URL.RawQuery
	}
	if payload != nil {
		fields["payload"] = logger.SanitizePayload(payload)
	}
	logger.Info("http request", fields)
}

// logResponse logs client errors at warn so rejected postings stand out from
// normal traffic. Server errors are logged by logError.
func logResponse(r *http.Request, status int, payload any, start time.Time) {
	fields := requestFields(r)
	fields["status"] = status
	fields["durationMs"] = time.Since(start).Milliseconds()
	fields["response"] = logger.SanitizePayload(payload)

	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		logger.Warn("http response", fields)
		return
	}
	logger.Info("http response", fields)
}

func logRejected(r *http.Request, code string, err error) {
	fields := requestFields(r)
	fields["code"] = code
	fields["error"] = err.Error()
	logger.Info("http request rejected", fields)
}

func logError(r *http.Request, err error, extra logger.Fields) {
	fields := requestFields(r)
	for k, v := range extra {
		fields[k] = v
	}
	logger.Error("http handler error", err, fields)
}
