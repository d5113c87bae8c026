package router

import (
	"net/http"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
)

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler)
}

// New mounts every controller behind channel basic auth followed by the
// identity headers. Swagger stays public.
func New(channelID string, channelKey string, controllers ...RouteRegistrar) *http.ServeMux {
	mux := http.NewServeMux()
	registerSwaggerRoutes(mux)

	basicAuth := middleware.BasicAuth(channelID, channelKey)
	authMiddleware := func(next http.Handler) http.Handler {
		return basicAuth(middleware.WithIdentity(next))
	}

	for _, controller := range controllers {
		if controller != nil {
			controller.RegisterRoutes(mux, authMiddleware)
		}
	}

	return mux
}
