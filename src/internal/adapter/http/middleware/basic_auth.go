package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/api-sage/backoffice-ledger/src/internal/logger"
)

const basicAuthRealm = `Basic realm="backoffice-ledger"`

type channelCtxKey struct{}

// BasicAuth admits requests from the back-office channel. Identity headers
// are trusted only behind it.
func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	configured := channelID != "" && channelKey != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !configured {
				logger.Error("channel credentials are not configured", nil, requestFields(r))
				http.Error(w, "server auth configuration is missing", http.StatusInternalServerError)
				return
			}

			id, key, ok := r.BasicAuth()
			if !ok || !channelMatches(id, key, channelID, channelKey) {
				fields := requestFields(r)
				fields["credentials"] = "mismatch"
				if !ok {
					fields["credentials"] = "missing"
				}
				logger.Warn("channel authentication refused", fields)
				w.Header().Set("WWW-Authenticate", basicAuthRealm)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), channelCtxKey{}, id)))
		})
	}
}

// ChannelFrom returns the authenticated channel id, or "" outside BasicAuth.
func ChannelFrom(ctx context.Context) string {
	channel, _ := ctx.Value(channelCtxKey{}).(string)
	return channel
}

// channelMatches checks both halves so the timing does not reveal which one
// was wrong.
func channelMatches(id, key, wantID, wantKey string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(wantID))
	keyOK := subtle.ConstantTimeCompare([]byte(key), []byte(wantKey))
	return idOK&keyOK == 1
}

func requestFields(r *http.Request) logger.Fields {
	return logger.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
}
