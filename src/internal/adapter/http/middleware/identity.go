package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/api-sage/backoffice-ledger/src/internal/logger"
)

const (
	HeaderOwnerID = "X-Owner-ID"
	HeaderRole    = "X-Role"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Identity is the caller as asserted by the channel in front of the API.
type Identity struct {
	OwnerID string
	Role    Role
	Channel string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin || i.Role == RoleSuperAdmin
}

type identityKey struct{}

// WithIdentity reads the identity headers into the request context. A
// missing role means a plain user.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderRole))))
		if role == "" {
			role = RoleUser
		}
		switch role {
		case RoleUser, RoleAdmin, RoleSuperAdmin:
		default:
			fields := requestFields(r)
			fields["role"] = role
			logger.Info("identity middleware unknown role", fields)
			http.Error(w, "unknown role", http.StatusForbidden)
			return
		}

		identity := Identity{
			OwnerID: strings.TrimSpace(r.Header.Get(HeaderOwnerID)),
			Role:    role,
			Channel: ChannelFrom(r.Context()),
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireAdmin refuses callers without an admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if !identity.IsAdmin() {
			fields := requestFields(r)
			fields["ownerId"] = identity.OwnerID
			fields["role"] = identity.Role
			logger.Info("admin route refused", fields)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFrom(ctx context.Context) Identity {
	identity, _ := ctx.Value(identityKey{}).(Identity)
	return identity
}
