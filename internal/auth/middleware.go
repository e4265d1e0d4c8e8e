package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/selimbh/craftmarket/internal/domain"
)

// Identity is the authenticated actor attached to the request context.
type Identity struct {
	UserID string
	Role   domain.Role
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity. Exposed so tests
// can exercise handlers without minting tokens.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity set by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Middleware authenticates requests from the bearer token in the
// Authorization header.
type Middleware struct {
	issuer *Issuer
}

func NewMiddleware(issuer *Issuer) *Middleware {
	return &Middleware{issuer: issuer}
}

// Require rejects requests without a valid access token with 401 and
// otherwise invokes next with the identity in the request context.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}

		id, err := m.issuer.VerifyAccess(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

// RequireRole additionally restricts the route to the given roles,
// answering 403 for everyone else.
func (m *Middleware) RequireRole(next http.HandlerFunc, roles ...domain.Role) http.HandlerFunc {
	return m.Require(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		for _, role := range roles {
			if id.Role == role {
				next(w, r)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "insufficient role"})
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
