package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/brokerledger/brokerledger/internal/platform/httpx"
)

// Middleware resolves bearer tokens and enforces role checks on routes.
type Middleware struct {
	logger *slog.Logger
	tokens *TokenStore
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(logger *slog.Logger, tokens *TokenStore) Middleware {
	return Middleware{logger: logger, tokens: tokens}
}

// Authenticate resolves the Authorization header into a request identity.
// Requests without a valid token pass through anonymous; Require rejects
// them where a role is needed.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, ok, err := m.tokens.Resolve(r.Context(), token)
		if err != nil {
			m.logger.Error("resolve token", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not resolve credentials")
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}

// Require rejects requests whose identity is missing or whose role is not
// in the allowed set.
func (m Middleware) Require(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
