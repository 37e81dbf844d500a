package auth

import (
	"net/http"
	"strings"
	"time"

	"bazaar/infrastructure"
)

type Middleware struct {
	tokens *infrastructure.TokenManager
	users  UserRepository
}

func NewAuthMiddleware(tokens *infrastructure.TokenManager, users UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// RequireAuth validates the bearer token and rejects callers whose
// password has expired. Claims are placed on the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, infrastructure.ErrMissingToken)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			writeError(w, err)
			return
		}

		userID, err := claims.UserUUID()
		if err != nil {
			writeError(w, infrastructure.ErrInvalidToken)
			return
		}

		u, err := m.users.UserByID(r.Context(), userID)
		if err != nil {
			writeError(w, infrastructure.ErrInvalidToken)
			return
		}
		if PasswordExpired(u, time.Now()) {
			writeError(w, infrastructure.ErrPasswordExpired)
			return
		}

		next.ServeHTTP(w, r.WithContext(infrastructure.ContextWithClaims(r.Context(), claims)))
	}
}

// RequireAdmin layers an admin-role check on top of RequireAuth.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := infrastructure.ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin {
			writeError(w, infrastructure.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
