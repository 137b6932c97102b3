package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const emailKey contextKey = "email"

// unauthorizedBody matches the response shape the frontend already handles.
const unauthorizedBody = `{"message":"unauthorized access"}`

// RequireAuth enforces the cookie credential on guarded routes.
//
// It reads the JWT from the "token" HttpOnly cookie, validates it, and stores
// the verified email in the request context. A missing, invalid, or expired
// token ends the request with 401; no identity is established.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := extractEmail(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(unauthorizedBody))
				return
			}

			ctx := context.WithValue(r.Context(), emailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext retrieves the verified email set by RequireAuth.
// Returns ("", false) on routes the guard did not run on.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

// extractEmail reads the token cookie and validates it.
func extractEmail(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
