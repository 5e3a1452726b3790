package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
// Using a package-private type (instead of a bare string) means no other
// package can read or shadow the userID value we stash in the context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes.
//
// It reads the token from the Authorization header ("Bearer <jwt>"), or
// falls back to the "token" cookie set by the browser OAuth flow, validates
// it, and stores the user ID in the request context. Missing or invalid
// tokens end the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the user identity if a valid token is present but
// never blocks the request.
//
// Used on public reads like GET /items: anonymous requests pass straight
// through, and an invalid token simply means "anonymous" rather than 401.
// Handlers detect the difference via UserIDFromContext.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil && userID > 0 {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns (0, false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// extractUserID finds the token on the request and validates it.
//
// The Authorization header wins; the cookie is a fallback so a browser
// session established by the GitHub callback also works on API routes.
func extractUserID(r *http.Request, tokens *TokenService) (int64, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return 0, errMalformedHeader
		}
		return tokens.Validate(strings.TrimSpace(tokenStr))
	}

	cookie, err := r.Cookie("token")
	if err != nil {
		// http.ErrNoCookie — no credential at all, the caller is anonymous
		return 0, err
	}
	return tokens.Validate(cookie.Value)
}

var errMalformedHeader = errors.New(`auth: Authorization header must be in the form "Bearer <token>"`)
