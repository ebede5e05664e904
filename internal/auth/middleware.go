// Package auth provides bearer-token authentication middleware for the
// notes-api server.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kuitang/notes-api/internal/identity"
	"github.com/kuitang/notes-api/internal/obs"
)

// Context keys for auth data.
type contextKey string

const (
	userIDKey contextKey = "userID"
	emailKey  contextKey = "email"
)

// Middleware authenticates requests against the identity provider.
type Middleware struct {
	verifier identity.Verifier
	devMode  bool
}

// NewMiddleware creates auth middleware over the given verifier. devMode
// controls whether provider failures expose their real message in the body.
func NewMiddleware(verifier identity.Verifier, devMode bool) *Middleware {
	return &Middleware{verifier: verifier, devMode: devMode}
}

// RequireAuth verifies the Authorization bearer token on every request and
// attaches the resolved identity to the request context.
//
// A missing token and a provider-rejected token both return 401 (with
// distinct messages); a provider transport failure is an unexpected error
// and returns 500 with the message redacted outside development mode.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		// Token resolution runs to completion even if the client goes away.
		ident, err := m.verifier.Verify(context.WithoutCancel(r.Context()), token)
		if err != nil {
			if errors.Is(err, identity.ErrMissingToken) {
				writeAuthError(w, http.StatusUnauthorized, "Missing token")
				return
			}
			if errors.Is(err, identity.ErrInvalidToken) {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			obs.From(r.Context()).Error("token verification failed", "err", err)
			msg := "Internal Server Error"
			if m.devMode {
				msg = err.Error()
			}
			writeAuthError(w, http.StatusInternalServerError, msg)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, ident.UserID)
		ctx = context.WithValue(ctx, emailKey, ident.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from the Authorization header. A missing
// header, a non-Bearer scheme, and an empty token all count as missing.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", identity.ErrMissingToken
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", identity.ErrMissingToken
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", identity.ErrMissingToken
	}
	return token, nil
}

// UserID retrieves the authenticated user ID from the request context.
// Returns empty string if no user is authenticated.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// Email retrieves the authenticated user's email from the request context.
func Email(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// IsAuthenticated checks if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return UserID(ctx) != ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
