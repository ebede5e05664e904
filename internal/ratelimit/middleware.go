package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the default value for the Retry-After header
// when a rate limit is exceeded.
const DefaultRetryAfterSeconds = 1

// Middleware creates HTTP middleware that enforces per-user rate limits.
// getUserID extracts the authenticated user ID from the request; requests
// without one are passed through untouched (auth rejects them downstream).
//
// Returns 429 Too Many Requests with a Retry-After header when the limit
// is exceeded.
func Middleware(limiter *RateLimiter, getUserID func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := getUserID(r)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(userID) {
				w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "Too Many Requests"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
