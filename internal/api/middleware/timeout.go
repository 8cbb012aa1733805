package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds each request's context by d. Upstream provider calls made
// with that context are cancelled when it expires. A zero d disables it.
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
