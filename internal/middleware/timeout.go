package middleware

import (
	"context"
	"net/http"
	"time"

	"sedcat-backend/pkg/api"
)

// Timeout bounds request handling time. When the deadline passes before
// the handler finishes, the client receives a 504 and the handler's
// context is cancelled.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(w, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					api.Error(w, http.StatusGatewayTimeout, "Request timed out")
				}
			}
		})
	}
}
