package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"sedcat-backend/pkg/api"
)

// CircuitBreaker sheds load from a route group when it keeps failing.
// Rendering is the expensive path; when it degrades we fail fast with a
// 503 instead of queueing more work behind it.
func CircuitBreaker(name string, logger *zap.Logger) func(http.Handler) http.Handler {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := breaker.Execute(func() (interface{}, error) {
				ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
				next.ServeHTTP(ww, r)
				if ww.Status() >= http.StatusInternalServerError {
					return nil, errServerFailure
				}
				return nil, nil
			})
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			}
		})
	}
}

// errServerFailure marks a 5xx response as a breaker failure without
// surfacing a second error body to the client.
var errServerFailure = &serverFailure{}

type serverFailure struct{}

func (*serverFailure) Error() string { return "upstream handler returned a server error" }
