package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/s/trainingHub/internal/handlers"
	"github.com/s/trainingHub/internal/metrics"
)

// SignInWindow is the window the sign-in limit is counted over.
const SignInWindow = time.Minute

// SignInRateLimit limits sign-in attempts per client IP.
func SignInRateLimit(perMinute int) func(next http.HandlerFunc) http.HandlerFunc {
	limiter := httprate.NewRateLimiter(
		perMinute,
		SignInWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.SignInAttempts.WithLabelValues("password", "limited").Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(SignInWindow.Seconds())))
			handlers.JSONError(w, "Too many sign-in attempts. Please try again later.", http.StatusTooManyRequests)
		}),
	)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return limiter.Handler(next).ServeHTTP
	}
}
