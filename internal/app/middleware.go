package app

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/appstore"
)

// LoggingMiddleware logs HTTP requests with structured fields. Probe
// requests only show up at debug level; server errors at warn.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		evt := log.Info()
		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			evt = log.Warn()
		case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
			evt = log.Debug()
		}

		evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Str("request_id", apperrors.GetRequestID(r.Context())).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// RecoveryMiddleware recovers from panics and returns a 500 error.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", apperrors.GetRequestID(r.Context())).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				apperrors.WriteInternalError(w, r, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// ContentTypeJSON sets Content-Type to application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// RequireLoaded answers 503 until the application store has loaded. A
// failed load reports its message so the client can offer a reload.
func RequireLoaded(store *appstore.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := store.State()
			switch state.Phase {
			case appstore.PhaseLoaded:
				next.ServeHTTP(w, r)
			case appstore.PhaseFailed:
				apperrors.WriteServiceUnavailable(w, r, state.Message)
			default:
				apperrors.WriteServiceUnavailable(w, r, "Data is still loading")
			}
		})
	}
}

// APIRateLimitMiddleware limits API requests per IP address.
func APIRateLimitMiddleware(requestsPerMinute int) func(http.Handler) http.Handler {
	return limitByIP(requestsPerMinute, "Rate limit exceeded. Try again later.")
}

// LoginRateLimitMiddleware limits signup and login attempts per IP address to 10/minute.
func LoginRateLimitMiddleware() func(http.Handler) http.Handler {
	return limitByIP(10, "Too many login attempts. Try again later.")
}

func limitByIP(perMinute int, message string) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			apperrors.WriteTooManyRequests(w, r, message)
		}),
	)
}
