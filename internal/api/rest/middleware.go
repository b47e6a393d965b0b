package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sourcegraph/conc/panics"

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RecoveryMiddleware turns handler panics into 500 responses.
func RecoveryMiddleware(logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pc panics.Catcher
			pc.Try(func() { next.ServeHTTP(w, r) })
			if recovered := pc.Recovered(); recovered != nil {
				logger.Error("handler panicked", "path", r.URL.Path, "error", recovered.AsError())
				respondError(w, http.StatusInternalServerError, "Internal server error", nil)
			}
		})
	}
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}
