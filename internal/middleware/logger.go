package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// CountryLookup resolves ISO country codes for an IP address. Nil disables
// the lookup.
type CountryLookup func(ip string) (string, error)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logger emits one access-log line per request, annotated with the GeoIP
// country when a resolver is configured.
func Logger(l zerolog.Logger, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			event := l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.status).
				Dur("duration", time.Since(start)).
				Str("request_id", RequestIDFromContext(r.Context()))
			if lookup != nil {
				if country, err := lookup(ClientIP(r)); err == nil && country != "" {
					event = event.Str("country", country)
				}
			}
			event.Msg("request")
		})
	}
}
