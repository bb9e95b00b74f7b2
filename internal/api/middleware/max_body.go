package middleware

import (
	"net/http"
)

// MaxBody limits request body size to maxBytes using http.MaxBytesReader.
// Handlers that read past the limit get an error and the connection is
// closed; multipart parsing surfaces it as a 400. Use 0 or negative to
// disable the limit.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
