package middleware

import "net/http"

// VersionHeader adds the service version to every response.
func VersionHeader(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Service-Version", version)
			next.ServeHTTP(w, r)
		})
	}
}
