package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/plateng/service-accounts-api/pkg/authgw"
	"github.com/plateng/service-accounts-api/pkg/identity"
)

// BearerAuthenticator authenticates requests by resolving the caller's
// identity from the bearer token and confirming the principal with the
// auth gateway. Token signature verification is the gateway's job, not
// ours.
type BearerAuthenticator struct {
	Gateway authgw.Client
}

// NewBearerAuthenticator creates a new bearer auth middleware.
func NewBearerAuthenticator(gateway authgw.Client) *BearerAuthenticator {
	return &BearerAuthenticator{Gateway: gateway}
}

// Middleware returns an HTTP middleware that rejects unauthenticated
// requests with 401 before any service logic runs.
func (a *BearerAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			unauthorized(w, "Authorization missing")
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "Malformed authorization header")
			return
		}

		name, err := identity.UntrustedName(token)
		if err != nil {
			unauthorized(w, "Malformed authorization token")
			return
		}

		if _, err := a.Gateway.GetUser(r.Context(), name); err != nil {
			if errors.Is(err, authgw.ErrUserNotFound) {
				unauthorized(w, "Unknown identity")
				return
			}
			log.Printf("Identity check failed for %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Failed to verify identity", http.StatusInternalServerError)
			return
		}

		ctx := identity.Set(r.Context(), &identity.Identity{Name: name, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(message))
}
