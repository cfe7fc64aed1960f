package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Authenticate rejects requests without a valid bearer token and stores the
// caller in the request context.
func Authenticate(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if header == "" || raw == header {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			p, err := svc.Verify(raw)
			if err != nil {
				respond(w, apperr.Status(err), apperr.Body(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Require admits only callers whose role holds perm.
func Require(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}
			if !Allowed(p.Role, perm) {
				err := fmt.Errorf("role %s lacks %s: %w", p.Role, perm, apperr.ErrForbidden)
				respond(w, http.StatusForbidden, apperr.Body(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
