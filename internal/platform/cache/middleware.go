package cache

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const IdempotencyHeader = "Idempotency-Key"

// Idempotent rejects a repeated Idempotency-Key with 409 while the first
// request's claim is live. A request that fails (status >= 400) releases its
// claim so the client can retry. Requests without the header pass through.
func Idempotent(store IdempotencyStore, scope string, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			key = scope + ":" + key

			ok, err := store.Claim(r.Context(), key, ttl)
			if err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
				return
			}
			if !ok {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "duplicate request", "code": "duplicate_request"})
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				_ = store.Release(r.Context(), key)
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
