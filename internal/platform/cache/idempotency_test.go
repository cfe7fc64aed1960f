package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ClaimOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Claim(ctx, "sale-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "sale-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim within ttl must be rejected")
}

func TestMemoryStore_ExpiryAndRelease(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, _ := s.Claim(ctx, "k", time.Minute)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = s.Claim(ctx, "k", time.Minute)
	assert.True(t, ok, "expired key can be claimed again")

	require.NoError(t, s.Release(ctx, "k"))
	ok, _ = s.Claim(ctx, "k", time.Minute)
	assert.True(t, ok, "released key can be claimed again")
}

func TestIdempotent_Middleware(t *testing.T) {
	store := NewMemoryStore()
	status := http.StatusCreated
	calls := 0
	h := Idempotent(store, "stock-out", time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send())
	assert.Equal(t, http.StatusConflict, send())
	assert.Equal(t, 1, calls)

	// failed requests release the key
	require.NoError(t, store.Release(context.Background(), "stock-out:abc"))
	status = http.StatusConflict
	assert.Equal(t, http.StatusConflict, send())
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, send())
	assert.Equal(t, 3, calls)

	// no header, no claim
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
