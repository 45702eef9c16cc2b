package ratelimit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyforge/replyforge/pkg/ratelimit"
)

func TestNew_ValidatesConfig(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()

	_, err := ratelimit.New(store, ratelimit.Config{Limit: 0, Window: time.Minute})
	require.ErrorIs(t, err, ratelimit.ErrInvalidConfig)

	_, err = ratelimit.New(store, ratelimit.Config{Limit: 5, Window: 0})
	require.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 3, Window: time.Minute})
	require.NoError(t, err)

	for i := range 3 {
		res, err := limiter.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Positive(t, res.RetryAfter())

	// Keys are independent windows.
	other, err := limiter.Allow(ctx, "user:2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	keyByIP := ratelimit.KeyFunc(ratelimit.ByClientIP)

	t.Run("allows under the limit with headers", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 2, Window: time.Minute})
		require.NoError(t, err)
		handler := ratelimit.Middleware(limiter, keyByIP)(next)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("rejects over the limit", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})
		require.NoError(t, err)
		handler := ratelimit.Middleware(limiter, keyByIP)(next)

		for range 2 {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.2:5000"
			handler.ServeHTTP(rec, req)
			if rec.Code == http.StatusTooManyRequests {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

				var body struct {
					Success bool `json:"success"`
					Error   struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.Equal(t, "rate_limited", body.Error.Code)
				return
			}
		}
		t.Fatal("second request was not rejected")
	})

	t.Run("fails open on store errors", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.New(failingStore{}, ratelimit.Config{Limit: 1, Window: time.Minute})
		require.NoError(t, err)
		handler := ratelimit.Middleware(limiter, keyByIP)(next)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.3:5000"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("empty key skips limiting", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})
		require.NoError(t, err)
		handler := ratelimit.Middleware(limiter, func(*http.Request) string { return "" })(next)

		for range 5 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusNoContent, rec.Code)
		}
	})
}
