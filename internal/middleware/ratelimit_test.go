package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// Property: a client gets exactly the configured number of requests per window
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("Failed to start miniredis: %v", err)
				return false
			}
			defer mr.Close()

			redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer redisClient.Close()

			config := RateLimitConfig{
				RequestsPerWindow: requestsPerWindow,
				Window:            time.Minute,
				KeyPrefix:         "test_rate_limit",
			}
			handler := RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler())

			successCount, blockedCount := 0, 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest("GET", "/api/cars", nil)
				req.RemoteAddr = "192.168.1.100:5123"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitMiddleware_HeadersAndWindowReset(t *testing.T) {
	mr, client := newTestRedis(t)
	config := RateLimitConfig{RequestsPerWindow: 2, Window: 30 * time.Second, KeyPrefix: "rl"}
	handler := RateLimitMiddleware(client, config, zap.NewNop())(okHandler())

	serve := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/cars", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := serve("10.0.0.1:1000")
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	// the port is not part of the client identity
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:2000").Code)

	blocked := serve("10.0.0.1:3000")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1000").Code)

	mr.FastForward(31 * time.Second)
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1000").Code)
}

func TestRateLimitMiddleware_KeysByUser(t *testing.T) {
	_, client := newTestRedis(t)
	config := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, KeyPrefix: "rl"}
	handler := RateLimitMiddleware(client, config, zap.NewNop())(okHandler())

	serve := func(userID int64) int {
		req := httptest.NewRequest("GET", "/api/cars", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve(1))
	assert.Equal(t, http.StatusOK, serve(2))
	assert.Equal(t, http.StatusTooManyRequests, serve(1))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	handler := RateLimitMiddleware(client, RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, KeyPrefix: "rl"}, zap.NewNop())(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/cars", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
