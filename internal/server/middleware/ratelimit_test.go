package middleware

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, rate int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(rate, window, setupTestLogger())
	limiter.now = clock.Now
	t.Cleanup(limiter.Stop)
	return limiter, clock
}

func TestNewRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(10, time.Minute, setupTestLogger())

	assert.Equal(t, 10, limiter.rate)
	assert.Equal(t, time.Minute, limiter.window)
	assert.NotNil(t, limiter.buckets)

	limiter.Stop()
	limiter.Stop()
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("192.168.1.1"), fmt.Sprintf("request %d should be allowed", i+1))
		}
		assert.False(t, limiter.Allow("192.168.1.1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 1, time.Minute)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("window resets", func(t *testing.T) {
		limiter, clock := newTestLimiter(t, 2, time.Minute)

		assert.True(t, limiter.Allow("k"))
		assert.True(t, limiter.Allow("k"))
		assert.False(t, limiter.Allow("k"))

		clock.Advance(time.Minute)
		assert.True(t, limiter.Allow("k"))
	})
}

func TestRateLimiter_CleanupOldBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(t, 1, time.Minute)

	limiter.Allow("old")
	clock.Advance(90 * time.Second)
	limiter.Allow("fresh")
	clock.Advance(45 * time.Second)

	limiter.cleanupOldBuckets()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "old")
	assert.Contains(t, limiter.buckets, "fresh")
}

func TestRateLimiter_Middleware(t *testing.T) {
	var logBuf bytes.Buffer
	limiter, _ := newTestLimiter(t, 2, time.Minute)
	limiter.logger = slog.New(slog.NewTextHandler(&logBuf, nil))

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	w := send()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
	assert.Contains(t, logBuf.String(), "ip=203.0.113.9")
}

func TestRateLimiter_IgnoresForwardedHeadersByDefault(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 2, allowed, "rotating forwarded headers from one peer must not reset the limit")
}

func TestRateLimiter_TrustedProxyHeaders(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, setupTestLogger(), WithTrustedProxyHeaders(true))
	t.Cleanup(limiter.Stop)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"), "clients behind the proxy get separate buckets")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		headers    map[string]string
		name       string
		remoteAddr string
		expected   string
		trustProxy bool
	}{
		{name: "remote addr without port", remoteAddr: "192.168.1.1:12345", expected: "192.168.1.1"},
		{name: "remote addr ipv6", remoteAddr: "[::1]:8080", expected: "::1"},
		{name: "unparseable remote addr", remoteAddr: "pipe", expected: "pipe"},
		{
			name:       "x-forwarded-for ignored without trust",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			expected:   "10.0.0.1",
		},
		{
			name:       "x-real-ip ignored without trust",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			expected:   "10.0.0.1",
		},
		{
			name:       "trusted x-forwarded-for first hop",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"},
			expected:   "203.0.113.1",
			trustProxy: true,
		},
		{
			name:       "trusted x-real-ip",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7"},
			expected:   "203.0.113.7",
			trustProxy: true,
		},
		{
			name:       "trusted but no headers",
			remoteAddr: "10.0.0.1:1",
			expected:   "10.0.0.1",
			trustProxy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, clientIP(req, tt.trustProxy))
		})
	}
}
