package httpx_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smartplant/auth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func doFrom(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1:12345", "192.168.1.1"},
		{"x-forwarded-for ignored", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "192.168.1.1:1", "192.168.1.1"},
		{"x-real-ip ignored", map[string]string{"X-Real-IP": "10.0.0.9"}, "192.168.1.1:1", "192.168.1.1"},
		{"no port", nil, "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	tp, err := httpx.ParseTrustedProxies(" 10.0.0.0/8, 127.0.0.1 ,, ::1")
	require.NoError(t, err)
	require.Len(t, tp, 3)

	require.True(t, tp.Contains("10.20.30.40"))
	require.True(t, tp.Contains("127.0.0.1"))
	require.True(t, tp.Contains("::1"))
	require.True(t, tp.Contains("::ffff:10.0.0.1"))
	require.False(t, tp.Contains("127.0.0.2"))
	require.False(t, tp.Contains("not-an-ip"))

	none, err := httpx.ParseTrustedProxies("")
	require.NoError(t, err)
	require.False(t, none.Contains("127.0.0.1"))

	for _, bad := range []string{"10.0.0.0/33", "proxy.internal", "10.0.0"} {
		_, err := httpx.ParseTrustedProxies(bad)
		require.Error(t, err, bad)
	}
}

func TestTrustedProxiesClientIP(t *testing.T) {
	tp, err := httpx.ParseTrustedProxies("10.0.0.0/8")
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    []string
		xri    string
		want   string
	}{
		{"untrusted peer keeps its own address", "203.0.113.7:1", []string{"198.51.100.1"}, "", "203.0.113.7"},
		{"untrusted peer cannot use x-real-ip", "203.0.113.7:1", nil, "198.51.100.1", "203.0.113.7"},
		{"trusted peer forwards the client", "10.0.0.2:1", []string{"198.51.100.1"}, "", "198.51.100.1"},
		{"spoofed leading hops are skipped", "10.0.0.2:1", []string{"1.2.3.4, 5.6.7.8, 198.51.100.1"}, "", "198.51.100.1"},
		{"chained proxies are skipped", "10.0.0.2:1", []string{"198.51.100.1, 10.1.1.1"}, "", "198.51.100.1"},
		{"repeated headers are joined", "10.0.0.2:1", []string{"1.2.3.4", "198.51.100.1"}, "", "198.51.100.1"},
		{"all hops trusted", "10.0.0.2:1", []string{"10.3.3.3, 10.4.4.4"}, "", "10.3.3.3"},
		{"x-real-ip from trusted peer", "10.0.0.2:1", nil, "198.51.100.9", "198.51.100.9"},
		{"trusted peer without headers", "10.0.0.2:1", nil, "", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			require.Equal(t, tt.want, tp.ClientIP(req))
		})
	}
}

func TestSpoofedForwardedForSharesOneBucket(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler)

	codes := make([]int, 0, 4)
	for i := range 4 {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/verify-mfa", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:1"

	ex := httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, httpx.IPKeyExtractor)
	require.Equal(t, "192.168.1.1", ex(req))

	req = req.WithContext(httpx.ContextWithIdentity(req.Context(), httpx.Identity{UserID: "u1"}))
	require.Equal(t, "u1:192.168.1.1", ex(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks the request after the burst", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: 15 * time.Minute, Burst: 5}
		h := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler)

		for i := range 5 {
			require.Equal(t, http.StatusOK, doFrom(h, "192.168.1.1").Code, "request %d", i+1)
		}
		rec := doFrom(h, "192.168.1.1")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "15m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

		require.Equal(t, http.StatusOK, doFrom(h, "192.168.1.2").Code, "other IPs have their own bucket")
	})

	t.Run("refills over time", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: 100 * time.Millisecond, Burst: 1}
		h := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler)

		require.Equal(t, http.StatusOK, doFrom(h, "10.1.1.1").Code)
		require.Equal(t, http.StatusTooManyRequests, doFrom(h, "10.1.1.1").Code)
		time.Sleep(30 * time.Millisecond)
		require.Equal(t, http.StatusOK, doFrom(h, "10.1.1.1").Code)
	})

	t.Run("empty key passes", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(config, func(*http.Request) string { return "" })(okHandler)
		for range 3 {
			require.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1").Code)
		}
	})
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, redis.ErrClosed
}

func TestRateLimitWithFailsOpen(t *testing.T) {
	h := httpx.RateLimitWith(brokenLimiter{}, httpx.StrictLimit, httpx.IPKeyExtractor)(okHandler)
	require.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1").Code)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	l := httpx.NewRedisLimiter(client, "auth", httpx.RateLimitConfig{RequestsPerWindow: 5, Window: 15 * time.Minute})

	for i := range 5 {
		ok, _, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i+1)
	}

	ok, retry, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)
	require.Greater(t, retry, 14*time.Minute)
	require.LessOrEqual(t, retry, 15*time.Minute)
	require.True(t, mr.Exists("ratelimit:auth:1.2.3.4"))

	ok, _, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(15*time.Minute + time.Second)
	ok, _, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok, "window expired")
}

func TestRedisLimiterSharedAcrossInstances(t *testing.T) {
	_, client := newRedis(t)
	config := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute}

	a := httpx.RateLimitWith(httpx.NewRedisLimiter(client, "strict", config), config, httpx.IPKeyExtractor)(okHandler)
	b := httpx.RateLimitWith(httpx.NewRedisLimiter(client, "strict", config), config, httpx.IPKeyExtractor)(okHandler)

	require.Equal(t, http.StatusOK, doFrom(a, "9.9.9.9").Code)
	require.Equal(t, http.StatusOK, doFrom(b, "9.9.9.9").Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(a, "9.9.9.9").Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(b, "9.9.9.9").Code)
}

func TestRedisLimiterUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	l := httpx.NewRedisLimiter(client, "auth", httpx.AuthLimit)
	mr.Close()

	_, _, err := l.Allow(context.Background(), "1.2.3.4")
	require.Error(t, err)

	h := httpx.RateLimitWith(l, httpx.AuthLimit, httpx.IPKeyExtractor)(okHandler)
	require.Equal(t, http.StatusOK, doFrom(h, "1.2.3.4").Code)
}

func TestRateLimitProfiles(t *testing.T) {
	require.Equal(t, 5, httpx.AuthLimit.RequestsPerWindow)
	require.Equal(t, 15*time.Minute, httpx.AuthLimit.Window)

	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
	require.Less(t, httpx.ModerateLimit.RequestsPerWindow, httpx.LenientLimit.RequestsPerWindow)
	require.Less(t, httpx.LenientLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Run("defaults", func(t *testing.T) {
		require.Equal(t, def, httpx.ParseRateLimitFromEnv("UNSET_PROFILE", def))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "3")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "900")
		t.Setenv("RATELIMIT_TEST_BURST", "2")
		got := httpx.ParseRateLimitFromEnv("TEST", def)
		require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 3, Window: 15 * time.Minute, Burst: 2}, got)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		t.Setenv("RATELIMIT_BAD_REQUESTS", "-1")
		t.Setenv("RATELIMIT_BAD_WINDOW_SEC", "abc")
		t.Setenv("RATELIMIT_BAD_BURST", "0")
		require.Equal(t, def, httpx.ParseRateLimitFromEnv("BAD", def))
	})
}

func BenchmarkRateLimitMiddleware(b *testing.B) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 1_000_000, Window: time.Second, Burst: 1_000_000}
	h := httpx.RateLimitMiddleware(config, httpx.IPKeyExtractor)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	b.ResetTimer()
	for b.Loop() {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
