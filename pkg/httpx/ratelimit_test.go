package httpx_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func tokenRequest(ip, clientID string, basic bool) *http.Request {
	form := url.Values{"grant_type": {"refresh_token"}}
	if !basic && clientID != "" {
		form.Set("client_id", clientID)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/oauth2/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = ip + ":40000"
	if basic {
		req.SetBasicAuth(clientID, "secret")
	}
	return req
}

func statusOf(h http.Handler, req *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestKeyExtractors(t *testing.T) {
	t.Parallel()

	t.Run("ip", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name    string
			headers map[string]string
			want    string
		}{
			{"remote addr", nil, "192.168.1.1"},
			{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
			{"real ip", map[string]string{"X-Real-IP": " 203.0.113.2 "}, "203.0.113.2"},
		}
		for _, tt := range tests {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req), tt.name)
		}
	})

	t.Run("client id", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "spa", httpx.ClientIDKeyExtractor(tokenRequest("10.0.0.1", "spa", false)))
		require.Equal(t, "backend", httpx.ClientIDKeyExtractor(tokenRequest("10.0.0.1", "backend", true)))
		require.Empty(t, httpx.ClientIDKeyExtractor(tokenRequest("10.0.0.1", "", false)))
	})

	t.Run("subject", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
		require.Empty(t, httpx.SubjectKeyExtractor(req))

		claims := &jwtx.AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "acct-1"}}
		req = req.WithContext(httpx.ContextWithClaims(context.Background(), httpx.SchemeBearer, claims))
		require.Equal(t, "acct-1", httpx.SubjectKeyExtractor(req))
	})

	t.Run("composite skips empty parts", func(t *testing.T) {
		t.Parallel()
		extract := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.FormFieldKeyExtractor("username"))

		req := httptest.NewRequest(http.MethodGet, "/?username=alice", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1:alice", extract(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", extract(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	t.Run("blocks after burst with headers", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByIP(cfg)(okHandler)

		for range 2 {
			require.Equal(t, http.StatusOK, statusOf(h, tokenRequest("192.168.1.1", "", false)))
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, tokenRequest("192.168.1.1", "", false))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")

		require.Equal(t, http.StatusOK, statusOf(h, tokenRequest("192.168.1.2", "", false)), "other IPs are unaffected")
	})

	t.Run("clients behind one address get separate buckets", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByClient(cfg)(okHandler)

		for range 2 {
			require.Equal(t, http.StatusOK, statusOf(h, tokenRequest("10.0.0.1", "spa", false)))
		}
		require.Equal(t, http.StatusTooManyRequests, statusOf(h, tokenRequest("10.0.0.1", "spa", false)))
		require.Equal(t, http.StatusOK, statusOf(h, tokenRequest("10.0.0.1", "backend", true)))
	})

	t.Run("login attempts are keyed by username", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitByIPAndFormField(cfg, "username")(okHandler)
		login := func(user string) *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/?username="+user, nil)
			req.RemoteAddr = "192.168.1.1:12345"
			return req
		}

		for range 2 {
			require.Equal(t, http.StatusOK, statusOf(h, login("alice")))
		}
		require.Equal(t, http.StatusTooManyRequests, statusOf(h, login("alice")))
		require.Equal(t, http.StatusOK, statusOf(h, login("bob")))
	})

	t.Run("missing key is allowed through", func(t *testing.T) {
		t.Parallel()
		h := httpx.RateLimitMiddleware(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1},
			func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, statusOf(h, httptest.NewRequest(http.MethodGet, "/", nil)))
		}
	})
}

func TestRateLimitTiers(t *testing.T) {
	t.Parallel()

	for name, cfg := range map[string]httpx.RateLimitConfig{
		"strict":   httpx.StrictLimit,
		"moderate": httpx.ModerateLimit,
		"lenient":  httpx.LenientLimit,
		"public":   httpx.PublicLimit,
	} {
		require.Positive(t, cfg.RequestsPerWindow, name)
		require.Greater(t, cfg.Window, time.Duration(0), name)
		require.Positive(t, cfg.Burst, name)
	}

	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
	require.Less(t, httpx.ModerateLimit.RequestsPerWindow, httpx.LenientLimit.RequestsPerWindow)
	require.Less(t, httpx.LenientLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)
}

func TestParseRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    httpx.RateLimitConfig
		wantErr bool
	}{
		{in: "20/1m", want: httpx.RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}},
		{in: "5/30s:10", want: httpx.RateLimitConfig{RequestsPerWindow: 5, Window: 30 * time.Second, Burst: 10}},
		{in: " 100/1h ", want: httpx.RateLimitConfig{RequestsPerWindow: 100, Window: time.Hour, Burst: 100}},
		{in: "20", wantErr: true},
		{in: "0/1m", wantErr: true},
		{in: "abc/1m", wantErr: true},
		{in: "5/soon", wantErr: true},
		{in: "5/-1m", wantErr: true},
		{in: "5/1m:0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := httpx.ParseRateLimit(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// Environment overrides mutate process state, so these run sequentially.
func TestRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Run("unset", func(t *testing.T) {
		require.Equal(t, def, httpx.RateLimitFromEnv("TEST", def))
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("AUTH_RATELIMIT_TEST", "50/30s:60")
		require.Equal(t,
			httpx.RateLimitConfig{RequestsPerWindow: 50, Window: 30 * time.Second, Burst: 60},
			httpx.RateLimitFromEnv("test", def))
	})

	t.Run("malformed keeps default", func(t *testing.T) {
		t.Setenv("AUTH_RATELIMIT_TEST", "lots")
		require.Equal(t, def, httpx.RateLimitFromEnv("TEST", def))
	})
}

func BenchmarkRateLimitManyClients(b *testing.B) {
	h := httpx.RateLimitByClient(httpx.RateLimitConfig{
		RequestsPerWindow: 1_000_000,
		Window:            time.Minute,
		Burst:             1000,
	})(okHandler)

	for i := 0; b.Loop(); i++ {
		h.ServeHTTP(httptest.NewRecorder(), tokenRequest("10.0.0.1", fmt.Sprintf("client-%d", i%512), true))
	}
}
