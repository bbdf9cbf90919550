package httpx

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tokend/pkg/slogx"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket refilled at RequestsPerWindow per Window.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) String() string {
	return fmt.Sprintf("%d/%s:%d", c.RequestsPerWindow, c.Window, c.Burst)
}

// Rate limit tiers. Each can be replaced with AUTH_RATELIMIT_<TIER>, for
// example AUTH_RATELIMIT_STRICT="10/1m:20".
var (
	// StrictLimit guards credential checks: the token endpoint and password login.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards revocation, introspection and administration.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards userinfo, authorize validation and health probes.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards the discovery documents.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = RateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = RateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = RateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = RateLimitFromEnv("PUBLIC", PublicLimit)
}

// RateLimitFromEnv returns the tier configured in AUTH_RATELIMIT_<tier>, or
// def when the variable is unset or malformed.
func RateLimitFromEnv(tier string, def RateLimitConfig) RateLimitConfig {
	raw := os.Getenv("AUTH_RATELIMIT_" + strings.ToUpper(tier))
	if raw == "" {
		return def
	}
	cfg, err := ParseRateLimit(raw)
	if err != nil {
		return def
	}
	return cfg
}

// ParseRateLimit parses "<requests>/<window>[:<burst>]", e.g. "20/1m" or
// "5/30s:10". The burst defaults to the request count.
func ParseRateLimit(s string) (RateLimitConfig, error) {
	spec, burstPart, hasBurst := strings.Cut(strings.TrimSpace(s), ":")
	reqPart, windowPart, ok := strings.Cut(spec, "/")
	if !ok {
		return RateLimitConfig{}, fmt.Errorf("rate limit %q: missing window", s)
	}

	requests, err := strconv.Atoi(reqPart)
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("rate limit %q: invalid request count", s)
	}
	window, err := time.ParseDuration(windowPart)
	if err != nil || window <= 0 {
		return RateLimitConfig{}, fmt.Errorf("rate limit %q: invalid window", s)
	}

	cfg := RateLimitConfig{RequestsPerWindow: requests, Window: window, Burst: requests}
	if hasBurst {
		burst, err := strconv.Atoi(burstPart)
		if err != nil || burst <= 0 {
			return RateLimitConfig{}, fmt.Errorf("rate limit %q: invalid burst", s)
		}
		cfg.Burst = burst
	}
	return cfg, nil
}

// KeyExtractor groups requests into rate limit buckets. An empty key
// bypasses the limiter.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client IP, honouring X-Forwarded-For and
// X-Real-IP from a fronting proxy.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SubjectKeyExtractor returns the subject of the authenticated access token.
func SubjectKeyExtractor(r *http.Request) string {
	if c, ok := ClaimsFromContext(r.Context()); ok {
		return c.Subject
	}
	return ""
}

// ClientIDKeyExtractor returns the client identifier sent with HTTP Basic
// credentials or as the client_id form parameter.
func ClientIDKeyExtractor(r *http.Request) string {
	if id, _, ok := r.BasicAuth(); ok && id != "" {
		return id
	}
	return FormFieldKeyExtractor("client_id")(r)
}

// FormFieldKeyExtractor returns a query or form parameter.
func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(field)
	}
}

// CompositeKeyExtractor joins the non-empty keys of extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// limiterSet holds one token bucket per key. Buckets idle for two windows
// are evicted; by then they have refilled completely.
type limiterSet struct {
	cfg     RateLimitConfig
	limit   rate.Limit
	buckets *ttlcache.Cache[string, *rate.Limiter]

	mu        sync.Mutex
	lastSweep time.Time
}

func newLimiterSet(cfg RateLimitConfig) *limiterSet {
	return &limiterSet{
		cfg:   cfg,
		limit: rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		buckets: ttlcache.New(
			ttlcache.WithTTL[string, *rate.Limiter](2 * cfg.Window),
		),
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	item, _ := s.buckets.GetOrSet(key, rate.NewLimiter(s.limit, s.cfg.Burst))
	s.sweep()
	return item.Value()
}

func (s *limiterSet) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastSweep) < s.cfg.Window {
		return
	}
	s.lastSweep = time.Now()
	s.buckets.DeleteExpired()
}

// RateLimitMiddleware applies cfg per key returned by extract. Rejected
// requests get 429 with Retry-After.
func RateLimitMiddleware(cfg RateLimitConfig, extract KeyExtractor) Middleware {
	limiters := newLimiterSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extract(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit key missing, request allowed", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			limiter := limiters.get(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			// Peek at the next free token without consuming it.
			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "too many requests, retry later",
			})
		})
	}
}

// RateLimitByIP limits per client IP.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitBySubject limits per token subject and IP. It must run after
// AuthnMiddleware.
func RateLimitBySubject(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", SubjectKeyExtractor, IPKeyExtractor))
}

// RateLimitByClient limits per IP and OAuth client, so one noisy client
// behind a shared address does not starve the others.
func RateLimitByClient(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, ClientIDKeyExtractor))
}

// RateLimitByIPAndFormField limits per IP and form parameter, e.g. the
// username of a password login.
func RateLimitByIPAndFormField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, FormFieldKeyExtractor(field)))
}
