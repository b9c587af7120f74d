package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Ayushbunkar/Meditrack/internal/auth"
	"github.com/Ayushbunkar/Meditrack/internal/cache"
)

// RateLimitConfig configures both limiters. A nil Limiter or a zero rate
// disables the corresponding middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter cache.RateLimiter
	// Unauthenticated auth endpoints, per client IP.
	AuthRPS   int
	AuthBurst int
	// Authenticated endpoints, per user.
	APIPerMinute int
	APIBurst     int
}

type takeFunc func(ctx context.Context, id string) (*cache.RateLimitResult, error)

// limiter is the shared body of RateLimitIP and RateLimitUser. id returns ""
// when the request has nothing to key on. A limit > 0 adds X-RateLimit-*
// headers to every answer.
func limiter(logger *slog.Logger, kind string, limit int, id func(*http.Request) string, take takeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := id(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := take(r.Context(), key)
			if err != nil {
				// Redis trouble must not take the API down with it.
				logger.Error("rate limit check failed", "kind", kind, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if limit > 0 {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
				h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			wait := retryAfterSeconds(res.RetryAfter)
			logger.Warn("rate limit exceeded",
				slog.String("kind", kind),
				slog.String("key", key),
				slog.String("route", r.Method+" "+r.URL.Path),
				slog.Int64("retry_after_seconds", wait),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			w.Header().Set("Retry-After", strconv.FormatInt(wait, 10))
			writeJSONError(w, http.StatusTooManyRequests, "Too many requests")
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }

// RateLimitIP limits the unauthenticated auth endpoints per client address.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil || cfg.AuthRPS <= 0 {
		return passthrough
	}
	return limiter(cfg.Logger, "ip", 0, clientIP, func(ctx context.Context, ip string) (*cache.RateLimitResult, error) {
		return cfg.Limiter.CheckIPRateLimit(ctx, ip, cfg.AuthRPS, cfg.AuthBurst)
	})
}

// RateLimitUser limits authenticated requests per user. It must run after
// Auth; anonymous requests pass untouched.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Limiter == nil || cfg.APIPerMinute <= 0 {
		return passthrough
	}
	userID := func(r *http.Request) string { return auth.UserIDFromContext(r.Context()) }
	return limiter(cfg.Logger, "user", cfg.APIPerMinute, userID, func(ctx context.Context, id string) (*cache.RateLimitResult, error) {
		return cfg.Limiter.CheckUserRateLimit(ctx, id, cfg.APIPerMinute, cfg.APIBurst)
	})
}

// retryAfterSeconds rounds up so clients never retry too early.
func retryAfterSeconds(d time.Duration) int64 {
	return max(1, int64((d+time.Second-1)/time.Second))
}

// clientIP is the host part of RemoteAddr. Proxy headers are resolved
// earlier by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
