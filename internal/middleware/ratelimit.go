package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leadreach/leadreach/internal/cache"
)

// LoginLimiter consumes one login attempt for an IP.
// Implemented by cache.Cache and cache.Memory.
type LoginLimiter interface {
	CheckLoginRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for the login rate limit.
type RateLimitConfig struct {
	Logger     *slog.Logger
	Limiter    LoginLimiter
	PerMinute  int
	Burst      int
	TrustProxy bool

	// OnLimited renders the rejection. Defaults to a plain 429.
	OnLimited func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)
}

// RateLimitLogin limits POST requests per client IP. Other methods pass.
func RateLimitLogin(cfg RateLimitConfig) func(http.Handler) http.Handler {
	onLimited := cfg.OnLimited
	if onLimited == nil {
		onLimited = writeRateLimitError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || cfg.PerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r, cfg.TrustProxy)
			result, err := cfg.Limiter.CheckLoginRateLimit(r.Context(), ip, cfg.PerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("login rate limit check failed",
					slog.String("error", err.Error()),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("type", "login"),
					slog.String("ip", ip),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				onLimited(w, r, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitError writes a plain 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	http.Error(w, "Too many login attempts. Retry after "+strconv.Itoa(int(retryAfter.Seconds()))+" seconds.",
		http.StatusTooManyRequests)
}

// ClientIP extracts the client IP from the request. Forwarding headers are
// only honoured behind a trusted proxy since clients can set them freely.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
