package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/diagnosis/inkbook/internal/http/response"
	"github.com/diagnosis/inkbook/pkg/cache"
	"github.com/diagnosis/inkbook/pkg/logger"
)

// RateLimit limits requests per client IP with a Redis fixed window.
// Redis errors let the request through.
func RateLimit(limiter *cache.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), "ip:"+getClientIP(r))
			if err != nil {
				logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
			}
			if !allowed {
				response.RateLimit(w, "Too many requests. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the real client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
