package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sixtrece/beats-server/internal/ratelimit"
)

// rateLimited returns operation middleware that throttles by client IP.
// A nil limiter disables throttling. Rejected requests get a 429 envelope.
func (s *Server) rateLimited(limiter *ratelimit.KeyedRateLimiter) huma.Middlewares {
	if limiter == nil {
		return nil
	}

	return huma.Middlewares{func(ctx huma.Context, next func(huma.Context)) {
		key := clientIP(ctx.RemoteAddr())

		if !limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded",
				"ip", key,
				"path", ctx.URL().Path,
			)
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}

		next(ctx)
	}}
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already applied X-Real-IP / X-Forwarded-For.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
