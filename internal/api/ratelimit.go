package api

import (
	"net"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/treemenu/treemenu-server/internal/errors"
)

const rateLimitMessage = "Too many requests. Please try again later."

// limitWrites throttles mutating operations per client address.
// RealIP has already replaced RemoteAddr with the forwarded client address.
func (s *Server) limitWrites(ctx huma.Context, next func(huma.Context)) {
	key := clientKey(ctx.RemoteAddr())
	if s.writeLimiter.Allow(key) {
		next(ctx)
		return
	}

	s.logger.Warn("rate limit exceeded", "ip", key, "operation", ctx.Operation().OperationID)
	ctx.SetHeader("Retry-After", strconv.Itoa(1))
	_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, rateLimitMessage, errors.RateLimited(rateLimitMessage))
}

// clientKey strips the port from a remote address.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
