package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gearshop/storefront/api/web"
	"github.com/gearshop/storefront/api/weberr"
	"github.com/gearshop/storefront/rate"
)

// RateLimit rejects requests exceeding the limiter's budget for the
// client address. Meant for the auth endpoints.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}

			if !lim.Allow(key) {
				return weberr.NewError(
					errors.New("rate limit exceeded for "+key),
					"too many requests",
					http.StatusTooManyRequests,
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
