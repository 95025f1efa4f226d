package middleware

import (
	"context"
	"net/http"

	"github.com/gearshop/storefront/api/web"
)

// Cors allows cross-origin requests from the configured origin, with
// credentials so the session cookie travels along.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
