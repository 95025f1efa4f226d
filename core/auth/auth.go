package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gearshop/storefront/api/web"
	"github.com/gearshop/storefront/api/weberr"
	"github.com/gearshop/storefront/core/claims"
)

// Session slots written at login and read on every request.
const (
	sessionUserKey = "user_id"
	sessionRoleKey = "user_role"
)

// LoadAndSave adapts the scs session middleware to the handler chain. It
// must be the outermost middleware so every later stage sees the session.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error
			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

// Identify sets claims in the context when the session belongs to a
// logged-in user. Anonymous requests pass through untouched, which is
// what lets the cart endpoints serve guests.
func Identify(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if userID := session.GetString(ctx, sessionUserKey); userID != "" {
				clm := claims.Claims{
					UserID: userID,
					Role:   session.GetString(ctx, sessionRoleKey),
				}
				ctx = claims.Set(ctx, clm)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a logged-in user.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if _, err := claims.Get(ctx); err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
