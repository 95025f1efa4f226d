package cart

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gearshop/storefront/core/claims"
	"github.com/gearshop/storefront/validate"
	"github.com/jmoiron/sqlx"
)

// sessionCartKey is the session slot holding the guest cart token. The
// token is the cart id itself; its validity is decided here, not by
// secrecy.
const sessionCartKey = "cart_id"

// Resolve returns the cart the request should operate on.
//
// Authenticated requests always get the user's persistent cart, created
// lazily; the session token is not consulted. Guest requests resolve the
// session token, accepting the cart only if it exists and is still
// ownerless; a stale token that now points at an owned cart never
// resolves, a fresh guest cart is minted instead and its id becomes the
// new token.
func Resolve(ctx context.Context, db *sqlx.DB, session *scs.SessionManager) (Cart, error) {
	if clm, err := claims.Get(ctx); err == nil {
		return FetchOrCreateByUser(ctx, db, clm.UserID)
	}

	if token := session.GetString(ctx, sessionCartKey); token != "" {
		crt, err := Fetch(ctx, db, token)
		switch {
		case err == nil && crt.UserID == nil:
			return crt, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return Cart{}, err
		}
	}

	return createGuest(ctx, db, session)
}

func createGuest(ctx context.Context, db *sqlx.DB, session *scs.SessionManager) (Cart, error) {
	now := time.Now().UTC()
	crt := Cart{
		ID:        validate.GenerateID(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := Create(ctx, db, crt); err != nil {
		return Cart{}, err
	}

	session.Put(ctx, sessionCartKey, crt.ID)
	return crt, nil
}
