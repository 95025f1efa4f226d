package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/scs/v2"
	"github.com/gearshop/storefront/core/claims"
	"github.com/gearshop/storefront/database"
	"github.com/jmoiron/sqlx"
)

// MergeGuestCart folds the session's guest cart into the authenticated
// user's persistent cart and destroys the guest cart. It runs once, right
// after a successful login or signup, before the response goes out.
//
// The operation is deliberately forgiving: no token, no authentication,
// a vanished, already-owned or empty guest cart are all quiet no-ops.
// Whenever a token was present it is removed from the session up front,
// so a failing merge is never retried on a later login; the caller logs
// the returned error but lets authentication succeed regardless.
func MergeGuestCart(ctx context.Context, db *sqlx.DB, session *scs.SessionManager) error {
	clm, err := claims.Get(ctx)
	if err != nil {
		return nil
	}

	token := session.GetString(ctx, sessionCartKey)
	if token == "" {
		return nil
	}
	session.Remove(ctx, sessionCartKey)

	guest, err := Fetch(ctx, db, token)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching guest cart[%s]: %w", token, err)
	}

	// A cart with an owner is not ours to consume; an empty guest cart
	// has nothing to move and is left to the retention sweep.
	if guest.UserID != nil || guest.IsEmpty() {
		return nil
	}

	usrCart, err := FetchOrCreateByUser(ctx, db, clm.UserID)
	if err != nil {
		return fmt.Errorf("resolving cart of user[%s]: %w", clm.UserID, err)
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := mergeItems(ctx, tx, usrCart.ID, guest.ID); err != nil {
			return err
		}
		return Delete(ctx, tx, guest.ID)
	})
	if err != nil {
		return fmt.Errorf("merging guest cart[%s] into cart[%s]: %w", guest.ID, usrCart.ID, err)
	}

	return nil
}
