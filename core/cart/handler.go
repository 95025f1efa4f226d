package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gearshop/storefront/api/web"
	"github.com/gearshop/storefront/api/weberr"
	"github.com/gearshop/storefront/core/product"
	"github.com/gearshop/storefront/validate"
	"github.com/jmoiron/sqlx"
)

// Mutation is the JSON shape returned by every cart mutation, kept flat
// so the storefront UI can update its badge without a second request.
type Mutation struct {
	Status    string `json:"status"`
	CartCount int    `json:"cart_count"`
	CartTotal int    `json:"cart_total"`
	Message   string `json:"message"`
}

func HandleShow(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		crt, err := Resolve(ctx, db, session)
		if err != nil {
			return err
		}

		items, err := FetchItemViews(ctx, db, crt.ID)
		if err != nil {
			return err
		}

		total, err := TotalPrice(ctx, db, crt.ID)
		if err != nil {
			return err
		}

		view := View{
			ID:         crt.ID,
			Items:      items,
			TotalItems: crt.ItemsCount,
			TotalPrice: total,
		}

		return web.Respond(ctx, w, view, http.StatusOK)
	}
}

func HandleAddItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var inew ItemNew
		if err := web.Decode(w, r, &inew); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(inew); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		quantity := 1
		if inew.Quantity != nil {
			quantity = *inew.Quantity
		}

		prd, err := product.Fetch(ctx, db, inew.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return mutationError(err, "Product not found", http.StatusNotFound)
			}
			return err
		}

		crt, err := Resolve(ctx, db, session)
		if err != nil {
			return err
		}

		if err := AddProduct(ctx, db, crt.ID, prd.ID, quantity); err != nil {
			return err
		}

		return respondMutation(ctx, w, db, crt.ID, "Item added to cart")
	}
}

func HandleUpdateItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var iup ItemUp
		if err := web.Decode(w, r, &iup); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(iup); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		crt, err := Resolve(ctx, db, session)
		if err != nil {
			return err
		}

		if err := UpdateQuantity(ctx, db, crt.ID, productID, *iup.Quantity); err != nil {
			if errors.Is(err, ErrItemNotFound) {
				return mutationError(err, "Product not found in cart", http.StatusNotFound)
			}
			return err
		}

		return respondMutation(ctx, w, db, crt.ID, "Cart updated")
	}
}

func HandleDecrementItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var idec ItemDec
		if err := web.Decode(w, r, &idec); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(idec); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		quantity := 1
		if idec.Quantity != nil {
			quantity = *idec.Quantity
		}

		crt, err := Resolve(ctx, db, session)
		if err != nil {
			return err
		}

		if err := DecrementProduct(ctx, db, crt.ID, productID, quantity); err != nil {
			if errors.Is(err, ErrItemNotFound) {
				return mutationError(err, "Product not found in cart", http.StatusNotFound)
			}
			return err
		}

		return respondMutation(ctx, w, db, crt.ID, "Cart updated")
	}
}

func HandleRemoveItem(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		crt, err := Resolve(ctx, db, session)
		if err != nil {
			return err
		}

		if err := RemoveProduct(ctx, db, crt.ID, productID); err != nil {
			return err
		}

		return respondMutation(ctx, w, db, crt.ID, "Item removed from cart")
	}
}

func HandleClear(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		crt, err := Resolve(ctx, db, session)
		if err != nil {
			return err
		}

		if err := Clear(ctx, db, crt.ID); err != nil {
			return err
		}

		m := Mutation{
			Status:  "success",
			Message: "Cart emptied",
		}
		return web.Respond(ctx, w, m, http.StatusOK)
	}
}

func respondMutation(ctx context.Context, w http.ResponseWriter, db *sqlx.DB, cartID string, msg string) error {
	crt, err := Fetch(ctx, db, cartID)
	if err != nil {
		return err
	}

	total, err := TotalPrice(ctx, db, cartID)
	if err != nil {
		return err
	}

	m := Mutation{
		Status:    "success",
		CartCount: crt.ItemsCount,
		CartTotal: total,
		Message:   msg,
	}
	return web.Respond(ctx, w, m, http.StatusOK)
}

func mutationError(err error, msg string, status int) error {
	return weberr.Wrap(err, weberr.WithResponse(&Mutation{Status: "error", Message: msg}, status))
}
