package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gearshop/storefront/api/web"
	"github.com/gearshop/storefront/api/weberr"
	"github.com/gearshop/storefront/core/claims"
	"github.com/gearshop/storefront/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prds, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, prds, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		prd, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, prd, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var pnew ProductNew
		if err := web.Decode(w, r, &pnew); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pnew); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		prd := Product{
			ID:          validate.GenerateID(),
			UserID:      &clm.UserID,
			Title:       pnew.Title,
			Brand:       pnew.Brand,
			Model:       pnew.Model,
			Description: pnew.Description,
			Condition:   pnew.Condition,
			Finish:      pnew.Finish,
			Price:       pnew.Price,
			ImageURL:    pnew.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, prd); err != nil {
			return err
		}

		return web.Respond(ctx, w, prd, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var pup ProductUp
		if err := web.Decode(w, r, &pup); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pup); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		prd, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := authorizeOwner(ctx, prd); err != nil {
			return err
		}

		if pup.Title != nil {
			prd.Title = *pup.Title
		}
		if pup.Brand != nil {
			prd.Brand = *pup.Brand
		}
		if pup.Model != nil {
			prd.Model = *pup.Model
		}
		if pup.Description != nil {
			prd.Description = *pup.Description
		}
		if pup.Condition != nil {
			prd.Condition = *pup.Condition
		}
		if pup.Finish != nil {
			prd.Finish = *pup.Finish
		}
		if pup.Price != nil {
			prd.Price = *pup.Price
		}
		if pup.ImageURL != nil {
			prd.ImageURL = *pup.ImageURL
		}
		prd.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, prd); err != nil {
			return err
		}

		return web.Respond(ctx, w, prd, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "id")
		if err := validate.CheckID(productID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		prd, err := Fetch(ctx, db, productID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := authorizeOwner(ctx, prd); err != nil {
			return err
		}

		if err := Delete(ctx, db, productID); err != nil {
			if errors.Is(err, ErrInUse) {
				return weberr.Conflict(err, "product is still in shopping carts")
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// authorizeOwner allows the listing owner and admins through.
func authorizeOwner(ctx context.Context, prd Product) error {
	if claims.IsAdmin(ctx) {
		return nil
	}
	if prd.UserID != nil && claims.IsUser(ctx, *prd.UserID) {
		return nil
	}
	return weberr.NotAuthorized(errors.New("not the owner of the product"))
}
