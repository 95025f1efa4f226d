package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gearshop/storefront/validate"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

func Create(ctx context.Context, db sqlx.ExtContext, crt Cart) error {
	const q = `
	INSERT INTO carts (cart_id, user_id, items_count, created_at, updated_at)
	VALUES (:cart_id, :user_id, :items_count, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, crt); err != nil {
		return fmt.Errorf("inserting cart: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, cartID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE cart_id = $1`

	var crt Cart
	if err := sqlx.GetContext(ctx, db, &crt, q, cartID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart[%s]: %w", cartID, err)
	}

	return crt, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1`

	var crt Cart
	if err := sqlx.GetContext(ctx, db, &crt, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	return crt, nil
}

// FetchOrCreateByUser returns the user's persistent cart, creating it on
// first access. The unique constraint on user_id keeps concurrent first
// accesses from minting two carts; on conflict the existing row wins.
func FetchOrCreateByUser(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	crt, err := FetchByUser(ctx, db, userID)
	if err == nil {
		return crt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Cart{}, err
	}

	now := time.Now().UTC()
	crt = Cart{
		ID:        validate.GenerateID(),
		UserID:    &userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const q = `
	INSERT INTO carts (cart_id, user_id, items_count, created_at, updated_at)
	VALUES (:cart_id, :user_id, :items_count, :created_at, :updated_at)
	ON CONFLICT (user_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, db, q, crt); err != nil {
		return Cart{}, fmt.Errorf("inserting cart for user[%s]: %w", userID, err)
	}

	return FetchByUser(ctx, db, userID)
}

// Delete removes a cart; its items cascade.
func Delete(ctx context.Context, db sqlx.ExtContext, cartID string) error {
	const q = `DELETE FROM carts WHERE cart_id = $1`

	if _, err := db.ExecContext(ctx, q, cartID); err != nil {
		return fmt.Errorf("deleting cart[%s]: %w", cartID, err)
	}

	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, cartID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, cartID); err != nil {
		return nil, fmt.Errorf("selecting items of cart[%s]: %w", cartID, err)
	}

	return items, nil
}

// FetchItemViews returns the cart's items joined with their product. An
// item whose product is gone is left out.
func FetchItemViews(ctx context.Context, db sqlx.ExtContext, cartID string) ([]ItemView, error) {
	const q = `
	SELECT ci.product_id, p.title, p.brand, p.price, p.image_url, ci.quantity
	FROM cart_items ci
	JOIN products p ON p.product_id = ci.product_id
	WHERE ci.cart_id = $1
	ORDER BY ci.created_at`

	items := []ItemView{}
	if err := sqlx.SelectContext(ctx, db, &items, q, cartID); err != nil {
		return nil, fmt.Errorf("selecting item views of cart[%s]: %w", cartID, err)
	}

	return items, nil
}

func fetchItem(ctx context.Context, db sqlx.ExtContext, cartID string, productID string) (Item, error) {
	const q = `SELECT * FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	var it Item
	if err := sqlx.GetContext(ctx, db, &it, q, cartID, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("selecting item[%s] of cart[%s]: %w", productID, cartID, err)
	}

	return it, nil
}

// upsertItem inserts the item or adds quantity to the existing row, and
// bumps the cart counter by the same amount. Must run inside the caller's
// transaction so counter and item cannot drift.
func upsertItem(ctx context.Context, tx sqlx.ExtContext, cartID string, productID string, quantity int) error {
	const q = `
	INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (cart_id, product_id)
	DO UPDATE SET
		quantity   = cart_items.quantity + EXCLUDED.quantity,
		updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, q, cartID, productID, quantity, now); err != nil {
		return fmt.Errorf("upserting item[%s] of cart[%s]: %w", productID, cartID, err)
	}

	return adjustCounter(ctx, tx, cartID, quantity)
}

func setItemQuantity(ctx context.Context, tx sqlx.ExtContext, cartID string, productID string, quantity int) error {
	const q = `
	UPDATE cart_items SET quantity = $3, updated_at = $4
	WHERE cart_id = $1 AND product_id = $2`

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, q, cartID, productID, quantity, now); err != nil {
		return fmt.Errorf("updating item[%s] of cart[%s]: %w", productID, cartID, err)
	}

	return nil
}

// deleteItem removes the row and returns the quantity it held, so the
// caller can settle the counter. Absent items report ErrItemNotFound.
func deleteItem(ctx context.Context, tx sqlx.ExtContext, cartID string, productID string) (int, error) {
	const q = `
	DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2
	RETURNING quantity`

	var quantity int
	if err := sqlx.GetContext(ctx, tx, &quantity, q, cartID, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrItemNotFound
		}
		return 0, fmt.Errorf("deleting item[%s] of cart[%s]: %w", productID, cartID, err)
	}

	return quantity, nil
}

func adjustCounter(ctx context.Context, tx sqlx.ExtContext, cartID string, delta int) error {
	const q = `
	UPDATE carts SET items_count = items_count + $2, updated_at = $3
	WHERE cart_id = $1`

	if _, err := tx.ExecContext(ctx, q, cartID, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjusting counter of cart[%s] by %d: %w", cartID, delta, err)
	}

	return nil
}

// TotalPrice sums quantity times the current product price over the whole
// cart, in cents. Empty carts sum to zero.
func TotalPrice(ctx context.Context, db sqlx.ExtContext, cartID string) (int, error) {
	const q = `
	SELECT COALESCE(SUM(ci.quantity * p.price), 0)
	FROM cart_items ci
	JOIN products p ON p.product_id = ci.product_id
	WHERE ci.cart_id = $1`

	var total int
	if err := sqlx.GetContext(ctx, db, &total, q, cartID); err != nil {
		return 0, fmt.Errorf("summing total of cart[%s]: %w", cartID, err)
	}

	return total, nil
}
