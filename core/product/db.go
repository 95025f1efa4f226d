package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

// ErrInUse is returned when deleting a product still referenced by cart
// items.
var ErrInUse = errors.New("product is referenced by cart items")

func Create(ctx context.Context, db sqlx.ExtContext, prd Product) error {
	const q = `
	INSERT INTO products
		(product_id, user_id, title, brand, model, description, condition, finish, price, image_url, created_at, updated_at)
	VALUES
		(:product_id, :user_id, :title, :brand, :model, :description, :condition, :finish, :price, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, prd); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, prd Product) error {
	const q = `
	UPDATE products SET
		title       = :title,
		brand       = :brand,
		model       = :model,
		description = :description,
		condition   = :condition,
		finish      = :finish,
		price       = :price,
		image_url   = :image_url,
		updated_at  = :updated_at
	WHERE product_id = :product_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, prd); err != nil {
		return fmt.Errorf("updating product[%s]: %w", prd.ID, err)
	}

	return nil
}

// Delete removes a product unless some cart still references it, in which
// case it fails with ErrInUse. The check and the delete run in the same
// statement set; the RESTRICT foreign key backs it at the schema level.
func Delete(ctx context.Context, db sqlx.ExtContext, productID string) error {
	referenced, err := InCarts(ctx, db, productID)
	if err != nil {
		return err
	}
	if referenced {
		return ErrInUse
	}

	const q = `DELETE FROM products WHERE product_id = $1`
	if _, err := db.ExecContext(ctx, q, productID); err != nil {
		return fmt.Errorf("deleting product[%s]: %w", productID, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, productID string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var prd Product
	if err := sqlx.GetContext(ctx, db, &prd, q, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("selecting product[%s]: %w", productID, err)
	}

	return prd, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Product, error) {
	const q = `SELECT * FROM products ORDER BY created_at DESC`

	prds := []Product{}
	if err := sqlx.SelectContext(ctx, db, &prds, q); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}

	return prds, nil
}

// InCarts reports whether any cart item references the product.
func InCarts(ctx context.Context, db sqlx.ExtContext, productID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM cart_items WHERE product_id = $1)`

	var referenced bool
	if err := sqlx.GetContext(ctx, db, &referenced, q, productID); err != nil {
		return false, fmt.Errorf("checking cart references for product[%s]: %w", productID, err)
	}

	return referenced, nil
}
