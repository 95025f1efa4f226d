package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gearshop/storefront/database"
	"github.com/jmoiron/sqlx"
)

// The operations below are the cart aggregate's contract. Each one that
// touches an item also settles the counter cache inside the same
// transaction, keeping items_count equal to the sum of quantities.

// AddProduct puts quantity units of the product in the cart, summing with
// the existing item if there is one. The caller is expected to have
// resolved the product; quantity must be positive.
func AddProduct(ctx context.Context, db *sqlx.DB, cartID string, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("adding %d of product[%s]: quantity must be positive", quantity, productID)
	}

	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		return upsertItem(ctx, tx, cartID, productID, quantity)
	})
}

// RemoveProduct drops the product from the cart entirely. Removing a
// product that is not in the cart is a no-op, not an error.
func RemoveProduct(ctx context.Context, db *sqlx.DB, cartID string, productID string) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		quantity, err := deleteItem(ctx, tx, cartID, productID)
		if errors.Is(err, ErrItemNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return adjustCounter(ctx, tx, cartID, -quantity)
	})
}

// UpdateQuantity sets the item's quantity. It never creates an item:
// a missing item reports ErrItemNotFound. A quantity of zero or less
// removes the item.
func UpdateQuantity(ctx context.Context, db *sqlx.DB, cartID string, productID string, quantity int) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		it, err := fetchItem(ctx, tx, cartID, productID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			if _, err := deleteItem(ctx, tx, cartID, productID); err != nil {
				return err
			}
			return adjustCounter(ctx, tx, cartID, -it.Quantity)
		}

		if err := setItemQuantity(ctx, tx, cartID, productID, quantity); err != nil {
			return err
		}
		return adjustCounter(ctx, tx, cartID, quantity-it.Quantity)
	})
}

// DecrementProduct lowers the item's quantity by the given amount,
// removing the item when the decrement would not leave a positive
// quantity. A missing item reports ErrItemNotFound.
func DecrementProduct(ctx context.Context, db *sqlx.DB, cartID string, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrementing by %d: quantity must be positive", quantity)
	}

	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		it, err := fetchItem(ctx, tx, cartID, productID)
		if err != nil {
			return err
		}

		if it.Quantity <= quantity {
			if _, err := deleteItem(ctx, tx, cartID, productID); err != nil {
				return err
			}
			return adjustCounter(ctx, tx, cartID, -it.Quantity)
		}

		if err := setItemQuantity(ctx, tx, cartID, productID, it.Quantity-quantity); err != nil {
			return err
		}
		return adjustCounter(ctx, tx, cartID, -quantity)
	})
}

// Clear removes every item and zeroes the counter.
func Clear(ctx context.Context, db *sqlx.DB, cartID string) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		return clear(ctx, tx, cartID)
	})
}

func clear(ctx context.Context, tx sqlx.ExtContext, cartID string) error {
	const del = `DELETE FROM cart_items WHERE cart_id = $1`
	if _, err := tx.ExecContext(ctx, del, cartID); err != nil {
		return fmt.Errorf("clearing cart[%s]: %w", cartID, err)
	}

	const reset = `UPDATE carts SET items_count = 0, updated_at = now() WHERE cart_id = $1`
	if _, err := tx.ExecContext(ctx, reset, cartID); err != nil {
		return fmt.Errorf("resetting counter of cart[%s]: %w", cartID, err)
	}

	return nil
}

// mergeItems folds every item of the source cart into the destination,
// quantity-additive, inside the caller's transaction. Items whose product
// no longer resolves are skipped silently.
func mergeItems(ctx context.Context, tx sqlx.ExtContext, dstCartID string, srcCartID string) error {
	const q = `
	SELECT ci.product_id, ci.quantity
	FROM cart_items ci
	JOIN products p ON p.product_id = ci.product_id
	WHERE ci.cart_id = $1`

	var items []struct {
		ProductID string `db:"product_id"`
		Quantity  int    `db:"quantity"`
	}
	if err := sqlx.SelectContext(ctx, tx, &items, q, srcCartID); err != nil {
		return fmt.Errorf("selecting items of cart[%s] for merge: %w", srcCartID, err)
	}

	for _, it := range items {
		if err := upsertItem(ctx, tx, dstCartID, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}

	return nil
}
