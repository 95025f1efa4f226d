package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PurgeStaleGuests deletes guest carts older than the retention window
// that were never claimed by a user. Items cascade with the carts.
// Returns the number of carts removed.
func PurgeStaleGuests(ctx context.Context, db sqlx.ExtContext, retention time.Duration) (int64, error) {
	const q = `DELETE FROM carts WHERE user_id IS NULL AND created_at < $1`

	cutoff := time.Now().UTC().Add(-retention)
	res, err := db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging stale guest carts: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged carts: %w", err)
	}

	return n, nil
}
