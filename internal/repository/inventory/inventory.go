// Package inventory is the ledger that adjusts product and variant stock at
// checkout time. Decrements are conditional at the storage layer, so two
// concurrent checkouts can never drive a counter negative.
package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficient is returned when a decrement would push stock below zero.
var ErrInsufficient = errors.New("insufficient stock")

type Ledger interface {
	// Decrement subtracts quantity from the variant's stock when variantID is
	// set, from the product's top-level stock otherwise. Fails with
	// ErrInsufficient instead of going negative.
	Decrement(ctx context.Context, productID string, variantID *string, quantity int) error
	// Increment adds quantity back; used to compensate a failed checkout.
	Increment(ctx context.Context, productID string, variantID *string, quantity int) error
}

type postgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Ledger {
	return &postgresLedger{pool: pool}
}

func (l *postgresLedger) Decrement(ctx context.Context, productID string, variantID *string, quantity int) error {
	if variantID != nil {
		cmd, err := l.pool.Exec(ctx, `
UPDATE product_variants
SET stock = stock - $1
WHERE id = $2 AND product_id = $3 AND stock >= $1
`, quantity, *variantID, productID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrInsufficient
		}
		return nil
	}

	cmd, err := l.pool.Exec(ctx, `
UPDATE products
SET stock = stock - $1
WHERE id = $2 AND stock >= $1
`, quantity, productID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInsufficient
	}
	return nil
}

func (l *postgresLedger) Increment(ctx context.Context, productID string, variantID *string, quantity int) error {
	if variantID != nil {
		_, err := l.pool.Exec(ctx, `
UPDATE product_variants
SET stock = stock + $1
WHERE id = $2 AND product_id = $3
`, quantity, *variantID, productID)
		return err
	}
	_, err := l.pool.Exec(ctx, `
UPDATE products
SET stock = stock + $1
WHERE id = $2
`, quantity, productID)
	return err
}
