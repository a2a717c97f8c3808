package cart

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const cartColumns = `id::text, user_id::text, session_id, subtotal, discount, tax, shipping, total, applied_coupons, version, expires_at, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, owner domain.CartOwner, ttl time.Duration) (*domain.Cart, error) {
	var userID, sessionID *string
	if owner.IsUser() {
		userID = &owner.ID
	} else {
		sessionID = &owner.ID
	}

	const q = `
INSERT INTO carts (user_id, session_id, expires_at)
VALUES ($1, $2, $3)
RETURNING ` + cartColumns
	row := r.pool.QueryRow(ctx, q, userID, sessionID, time.Now().UTC().Add(ttl))
	cart, err := scanCart(row)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	const q = `
SELECT ` + cartColumns + `
FROM carts
WHERE id = $1
`
	return r.fetchCart(ctx, q, id)
}

func (r *postgresRepo) GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	column := "session_id"
	if owner.IsUser() {
		column = "user_id"
	}
	q := `
SELECT ` + cartColumns + `
FROM carts
WHERE ` + column + ` = $1
ORDER BY created_at DESC
LIMIT 1
`
	return r.fetchCart(ctx, q, owner.ID)
}

// Save rewrites the cart document in one transaction: the carts row guarded
// by the optimistic version, then the full item list. Line ids assigned by
// the service survive the rewrite, so item URLs stay stable.
func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
UPDATE carts
SET user_id = $1,
    session_id = $2,
    subtotal = $3,
    discount = $4,
    tax = $5,
    shipping = $6,
    total = $7,
    applied_coupons = $8,
    version = version + 1,
    expires_at = $9,
    updated_at = now()
WHERE id = $10 AND version = $11
`
	coupons := cart.AppliedCoupons
	if coupons == nil {
		coupons = []string{}
	}
	cmd, err := tx.Exec(ctx, q,
		cart.UserID,
		cart.SessionID,
		cart.Totals.Subtotal,
		cart.Totals.Discount,
		cart.Totals.Tax,
		cart.Totals.Shipping,
		cart.Totals.Total,
		coupons,
		cart.ExpiresAt,
		cart.ID,
		cart.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cart.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, unit_price, total, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, item.ID, cart.ID, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice, item.Total, item.CreatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	cart.Version++
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, q string, args ...any) (*domain.Cart, error) {
	row := r.pool.QueryRow(ctx, q, args...)
	cart, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, variant_id::text, quantity, unit_price, total, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.VariantID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Total,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	if err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.SessionID,
		&cart.Totals.Subtotal,
		&cart.Totals.Discount,
		&cart.Totals.Tax,
		&cart.Totals.Shipping,
		&cart.Totals.Total,
		&cart.AppliedCoupons,
		&cart.Version,
		&cart.ExpiresAt,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cart, nil
}
