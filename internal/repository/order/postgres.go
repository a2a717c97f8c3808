package order

import (
	"context"
	"errors"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const orderColumns = `
id::text, order_number, user_id::text,
customer_email, customer_phone, customer_first_name, customer_last_name,
subtotal, discount, tax, shipping, total,
billing_address, shipping_address,
payment_method, payment_status, transaction_id, paid_at,
fulfillment_status, tracking_number, carrier, shipped_at, delivered_at, fulfillment_notes,
applied_coupons, notes, created_at`

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	coupons := o.AppliedCoupons
	if coupons == nil {
		coupons = []string{}
	}
	const q = `
INSERT INTO orders (
	order_number, user_id,
	customer_email, customer_phone, customer_first_name, customer_last_name,
	subtotal, discount, tax, shipping, total,
	billing_address, shipping_address,
	payment_method, payment_status,
	fulfillment_status,
	applied_coupons, notes
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING id::text, created_at
`
	err = tx.QueryRow(ctx, q,
		o.OrderNumber,
		o.UserID,
		o.CustomerInfo.Email,
		o.CustomerInfo.Phone,
		o.CustomerInfo.FirstName,
		o.CustomerInfo.LastName,
		o.Pricing.Subtotal,
		o.Pricing.Discount,
		o.Pricing.Tax,
		o.Pricing.Shipping,
		o.Pricing.Total,
		o.Addresses.Billing,
		o.Addresses.Shipping,
		o.Payment.Method,
		o.Payment.Status,
		o.Fulfillment.Status,
		coupons,
		o.Notes,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		if err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, variant_id, name, sku, image, unit_price, quantity, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id::text
`, o.ID, item.ProductID, item.VariantID, item.Name, item.SKU, item.Image, item.UnitPrice, item.Quantity, item.Total).Scan(&item.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`
	row := r.pool.QueryRow(ctx, q, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *postgresRepo) UpdatePayment(ctx context.Context, orderID string, p domain.Payment) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET payment_method = $1, payment_status = $2, transaction_id = $3, paid_at = $4
WHERE id = $5
`, p.Method, p.Status, p.TransactionID, p.PaidAt, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateFulfillment(ctx context.Context, orderID string, f domain.Fulfillment) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET fulfillment_status = $1,
    tracking_number = $2,
    carrier = $3,
    shipped_at = $4,
    delivered_at = $5,
    fulfillment_notes = $6
WHERE id = $7
`, f.Status, f.TrackingNumber, f.Carrier, f.ShippedAt, f.DeliveredAt, f.Notes, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) loadItems(ctx context.Context, o *domain.Order) error {
	const q = `
SELECT id::text, order_id::text, product_id::text, variant_id::text, name, sku, image, unit_price, quantity, total
FROM order_items
WHERE order_id = $1
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, q, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.Name,
			&item.SKU,
			&item.Image,
			&item.UnitPrice,
			&item.Quantity,
			&item.Total,
		); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.CustomerInfo.Email,
		&o.CustomerInfo.Phone,
		&o.CustomerInfo.FirstName,
		&o.CustomerInfo.LastName,
		&o.Pricing.Subtotal,
		&o.Pricing.Discount,
		&o.Pricing.Tax,
		&o.Pricing.Shipping,
		&o.Pricing.Total,
		&o.Addresses.Billing,
		&o.Addresses.Shipping,
		&o.Payment.Method,
		&o.Payment.Status,
		&o.Payment.TransactionID,
		&o.Payment.PaidAt,
		&o.Fulfillment.Status,
		&o.Fulfillment.TrackingNumber,
		&o.Fulfillment.Carrier,
		&o.Fulfillment.ShippedAt,
		&o.Fulfillment.DeliveredAt,
		&o.Fulfillment.Notes,
		&o.AppliedCoupons,
		&o.Notes,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
