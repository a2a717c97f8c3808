package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type variantSeed struct {
	Name  string
	SKU   string
	Stock int
}

type productSeed struct {
	Name      string
	SKU       string
	Image     string
	Price     string
	SalePrice string
	Stock     int
	Variants  []variantSeed
}

// Apply inserts demo data for manual testing. Idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Name:  "Classic T-Shirt",
			SKU:   "SKU-TSHIRT",
			Image: "https://cdn.example.com/tshirt.jpg",
			Price: "100.00",
			Stock: 0,
			Variants: []variantSeed{
				{Name: "S", SKU: "SKU-TSHIRT-S", Stock: 25},
				{Name: "M", SKU: "SKU-TSHIRT-M", Stock: 40},
				{Name: "L", SKU: "SKU-TSHIRT-L", Stock: 15},
			},
		},
		{
			Name:      "Ceramic Mug",
			SKU:       "SKU-MUG",
			Image:     "https://cdn.example.com/mug.jpg",
			Price:     "49.90",
			SalePrice: "39.90",
			Stock:     120,
		},
		{
			Name:  "Mechanical Keyboard",
			SKU:   "SKU-KEYBOARD",
			Price: "650.00",
			Stock: 12,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	if err := seedTokens(ctx, pool); err != nil {
		return fmt.Errorf("seed tokens: %w", err)
	}
	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	salePrice := p.SalePrice
	if salePrice == "" {
		salePrice = "0"
	}
	const q = `
INSERT INTO products (name, sku, image, price, sale_price, stock)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    image = EXCLUDED.image,
    price = EXCLUDED.price,
    sale_price = EXCLUDED.sale_price,
    stock = EXCLUDED.stock
RETURNING id::text
`
	var productID string
	if err := pool.QueryRow(ctx, q, p.Name, p.SKU, p.Image, p.Price, salePrice, p.Stock).Scan(&productID); err != nil {
		return err
	}

	for _, v := range p.Variants {
		const vq = `
INSERT INTO product_variants (product_id, name, sku, stock)
VALUES ($1, $2, $3, $4)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    stock = EXCLUDED.stock
`
		if _, err := pool.Exec(ctx, vq, productID, v.Name, v.SKU, v.Stock); err != nil {
			return err
		}
	}
	return nil
}

// seedTokens installs fixed demo credentials: one customer access token and
// one admin token. Real tokens come from the external auth system.
func seedTokens(ctx context.Context, pool *pgxpool.Pool) error {
	expiresAt := time.Now().UTC().Add(365 * 24 * time.Hour)
	tokens := []struct {
		Token  string
		UserID string
		Kind   string
	}{
		{Token: "demo-customer-token", UserID: "11111111-1111-1111-1111-111111111111", Kind: "access"},
		{Token: "demo-admin-token", UserID: "22222222-2222-2222-2222-222222222222", Kind: "admin"},
	}
	for _, t := range tokens {
		const q = `
INSERT INTO tokens (token, user_id, kind, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at
`
		if _, err := pool.Exec(ctx, q, t.Token, t.UserID, t.Kind, expiresAt); err != nil {
			return err
		}
	}
	return nil
}
