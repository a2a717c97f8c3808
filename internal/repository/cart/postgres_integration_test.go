package cart

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/migrate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func cartPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("db not reachable: %v", err)
	}
	return pool
}

func resetCartTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE cart_items, carts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func TestPostgresRepo_Integration(t *testing.T) {
	ctx := context.Background()
	pool := cartPool(ctx, t)
	defer pool.Close()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetCartTables(ctx, t, pool)

	repo := NewPostgres(pool)
	owner := domain.SessionOwner("sess-integration")

	cart, err := repo.Create(ctx, owner, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cart.Version != 0 {
		t.Fatalf("new cart version = %d, want 0", cart.Version)
	}

	cart.Items = []domain.CartItem{{
		ID:        uuid.NewString(),
		CartID:    cart.ID,
		ProductID: uuid.NewString(),
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("100"),
		Total:     decimal.RequireFromString("200"),
		CreatedAt: time.Now().UTC(),
	}}
	cart.Totals = domain.Totals{
		Subtotal: decimal.RequireFromString("200"),
		Discount: decimal.Zero,
		Tax:      decimal.RequireFromString("36"),
		Shipping: decimal.RequireFromString("29.99"),
		Total:    decimal.RequireFromString("265.99"),
	}
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save: %v", err)
	}
	if cart.Version != 1 {
		t.Fatalf("version after save = %d, want 1", cart.Version)
	}

	got, err := repo.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("get by owner: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ID != cart.Items[0].ID {
		t.Fatalf("items = %+v, want line id preserved across save", got.Items)
	}
	if !got.Totals.Total.Equal(decimal.RequireFromString("265.99")) {
		t.Fatalf("total = %s, want 265.99", got.Totals.Total)
	}

	// A writer holding the old version loses.
	stale := *got
	stale.Version = 0
	if err := repo.Save(ctx, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("stale save err = %v, want ErrConflict", err)
	}

	if err := repo.Delete(ctx, cart.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByOwner(ctx, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, cart.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestPostgresRepo_IntegrationDeleteExpired(t *testing.T) {
	ctx := context.Background()
	pool := cartPool(ctx, t)
	defer pool.Close()
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetCartTables(ctx, t, pool)

	repo := NewPostgres(pool)
	if _, err := repo.Create(ctx, domain.SessionOwner("sess-old"), -time.Hour); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := repo.Create(ctx, domain.SessionOwner("sess-live"), time.Hour); err != nil {
		t.Fatalf("create live: %v", err)
	}

	n, err := repo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	if _, err := repo.GetByOwner(ctx, domain.SessionOwner("sess-live")); err != nil {
		t.Fatalf("live cart gone: %v", err)
	}
}
