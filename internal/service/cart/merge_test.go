package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/domain"
)

func TestMergeRetagsSessionCartWhenUserHasNone(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, tshirt())

	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s1"), "p-shirt", 2, nil); err != nil {
		t.Fatalf("seed session cart: %v", err)
	}

	cart, err := svc.Merge(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if cart.UserID == nil || *cart.UserID != "u1" {
		t.Fatalf("owner = %+v, want user u1", cart.Owner())
	}
	if cart.SessionID != nil {
		t.Fatal("session owner should be cleared after retag")
	}
	if _, err := repo.GetByOwner(context.Background(), domain.SessionOwner("s1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("no cart should remain under the session key")
	}
}

func TestMergeSumsMatchingLinesKeepingUserPrice(t *testing.T) {
	repo := newMemRepo()
	catalog := &stubProducts{products: map[string]*domain.Product{
		"p-shirt": tshirt(),
		"p-mug":   mug(),
	}}
	svc := New(repo, catalog, testTTL)

	// User cart: 2 shirts at the catalog price of 100.
	if _, err := svc.AddItem(context.Background(), domain.UserOwner("u1"), "p-shirt", 2, nil); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}

	// Session cart built later, after a price change: 1 shirt at 120 plus 3 mugs.
	catalog.products["p-shirt"].Price = dec("120")
	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s1"), "p-shirt", 1, nil); err != nil {
		t.Fatalf("seed session shirt: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s1"), "p-mug", 3, nil); err != nil {
		t.Fatalf("seed session mugs: %v", err)
	}

	cart, err := svc.Merge(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(cart.Items))
	}

	shirt := cart.FindItem("p-shirt", nil)
	if shirt == nil || shirt.Quantity != 3 {
		t.Fatalf("shirt line = %+v, want quantity 3", shirt)
	}
	if !shirt.UnitPrice.Equal(dec("100")) {
		t.Fatalf("shirt price = %s, want user cart's 100", shirt.UnitPrice)
	}

	mugLine := cart.FindItem("p-mug", nil)
	if mugLine == nil || mugLine.Quantity != 3 {
		t.Fatalf("mug line = %+v, want quantity 3 carried over", mugLine)
	}

	if _, err := repo.GetByOwner(context.Background(), domain.SessionOwner("s1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("session cart should be deleted after merge")
	}
}

func TestMergeClampsQuantityAtLineCap(t *testing.T) {
	repo := newMemRepo()
	catalog := &stubProducts{products: map[string]*domain.Product{
		"p-shirt": {ID: "p-shirt", Name: "T-shirt", Price: dec("100"), Stock: 5000},
	}}
	svc := New(repo, catalog, testTTL)

	if _, err := svc.AddItem(context.Background(), domain.UserOwner("u1"), "p-shirt", 900, nil); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), domain.SessionOwner("s1"), "p-shirt", 900, nil); err != nil {
		t.Fatalf("seed session cart: %v", err)
	}

	cart, err := svc.Merge(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if cart.Items[0].Quantity != domain.MaxItemQuantity {
		t.Fatalf("quantity = %d, want clamped to %d", cart.Items[0].Quantity, domain.MaxItemQuantity)
	}
}

func TestMergeStopsAppendingAtDistinctLineCap(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	seed := func(owner domain.CartOwner, prefix string, lines int) {
		cart, err := repo.Create(context.Background(), owner, testTTL)
		if err != nil {
			t.Fatalf("seed cart: %v", err)
		}
		for i := 0; i < lines; i++ {
			cart.Items = append(cart.Items, domain.CartItem{
				ID:        fmt.Sprintf("%s-line-%d", prefix, i),
				CartID:    cart.ID,
				ProductID: fmt.Sprintf("%s-product-%d", prefix, i),
				Quantity:  1,
				UnitPrice: dec("10"),
			})
		}
		if err := repo.Save(context.Background(), cart); err != nil {
			t.Fatalf("seed save: %v", err)
		}
	}
	seed(domain.UserOwner("u1"), "user", 48)
	seed(domain.SessionOwner("s1"), "session", 5)

	cart, err := svc.Merge(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(cart.Items) != domain.MaxCartItems {
		t.Fatalf("lines = %d, want capped at %d", len(cart.Items), domain.MaxCartItems)
	}
	// The first two session lines fit; the rest are dropped.
	if cart.Items[48].ProductID != "session-product-0" || cart.Items[49].ProductID != "session-product-1" {
		t.Fatalf("carried lines = %s, %s", cart.Items[48].ProductID, cart.Items[49].ProductID)
	}
	if _, err := repo.GetByOwner(context.Background(), domain.SessionOwner("s1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("session cart should be gone, err = %v", err)
	}
}

func TestMergeRequiresBothIdentities(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	if _, err := svc.Merge(context.Background(), "", "s1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing user: err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Merge(context.Background(), "u1", ""); !domain.IsValidation(err) {
		t.Fatalf("missing session: err = %v, want validation error", err)
	}
}

func TestMergeMissingSessionCart(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	if _, err := svc.Merge(context.Background(), "u1", "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
