package product

import (
	"context"
	"errors"
	"testing"

	"storefront-cart/internal/db/dbtest"
	"storefront-cart/internal/domain"
)

func TestPostgres_UpsertListAndGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	repo := NewPostgres(pool, nil)

	p, err := repo.Upsert(ctx, domain.Product{
		ID:         "p1",
		Title:      "Prod 1",
		SellerID:   "s1",
		SellerName: "Seller",
		PriceCents: 100,
	})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if p.OriginalPriceCents != 100 || p.Currency != "USD" {
		t.Fatalf("expected defaults applied, got %+v", p)
	}

	updated, err := repo.Upsert(ctx, domain.Product{
		ID:                 "p1",
		Title:              "Prod 1 updated",
		PriceCents:         80,
		OriginalPriceCents: 100,
	})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.Title != "Prod 1 updated" || updated.PriceCents != 80 {
		t.Fatalf("unexpected updated product %+v", updated)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 product, got %d", len(list))
	}

	got, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.OriginalPriceCents != 100 {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestPostgres_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_UpsertRequiresID(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t), nil)

	if _, err := repo.Upsert(ctx, domain.Product{Title: "x"}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
