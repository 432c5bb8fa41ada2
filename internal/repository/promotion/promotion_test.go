package promotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"storefront-cart/internal/db/dbtest"
	"storefront-cart/internal/domain"
)

func TestPostgres_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t))

	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	err := repo.Upsert(ctx, domain.PromotionRule{
		Promotion: domain.Promotion{
			Code:          "save15",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: decimal.RequireFromString("15.5"),
			Description:   "15.5% off",
		},
		MinSubtotalCents: 1000,
		Active:           true,
		ExpiresAt:        &expires,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByCode(ctx, " Save15")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.Code != "SAVE15" || !got.DiscountValue.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("unexpected promotion %+v", got)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected expiry %v", got.ExpiresAt)
	}
}

func TestPostgres_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(ctx, t))

	if _, err := repo.GetByCode(ctx, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
