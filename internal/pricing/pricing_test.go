package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"storefront-cart/internal/domain"
)

func line(id string, cents int64, qty int) domain.LineItem {
	return domain.LineItem{ProductID: id, UnitPriceCents: cents, Quantity: qty}
}

func percent(v int64) *domain.Promotion {
	return &domain.Promotion{Code: "P", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(v)}
}

func fixed(v int64) *domain.Promotion {
	return &domain.Promotion{Code: "F", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(v)}
}

func TestCalculateNoPromotion(t *testing.T) {
	got := Calculate([]domain.LineItem{line("a", 1250, 2), line("b", 500, 1)}, nil)
	assert.Equal(t, Totals{SubtotalCents: 3000, DiscountCents: 0, TotalCents: 3000}, got)
}

func TestCalculatePercentage(t *testing.T) {
	got := Calculate([]domain.LineItem{line("a", 10000, 1)}, percent(20))
	assert.Equal(t, Totals{SubtotalCents: 10000, DiscountCents: 2000, TotalCents: 8000}, got)
}

func TestCalculatePercentageRoundsHalfUp(t *testing.T) {
	// 15% of 3.33 = 0.4995 -> 0.50
	got := Calculate([]domain.LineItem{line("a", 333, 1)}, percent(15))
	assert.Equal(t, int64(50), got.DiscountCents)
	assert.Equal(t, int64(283), got.TotalCents)
}

func TestCalculatePercentageOverHundredClamped(t *testing.T) {
	got := Calculate([]domain.LineItem{line("a", 1000, 1)}, percent(150))
	assert.Equal(t, int64(1000), got.DiscountCents)
	assert.Equal(t, int64(0), got.TotalCents)
}

func TestCalculateFixedExceedingSubtotal(t *testing.T) {
	got := Calculate([]domain.LineItem{line("a", 1500, 1)}, fixed(5000))
	assert.Equal(t, Totals{SubtotalCents: 1500, DiscountCents: 1500, TotalCents: 0}, got)
}

func TestCalculateNegativeValueIgnored(t *testing.T) {
	got := Calculate([]domain.LineItem{line("a", 1500, 1)}, fixed(-10))
	assert.Equal(t, int64(0), got.DiscountCents)
	assert.Equal(t, int64(1500), got.TotalCents)
}

func TestCalculateUnknownType(t *testing.T) {
	promo := &domain.Promotion{Code: "X", DiscountType: "bogo", DiscountValue: decimal.NewFromInt(10)}
	got := Calculate([]domain.LineItem{line("a", 1500, 1)}, promo)
	assert.Equal(t, int64(0), got.DiscountCents)
}

func TestCalculateEmptyCart(t *testing.T) {
	got := Calculate(nil, fixed(500))
	assert.Equal(t, Totals{}, got)
}

func TestCalculateIsIdempotent(t *testing.T) {
	items := []domain.LineItem{line("a", 999, 3), line("b", 1, 7)}
	promo := percent(33)
	first := Calculate(items, promo)
	second := Calculate(items, promo)
	assert.Equal(t, first, second)
}

func TestCalculateBounds(t *testing.T) {
	promos := []*domain.Promotion{nil, percent(0), percent(50), percent(100), percent(250), fixed(0), fixed(1), fixed(1_000_000)}
	carts := [][]domain.LineItem{
		nil,
		{line("a", 1, 1)},
		{line("a", 1999, 2), line("b", 1299, 1)},
		{line("a", 0, 5)},
	}
	for _, items := range carts {
		for _, promo := range promos {
			got := Calculate(items, promo)
			assert.GreaterOrEqual(t, got.TotalCents, int64(0))
			assert.LessOrEqual(t, got.TotalCents, got.SubtotalCents)
			assert.Equal(t, got.SubtotalCents-got.DiscountCents, got.TotalCents)
		}
	}
}

func TestPriceUpdatesCachedTotal(t *testing.T) {
	cart := domain.Cart{Items: []domain.LineItem{line("a", 10000, 1)}, Promotion: percent(20), TotalCents: 1}
	got := Price(&cart)
	assert.Equal(t, int64(8000), got.TotalCents)
	assert.Equal(t, int64(8000), cart.TotalCents)
}
