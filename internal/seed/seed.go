package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type PromotionWriter interface {
	Upsert(ctx context.Context, rule domain.PromotionRule) error
}

// Products is the demo catalog. Two sellers, one discounted item.
var Products = []domain.Product{
	{
		ID:                 "demo-mug",
		Title:              "Stoneware Mug",
		Image:              "https://images.example.com/demo-mug.jpg",
		Category:           "kitchen",
		SellerID:           "seller-clay",
		SellerName:         "Clay & Co",
		PriceCents:         1299,
		OriginalPriceCents: 1599,
		Currency:           "USD",
	},
	{
		ID:         "demo-towel",
		Title:      "Linen Tea Towel",
		Image:      "https://images.example.com/demo-towel.jpg",
		Category:   "kitchen",
		SellerID:   "seller-loom",
		SellerName: "Loom House",
		PriceCents: 800,
		Currency:   "USD",
	},
	{
		ID:         "demo-shirt",
		Title:      "Demo T-Shirt",
		Image:      "https://images.example.com/demo-shirt.jpg",
		Category:   "apparel",
		SellerID:   "seller-loom",
		SellerName: "Loom House",
		PriceCents: 1999,
		Currency:   "USD",
	},
}

// Promotions are the demo codes.
var Promotions = []domain.PromotionRule{
	{
		Promotion: domain.Promotion{
			Code:          "SAVE10",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			Description:   "10% off your order",
		},
		Active: true,
	},
	{
		Promotion: domain.Promotion{
			Code:          "FIVEOFF",
			DiscountType:  domain.DiscountFixed,
			DiscountValue: decimal.NewFromInt(500),
			Description:   "$5 off orders over $20",
		},
		MinSubtotalCents: 2000,
		Active:           true,
	},
	{
		Promotion: domain.Promotion{
			Code:          "RETIRED",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(50),
			Description:   "No longer offered",
		},
		Active: false,
	},
}

// Apply upserts the demo catalog. Running it twice leaves the same rows.
func Apply(ctx context.Context, products ProductWriter, promotions PromotionWriter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, p := range Products {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	for _, r := range Promotions {
		if err := promotions.Upsert(ctx, r); err != nil {
			return fmt.Errorf("upsert promotion %s: %w", r.Code, err)
		}
	}
	logger.Info("seed applied", zap.Int("products", len(Products)), zap.Int("promotions", len(Promotions)))
	return nil
}
