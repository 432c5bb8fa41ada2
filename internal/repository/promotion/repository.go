package promotion

import (
	"context"

	"storefront-cart/internal/domain"
)

// Repository stores promotion rules keyed by canonical code.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.PromotionRule, error)
	Upsert(ctx context.Context, rule domain.PromotionRule) error
}
