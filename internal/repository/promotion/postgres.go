package promotion

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"storefront-cart/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.PromotionRule, error) {
	const q = `
SELECT code, discount_type, discount_value::text, description, min_subtotal_cents, active, expires_at
FROM promotions
WHERE code = $1
`
	var rule domain.PromotionRule
	var value string
	err := r.pool.QueryRow(ctx, q, domain.CanonicalCode(code)).Scan(
		&rule.Code,
		&rule.DiscountType,
		&value,
		&rule.Description,
		&rule.MinSubtotalCents,
		&rule.Active,
		&rule.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if rule.DiscountValue, err = decimal.NewFromString(value); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, rule domain.PromotionRule) error {
	code := domain.CanonicalCode(rule.Code)
	if code == "" {
		return errors.New("promotion code required")
	}
	const q = `
INSERT INTO promotions (code, discount_type, discount_value, description, min_subtotal_cents, active, expires_at)
VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE SET
    discount_type = EXCLUDED.discount_type,
    discount_value = EXCLUDED.discount_value,
    description = EXCLUDED.description,
    min_subtotal_cents = EXCLUDED.min_subtotal_cents,
    active = EXCLUDED.active,
    expires_at = EXCLUDED.expires_at
`
	_, err := r.pool.Exec(ctx, q,
		code,
		string(rule.DiscountType),
		rule.DiscountValue.String(),
		rule.Description,
		rule.MinSubtotalCents,
		rule.Active,
		rule.ExpiresAt,
	)
	return err
}
