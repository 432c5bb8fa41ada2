package cart

import (
	"context"
	"errors"
	"time"

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

func (r *postgresRepo) GetByCustomer(ctx context.Context, customerID string) (*domain.MemberCart, error) {
	if _, err := ensureCart(ctx, r.pool, customerID); err != nil {
		return nil, err
	}
	return r.fetchCart(ctx, customerID)
}

func (r *postgresRepo) AddLine(ctx context.Context, customerID string, product domain.Product) error {
	return r.inTx(ctx, customerID, func(tx pgx.Tx, cartID string) error {
		original := product.OriginalPriceCents
		if original == 0 {
			original = product.PriceCents
		}
		cmd, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, unit_price_cents, original_price_cents, quantity)
VALUES ($1, $2, $3, $4, 1)
ON CONFLICT (cart_id, product_id) DO NOTHING
`, cartID, product.ID, product.PriceCents, original)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrAlreadyInCart
		}
		return nil
	})
}

func (r *postgresRepo) RemoveLine(ctx context.Context, customerID, productID string) error {
	return r.inTx(ctx, customerID, func(tx pgx.Tx, cartID string) error {
		_, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
		return err
	})
}

func (r *postgresRepo) Clear(ctx context.Context, customerID string) error {
	return r.inTx(ctx, customerID, func(tx pgx.Tx, cartID string) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE carts SET promotion_code = NULL WHERE id = $1`, cartID)
		return err
	})
}

func (r *postgresRepo) SetPromotion(ctx context.Context, customerID, code string) error {
	return r.inTx(ctx, customerID, func(tx pgx.Tx, cartID string) error {
		var value *string
		if code = domain.CanonicalCode(code); code != "" {
			value = &code
		}
		_, err := tx.Exec(ctx, `UPDATE carts SET promotion_code = $1 WHERE id = $2`, value, cartID)
		return err
	})
}

// inTx runs fn against the customer's cart and bumps its updated_at.
func (r *postgresRepo) inTx(ctx context.Context, customerID string, fn func(tx pgx.Tx, cartID string) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := ensureCart(ctx, tx, customerID)
	if err != nil {
		return err
	}
	if err := fn(tx, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func ensureCart(ctx context.Context, q rowQuerier, customerID string) (string, error) {
	const upsert = `
INSERT INTO carts (customer_id)
VALUES ($1)
ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
RETURNING id::text
`
	var id string
	if err := q.QueryRow(ctx, upsert, customerID).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, customerID string) (*domain.MemberCart, error) {
	const cartQuery = `
SELECT c.id::text, c.customer_id::text, COALESCE(c.promotion_code, ''), c.created_at, c.updated_at,
       p.code, p.discount_type, p.discount_value::text, p.description
FROM carts c
LEFT JOIN promotions p ON p.code = c.promotion_code
WHERE c.customer_id = $1
`
	var cart domain.MemberCart
	var promoCode, promoType, promoValue, promoDesc *string
	err := r.pool.QueryRow(ctx, cartQuery, customerID).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.PromotionCode,
		&cart.CreatedAt,
		&cart.UpdatedAt,
		&promoCode,
		&promoType,
		&promoValue,
		&promoDesc,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if promoCode != nil {
		value, err := decimal.NewFromString(deref(promoValue))
		if err != nil {
			return nil, err
		}
		cart.Promotion = &domain.Promotion{
			Code:          *promoCode,
			DiscountType:  domain.DiscountType(deref(promoType)),
			DiscountValue: value,
			Description:   deref(promoDesc),
		}
	}

	const linesQuery = `
SELECT l.product_id, l.unit_price_cents, l.original_price_cents, l.quantity, l.added_at,
       pr.id, pr.title, pr.image, pr.category, pr.seller_id, pr.seller_name,
       pr.price_cents, pr.original_price_cents, pr.currency, pr.created_at
FROM cart_lines l
LEFT JOIN products pr ON pr.id = l.product_id
WHERE l.cart_id = $1
ORDER BY l.added_at ASC, l.product_id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		var pid, title, image, category, sellerID, sellerName, currency *string
		var price, original *int64
		var created *time.Time
		if err := rows.Scan(
			&line.ProductID,
			&line.UnitPriceCents,
			&line.OriginalPriceCents,
			&line.Quantity,
			&line.AddedAt,
			&pid,
			&title,
			&image,
			&category,
			&sellerID,
			&sellerName,
			&price,
			&original,
			&currency,
			&created,
		); err != nil {
			return nil, err
		}
		if pid != nil {
			line.Product = &domain.Product{
				ID:                 *pid,
				Title:              deref(title),
				Image:              deref(image),
				Category:           deref(category),
				SellerID:           deref(sellerID),
				SellerName:         deref(sellerName),
				PriceCents:         derefInt(price),
				OriginalPriceCents: derefInt(original),
				Currency:           deref(currency),
			}
			if created != nil {
				line.Product.CreatedAt = *created
			}
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
