package product

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

const productColumns = `id, title, image, category, seller_id, seller_name, price_cents, original_price_cents, currency, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("get not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// Upsert inserts or replaces the product keyed by ID. An empty original
// price defaults to the current price.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		return nil, errors.New("product id required")
	}
	if product.OriginalPriceCents == 0 {
		product.OriginalPriceCents = product.PriceCents
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}
	q := `
INSERT INTO products (id, title, image, category, seller_id, seller_name, price_cents, original_price_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    image = EXCLUDED.image,
    category = EXCLUDED.category,
    seller_id = EXCLUDED.seller_id,
    seller_name = EXCLUDED.seller_name,
    price_cents = EXCLUDED.price_cents,
    original_price_cents = EXCLUDED.original_price_cents,
    currency = EXCLUDED.currency
RETURNING ` + productColumns
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.ID,
		product.Title,
		product.Image,
		product.Category,
		product.SellerID,
		product.SellerName,
		product.PriceCents,
		product.OriginalPriceCents,
		product.Currency,
	))
	if err != nil {
		r.logger.Error("upsert", zap.String("id", product.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("upserted", zap.String("id", p.ID))
	return p, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Image,
		&p.Category,
		&p.SellerID,
		&p.SellerName,
		&p.PriceCents,
		&p.OriginalPriceCents,
		&p.Currency,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
