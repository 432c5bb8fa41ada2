package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"storefront-cart/internal/db/dbtest"
	"storefront-cart/internal/domain"
)

func seedFixtures(ctx context.Context, t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	var customerID string
	if err := pool.QueryRow(ctx, `INSERT INTO customers (email, password_hash) VALUES ('c@example.com', 'h') RETURNING id::text`).Scan(&customerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO products (id, title, seller_id, seller_name, price_cents, original_price_cents)
VALUES ('p1', 'Mug', 's1', 'Shop', 1200, 1500), ('p2', 'Shirt', 's2', 'Tees', 2000, 2000)
`); err != nil {
		t.Fatalf("insert products: %v", err)
	}
	if _, err := pool.Exec(ctx, `
INSERT INTO promotions (code, discount_type, discount_value, description)
VALUES ('SAVE10', 'percentage', 10, '10% off')
`); err != nil {
		t.Fatalf("insert promotion: %v", err)
	}
	return customerID
}

func TestPostgres_EmptyCartCreatedOnRead(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	customerID := seedFixtures(ctx, t, pool)
	repo := NewPostgres(pool)

	cart, err := repo.GetByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("GetByCustomer: %v", err)
	}
	if cart.ID == "" || len(cart.Lines) != 0 || cart.Promotion != nil {
		t.Fatalf("expected empty cart, got %+v", cart)
	}

	again, err := repo.GetByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("GetByCustomer again: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected the same cart, got %s and %s", cart.ID, again.ID)
	}
}

func TestPostgres_LinesAndPromotion(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	customerID := seedFixtures(ctx, t, pool)
	repo := NewPostgres(pool)

	p1 := domain.Product{ID: "p1", PriceCents: 1200, OriginalPriceCents: 1500}
	if err := repo.AddLine(ctx, customerID, p1); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := repo.AddLine(ctx, customerID, p1); !errors.Is(err, domain.ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}
	if err := repo.AddLine(ctx, customerID, domain.Product{ID: "p2", PriceCents: 2000}); err != nil {
		t.Fatalf("AddLine p2: %v", err)
	}
	if err := repo.SetPromotion(ctx, customerID, "save10"); err != nil {
		t.Fatalf("SetPromotion: %v", err)
	}

	cart, err := repo.GetByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("GetByCustomer: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Product == nil || cart.Lines[0].Product.SellerName != "Shop" {
		t.Fatalf("expected product joined, got %+v", cart.Lines[0])
	}
	if cart.Lines[1].OriginalPriceCents != 2000 {
		t.Fatalf("expected original price defaulted, got %d", cart.Lines[1].OriginalPriceCents)
	}
	if cart.Promotion == nil || cart.Promotion.Code != "SAVE10" || cart.Promotion.DiscountValue.IntPart() != 10 {
		t.Fatalf("unexpected promotion %+v", cart.Promotion)
	}

	if err := repo.RemoveLine(ctx, customerID, "p1"); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if err := repo.RemoveLine(ctx, customerID, "absent"); err != nil {
		t.Fatalf("RemoveLine absent: %v", err)
	}
	if err := repo.SetPromotion(ctx, customerID, ""); err != nil {
		t.Fatalf("SetPromotion clear: %v", err)
	}
	cart, err = repo.GetByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("GetByCustomer: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ProductID != "p2" || cart.Promotion != nil {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestPostgres_LineSurvivesProductRemoval(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	customerID := seedFixtures(ctx, t, pool)
	repo := NewPostgres(pool)

	if err := repo.AddLine(ctx, customerID, domain.Product{ID: "p1", PriceCents: 1200}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM products WHERE id = 'p1'`); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	cart, err := repo.GetByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("GetByCustomer: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Product != nil || cart.Lines[0].UnitPriceCents != 1200 {
		t.Fatalf("unexpected line %+v", cart.Lines)
	}
}

func TestPostgres_Clear(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	customerID := seedFixtures(ctx, t, pool)
	repo := NewPostgres(pool)

	if err := repo.AddLine(ctx, customerID, domain.Product{ID: "p1", PriceCents: 1200}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if err := repo.SetPromotion(ctx, customerID, "SAVE10"); err != nil {
		t.Fatalf("SetPromotion: %v", err)
	}
	if err := repo.Clear(ctx, customerID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	cart, err := repo.GetByCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("GetByCustomer: %v", err)
	}
	if len(cart.Lines) != 0 || cart.Promotion != nil {
		t.Fatalf("expected cleared cart, got %+v", cart)
	}
}
