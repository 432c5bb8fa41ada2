package cart

import (
	"context"

	"storefront-cart/internal/domain"
)

// Repository stores one cart per customer. A cart is created on first use.
type Repository interface {
	GetByCustomer(ctx context.Context, customerID string) (*domain.MemberCart, error)
	// AddLine returns domain.ErrAlreadyInCart when the product is present.
	AddLine(ctx context.Context, customerID string, product domain.Product) error
	// RemoveLine is a no-op for an absent product.
	RemoveLine(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
	// SetPromotion attaches code, or detaches the promotion when code is empty.
	SetPromotion(ctx context.Context, customerID, code string) error
}
