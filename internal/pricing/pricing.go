// Package pricing computes cart totals. It holds no state; the same input
// always yields the same Totals.
package pricing

import (
	"github.com/shopspring/decimal"
	"storefront-cart/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals is the priced view of a cart in minor currency units.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	DiscountCents int64 `json:"discountCents"`
	TotalCents    int64 `json:"totalCents"`
}

// Calculate prices items with an optional promotion. The discount never
// exceeds the subtotal and the total never drops below zero.
func Calculate(items []domain.LineItem, promo *domain.Promotion) Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceCents * int64(item.Quantity)
	}
	discount := Discount(subtotal, promo)
	total := subtotal - discount
	if total < 0 {
		total = 0
	}
	return Totals{SubtotalCents: subtotal, DiscountCents: discount, TotalCents: total}
}

// Discount returns the amount promo takes off subtotal, rounded half-up to
// whole cents and clamped to [0, subtotal].
func Discount(subtotal int64, promo *domain.Promotion) int64 {
	if promo == nil || subtotal <= 0 {
		return 0
	}
	value := promo.DiscountValue
	if value.IsNegative() {
		return 0
	}
	var amount int64
	switch promo.DiscountType {
	case domain.DiscountPercentage:
		amount = decimal.NewFromInt(subtotal).Mul(value).Div(hundred).Round(0).IntPart()
	case domain.DiscountFixed:
		amount = value.Round(0).IntPart()
	default:
		return 0
	}
	if amount > subtotal {
		amount = subtotal
	}
	return amount
}

// Price recomputes the cached total on cart and returns its Totals.
func Price(cart *domain.Cart) Totals {
	t := Calculate(cart.Items, cart.Promotion)
	cart.TotalCents = t.TotalCents
	return t
}
