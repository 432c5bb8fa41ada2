package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a promotion's value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Promotion is a discount code attached to a cart. DiscountValue is in
// percent points for percentage promotions and in minor currency units
// (cents) for fixed promotions.
type Promotion struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Description   string          `json:"description,omitempty"`
}

// PromotionResult is returned by promotion validation and application.
type PromotionResult struct {
	Valid         bool       `json:"valid"`
	Promotion     *Promotion `json:"promotion,omitempty"`
	Message       string     `json:"message,omitempty"`
	DiscountCents int64      `json:"discountCents"`
}

// CanonicalCode trims and upper-cases a promotion code.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromotionRule is a stored promotion with its applicability limits.
type PromotionRule struct {
	Promotion
	MinSubtotalCents int64
	Active           bool
	ExpiresAt        *time.Time
}

// Check reports whether the rule applies to a cart with the given
// subtotal. A negative subtotal skips the minimum check. When the rule
// does not apply the message says why.
func (r PromotionRule) Check(subtotalCents int64, now time.Time) (bool, string) {
	switch {
	case !r.Active:
		return false, "Promotion code is no longer active"
	case r.ExpiresAt != nil && !now.Before(*r.ExpiresAt):
		return false, "Promotion code has expired"
	case subtotalCents >= 0 && subtotalCents < r.MinSubtotalCents:
		return false, "Cart subtotal is below the promotion minimum"
	}
	return true, ""
}
