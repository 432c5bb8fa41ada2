package domain

import "time"

// Product is a catalog entry as stored by the cart service.
type Product struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Image              string    `json:"image,omitempty"`
	Category           string    `json:"category,omitempty"`
	SellerID           string    `json:"sellerId,omitempty"`
	SellerName         string    `json:"sellerName,omitempty"`
	PriceCents         int64     `json:"priceCents"`
	OriginalPriceCents int64     `json:"originalPriceCents"`
	Currency           string    `json:"currency"`
	CreatedAt          time.Time `json:"createdAt"`
}

// LineItem builds a single-unit cart line from the product.
func (p Product) LineItem() LineItem {
	original := p.OriginalPriceCents
	if original == 0 {
		original = p.PriceCents
	}
	return LineItem{
		ProductID:          p.ID,
		Title:              p.Title,
		Image:              p.Image,
		Category:           p.Category,
		Seller:             Seller{ID: p.SellerID, Name: p.SellerName},
		UnitPriceCents:     p.PriceCents,
		OriginalPriceCents: original,
		Quantity:           1,
	}
}
