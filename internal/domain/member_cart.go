package domain

import "time"

// MemberCart is a customer's cart as persisted by the cart service. It
// holds one unit per product.
type MemberCart struct {
	ID            string
	CustomerID    string
	Lines         []CartLine
	PromotionCode string
	Promotion     *Promotion
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CartLine is a stored line. Product is nil when the catalog entry was
// removed after the line was added.
type CartLine struct {
	ProductID          string
	Product            *Product
	UnitPriceCents     int64
	OriginalPriceCents int64
	Quantity           int
	AddedAt            time.Time
}

// Items returns the lines as priced line items.
func (c MemberCart) Items() []LineItem {
	items := make([]LineItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		item := LineItem{
			ProductID:          l.ProductID,
			UnitPriceCents:     l.UnitPriceCents,
			OriginalPriceCents: l.OriginalPriceCents,
			Quantity:           l.Quantity,
		}
		if l.Product != nil {
			item.Title = l.Product.Title
			item.Image = l.Product.Image
			item.Category = l.Product.Category
			item.Seller = Seller{ID: l.Product.SellerID, Name: l.Product.SellerName}
		}
		items = append(items, item)
	}
	return items
}
