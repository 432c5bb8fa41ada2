package cartsync

import (
	"storefront-cart/internal/domain"
	"storefront-cart/internal/gateway"
)

// fromRemote maps the cart service document onto a member cart. Missing
// nested product or seller data resolves to zero values.
func fromRemote(rc gateway.RemoteCart) domain.Cart {
	items := make([]domain.LineItem, 0, len(rc.Items))
	seen := make(map[string]int, len(rc.Items))
	for _, li := range rc.Items {
		var product gateway.RemoteProduct
		if li.Product != nil {
			product = *li.Product
		}
		var seller gateway.RemoteSeller
		if product.Seller != nil {
			seller = *product.Seller
		}
		unit := int64Value(li.UnitPriceCents)
		original := unit
		if li.OriginalPriceCents != nil {
			original = *li.OriginalPriceCents
		}
		qty := li.Quantity
		if qty < 1 {
			qty = 1
		}
		if i, ok := seen[product.ID]; ok && product.ID != "" {
			items[i].Quantity += qty
			continue
		}
		seen[product.ID] = len(items)
		items = append(items, domain.LineItem{
			ProductID:          product.ID,
			Title:              product.Title,
			Image:              product.Image,
			Category:           product.Category,
			Seller:             domain.Seller{ID: seller.ID, Name: seller.Name},
			UnitPriceCents:     unit,
			OriginalPriceCents: original,
			Quantity:           qty,
		})
	}
	cart := domain.Cart{Items: items, Ownership: domain.OwnershipMember}
	if rc.Promotion != nil && rc.Promotion.Code != "" {
		p := *rc.Promotion
		p.Code = domain.CanonicalCode(p.Code)
		cart.Promotion = &p
	}
	return cart
}

func int64Value(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
