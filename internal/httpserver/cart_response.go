package httpserver

import (
	"time"

	"storefront-cart/internal/domain"
	cartsvc "storefront-cart/internal/service/cart"
)

type cartResponse struct {
	Items         []cartLineResponse `json:"items"`
	Promotion     *domain.Promotion  `json:"promotion"`
	SubtotalCents int64              `json:"subtotalCents"`
	DiscountCents int64              `json:"discountCents"`
	TotalCents    int64              `json:"totalCents"`
}

type cartLineResponse struct {
	Product            *productResponse `json:"product"`
	UnitPriceCents     int64            `json:"unitPriceCents"`
	OriginalPriceCents int64            `json:"originalPriceCents"`
	Quantity           int              `json:"quantity"`
	AddedAt            time.Time        `json:"addedAt"`
}

type productResponse struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
	Seller   *sellerResponse `json:"seller"`
}

type sellerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// toCartResponse renders a stored cart. Lines whose product left the
// catalog carry only the product id.
func toCartResponse(view *cartsvc.View) cartResponse {
	out := cartResponse{
		Items:         make([]cartLineResponse, 0, len(view.Cart.Lines)),
		Promotion:     view.Cart.Promotion,
		SubtotalCents: view.Totals.SubtotalCents,
		DiscountCents: view.Totals.DiscountCents,
		TotalCents:    view.Totals.TotalCents,
	}
	for _, line := range view.Cart.Lines {
		item := cartLineResponse{
			UnitPriceCents:     line.UnitPriceCents,
			OriginalPriceCents: line.OriginalPriceCents,
			Quantity:           line.Quantity,
			AddedAt:            line.AddedAt,
		}
		if p := line.Product; p != nil {
			item.Product = &productResponse{ID: p.ID, Title: p.Title, Image: p.Image, Category: p.Category}
			if p.SellerID != "" || p.SellerName != "" {
				item.Product.Seller = &sellerResponse{ID: p.SellerID, Name: p.SellerName}
			}
		} else if line.ProductID != "" {
			item.Product = &productResponse{ID: line.ProductID}
		}
		out.Items = append(out.Items, item)
	}
	return out
}
