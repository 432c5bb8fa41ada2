package domain

import "strings"

// Ownership tells which store is authoritative for a cart.
type Ownership string

const (
	OwnershipUnknown Ownership = ""
	OwnershipGuest   Ownership = "guest"
	OwnershipMember  Ownership = "member"
)

// Seller describes the marketplace seller of a product.
type Seller struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LineItem is one product entry in a cart. A cart holds at most one
// line per ProductID.
type LineItem struct {
	ProductID          string `json:"productId"`
	Title              string `json:"title"`
	Image              string `json:"image,omitempty"`
	Category           string `json:"category,omitempty"`
	Seller             Seller `json:"seller"`
	UnitPriceCents     int64  `json:"unitPriceCents"`
	OriginalPriceCents int64  `json:"originalPriceCents"`
	Quantity           int    `json:"quantity"`
}

// Cart is the client-visible cart. TotalCents is a cache filled by the
// pricing calculator and is not persisted.
type Cart struct {
	Items      []LineItem `json:"items"`
	Promotion  *Promotion `json:"promotion"`
	Ownership  Ownership  `json:"-"`
	TotalCents int64      `json:"-"`
}

// EmptyCart returns a cart with no items and no promotion.
func EmptyCart() Cart {
	return Cart{Items: []LineItem{}}
}

// SupportsQuantity reports whether line quantities other than one can be
// stored. Member carts live remotely where each product is a single unit.
func (c Cart) SupportsQuantity() bool {
	return c.Ownership != OwnershipMember
}

// IsEmpty reports whether the cart has no line items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the index of the line for productID or -1.
func (c Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching the
// original's backing arrays.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]LineItem, len(c.Items))
	copy(out.Items, c.Items)
	if c.Promotion != nil {
		p := *c.Promotion
		out.Promotion = &p
	}
	return out
}

// Normalize enforces cart invariants: one line per product, quantities at
// least one, and a canonical promotion code. Duplicate lines are folded
// into the first occurrence.
func (c Cart) Normalize() Cart {
	out := Cart{
		Items:      make([]LineItem, 0, len(c.Items)),
		Ownership:  c.Ownership,
		TotalCents: c.TotalCents,
	}
	index := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			continue
		}
		item.ProductID = id
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if i, ok := index[id]; ok {
			out.Items[i].Quantity += item.Quantity
			continue
		}
		index[id] = len(out.Items)
		out.Items = append(out.Items, item)
	}
	if c.Promotion != nil && strings.TrimSpace(c.Promotion.Code) != "" {
		p := *c.Promotion
		p.Code = CanonicalCode(p.Code)
		out.Promotion = &p
	}
	return out
}
