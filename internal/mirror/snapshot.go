package mirror

import (
	"encoding/json"

	"storefront-cart/internal/domain"
)

// snapshot is the session payload: the persisted cart shape plus the
// ownership it was mirrored under.
type snapshot struct {
	Ownership domain.Ownership `json:"ownership"`
	Cart      json.RawMessage  `json:"cart"`
}

func (snapshot) encode(c domain.Cart) ([]byte, error) {
	body, err := domain.EncodeCart(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshot{Ownership: c.Ownership, Cart: body})
}

func (s snapshot) decode(data []byte) (domain.Cart, bool) {
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Cart{}, false
	}
	switch s.Ownership {
	case domain.OwnershipGuest, domain.OwnershipMember:
	default:
		return domain.Cart{}, false
	}
	cart, ok := domain.DecodeCart(s.Cart)
	if !ok {
		return domain.Cart{}, false
	}
	cart.Ownership = s.Ownership
	return cart, true
}
