package domain

import (
	"bytes"
	"encoding/json"
)

// EncodeCart serializes the persisted {items, promotion} shape.
func EncodeCart(c Cart) ([]byte, error) {
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	return json.Marshal(c)
}

// DecodeCart parses a persisted payload. Any decode problem yields an
// empty cart and ok=false; it never returns an error.
func DecodeCart(data []byte) (cart Cart, ok bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return EmptyCart(), false
	}
	var raw struct {
		Items     *[]LineItem `json:"items"`
		Promotion *Promotion  `json:"promotion"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw.Items == nil {
		return EmptyCart(), false
	}
	return Cart{Items: *raw.Items, Promotion: raw.Promotion}.Normalize(), true
}
