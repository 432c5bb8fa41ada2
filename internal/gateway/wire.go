package gateway

import (
	"time"

	"storefront-cart/internal/domain"
)

// RemoteCart is the cart document served by the cart service. Nested
// product data may be partially missing on older lines.
type RemoteCart struct {
	Items         []RemoteLineItem  `json:"items"`
	Promotion     *domain.Promotion `json:"promotion"`
	SubtotalCents int64             `json:"subtotalCents"`
	DiscountCents int64             `json:"discountCents"`
	TotalCents    int64             `json:"totalCents"`
}

type RemoteLineItem struct {
	Product            *RemoteProduct `json:"product"`
	UnitPriceCents     *int64         `json:"unitPriceCents"`
	OriginalPriceCents *int64         `json:"originalPriceCents"`
	Quantity           int            `json:"quantity"`
	AddedAt            time.Time      `json:"addedAt"`
}

type RemoteProduct struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Image    string        `json:"image"`
	Category string        `json:"category"`
	Seller   *RemoteSeller `json:"seller"`
}

type RemoteSeller struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Token is an issued customer credential.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	CustomerID  string `json:"customer_id"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type promotionRequest struct {
	Code string `json:"code"`
}

type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
