package httpserver

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
	"storefront-cart/internal/pricing"
	cartsvc "storefront-cart/internal/service/cart"
	customersvc "storefront-cart/internal/service/customer"
)

type stubCustomerSvc struct {
	mu        sync.Mutex
	byEmail   map[string]*domain.Customer
	passwords map[string]string
	tokens    map[string]*domain.Customer
}

func newStubCustomerSvc() *stubCustomerSvc {
	return &stubCustomerSvc{
		byEmail:   make(map[string]*domain.Customer),
		passwords: make(map[string]string),
		tokens:    make(map[string]*domain.Customer),
	}
}

func (s *stubCustomerSvc) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		return nil, customersvc.ErrInvalidSignup
	}
	if _, ok := s.byEmail[email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	c := &domain.Customer{ID: "cust-" + email, Email: email, FirstName: in.FirstName, LastName: in.LastName}
	s.byEmail[email] = c
	s.passwords[email] = in.Password
	return c, nil
}

func (s *stubCustomerSvc) Login(_ context.Context, email, password string) (*domain.Customer, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	c, ok := s.byEmail[email]
	if !ok || s.passwords[email] != password {
		return nil, "", customersvc.ErrInvalidCredentials
	}
	token := "tok-" + c.ID
	s.tokens[token] = c
	return c, token, nil
}

func (s *stubCustomerSvc) LookupByToken(_ context.Context, token string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tokens[token]
	if !ok {
		return nil, customersvc.ErrInvalidToken
	}
	return c, nil
}

func (s *stubCustomerSvc) Logout(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *stubCustomerSvc) AccessTTLSeconds() int { return 3600 }

// stubCartSvc keeps carts in memory and prices them like the real service.
type stubCartSvc struct {
	mu       sync.Mutex
	products map[string]domain.Product
	promos   map[string]domain.Promotion
	carts    map[string]*domain.MemberCart
	getErr   error
}

func newStubCartSvc(products ...domain.Product) *stubCartSvc {
	s := &stubCartSvc{
		products: make(map[string]domain.Product),
		promos: map[string]domain.Promotion{
			"SAVE10": {Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)},
		},
		carts: make(map[string]*domain.MemberCart),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubCartSvc) cart(customerID string) *domain.MemberCart {
	c, ok := s.carts[customerID]
	if !ok {
		c = &domain.MemberCart{ID: "cart-" + customerID, CustomerID: customerID}
		s.carts[customerID] = c
	}
	return c
}

func (s *stubCartSvc) Get(_ context.Context, customerID string) (*cartsvc.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	c := *s.cart(customerID)
	c.Lines = append([]domain.CartLine(nil), c.Lines...)
	return &cartsvc.View{Cart: c, Totals: pricing.Calculate(c.Items(), c.Promotion)}, nil
}

func (s *stubCartSvc) AddItem(_ context.Context, customerID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if productID == "" {
		return cartsvc.ErrInvalidInput
	}
	p, ok := s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	c := s.cart(customerID)
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return domain.ErrAlreadyInCart
		}
	}
	c.Lines = append(c.Lines, domain.CartLine{
		ProductID:          p.ID,
		Product:            &p,
		UnitPriceCents:     p.PriceCents,
		OriginalPriceCents: p.OriginalPriceCents,
		Quantity:           1,
		AddedAt:            time.Now().UTC(),
	})
	return nil
}

func (s *stubCartSvc) RemoveItem(_ context.Context, customerID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(customerID)
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
	return nil
}

func (s *stubCartSvc) Clear(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart(customerID)
	c.Lines = nil
	c.Promotion = nil
	return nil
}

func (s *stubCartSvc) ApplyPromotion(ctx context.Context, customerID, code string) (domain.PromotionResult, error) {
	res, _ := s.ValidatePromotion(ctx, code)
	if !res.Valid {
		return res, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart(customerID).Promotion = res.Promotion
	return res, nil
}

func (s *stubCartSvc) RemovePromotion(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart(customerID).Promotion = nil
	return nil
}

func (s *stubCartSvc) ValidatePromotion(_ context.Context, code string) (domain.PromotionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[domain.CanonicalCode(code)]
	if !ok {
		return domain.PromotionResult{Valid: false, Message: "Promotion code not found"}, nil
	}
	return domain.PromotionResult{Valid: true, Promotion: &p}, nil
}

type stubProductSvc struct {
	products map[string]domain.Product
}

func (s *stubProductSvc) List(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProductSvc) Get(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

var mug = domain.Product{
	ID:                 "p1",
	Title:              "Mug",
	Category:           "kitchen",
	SellerID:           "s1",
	SellerName:         "Clay Co",
	PriceCents:         1000,
	OriginalPriceCents: 1200,
	Currency:           "USD",
}

type testEnv struct {
	router    *gin.Engine
	customers *stubCustomerSvc
	carts     *stubCartSvc
}

func newTestEnv(t *testing.T, opts Options) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	customers := newStubCustomerSvc()
	carts := newStubCartSvc(mug)
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		CustomerSvc: customers,
		CartSvc:     carts,
		ProductSvc:  &stubProductSvc{products: map[string]domain.Product{mug.ID: mug}},
	}, opts)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return testEnv{router: router, customers: customers, carts: carts}
}

// login registers a customer directly on the stub and returns a token.
func (e testEnv) login(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.customers.Signup(ctx, customersvc.SignupInput{Email: "user@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, token, err := e.customers.Login(ctx, "user@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return token
}
