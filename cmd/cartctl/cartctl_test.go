package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-cart/internal/domain"
	"storefront-cart/internal/gateway"
)

// fakeService is a minimal cart service keyed by a single token.
type fakeService struct {
	mu       sync.Mutex
	products map[string]domain.Product
	lines    []string
	promo    *domain.Promotion
	loggedIn bool
}

func newFakeService() *fakeService {
	return &fakeService{products: map[string]domain.Product{
		"p1": {ID: "p1", Title: "Mug", SellerName: "Clay Co", PriceCents: 1000, OriginalPriceCents: 1000, Currency: "USD"},
		"p2": {ID: "p2", Title: "Towel", SellerName: "Loom", PriceCents: 500, OriginalPriceCents: 800, Currency: "USD"},
	}}
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			ok := f.loggedIn && r.Header.Get("Authorization") == "Bearer tok-1"
			f.mu.Unlock()
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}
			next(w, r)
		}
	}
	save10 := &domain.Promotion{Code: "SAVE10", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, ok := f.products[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
	mux.HandleFunc("GET /api/promotions/{code}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("code") != "SAVE10" {
			writeJSON(w, http.StatusOK, domain.PromotionResult{Valid: false, Message: "Promotion code not found"})
			return
		}
		writeJSON(w, http.StatusOK, domain.PromotionResult{Valid: true, Promotion: save10})
	})
	mux.HandleFunc("POST /api/auth/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.loggedIn = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, gateway.Token{AccessToken: "tok-1", TokenType: "Bearer", ExpiresIn: 3600, CustomerID: "c1"})
	})
	mux.HandleFunc("POST /api/auth/logout", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.loggedIn = false
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /api/cart", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		rc := gateway.RemoteCart{Items: []gateway.RemoteLineItem{}, Promotion: f.promo}
		for _, id := range f.lines {
			p := f.products[id]
			unit, orig := p.PriceCents, p.OriginalPriceCents
			rc.Items = append(rc.Items, gateway.RemoteLineItem{
				Product:            &gateway.RemoteProduct{ID: p.ID, Title: p.Title, Seller: &gateway.RemoteSeller{Name: p.SellerName}},
				UnitPriceCents:     &unit,
				OriginalPriceCents: &orig,
				Quantity:           1,
			})
		}
		writeJSON(w, http.StatusOK, rc)
	}))
	mux.HandleFunc("POST /api/cart/items", authed(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductID string `json:"productId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, id := range f.lines {
			if id == body.ProductID {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "already in cart", "code": "already_in_cart"})
				return
			}
		}
		f.lines = append(f.lines, body.ProductID)
		w.WriteHeader(http.StatusCreated)
	}))
	mux.HandleFunc("POST /api/cart/promotion", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.promo = save10
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, domain.PromotionResult{Valid: true, Promotion: save10})
	}))
	mux.HandleFunc("DELETE /api/cart", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lines, f.promo = nil, nil
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	return mux
}

type cli struct {
	t *testing.T
}

func newCLI(t *testing.T, svc *fakeService) cli {
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)
	t.Setenv("CART_GATEWAY_URL", srv.URL)
	t.Setenv("CART_DATA_DIR", t.TempDir())
	t.Setenv("CART_REDIS_ADDR", "")
	return cli{t: t}
}

func (c cli) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestGuestCartPersistsAcrossRuns(t *testing.T) {
	c := newCLI(t, newFakeService())

	_, _, err := c.run("add", "p1")
	require.NoError(t, err)
	_, _, err = c.run("add", "p1")
	require.NoError(t, err)

	out, _, err := c.run("show")
	require.NoError(t, err)
	assert.Contains(t, out, "Guest")
	assert.Contains(t, out, "Total:    $20.00")

	out, _, err = c.run("promo", "apply", "save10")
	require.NoError(t, err)
	assert.Contains(t, out, "Promotion: SAVE10")
	assert.Contains(t, out, "Discount: -$2.00")
	assert.Contains(t, out, "Total:    $18.00")

	// Quantities clamp to one.
	out, _, err = c.run("qty", "p1", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:    $9.00")
}

func TestGuestRejectsUnknownPromotion(t *testing.T) {
	c := newCLI(t, newFakeService())

	_, errOut, err := c.run("promo", "apply", "BOGUS")
	require.Error(t, err)
	assert.Contains(t, errOut, "[rejected]")
}

func TestLoginMergesGuestCartOnce(t *testing.T) {
	svc := newFakeService()
	c := newCLI(t, svc)

	_, _, err := c.run("add", "p1")
	require.NoError(t, err)
	_, _, err = c.run("add", "p2")
	require.NoError(t, err)

	out, errOut, err := c.run("login", "--email", "ada@example.com", "--password", "Abcdefg1")
	require.NoError(t, err)
	assert.Contains(t, out, "Account (ada@example.com)")
	assert.Contains(t, out, "was $8.00")
	assert.Contains(t, errOut, "[success]")
	assert.Equal(t, []string{"p1", "p2"}, svc.lines)

	// The saved login resumes without merging again.
	out, errOut, err = c.run("show")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:    $15.00")
	assert.NotContains(t, errOut, "[success]")
	assert.Len(t, svc.lines, 2)

	_, _, err = c.run("qty", "p1", "3")
	require.Error(t, err)

	out, _, err = c.run("logout")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Guest cart is empty"), out)
}

func TestExpiredLoginFallsBackToGuest(t *testing.T) {
	svc := newFakeService()
	c := newCLI(t, svc)

	_, _, err := c.run("login", "--email", "ada@example.com", "--password", "Abcdefg1")
	require.NoError(t, err)

	svc.mu.Lock()
	svc.loggedIn = false
	svc.mu.Unlock()

	out, _, err := c.run("show")
	require.NoError(t, err)
	assert.Contains(t, out, "Guest")
}

func TestAddUnknownProduct(t *testing.T) {
	c := newCLI(t, newFakeService())

	_, _, err := c.run("add", "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
