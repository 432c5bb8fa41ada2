// Package gateway is the HTTP client for the remote cart service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

var (
	// ErrUnauthorized is returned when the cart service rejects the identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("cart service unavailable")
)

// StatusError carries an unexpected response status.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart service returned %d", e.Status)
	}
	return fmt.Sprintf("cart service returned %d: %s", e.Status, e.Message)
}

type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	// Breaker opens after this many consecutive transport or 5xx failures.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client talks JSON over HTTP to the cart service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *zap.Logger
}

// New builds a Client for baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway url %q must be absolute", baseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := opts.Logger
	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "cart-gateway",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Cancelled requests say nothing about service health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Client{baseURL: u, http: httpClient, breaker: breaker, logger: logger}, nil
}

func (c *Client) GetCart(ctx context.Context, identity string) (RemoteCart, error) {
	var out RemoteCart
	err := c.do(ctx, http.MethodGet, "/api/cart", identity, nil, &out)
	return out, err
}

func (c *Client) AddItem(ctx context.Context, identity, productID string) error {
	return c.do(ctx, http.MethodPost, "/api/cart/items", identity, addItemRequest{ProductID: productID}, nil)
}

func (c *Client) RemoveItem(ctx context.Context, identity, productID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(productID), identity, nil, nil)
}

func (c *Client) Clear(ctx context.Context, identity string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart", identity, nil, nil)
}

func (c *Client) ApplyPromotion(ctx context.Context, identity, code string) (domain.PromotionResult, error) {
	var out domain.PromotionResult
	err := c.do(ctx, http.MethodPost, "/api/cart/promotion", identity, promotionRequest{Code: code}, &out)
	return out, err
}

func (c *Client) RemovePromotion(ctx context.Context, identity string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/promotion", identity, nil, nil)
}

// ValidatePromotion checks a code without an identity.
func (c *Client) ValidatePromotion(ctx context.Context, code string) (domain.PromotionResult, error) {
	var out domain.PromotionResult
	err := c.do(ctx, http.MethodGet, "/api/promotions/"+url.PathEscape(domain.CanonicalCode(code)), "", nil, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), "", nil, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (Token, error) {
	var out Token
	err := c.do(ctx, http.MethodPost, "/api/auth/token", "", credentialsRequest{Email: email, Password: password}, &out)
	return out, err
}

// Logout revokes identity on the cart service.
func (c *Client) Logout(ctx context.Context, identity string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", identity, nil, nil)
}

func (c *Client) Signup(ctx context.Context, email, password, firstName, lastName string) (domain.Customer, error) {
	var out domain.Customer
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", credentialsRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, identity string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if identity != "" {
			req.Header.Set("Authorization", "Bearer "+identity)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrUnavailable
		}
		c.logger.Debug("gateway request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		if body.Code == "already_in_cart" {
			return domain.ErrAlreadyInCart
		}
		return domain.ErrAlreadyExists
	}
	return &StatusError{Status: resp.StatusCode, Code: body.Code, Message: body.Error}
}
