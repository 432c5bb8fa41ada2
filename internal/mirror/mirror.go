// Package mirror keeps a session-scoped snapshot of the authoritative cart
// so a view can render immediately instead of waiting on a remote fetch.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

const defaultTTL = 30 * time.Minute

// Options configures a Mirror.
type Options struct {
	// TTL bounds how long the session copy outlives its last write.
	TTL    time.Duration
	Logger *zap.Logger
}

// Mirror holds the last cart set by the synchronization engine. A stale
// mirror still serves its snapshot until the next Set.
type Mirror struct {
	store  SessionStore
	key    string
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.RWMutex
	cart  *domain.Cart
	stale bool
}

// New builds a Mirror for one session. Call Load to rehydrate.
func New(store SessionStore, sessionID string, opts Options) *Mirror {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Mirror{
		store:  store,
		key:    cacheKey(sessionID),
		ttl:    opts.TTL,
		logger: opts.Logger,
	}
}

// Load rehydrates the snapshot from the session store. A miss or a
// malformed payload leaves the mirror empty.
func (m *Mirror) Load(ctx context.Context) (*domain.Cart, error) {
	data, err := m.store.Get(ctx, m.key)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load mirror: %w", err)
	}
	var snap snapshot
	cart, ok := snap.decode(data)
	if !ok {
		m.logger.Debug("mirror payload malformed, ignoring", zap.String("key", m.key))
		return nil, nil
	}
	m.mu.Lock()
	m.cart = &cart
	m.stale = false
	m.mu.Unlock()
	return clonePtr(&cart), nil
}

// Get returns a copy of the mirrored cart or nil.
func (m *Mirror) Get() *domain.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clonePtr(m.cart)
}

// Set replaces the snapshot and persists it to the session store. The
// in-memory copy is updated even if persisting fails.
func (m *Mirror) Set(ctx context.Context, cart domain.Cart) error {
	c := cart.Clone()
	m.mu.Lock()
	m.cart = &c
	m.stale = false
	m.mu.Unlock()

	data, err := snapshot{}.encode(c)
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	if err := m.store.Set(ctx, m.key, data, m.ttl); err != nil {
		return fmt.Errorf("persist mirror: %w", err)
	}
	return nil
}

// Invalidate marks the snapshot stale without dropping it.
func (m *Mirror) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

// Stale reports whether a synchronization is pending since the last Set.
func (m *Mirror) Stale() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stale
}

// Clear drops the snapshot and its session copy.
func (m *Mirror) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.cart = nil
	m.stale = false
	m.mu.Unlock()
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	return nil
}

func clonePtr(c *domain.Cart) *domain.Cart {
	if c == nil {
		return nil
	}
	out := c.Clone()
	return &out
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart-mirror:%s", sessionID)
}
