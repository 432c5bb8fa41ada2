// Package cartsync keeps the shopper's cart consistent across the local
// guest store, the session mirror and the remote cart service.
//
// The engine is driven by SetSession. While the shopper is a guest every
// mutation is applied locally and persisted to the guest store. Once the
// shopper is a member every mutation goes to the cart service and is
// followed by a full refetch; the first transition into member mode
// merges the guest cart into the remote one.
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"storefront-cart/internal/domain"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/pricing"
)

// Gateway is the subset of the cart service used by the engine.
type Gateway interface {
	GetCart(ctx context.Context, identity string) (gateway.RemoteCart, error)
	AddItem(ctx context.Context, identity, productID string) error
	RemoveItem(ctx context.Context, identity, productID string) error
	Clear(ctx context.Context, identity string) error
	ApplyPromotion(ctx context.Context, identity, code string) (domain.PromotionResult, error)
	RemovePromotion(ctx context.Context, identity string) error
	ValidatePromotion(ctx context.Context, code string) (domain.PromotionResult, error)
}

// LocalStore persists the guest cart.
type LocalStore interface {
	Read(ctx context.Context) (domain.Cart, error)
	Write(ctx context.Context, cart domain.Cart) error
	Clear(ctx context.Context) error
}

// Mirror is the session-scoped snapshot of the authoritative cart.
type Mirror interface {
	Load(ctx context.Context) (*domain.Cart, error)
	Get() *domain.Cart
	Set(ctx context.Context, cart domain.Cart) error
	Invalidate()
	Clear(ctx context.Context) error
}

// Session is the authentication signal. Token is the credential the cart
// service keys member carts by.
type Session struct {
	Authenticated bool
	CustomerID    string
	Token         string
}

// Options configures an Engine. Both fields are optional.
type Options struct {
	Logger   *zap.Logger
	Notifier Notifier
}

const (
	kindFetch     = "fetch"
	kindPromotion = "promotion"
	kindClear     = "clear"
)

type inflight struct {
	id     uint64
	cancel context.CancelFunc
}

// Engine is safe for concurrent use. Its lock is never held across calls
// to the cart service.
type Engine struct {
	remote   Gateway
	local    LocalStore
	mirror   Mirror
	logger   *zap.Logger
	notifier Notifier
	group    singleflight.Group

	mu         sync.Mutex
	ownership  domain.Ownership
	identity   string
	customerID string
	cart       domain.Cart
	merging    bool
	seq        uint64 // last sequence issued to a mutation or transition
	appliedSeq uint64 // sequence of the state currently held in cart
	version    uint64 // bumped on every change to cart
	reqID      uint64
	inflight   map[string]inflight
	listeners  map[uint64]func(domain.Cart)
	nextListen uint64

	publishMu sync.Mutex
	published uint64
}

// New builds an Engine. Call Restore and then SetSession once the
// authentication status is known.
func New(remote Gateway, local LocalStore, mirror Mirror, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	return &Engine{
		remote:    remote,
		local:     local,
		mirror:    mirror,
		logger:    opts.Logger,
		notifier:  opts.Notifier,
		cart:      domain.EmptyCart(),
		inflight:  make(map[string]inflight),
		listeners: make(map[uint64]func(domain.Cart)),
	}
}

// Restore seeds the engine from the session mirror so a snapshot is
// available before the first synchronization completes.
func (e *Engine) Restore(ctx context.Context) (domain.Cart, error) {
	cached, err := e.mirror.Load(ctx)
	if err != nil {
		e.logger.Warn("mirror rehydrate failed", zap.Error(err))
		return e.Snapshot(), nil
	}
	if cached != nil {
		e.mu.Lock()
		if e.version == 0 {
			e.cart = *cached
		}
		e.mu.Unlock()
	}
	return e.Snapshot(), nil
}

// Snapshot returns the current cart with totals recomputed.
func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Totals prices the current cart.
func (e *Engine) Totals() pricing.Totals {
	c := e.Snapshot()
	return pricing.Calculate(c.Items, c.Promotion)
}

// Ownership reports which store is authoritative.
func (e *Engine) Ownership() domain.Ownership {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ownership
}

// Subscribe registers fn to receive every published cart. The returned
// function removes it.
func (e *Engine) Subscribe(fn func(domain.Cart)) func() {
	e.mu.Lock()
	e.nextListen++
	id := e.nextListen
	e.listeners[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// SetSession applies an authentication status change. Entering member
// mode merges the guest cart once; repeating the same login is a no-op.
// Leaving member mode clears the mirror and reloads the guest cart.
func (e *Engine) SetSession(ctx context.Context, s Session) (domain.Cart, error) {
	if s.Authenticated {
		return e.login(ctx, s)
	}
	return e.logout(ctx)
}

func (e *Engine) login(ctx context.Context, s Session) (domain.Cart, error) {
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return e.Snapshot(), ErrInvalidSession
	}

	e.mu.Lock()
	if e.merging || (e.ownership == domain.OwnershipMember && e.identity == token) {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, nil
	}
	e.merging = true
	e.ownership = domain.OwnershipMember
	e.identity = token
	e.customerID = s.CustomerID
	e.cancelAllLocked()
	seq := e.nextSeqLocked()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.merging = false
		e.mu.Unlock()
	}()

	e.mirror.Invalidate()
	merged := e.mergeGuest(ctx, token)
	cart, err := e.refetch(ctx, "login", token, seq)
	if errors.Is(err, ErrSuperseded) && e.isMemberAs(token) {
		// A later member operation already applied a newer cart.
		cart, err = e.Snapshot(), nil
	}
	if err != nil {
		return cart, err
	}
	if merged > 0 {
		e.notifier.Notify(Notification{Level: LevelSuccess, Op: "merge", Message: "Your cart was saved to your account"})
	}
	return cart, nil
}

// mergeGuest adds every guest line to the member cart. Failures are
// per item and do not stop the batch. The guest cart is cleared once all
// items were attempted and the service took at least one of them; a
// line it already holds counts as taken. It returns the number of items
// attempted, or zero when the guest cart was kept.
func (e *Engine) mergeGuest(ctx context.Context, identity string) int {
	guest, err := e.local.Read(ctx)
	if err != nil {
		e.logger.Warn("read guest cart for merge", zap.Error(err))
		return 0
	}
	if guest.IsEmpty() {
		return 0
	}

	failed, accepted := 0, 0
	for _, item := range guest.Items {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("guest cart merge interrupted, keeping guest cart", zap.Error(err))
			return 0
		}
		err := e.remote.AddItem(ctx, identity, item.ProductID)
		switch {
		case err == nil, errors.Is(err, domain.ErrAlreadyInCart):
			accepted++
		default:
			failed++
			e.logger.Info("merge item skipped", zap.String("product_id", item.ProductID), zap.Error(err))
		}
	}
	if accepted == 0 {
		e.logger.Warn("cart service took no guest items, keeping guest cart", zap.Int("items", len(guest.Items)))
		return 0
	}
	if guest.Promotion != nil {
		if res, err := e.remote.ApplyPromotion(ctx, identity, guest.Promotion.Code); err != nil || !res.Valid {
			e.logger.Info("merge promotion skipped", zap.String("code", guest.Promotion.Code), zap.Error(err))
		}
	}

	if err := e.local.Clear(ctx); err != nil {
		e.logger.Warn("clear guest cart after merge", zap.Error(err))
	}
	e.logger.Info("guest cart merged",
		zap.Int("items", len(guest.Items)),
		zap.Int("failed", failed))
	return len(guest.Items)
}

func (e *Engine) logout(ctx context.Context) (domain.Cart, error) {
	e.mu.Lock()
	if e.ownership == domain.OwnershipGuest {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, nil
	}
	wasMember := e.ownership == domain.OwnershipMember
	e.ownership = domain.OwnershipGuest
	e.identity = ""
	e.customerID = ""
	e.cancelAllLocked()
	seq := e.nextSeqLocked()
	e.mu.Unlock()

	if wasMember {
		if err := e.mirror.Clear(ctx); err != nil {
			e.logger.Warn("clear mirror on logout", zap.Error(err))
		}
	}
	return e.loadGuest(ctx, seq)
}

func (e *Engine) loadGuest(ctx context.Context, seq uint64) (domain.Cart, error) {
	cart, err := e.local.Read(ctx)
	if err != nil {
		e.logger.Warn("read guest cart", zap.Error(err))
		cart = domain.EmptyCart()
	}
	cart.Ownership = domain.OwnershipGuest

	e.mu.Lock()
	if e.ownership != domain.OwnershipGuest || seq < e.appliedSeq {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrSuperseded
	}
	e.setCartLocked(cart, seq)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(ctx)
	return snap, nil
}

// Refresh resynchronizes from the authoritative store. Concurrent member
// refreshes share one fetch.
func (e *Engine) Refresh(ctx context.Context) (domain.Cart, error) {
	e.mu.Lock()
	ownership, identity := e.ownership, e.identity
	e.mu.Unlock()

	if ownership != domain.OwnershipMember {
		e.mu.Lock()
		if ownership == domain.OwnershipUnknown {
			e.ownership = domain.OwnershipGuest
		}
		seq := e.nextSeqLocked()
		e.mu.Unlock()
		return e.loadGuest(ctx, seq)
	}

	// The shared fetch outlives any one caller; each caller stops waiting
	// when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan("refresh:"+identity, func() (interface{}, error) {
		e.mu.Lock()
		seq := e.nextSeqLocked()
		e.mu.Unlock()
		return e.refetch(shared, "refresh", identity, seq)
	})
	select {
	case res := <-ch:
		cart, ok := res.Val.(domain.Cart)
		if !ok {
			cart = e.Snapshot()
		}
		return cart, res.Err
	case <-ctx.Done():
		return e.Snapshot(), ctx.Err()
	}
}

// AddItem adds one unit of product. A guest cart increments an existing
// line; a member cart relies on the cart service, which refuses
// duplicates with domain.ErrAlreadyInCart.
func (e *Engine) AddItem(ctx context.Context, product domain.Product) (domain.Cart, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return e.Snapshot(), errors.New("product id required")
	}
	product.ID = id
	if e.isMember() {
		return e.mutateRemote(ctx, "addItem", itemKind(id), func(ctx context.Context, identity string) error {
			return e.remote.AddItem(ctx, identity, id)
		})
	}
	return e.mutateLocal(ctx, "addItem", func(c *domain.Cart) error {
		if i := c.Find(id); i >= 0 {
			c.Items[i].Quantity++
			return nil
		}
		c.Items = append(c.Items, product.LineItem())
		return nil
	})
}

// RemoveItem drops the line for productID. Removing an absent product
// from a guest cart is a no-op.
func (e *Engine) RemoveItem(ctx context.Context, productID string) (domain.Cart, error) {
	id := strings.TrimSpace(productID)
	if e.isMember() {
		return e.mutateRemote(ctx, "removeItem", itemKind(id), func(ctx context.Context, identity string) error {
			return e.remote.RemoveItem(ctx, identity, id)
		})
	}
	return e.mutateLocal(ctx, "removeItem", func(c *domain.Cart) error {
		if i := c.Find(id); i >= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return nil
	})
}

// SetQuantity changes a guest line's quantity, clamped to at least one.
// Member carts hold one unit per product and reject the call with
// ErrUnsupportedOperation.
func (e *Engine) SetQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	if !e.Snapshot().SupportsQuantity() {
		e.notifier.Notify(Notification{
			Level:   LevelRejected,
			Op:      "setQuantity",
			Message: "Quantity cannot be changed for items in your account cart",
		})
		return e.Snapshot(), ErrUnsupportedOperation
	}
	id := strings.TrimSpace(productID)
	if quantity < 1 {
		quantity = 1
	}
	return e.mutateLocal(ctx, "setQuantity", func(c *domain.Cart) error {
		i := c.Find(id)
		if i < 0 {
			return domain.ErrNotFound
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

// Clear empties the cart, dropping any promotion.
func (e *Engine) Clear(ctx context.Context) (domain.Cart, error) {
	if e.isMember() {
		return e.mutateRemote(ctx, "clear", kindClear, func(ctx context.Context, identity string) error {
			return e.remote.Clear(ctx, identity)
		})
	}

	e.mu.Lock()
	if e.ownership == domain.OwnershipMember {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrSuperseded
	}
	if err := e.local.Clear(ctx); err != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return e.failed(ctx, ctx, "clear", snap, err)
	}
	cart := domain.EmptyCart()
	cart.Ownership = domain.OwnershipGuest
	e.setCartLocked(cart, e.nextSeqLocked())
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(ctx)
	return snap, nil
}

// ApplyPromotion attaches code to the cart, replacing any current
// promotion. Guest carts validate the code remotely and price it locally.
func (e *Engine) ApplyPromotion(ctx context.Context, code string) (domain.Cart, error) {
	code = domain.CanonicalCode(code)
	if code == "" {
		return e.Snapshot(), fmt.Errorf("%w: code required", ErrPromotionRejected)
	}

	if e.isMember() {
		return e.mutateRemote(ctx, "applyPromotion", kindPromotion, func(ctx context.Context, identity string) error {
			res, err := e.remote.ApplyPromotion(ctx, identity, code)
			if err != nil {
				return err
			}
			if !res.Valid {
				return rejectedPromotion(code, res)
			}
			return nil
		})
	}

	e.mu.Lock()
	reqCtx, done := e.beginLocked(ctx, kindPromotion)
	e.mu.Unlock()
	defer done()

	res, err := e.remote.ValidatePromotion(reqCtx, code)
	if err == nil && (!res.Valid || res.Promotion == nil) {
		err = rejectedPromotion(code, res)
	}
	if err != nil {
		return e.failed(ctx, reqCtx, "applyPromotion", e.Snapshot(), err)
	}
	promo := *res.Promotion
	promo.Code = code
	return e.mutateLocal(ctx, "applyPromotion", func(c *domain.Cart) error {
		c.Promotion = &promo
		return nil
	})
}

// RemovePromotion detaches the current promotion, if any.
func (e *Engine) RemovePromotion(ctx context.Context) (domain.Cart, error) {
	if e.isMember() {
		return e.mutateRemote(ctx, "removePromotion", kindPromotion, func(ctx context.Context, identity string) error {
			return e.remote.RemovePromotion(ctx, identity)
		})
	}
	return e.mutateLocal(ctx, "removePromotion", func(c *domain.Cart) error {
		c.Promotion = nil
		return nil
	})
}

// mutateLocal applies fn to a copy of the guest cart, persists it and
// publishes it. The held cart only changes if the write succeeds.
func (e *Engine) mutateLocal(ctx context.Context, op string, fn func(c *domain.Cart) error) (domain.Cart, error) {
	e.mu.Lock()
	if e.ownership == domain.OwnershipMember {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrSuperseded
	}
	next := e.cart.Clone()
	if next.Ownership == domain.OwnershipMember {
		// A member snapshot restored from the mirror is never guest data.
		stored, err := e.local.Read(ctx)
		if err != nil {
			snap := e.snapshotLocked()
			e.mu.Unlock()
			return e.failed(ctx, ctx, op, snap, err)
		}
		next = stored
	}
	next.Ownership = domain.OwnershipGuest
	if err := fn(&next); err != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, err
	}
	next = next.Normalize()
	pricing.Price(&next)
	if err := e.local.Write(ctx, next); err != nil {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return e.failed(ctx, ctx, op, snap, err)
	}
	e.setCartLocked(next, e.nextSeqLocked())
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(ctx)
	return snap, nil
}

// mutateRemote runs call against the cart service and then refetches the
// whole cart, since the service recomputes derived fields.
func (e *Engine) mutateRemote(ctx context.Context, op, kind string, call func(ctx context.Context, identity string) error) (domain.Cart, error) {
	e.mu.Lock()
	identity := e.identity
	seq := e.nextSeqLocked()
	reqCtx, done := e.beginLocked(ctx, kind)
	e.mu.Unlock()
	defer done()

	e.mirror.Invalidate()
	if err := call(reqCtx, identity); err != nil {
		return e.failed(ctx, reqCtx, op, e.Snapshot(), err)
	}
	return e.refetch(ctx, op, identity, seq)
}

// refetch loads the member cart and applies it unless a newer state has
// already been applied or ownership changed meanwhile.
func (e *Engine) refetch(ctx context.Context, op, identity string, seq uint64) (domain.Cart, error) {
	e.mu.Lock()
	reqCtx, done := e.beginLocked(ctx, kindFetch)
	e.mu.Unlock()
	defer done()

	remote, err := e.remote.GetCart(reqCtx, identity)
	if err != nil {
		if reqCtx.Err() == nil {
			e.mirror.Invalidate()
		}
		return e.failed(ctx, reqCtx, op, e.Snapshot(), err)
	}
	cart := fromRemote(remote)

	e.mu.Lock()
	if e.ownership != domain.OwnershipMember || e.identity != identity || seq < e.appliedSeq {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.logger.Debug("discarding stale cart fetch", zap.String("op", op), zap.Uint64("seq", seq))
		return snap, ErrSuperseded
	}
	e.setCartLocked(cart, seq)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(ctx)
	return snap, nil
}

// failed turns an error into the outcome returned to callers and emits at
// most one notification. snap is the unchanged cart.
func (e *Engine) failed(ctx, reqCtx context.Context, op string, snap domain.Cart, err error) (domain.Cart, error) {
	switch {
	case ctx.Err() != nil:
		return snap, ctx.Err()
	case reqCtx.Err() != nil:
		return snap, ErrSuperseded
	case errors.Is(err, ErrPromotionRejected):
		e.notifier.Notify(Notification{Level: LevelRejected, Op: op, Message: err.Error()})
		return snap, err
	case errors.Is(err, domain.ErrAlreadyInCart):
		e.notifier.Notify(Notification{Level: LevelRejected, Op: op, Message: "This item is already in your cart"})
		return snap, err
	}
	e.logger.Warn("cart operation failed", zap.String("op", op), zap.Error(err))
	e.notifier.Notify(Notification{Level: LevelFailure, Op: op, Message: "We couldn't update your cart. Please try again."})
	return snap, fmt.Errorf("%w: %s: %w", ErrSyncFailed, op, err)
}

// publish pushes the newest held cart to the mirror and listeners. Calls
// are serialized and never publish an older version after a newer one.
func (e *Engine) publish(ctx context.Context) {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	e.mu.Lock()
	if e.version <= e.published {
		e.mu.Unlock()
		return
	}
	version := e.version
	cart := e.snapshotLocked()
	listeners := make([]func(domain.Cart), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()

	if err := e.mirror.Set(ctx, cart); err != nil {
		e.logger.Warn("mirror update failed", zap.Error(err))
	}
	e.published = version
	for _, fn := range listeners {
		fn(cart.Clone())
	}
}

func (e *Engine) isMember() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ownership == domain.OwnershipMember
}

func (e *Engine) isMemberAs(identity string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ownership == domain.OwnershipMember && e.identity == identity
}

// snapshotLocked reports the engine's ownership once it is known, so a
// guest cart shown during the login transition already reads as member.
func (e *Engine) snapshotLocked() domain.Cart {
	c := e.cart.Clone()
	if e.ownership != domain.OwnershipUnknown {
		c.Ownership = e.ownership
	}
	pricing.Price(&c)
	return c
}

func (e *Engine) setCartLocked(c domain.Cart, seq uint64) {
	e.cart = c
	e.appliedSeq = seq
	e.version++
}

func (e *Engine) nextSeqLocked() uint64 {
	e.seq++
	return e.seq
}

// beginLocked derives a request context for kind, cancelling any earlier
// request of the same kind still in flight.
func (e *Engine) beginLocked(ctx context.Context, kind string) (context.Context, func()) {
	if prev, ok := e.inflight[kind]; ok {
		prev.cancel()
	}
	e.reqID++
	id := e.reqID
	reqCtx, cancel := context.WithCancel(ctx)
	e.inflight[kind] = inflight{id: id, cancel: cancel}
	return reqCtx, func() {
		e.mu.Lock()
		if cur, ok := e.inflight[kind]; ok && cur.id == id {
			delete(e.inflight, kind)
		}
		e.mu.Unlock()
		cancel()
	}
}

func (e *Engine) cancelAllLocked() {
	for kind, req := range e.inflight {
		req.cancel()
		delete(e.inflight, kind)
	}
}

func itemKind(productID string) string {
	return "item:" + productID
}

func rejectedPromotion(code string, res domain.PromotionResult) error {
	msg := strings.TrimSpace(res.Message)
	if msg == "" {
		msg = "code is not valid"
	}
	return fmt.Errorf("%w: %s: %s", ErrPromotionRejected, code, msg)
}
