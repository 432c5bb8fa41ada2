package cartsync

import "errors"

var (
	// ErrSyncFailed wraps a transient failure talking to the cart service
	// or a storage backend. The cart is left at its last known state.
	ErrSyncFailed = errors.New("cart synchronization failed")
	// ErrUnsupportedOperation is returned for operations the current cart
	// cannot perform, such as quantity changes on a member cart.
	ErrUnsupportedOperation = errors.New("operation not supported for this cart")
	// ErrPromotionRejected is returned when a promotion code is unknown or
	// not applicable.
	ErrPromotionRejected = errors.New("promotion rejected")
	// ErrSuperseded is returned when a newer request of the same kind, or
	// an ownership change, replaced this one before it completed.
	ErrSuperseded = errors.New("request superseded")
	// ErrInvalidSession is returned for an authenticated session without
	// a credential.
	ErrInvalidSession = errors.New("authenticated session requires a token")
)
