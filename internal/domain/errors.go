package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrAlreadyInCart is returned when a product is added to a cart that
	// already holds it and the cart does not track quantities.
	ErrAlreadyInCart = errors.New("product already in cart")
)
