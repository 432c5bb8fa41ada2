// Package guestcart persists the anonymous shopper's cart in a local bbolt
// file so it survives process restarts on the same machine.
package guestcart

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

const (
	defaultBucket = "guest"
	cartKey       = "cart"
)

// Store reads and writes a single guest cart value. A second process
// writing the same file wins the race; there is no cross-process locking
// beyond what bbolt itself provides.
type Store struct {
	db     *bolt.DB
	bucket []byte
	logger *zap.Logger
}

// Open opens (or creates) the bbolt file at path.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open guest store %s: %w", path, err)
	}
	return db, nil
}

// New returns a Store over db. The bucket is created on first write.
func New(db *bolt.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, bucket: []byte(defaultBucket), logger: logger}
}

// Read returns the saved cart or an empty one. A malformed payload is
// treated as absent.
func (s *Store) Read(ctx context.Context) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmptyCart(), err
	}
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(cartKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return domain.EmptyCart(), fmt.Errorf("read guest cart: %w", err)
	}
	if raw == nil {
		return domain.EmptyCart(), nil
	}
	cart, ok := domain.DecodeCart(raw)
	if !ok {
		s.logger.Debug("guest cart payload malformed, treating as empty", zap.Int("bytes", len(raw)))
	}
	cart.Ownership = domain.OwnershipGuest
	return cart, nil
}

// Write replaces the saved cart.
func (s *Store) Write(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := domain.EncodeCart(cart)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(cartKey), data)
	})
}

// Clear removes the saved cart. Clearing an absent cart is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(cartKey))
	})
}
