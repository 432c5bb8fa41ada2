package mirror

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// BoltStore is a SessionStore in a local bbolt file, for single-machine
// clients without Redis. Each value is prefixed with its expiry in unix
// nanoseconds; zero never expires.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltStore(db *bolt.DB) *BoltStore {
	return &BoltStore{db: db, now: time.Now}
}

func (b *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		out     []byte
		expired bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionBucket)
		if bkt == nil {
			return nil
		}
		raw := bkt.Get([]byte(key))
		if len(raw) < 8 {
			return nil
		}
		if exp := int64(binary.BigEndian.Uint64(raw[:8])); exp != 0 && b.now().UnixNano() > exp {
			expired = true
			return nil
		}
		out = append([]byte(nil), raw[8:]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt get failed: %w", err)
	}
	if expired {
		_ = b.Delete(ctx, key)
		return nil, ErrMiss
	}
	if out == nil {
		return nil, ErrMiss
	}
	return out, nil
}

func (b *BoltStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw := make([]byte, 8+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(raw[:8], uint64(b.now().Add(ttl).UnixNano()))
	}
	copy(raw[8:], value)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("bolt set failed: %w", err)
	}
	return nil
}

func (b *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionBucket)
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete failed: %w", err)
	}
	return nil
}
