package guestcart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"storefront-cart/internal/domain"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, nil)
}

func TestReadEmptyWhenAbsent(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cart.db"))
	cart, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.Promotion)
}

func TestWriteReadSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.db")

	db, err := Open(path)
	require.NoError(t, err)
	first := New(db, nil)
	in := domain.Cart{
		Items: []domain.LineItem{
			{ProductID: "p1", Title: "Shirt", UnitPriceCents: 1999, Quantity: 2},
			{ProductID: "p2", Title: "Mug", UnitPriceCents: 1299, Quantity: 1},
		},
		Promotion: &domain.Promotion{Code: "SAVE20", DiscountType: domain.DiscountPercentage, DiscountValue: decimal.NewFromInt(20)},
	}
	require.NoError(t, first.Write(ctx, in))
	require.NoError(t, db.Close())

	second := openStore(t, path)
	out, err := second.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.Items, out.Items)
	require.NotNil(t, out.Promotion)
	assert.Equal(t, "SAVE20", out.Promotion.Code)
	assert.Equal(t, domain.OwnershipGuest, out.Ownership)
}

func TestWriteOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, s.Write(ctx, domain.Cart{Items: []domain.LineItem{{ProductID: "a", Quantity: 1}}}))
	require.NoError(t, s.Write(ctx, domain.Cart{Items: []domain.LineItem{{ProductID: "b", Quantity: 3}}}))

	out, err := s.Read(ctx)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "b", out.Items[0].ProductID)
}

func TestReadMalformedIsEmpty(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, s.putRaw([]byte("{not json")))

	out, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, s.Clear(ctx))

	require.NoError(t, s.Write(ctx, domain.Cart{Items: []domain.LineItem{{ProductID: "a", Quantity: 1}}}))
	require.NoError(t, s.Clear(ctx))

	out, err := s.Read(ctx)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

// putRaw stores an arbitrary payload; used to exercise malformed input.
func (s *Store) putRaw(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(cartKey), data)
	})
}
