package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"coffee-shop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "shop.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrate_IsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrate_DetectsChecksumDrift(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.DB().ExecContext(ctx, "UPDATE schema_migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	err = s.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestTimeFormat_RoundTripsAndSorts(t *testing.T) {
	a := time.Date(2026, 3, 9, 23, 59, 59, 123456789, time.FixedZone("X", 3600))
	b := a.Add(time.Nanosecond)

	got, err := parseTime(formatTime(a))
	require.NoError(t, err)
	assert.True(t, got.Equal(a))
	assert.Equal(t, time.UTC, got.Location())
	assert.Less(t, formatTime(a), formatTime(b))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestInsertIngredient_DuplicateName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.InTx(ctx, func(tx core.Tx) error {
		if _, err := tx.InsertIngredient(ctx, "Milk", "ml", now); err != nil {
			return err
		}
		_, err := tx.InsertIngredient(ctx, "Milk", "l", now)
		return err
	})
	require.Error(t, err)
	var dup *core.DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "ingredient", dup.Entity)
	assert.True(t, errors.Is(err, core.ErrDuplicateName))

	levels, err := s.StockLevels(ctx)
	require.NoError(t, err)
	assert.Empty(t, levels, "rolled back transaction must leave no ingredients")
}

func TestDecrementStock_KeepsDecimalPrecision(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	err := s.InTx(ctx, func(tx core.Tx) error {
		id, err := tx.InsertIngredient(ctx, "Syrup", "ml", now)
		if err != nil {
			return err
		}
		if err := tx.SetStock(ctx, id, decimal.RequireFromString("0.3"), now); err != nil {
			return err
		}
		return tx.DecrementStock(ctx, id, decimal.RequireFromString("0.1"), now)
	})
	require.NoError(t, err)

	levels, err := s.StockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "0.2", levels[0].Quantity.String())
	require.NotNil(t, levels[0].LastUpdated)
}

func TestDecrementStock_RefusesNegative(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	var id int
	require.NoError(t, s.InTx(ctx, func(tx core.Tx) error {
		var err error
		id, err = tx.InsertIngredient(ctx, "Beans", "g", now)
		if err != nil {
			return err
		}
		return tx.SetStock(ctx, id, decimal.NewFromInt(5), now)
	}))

	err := s.InTx(ctx, func(tx core.Tx) error {
		return tx.DecrementStock(ctx, id, decimal.NewFromInt(6), now)
	})
	assert.Error(t, err)

	levels, err := s.StockLevels(ctx)
	require.NoError(t, err)
	assert.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestStockLevels_MissingInventoryReadsZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx core.Tx) error {
		_, err := tx.InsertIngredient(ctx, "Cinnamon", "g", time.Now())
		return err
	}))
	levels, err := s.StockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Quantity.IsZero())
	assert.Nil(t, levels[0].LastUpdated)
	assert.Equal(t, core.StockEmpty, levels[0].Status())
}

func TestLockStock_OmitsMissingRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx core.Tx) error {
		onHand, err := tx.LockStock(ctx, []int{1, 2, 3})
		if err != nil {
			return err
		}
		assert.Empty(t, onHand)
		empty, err := tx.LockStock(ctx, nil)
		assert.Empty(t, empty)
		return err
	}))
}

func TestDrop_RemovesEverything(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Drop(ctx))

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, s.Migrate(ctx))
	coffees, err := s.ListCoffees(ctx)
	require.NoError(t, err)
	assert.Empty(t, coffees)
}
