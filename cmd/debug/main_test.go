package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"coffee-shop/internal/core"
	"coffee-shop/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errReadFailed = errors.New("read failed")

// trackingStore records Close calls and can fail menu reads.
type trackingStore struct {
	core.Store
	closed   int
	failRead bool
}

func (s *trackingStore) ListCoffees(ctx context.Context) ([]core.Coffee, error) {
	if s.failRead {
		return nil, errReadFailed
	}
	return s.Store.ListCoffees(ctx)
}

func (s *trackingStore) Close() {
	s.closed++
	s.Store.Close()
}

func openTrackingStore(t *testing.T) *trackingStore {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "debug.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	return &trackingStore{Store: store}
}

func TestRun_ClosesStoreOnSuccess(t *testing.T) {
	store := openTrackingStore(t)
	require.NoError(t, run(context.Background(), store, "reset"))
	assert.Equal(t, 1, store.closed)
}

func TestRun_ClosesStoreBeforeReturningError(t *testing.T) {
	store := openTrackingStore(t)
	store.failRead = true

	err := run(context.Background(), store, "menu")
	require.ErrorIs(t, err, errReadFailed)
	assert.Equal(t, 1, store.closed)
}

func TestRun_UnknownCommand(t *testing.T) {
	store := openTrackingStore(t)

	err := run(context.Background(), store, "nope")
	require.ErrorIs(t, err, errUnknownCommand)
	assert.Equal(t, 1, store.closed)
}
