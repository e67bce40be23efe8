package core_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"coffee-shop/internal/core"
	"coffee-shop/internal/store/postgres"
	"coffee-shop/internal/store/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// testClock is a settable clock so orders can be placed in the past.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupSQLiteStore opens a fresh migrated SQLite file under t.TempDir().
func setupSQLiteStore(t *testing.T) core.Store {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "coffee_test.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate sqlite store: %v", err)
	}
	return store
}

// setupPostgresStore drops and recreates the schema of TEST_DATABASE_URL.
func setupPostgresStore(t *testing.T) core.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live shop database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	store := postgres.New(pool)
	t.Cleanup(store.Close)

	if err := store.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test schema: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return store
}

// forEachBackend runs fn against SQLite and, when configured, Postgres.
func forEachBackend(t *testing.T, fn func(t *testing.T, store core.Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, setupSQLiteStore(t)) })
	t.Run("postgres", func(t *testing.T) { fn(t, setupPostgresStore(t)) })
}

type shop struct {
	store     core.Store
	clock     *testClock
	orders    core.OrderService
	menu      core.MenuService
	reporting core.ReportingService
	seed      core.SeedService
}

func newShop(t *testing.T, store core.Store, catalog core.Catalog) *shop {
	t.Helper()
	clock := newTestClock()
	s := &shop{
		store:     store,
		clock:     clock,
		orders:    core.NewOrderService(store, clock.Now),
		menu:      core.NewMenuService(store),
		reporting: core.NewReportingService(store, clock.Now),
		seed:      core.NewSeedService(store, clock.Now),
	}
	if _, err := s.seed.Seed(context.Background(), catalog); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return s
}

// snapshot captures everything an order could change.
type snapshot struct {
	Levels []core.StockLevel
	Orders []core.Order
}

func takeSnapshot(t *testing.T, s *shop) snapshot {
	t.Helper()
	ctx := context.Background()
	levels, err := s.menu.StockLevels(ctx)
	if err != nil {
		t.Fatalf("StockLevels failed: %v", err)
	}
	orders, err := s.menu.ListOrders(ctx, 0)
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	return snapshot{Levels: levels, Orders: orders}
}

func assertSnapshotEqual(t *testing.T, before, after snapshot) {
	t.Helper()
	if len(before.Orders) != len(after.Orders) {
		t.Fatalf("Order count changed: %d -> %d", len(before.Orders), len(after.Orders))
	}
	if len(before.Levels) != len(after.Levels) {
		t.Fatalf("Stock level count changed: %d -> %d", len(before.Levels), len(after.Levels))
	}
	for i := range before.Levels {
		b, a := before.Levels[i], after.Levels[i]
		if b.IngredientID != a.IngredientID || !b.Quantity.Equal(a.Quantity) {
			t.Errorf("Stock of %s changed: %s -> %s", b.Name, b.Quantity, a.Quantity)
		}
		if !sameTime(b.LastUpdated, a.LastUpdated) {
			t.Errorf("last_updated of %s changed", b.Name)
		}
	}
	for i := range before.Orders {
		if before.Orders[i].ID != after.Orders[i].ID {
			t.Errorf("Order list changed at %d: #%d -> #%d", i, before.Orders[i].ID, after.Orders[i].ID)
		}
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func stockOf(t *testing.T, s *shop, name string) decimal.Decimal {
	t.Helper()
	levels, err := s.menu.StockLevels(context.Background())
	if err != nil {
		t.Fatalf("StockLevels failed: %v", err)
	}
	for _, l := range levels {
		if l.Name == name {
			return l.Quantity
		}
	}
	t.Fatalf("No stock level for %s", name)
	return decimal.Zero
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// shotCatalog is a one-coffee catalog with 90 g of beans: exactly five shots.
func shotCatalog() core.Catalog {
	return core.Catalog{
		Ingredients: []core.CatalogIngredient{
			{Name: "Beans", Unit: "g", InitialQuantity: dec("90")},
			{Name: "Oat Milk", Unit: "ml", InitialQuantity: dec("0.5")},
		},
		Coffees: []core.CatalogCoffee{
			{Name: "Shot", Price: dec("2.00"), Recipe: []core.CatalogRecipeLine{{Ingredient: "Beans", Quantity: dec("18")}}},
			{Name: "Oat Flat White", Price: dec("4.20"), Recipe: []core.CatalogRecipeLine{
				{Ingredient: "Beans", Quantity: dec("18")},
				{Ingredient: "Oat Milk", Quantity: dec("0.25")},
			}},
		},
	}
}
