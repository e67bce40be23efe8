package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Clock returns the current time. Services take one so tests can place orders in the past.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// Reader is the read side of the record store. Reads never observe a
// half-committed order: order data comes from single statements.
type Reader interface {
	// ListCoffees returns the menu ordered by id, without recipes.
	ListCoffees(ctx context.Context) ([]Coffee, error)
	// GetCoffee returns a coffee with its recipe ordered by ingredient id.
	// Unknown ids yield *NotFoundError.
	GetCoffee(ctx context.Context, id int) (*Coffee, error)
	// GetIngredient yields *NotFoundError for unknown ids.
	GetIngredient(ctx context.Context, id int) (*Ingredient, error)
	// StockLevels lists every ingredient with its on-hand quantity, ordered by ingredient id.
	StockLevels(ctx context.Context) ([]StockLevel, error)
	// ListOrders returns the newest orders first with their lines. limit <= 0 means no limit.
	ListOrders(ctx context.Context, limit int) ([]Order, error)
	// SalesSince returns every order created at or after since, flattened per line.
	SalesSince(ctx context.Context, since time.Time) ([]SaleRow, error)
}

// Tx is the write side of the record store, valid only inside Store.InTx.
type Tx interface {
	GetCoffee(ctx context.Context, id int) (*Coffee, error)
	// LockStock takes exclusive access to the inventory rows of the given ingredients
	// until the transaction ends and returns their on-hand quantities.
	// Ingredients without an inventory row are absent from the map.
	LockStock(ctx context.Context, ingredientIDs []int) (map[int]decimal.Decimal, error)
	InsertOrder(ctx context.Context, total decimal.Decimal, at time.Time) (int, error)
	InsertOrderLine(ctx context.Context, line OrderLine) (int, error)
	DecrementStock(ctx context.Context, ingredientID int, qty decimal.Decimal, at time.Time) error

	// Clear deletes every row in dependency order and restarts identities.
	Clear(ctx context.Context) error
	InsertIngredient(ctx context.Context, name, unit string, at time.Time) (int, error)
	SetStock(ctx context.Context, ingredientID int, qty decimal.Decimal, at time.Time) error
	InsertCoffee(ctx context.Context, name, description string, price decimal.Decimal, at time.Time) (int, error)
	InsertRecipeLine(ctx context.Context, coffeeID, ingredientID int, qty decimal.Decimal) error
}

// Store is the relational record store. Implementations live in internal/store.
type Store interface {
	Reader
	// InTx runs fn in one all-or-nothing transaction: it commits when fn returns nil
	// and rolls back otherwise, returning fn's error unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// Migrate creates the schema if absent. It is safe to call repeatedly.
	Migrate(ctx context.Context) error
	// Drop removes every table, including the migration history.
	Drop(ctx context.Context) error
	Close()
}
