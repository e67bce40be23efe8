package app

import (
	"context"

	"coffee-shop/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, debug) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// Menu lists every coffee. With availability set, each item carries a
	// single-cup stock check.
	Menu(ctx context.Context, availability bool) (*MenuResult, error)

	// GetCoffee returns one coffee with its recipe.
	GetCoffee(ctx context.Context, id int) (*core.Coffee, error)

	// PlaceOrder runs the order transaction. Domain rejections (unknown coffee,
	// insufficient stock, bad quantity) come back as errors for the adapter to render.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error)

	// CheckOrder reports whether an order could be fulfilled right now, without placing it.
	CheckOrder(ctx context.Context, req PlaceOrderRequest) (*core.StockCheck, error)

	// Inventory returns every ingredient with its stock level.
	Inventory(ctx context.Context) (*InventoryResult, error)

	// ListOrders returns the newest orders first. limit <= 0 means all.
	ListOrders(ctx context.Context, limit int) (*OrderListResult, error)

	// SalesReport aggregates the trailing window of days.
	SalesReport(ctx context.Context, days int) (*core.SalesReport, error)

	// InitSchema applies pending migrations.
	InitSchema(ctx context.Context) error

	// Seed wipes the store and loads the default catalog.
	Seed(ctx context.Context) (*core.SeedResult, error)

	// ExportReport builds a sales report and archives it as JSON at the destination.
	ExportReport(ctx context.Context, req ExportRequest) (*ExportResult, error)

	// InterpretRequest sends a natural language request to the order assistant.
	// It never places an order itself.
	InterpretRequest(ctx context.Context, text string) (*AIResult, error)
}
