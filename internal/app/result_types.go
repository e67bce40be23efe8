package app

import (
	"coffee-shop/internal/ai"
	"coffee-shop/internal/core"
	"coffee-shop/internal/export"
)

// MenuResult is returned by Menu.
type MenuResult struct {
	Items []core.MenuItem
	// WithAvailability is false when Available/Missing were not computed.
	WithAvailability bool
}

// OrderResult is returned by PlaceOrder.
type OrderResult struct {
	Order  *core.Order
	Coffee *core.Coffee
}

// InventoryResult is returned by Inventory.
type InventoryResult struct {
	Levels []core.StockLevel
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order
}

// ExportResult is returned by ExportReport.
type ExportResult struct {
	Report      *core.SalesReport
	Object      export.Info
	Destination string
}

// AIResult is returned by InterpretRequest.
type AIResult struct {
	Intent *ai.OrderIntent
	// Coffee is resolved for order intents.
	Coffee *core.Coffee
}
