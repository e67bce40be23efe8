package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a raw material consumed by coffee recipes, measured in Unit.
type Ingredient struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"` // e.g. "g", "ml", "pieces"
	CreatedAt time.Time `json:"created_at"`
}

// Coffee is a sellable menu item. Recipe is populated by single-coffee lookups
// and left nil by menu listings.
type Coffee struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	Recipe      []RecipeLine    `json:"recipe,omitempty"`
}

// RecipeLine is the quantity of one ingredient needed to make a single unit of a coffee.
// (CoffeeID, IngredientID) is unique.
type RecipeLine struct {
	CoffeeID       int             `json:"coffee_id"`
	IngredientID   int             `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"` // joined from ingredients
	Unit           string          `json:"unit"`            // joined from ingredients
	Quantity       decimal.Decimal `json:"quantity"`
}

// StockLevel is the on-hand quantity of one ingredient joined with its name and unit.
// Ingredients without an inventory row are reported with a zero quantity.
type StockLevel struct {
	IngredientID int             `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	LastUpdated  *time.Time      `json:"last_updated,omitempty"`
}

// Status classifies the stock level for inventory display.
func (s StockLevel) Status() StockStatus {
	return StockStatusOf(s.Quantity)
}

// Order is a completed sale. TotalPrice always equals the sum of its lines.
type Order struct {
	ID         int             `json:"id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	Lines      []OrderLine     `json:"lines"`
}

// OrderLine is one coffee on an order. Price is the coffee price captured at
// order time, independent of later menu price changes.
type OrderLine struct {
	ID         int             `json:"id"`
	OrderID    int             `json:"order_id"`
	CoffeeID   int             `json:"coffee_id"`
	CoffeeName string          `json:"coffee_name"` // joined from coffees
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// LineTotal is Quantity × Price.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SaleRow is one order line flattened with its order header, as read by reporting.
// Orders without lines produce a single row with a zero CoffeeID.
type SaleRow struct {
	OrderID    int
	OrderTotal decimal.Decimal
	OrderedAt  time.Time
	CoffeeID   int
	CoffeeName string
	Quantity   int
	Price      decimal.Decimal
}
