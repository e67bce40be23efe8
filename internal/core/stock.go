package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// StockStatus is the inventory display marker.
type StockStatus string

const (
	StockOK    StockStatus = "ok"
	StockLow   StockStatus = "low"
	StockEmpty StockStatus = "empty"
)

var lowStockThreshold = decimal.NewFromInt(10)

// StockStatusOf classifies a quantity: above 10 is ok, above 0 is low, otherwise empty.
func StockStatusOf(q decimal.Decimal) StockStatus {
	switch {
	case q.GreaterThan(lowStockThreshold):
		return StockOK
	case q.IsPositive():
		return StockLow
	default:
		return StockEmpty
	}
}

// StockCheck is the outcome of checking a coffee's recipe against on-hand stock.
type StockCheck struct {
	CoffeeID     int
	CoffeeName   string
	Quantity     int
	Deficiencies []Deficiency
}

// Sufficient reports whether every ingredient covers the requested quantity.
func (c StockCheck) Sufficient() bool { return len(c.Deficiencies) == 0 }

// Err returns nil when sufficient and an *InsufficientStockError otherwise.
func (c StockCheck) Err() error {
	if c.Sufficient() {
		return nil
	}
	return &InsufficientStockError{
		CoffeeID:     c.CoffeeID,
		CoffeeName:   c.CoffeeName,
		Quantity:     c.Quantity,
		Deficiencies: c.Deficiencies,
	}
}

// CheckStock compares recipe quantity × quantity against onHand for every recipe
// line and collects all deficiencies. Ingredients missing from onHand count as zero.
func CheckStock(coffee *Coffee, onHand map[int]decimal.Decimal, quantity int) StockCheck {
	check := StockCheck{CoffeeID: coffee.ID, CoffeeName: coffee.Name, Quantity: quantity}
	q := decimal.NewFromInt(int64(quantity))
	for _, rl := range coffee.Recipe {
		required := rl.Quantity.Mul(q)
		have := onHand[rl.IngredientID] // zero value when no inventory row exists
		if required.GreaterThan(have) {
			check.Deficiencies = append(check.Deficiencies, Deficiency{
				IngredientID: rl.IngredientID,
				Name:         rl.IngredientName,
				Unit:         rl.Unit,
				Required:     required,
				OnHand:       have,
			})
		}
	}
	return check
}

// recipeIngredientIDs returns the recipe's ingredient ids ascending, the order
// in which stock rows are locked.
func recipeIngredientIDs(c *Coffee) []int {
	ids := make([]int, 0, len(c.Recipe))
	for _, rl := range c.Recipe {
		ids = append(ids, rl.IngredientID)
	}
	sort.Ints(ids)
	return ids
}
