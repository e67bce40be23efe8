package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock matches any *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicateName matches any *DuplicateNameError.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrStoreUnavailable is wrapped by every failure to open, ping or migrate the record store.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidWindow   = errors.New("report window must not be negative")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

// NotFoundError reports an id that does not resolve to a record.
type NotFoundError struct {
	Entity string // "coffee" or "ingredient"
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Deficiency is one ingredient that cannot cover a requested order.
type Deficiency struct {
	IngredientID int             `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	OnHand       decimal.Decimal `json:"on_hand"`
}

func (d Deficiency) String() string {
	return fmt.Sprintf("%s (need %s, have %s)", d.Name, d.Required.String(), d.OnHand.String())
}

// InsufficientStockError carries every deficient ingredient of a rejected order,
// not only the first one found.
type InsufficientStockError struct {
	CoffeeID     int
	CoffeeName   string
	Quantity     int
	Deficiencies []Deficiency
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Deficiencies))
	for i, d := range e.Deficiencies {
		parts[i] = d.String()
	}
	return fmt.Sprintf("insufficient stock for %d x %s: %s", e.Quantity, e.CoffeeName, strings.Join(parts, ", "))
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// DuplicateNameError reports a unique-name violation on ingredients or coffees.
type DuplicateNameError struct {
	Entity string
	Name   string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }
