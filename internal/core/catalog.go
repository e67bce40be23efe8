package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CatalogIngredient is an ingredient with its opening stock.
type CatalogIngredient struct {
	Name            string
	Unit            string
	InitialQuantity decimal.Decimal
}

// CatalogRecipeLine references an ingredient of the same catalog by name.
type CatalogRecipeLine struct {
	Ingredient string
	Quantity   decimal.Decimal
}

type CatalogCoffee struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Recipe      []CatalogRecipeLine
}

// Catalog is the fixed data loaded by seeding.
type Catalog struct {
	Ingredients []CatalogIngredient
	Coffees     []CatalogCoffee
}

// Validate rejects recipes that reference ingredients missing from the catalog,
// non-positive recipe quantities and negative prices or stock.
func (c Catalog) Validate() error {
	known := make(map[string]bool, len(c.Ingredients))
	for _, ing := range c.Ingredients {
		if ing.Name == "" || ing.Unit == "" {
			return fmt.Errorf("%w: ingredient requires name and unit", ErrInvalidCatalog)
		}
		if ing.InitialQuantity.IsNegative() {
			return fmt.Errorf("%w: ingredient %s has negative stock %s", ErrInvalidCatalog, ing.Name, ing.InitialQuantity)
		}
		known[ing.Name] = true
	}
	for _, cf := range c.Coffees {
		if cf.Name == "" {
			return fmt.Errorf("%w: coffee requires a name", ErrInvalidCatalog)
		}
		if cf.Price.IsNegative() {
			return fmt.Errorf("%w: coffee %s has negative price %s", ErrInvalidCatalog, cf.Name, cf.Price)
		}
		seen := make(map[string]bool, len(cf.Recipe))
		for _, rl := range cf.Recipe {
			if !known[rl.Ingredient] {
				return fmt.Errorf("%w: coffee %s uses unknown ingredient %s", ErrInvalidCatalog, cf.Name, rl.Ingredient)
			}
			if seen[rl.Ingredient] {
				return fmt.Errorf("%w: coffee %s lists %s twice", ErrInvalidCatalog, cf.Name, rl.Ingredient)
			}
			seen[rl.Ingredient] = true
			if !rl.Quantity.IsPositive() {
				return fmt.Errorf("%w: coffee %s needs a positive quantity of %s", ErrInvalidCatalog, cf.Name, rl.Ingredient)
			}
		}
	}
	return nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultCatalog is the shop's opening menu and stock.
func DefaultCatalog() Catalog {
	return Catalog{
		Ingredients: []CatalogIngredient{
			{Name: "Coffee Beans", Unit: "g", InitialQuantity: d(5000)},
			{Name: "Milk", Unit: "ml", InitialQuantity: d(10000)},
			{Name: "Sugar", Unit: "g", InitialQuantity: d(2000)},
			{Name: "Chocolate Syrup", Unit: "ml", InitialQuantity: d(2000)},
			{Name: "Whipped Cream", Unit: "g", InitialQuantity: d(1000)},
			{Name: "Vanilla Syrup", Unit: "ml", InitialQuantity: d(1500)},
			{Name: "Caramel Syrup", Unit: "ml", InitialQuantity: d(1500)},
			{Name: "Ice", Unit: "g", InitialQuantity: d(20000)},
			{Name: "Water", Unit: "ml", InitialQuantity: d(50000)},
		},
		Coffees: []CatalogCoffee{
			{
				Name: "Espresso", Description: "A single shot of espresso", Price: decimal.RequireFromString("2.50"),
				Recipe: []CatalogRecipeLine{{Ingredient: "Coffee Beans", Quantity: d(18)}},
			},
			{
				Name: "Americano", Description: "Espresso topped with hot water", Price: decimal.RequireFromString("3.00"),
				Recipe: []CatalogRecipeLine{
					{Ingredient: "Coffee Beans", Quantity: d(18)},
					{Ingredient: "Water", Quantity: d(250)},
				},
			},
			{
				Name: "Latte", Description: "Espresso with steamed milk", Price: decimal.RequireFromString("4.50"),
				Recipe: []CatalogRecipeLine{
					{Ingredient: "Coffee Beans", Quantity: d(18)},
					{Ingredient: "Milk", Quantity: d(250)},
				},
			},
			{
				Name: "Cappuccino", Description: "Espresso with foamed milk", Price: decimal.RequireFromString("4.00"),
				Recipe: []CatalogRecipeLine{
					{Ingredient: "Coffee Beans", Quantity: d(18)},
					{Ingredient: "Milk", Quantity: d(150)},
				},
			},
			{
				Name: "Mocha", Description: "Espresso with milk and chocolate", Price: decimal.RequireFromString("5.00"),
				Recipe: []CatalogRecipeLine{
					{Ingredient: "Coffee Beans", Quantity: d(18)},
					{Ingredient: "Milk", Quantity: d(200)},
					{Ingredient: "Chocolate Syrup", Quantity: d(30)},
				},
			},
			{
				Name: "Iced Coffee", Description: "Chilled coffee over ice", Price: decimal.RequireFromString("4.00"),
				Recipe: []CatalogRecipeLine{
					{Ingredient: "Coffee Beans", Quantity: d(18)},
					{Ingredient: "Ice", Quantity: d(200)},
					{Ingredient: "Milk", Quantity: d(100)},
					{Ingredient: "Sugar", Quantity: d(10)},
				},
			},
		},
	}
}
