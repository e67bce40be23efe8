package core_test

import (
	"context"
	"errors"
	"testing"

	"coffee-shop/internal/core"
)

func TestSeedService_DefaultCatalog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store core.Store) {
		s := newShop(t, store, core.DefaultCatalog())
		ctx := context.Background()

		coffees, err := s.menu.ListCoffees(ctx)
		if err != nil {
			t.Fatalf("ListCoffees failed: %v", err)
		}
		if len(coffees) != 6 {
			t.Fatalf("Expected 6 coffees, got %d", len(coffees))
		}
		if coffees[0].ID != 1 || coffees[0].Name != "Espresso" || !coffees[0].Price.Equal(dec("2.50")) {
			t.Errorf("Unexpected first coffee: %+v", coffees[0])
		}

		levels, err := s.menu.StockLevels(ctx)
		if err != nil {
			t.Fatalf("StockLevels failed: %v", err)
		}
		if len(levels) != 9 {
			t.Fatalf("Expected 9 stock levels, got %d", len(levels))
		}
		if levels[0].Name != "Coffee Beans" || !levels[0].Quantity.Equal(dec("5000")) || levels[0].Unit != "g" {
			t.Errorf("Unexpected first stock level: %+v", levels[0])
		}

		mocha, err := s.menu.GetCoffee(ctx, 5)
		if err != nil {
			t.Fatalf("GetCoffee failed: %v", err)
		}
		if len(mocha.Recipe) != 3 {
			t.Fatalf("Expected 3 mocha ingredients, got %+v", mocha.Recipe)
		}
		for i := 1; i < len(mocha.Recipe); i++ {
			if mocha.Recipe[i-1].IngredientID >= mocha.Recipe[i].IngredientID {
				t.Errorf("Recipe not ordered by ingredient id: %+v", mocha.Recipe)
			}
		}
	})
}

func TestSeedService_ReseedClearsOrdersAndRestartsIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store core.Store) {
		s := newShop(t, store, core.DefaultCatalog())
		ctx := context.Background()

		if _, err := s.orders.PlaceOrder(ctx, 2, 2); err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
		result, err := s.seed.Seed(ctx, core.DefaultCatalog())
		if err != nil {
			t.Fatalf("Reseed failed: %v", err)
		}
		if result.Coffees != 6 || result.Ingredients != 9 {
			t.Errorf("Unexpected seed result: %+v", result)
		}

		orders, err := s.menu.ListOrders(ctx, 0)
		if err != nil {
			t.Fatalf("ListOrders failed: %v", err)
		}
		if len(orders) != 0 {
			t.Errorf("Expected no orders after reseed, got %d", len(orders))
		}
		if got := stockOf(t, s, "Coffee Beans"); !got.Equal(dec("5000")) {
			t.Errorf("Expected beans restored to 5000, got %s", got)
		}
		espresso, err := s.menu.GetCoffee(ctx, 1)
		if err != nil || espresso.Name != "Espresso" {
			t.Errorf("Expected Espresso at id 1 after reseed, got %+v, %v", espresso, err)
		}
	})
}

func TestSeedService_LoadDuplicateLeavesStoreUnchanged(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store core.Store) {
		s := newShop(t, store, core.DefaultCatalog())
		ctx := context.Background()
		before := takeSnapshot(t, s)

		extra := core.Catalog{
			Ingredients: []core.CatalogIngredient{{Name: "Honey", Unit: "ml", InitialQuantity: dec("500")}},
			Coffees: []core.CatalogCoffee{
				{Name: "Honey Latte", Price: dec("5.50"), Recipe: []core.CatalogRecipeLine{{Ingredient: "Honey", Quantity: dec("15")}}},
				{Name: "Espresso", Price: dec("9.99")},
			},
		}
		_, err := s.seed.Load(ctx, extra)
		if !errors.Is(err, core.ErrDuplicateName) {
			t.Fatalf("Expected ErrDuplicateName, got %v", err)
		}
		var dup *core.DuplicateNameError
		if !errors.As(err, &dup) || dup.Entity != "coffee" || dup.Name != "Espresso" {
			t.Errorf("Unexpected duplicate error: %v", err)
		}

		assertSnapshotEqual(t, before, takeSnapshot(t, s))
		coffees, _ := s.menu.ListCoffees(ctx)
		if len(coffees) != 6 {
			t.Errorf("Expected 6 coffees after failed load, got %d", len(coffees))
		}
	})
}

func TestSeedService_LoadAppends(t *testing.T) {
	s := newShop(t, setupSQLiteStore(t), core.DefaultCatalog())
	ctx := context.Background()

	extra := core.Catalog{
		Ingredients: []core.CatalogIngredient{{Name: "Honey", Unit: "ml", InitialQuantity: dec("500")}},
		Coffees: []core.CatalogCoffee{
			{Name: "Honey Latte", Description: "Latte sweetened with honey", Price: dec("5.50"),
				Recipe: []core.CatalogRecipeLine{{Ingredient: "Honey", Quantity: dec("15")}}},
		},
	}
	result, err := s.seed.Load(ctx, extra)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.Coffees != 1 || result.Ingredients != 1 {
		t.Errorf("Unexpected load result: %+v", result)
	}
	coffee, err := s.menu.GetCoffee(ctx, 7)
	if err != nil {
		t.Fatalf("GetCoffee(7) failed: %v", err)
	}
	if coffee.Name != "Honey Latte" || len(coffee.Recipe) != 1 || coffee.Recipe[0].IngredientName != "Honey" {
		t.Errorf("Unexpected loaded coffee: %+v", coffee)
	}
}

func TestCatalog_Validate(t *testing.T) {
	if err := core.DefaultCatalog().Validate(); err != nil {
		t.Fatalf("Default catalog invalid: %v", err)
	}

	cases := map[string]core.Catalog{
		"unknown ingredient": {
			Coffees: []core.CatalogCoffee{{Name: "Ghost", Price: dec("1"), Recipe: []core.CatalogRecipeLine{{Ingredient: "Nope", Quantity: dec("1")}}}},
		},
		"zero recipe quantity": {
			Ingredients: []core.CatalogIngredient{{Name: "Beans", Unit: "g"}},
			Coffees:     []core.CatalogCoffee{{Name: "Shot", Price: dec("1"), Recipe: []core.CatalogRecipeLine{{Ingredient: "Beans", Quantity: dec("0")}}}},
		},
		"negative price": {
			Coffees: []core.CatalogCoffee{{Name: "Shot", Price: dec("-1")}},
		},
		"negative stock": {
			Ingredients: []core.CatalogIngredient{{Name: "Beans", Unit: "g", InitialQuantity: dec("-5")}},
		},
		"duplicate recipe line": {
			Ingredients: []core.CatalogIngredient{{Name: "Beans", Unit: "g"}},
			Coffees: []core.CatalogCoffee{{Name: "Double", Price: dec("1"), Recipe: []core.CatalogRecipeLine{
				{Ingredient: "Beans", Quantity: dec("1")},
				{Ingredient: "Beans", Quantity: dec("1")},
			}}},
		},
	}
	for name, c := range cases {
		if err := c.Validate(); !errors.Is(err, core.ErrInvalidCatalog) {
			t.Errorf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}

	s := newShop(t, setupSQLiteStore(t), core.DefaultCatalog())
	if _, err := s.seed.Seed(context.Background(), cases["unknown ingredient"]); !errors.Is(err, core.ErrInvalidCatalog) {
		t.Errorf("Seed should reject an invalid catalog, got %v", err)
	}
	if coffees, _ := s.menu.ListCoffees(context.Background()); len(coffees) != 6 {
		t.Errorf("Invalid seed must not clear the store, have %d coffees", len(coffees))
	}
}
