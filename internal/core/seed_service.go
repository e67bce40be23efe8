package core

import (
	"context"
	"fmt"
)

// SeedResult counts what a seeding run inserted.
type SeedResult struct {
	Coffees     int
	Ingredients int
}

// SeedService bulk-loads a catalog into the store.
type SeedService interface {
	// Seed clears every table and inserts the catalog in one transaction.
	Seed(ctx context.Context, catalog Catalog) (*SeedResult, error)
	// Load inserts the catalog without clearing. Names already present fail with
	// *DuplicateNameError and nothing is written.
	Load(ctx context.Context, catalog Catalog) (*SeedResult, error)
}

type seedService struct {
	store Store
	clock Clock
}

func NewSeedService(store Store, clock Clock) SeedService {
	if clock == nil {
		clock = SystemClock
	}
	return &seedService{store: store, clock: clock}
}

func (s *seedService) Seed(ctx context.Context, catalog Catalog) (*SeedResult, error) {
	return s.run(ctx, catalog, true)
}

func (s *seedService) Load(ctx context.Context, catalog Catalog) (*SeedResult, error) {
	return s.run(ctx, catalog, false)
}

func (s *seedService) run(ctx context.Context, catalog Catalog, clear bool) (*SeedResult, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	var result SeedResult
	err := s.store.InTx(ctx, func(tx Tx) error {
		if clear {
			if err := tx.Clear(ctx); err != nil {
				return fmt.Errorf("failed to clear store: %w", err)
			}
		}

		now := s.clock()
		ingredientIDs := make(map[string]int, len(catalog.Ingredients))
		for _, ing := range catalog.Ingredients {
			id, err := tx.InsertIngredient(ctx, ing.Name, ing.Unit, now)
			if err != nil {
				return err
			}
			if err := tx.SetStock(ctx, id, ing.InitialQuantity, now); err != nil {
				return fmt.Errorf("failed to stock %s: %w", ing.Name, err)
			}
			ingredientIDs[ing.Name] = id
		}

		for _, cf := range catalog.Coffees {
			id, err := tx.InsertCoffee(ctx, cf.Name, cf.Description, cf.Price, now)
			if err != nil {
				return err
			}
			for _, rl := range cf.Recipe {
				if err := tx.InsertRecipeLine(ctx, id, ingredientIDs[rl.Ingredient], rl.Quantity); err != nil {
					return fmt.Errorf("failed to add %s to %s: %w", rl.Ingredient, cf.Name, err)
				}
			}
		}

		result = SeedResult{Coffees: len(catalog.Coffees), Ingredients: len(catalog.Ingredients)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
