package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// MenuItem is a coffee annotated with whether current stock can make one more cup.
type MenuItem struct {
	Coffee
	Available bool
	Missing   []Deficiency
}

// MenuService provides the read-only lookups behind the menu, inventory and debug views.
type MenuService interface {
	ListCoffees(ctx context.Context) ([]Coffee, error)
	GetCoffee(ctx context.Context, id int) (*Coffee, error)
	GetIngredient(ctx context.Context, id int) (*Ingredient, error)
	StockLevels(ctx context.Context) ([]StockLevel, error)
	ListOrders(ctx context.Context, limit int) ([]Order, error)
	// Availability lists the menu with a single-cup stock check per coffee.
	Availability(ctx context.Context) ([]MenuItem, error)
}

type menuService struct {
	store Reader
}

func NewMenuService(store Reader) MenuService {
	return &menuService{store: store}
}

func (s *menuService) ListCoffees(ctx context.Context) ([]Coffee, error) {
	coffees, err := s.store.ListCoffees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coffees: %w", err)
	}
	return coffees, nil
}

func (s *menuService) GetCoffee(ctx context.Context, id int) (*Coffee, error) {
	return s.store.GetCoffee(ctx, id)
}

func (s *menuService) GetIngredient(ctx context.Context, id int) (*Ingredient, error) {
	return s.store.GetIngredient(ctx, id)
}

func (s *menuService) StockLevels(ctx context.Context) ([]StockLevel, error) {
	levels, err := s.store.StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	return levels, nil
}

func (s *menuService) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	orders, err := s.store.ListOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *menuService) Availability(ctx context.Context) ([]MenuItem, error) {
	coffees, err := s.ListCoffees(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := s.StockLevels(ctx)
	if err != nil {
		return nil, err
	}
	onHand := make(map[int]decimal.Decimal, len(levels))
	for _, l := range levels {
		onHand[l.IngredientID] = l.Quantity
	}

	items := make([]MenuItem, 0, len(coffees))
	for _, c := range coffees {
		full, err := s.store.GetCoffee(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		check := CheckStock(full, onHand, 1)
		items = append(items, MenuItem{Coffee: *full, Available: check.Sufficient(), Missing: check.Deficiencies})
	}
	return items, nil
}
