package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderService fulfils coffee orders against ingredient stock.
type OrderService interface {
	// PlaceOrder verifies stock for every recipe ingredient, then records one order with
	// one line and decrements stock, all in a single transaction. It fails with
	// *NotFoundError for unknown coffees and *InsufficientStockError listing every
	// short ingredient; on any failure the store is left unchanged.
	PlaceOrder(ctx context.Context, coffeeID, quantity int) (*Order, error)
	// CheckStock runs the sufficiency check against current stock without writing anything.
	CheckStock(ctx context.Context, coffeeID, quantity int) (*StockCheck, error)
}

type orderService struct {
	store Store
	clock Clock
}

// NewOrderService returns an OrderService over store. A nil clock means SystemClock.
func NewOrderService(store Store, clock Clock) OrderService {
	if clock == nil {
		clock = SystemClock
	}
	return &orderService{store: store, clock: clock}
}

func (s *orderService) PlaceOrder(ctx context.Context, coffeeID, quantity int) (*Order, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidQuantity, quantity)
	}

	var order *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		coffee, err := tx.GetCoffee(ctx, coffeeID)
		if err != nil {
			return err
		}

		// Lock before reading so no other order can consume the same stock in between.
		onHand, err := tx.LockStock(ctx, recipeIngredientIDs(coffee))
		if err != nil {
			return fmt.Errorf("failed to lock stock for %s: %w", coffee.Name, err)
		}
		if err := CheckStock(coffee, onHand, quantity).Err(); err != nil {
			return err
		}

		now := s.clock()
		qty := decimal.NewFromInt(int64(quantity))
		total := coffee.Price.Mul(qty)

		orderID, err := tx.InsertOrder(ctx, total, now)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		line := OrderLine{
			OrderID:    orderID,
			CoffeeID:   coffee.ID,
			CoffeeName: coffee.Name,
			Quantity:   quantity,
			Price:      coffee.Price,
		}
		line.ID, err = tx.InsertOrderLine(ctx, line)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}

		for _, rl := range coffee.Recipe {
			if err := tx.DecrementStock(ctx, rl.IngredientID, rl.Quantity.Mul(qty), now); err != nil {
				return fmt.Errorf("failed to deduct %s: %w", rl.IngredientName, err)
			}
		}

		order = &Order{ID: orderID, TotalPrice: total, CreatedAt: now, Lines: []OrderLine{line}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) CheckStock(ctx context.Context, coffeeID, quantity int) (*StockCheck, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidQuantity, quantity)
	}
	var check StockCheck
	err := s.store.InTx(ctx, func(tx Tx) error {
		coffee, err := tx.GetCoffee(ctx, coffeeID)
		if err != nil {
			return err
		}
		onHand, err := tx.LockStock(ctx, recipeIngredientIDs(coffee))
		if err != nil {
			return fmt.Errorf("failed to read stock for %s: %w", coffee.Name, err)
		}
		check = CheckStock(coffee, onHand, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &check, nil
}
