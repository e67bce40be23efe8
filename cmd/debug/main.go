// Command debug prints raw store contents during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"coffee-shop/internal/config"
	"coffee-shop/internal/core"
	"coffee-shop/internal/db"

	"github.com/davecgh/go-spew/spew"
)

const usage = `
Coffee Shop Debug Tools

Usage:
  debug <command>

Commands:
  menu       - Show coffee menu details
  inventory  - Show inventory details
  orders     - Show order details
  reset      - Reset and seed database
  dump       - Dump every record with go-spew
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		return
	}

	config.LoadDotEnv()
	cfg := config.Load()

	ctx := context.Background()
	store, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}

	if err := run(ctx, store, os.Args[1]); err != nil {
		log.Fatalf("[%s] %v", os.Args[1], err)
	}
}

var errUnknownCommand = errors.New("unknown command")

// run executes one debug command and closes store before returning, so
// callers may exit immediately afterwards.
func run(ctx context.Context, store core.Store, cmd string) error {
	defer store.Close()
	menu := core.NewMenuService(store)

	switch cmd {
	case "menu":
		return debugMenu(ctx, menu)
	case "inventory":
		return debugInventory(ctx, menu)
	case "orders":
		return debugOrders(ctx, menu)
	case "reset":
		return debugReset(ctx, store)
	case "dump":
		return debugDump(ctx, menu)
	default:
		fmt.Print(usage)
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}

func debugMenu(ctx context.Context, menu core.MenuService) error {
	fmt.Println("\n=== DEBUG: Coffee Menu ===")
	coffees, err := menu.ListCoffees(ctx)
	if err != nil {
		return err
	}
	for _, c := range coffees {
		full, err := menu.GetCoffee(ctx, c.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%d: %s - %s\n", full.ID, full.Name, core.FormatPrice(full.Price))
		for _, rl := range full.Recipe {
			fmt.Printf("  - %s: %s %s\n", rl.IngredientName, rl.Quantity.String(), rl.Unit)
		}
	}
	return nil
}

func debugInventory(ctx context.Context, menu core.MenuService) error {
	fmt.Println("\n=== DEBUG: Inventory ===")
	levels, err := menu.StockLevels(ctx)
	if err != nil {
		return err
	}
	for _, l := range levels {
		updated := "never"
		if l.LastUpdated != nil {
			updated = l.LastUpdated.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s: %s %s (updated %s)\n", l.Name, l.Quantity.String(), l.Unit, updated)
	}
	return nil
}

func debugOrders(ctx context.Context, menu core.MenuService) error {
	fmt.Println("\n=== DEBUG: Orders ===")
	orders, err := menu.ListOrders(ctx, 0)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Printf("Order #%d: %s - %s\n", o.ID, core.FormatPrice(o.TotalPrice), o.CreatedAt.Format("2006-01-02 15:04:05"))
		for _, l := range o.Lines {
			fmt.Printf("  - %s x%d\n", l.CoffeeName, l.Quantity)
		}
	}
	return nil
}

func debugReset(ctx context.Context, store core.Store) error {
	fmt.Println("\n=== DEBUG: Resetting Database ===")
	if err := store.Drop(ctx); err != nil {
		return err
	}
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	result, err := core.NewSeedService(store, core.SystemClock).Seed(ctx, core.DefaultCatalog())
	if err != nil {
		return err
	}
	log.Printf("[SEED] %d coffees, %d ingredients", result.Coffees, result.Ingredients)
	fmt.Println("Database reset and seeded successfully!")
	return nil
}

func debugDump(ctx context.Context, menu core.MenuService) error {
	items, err := menu.Availability(ctx)
	if err != nil {
		return err
	}
	levels, err := menu.StockLevels(ctx)
	if err != nil {
		return err
	}
	orders, err := menu.ListOrders(ctx, 0)
	if err != nil {
		return err
	}

	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	fmt.Println("=== menu ===")
	cfg.Dump(items)
	fmt.Println("=== inventory ===")
	cfg.Dump(levels)
	fmt.Println("=== orders ===")
	cfg.Dump(orders)
	return nil
}
