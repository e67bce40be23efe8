package repl

import (
	"fmt"
	"strconv"
	"strings"

	"coffee-shop/internal/adapters/cli"
	"coffee-shop/internal/app"
	"coffee-shop/internal/core"
)

// orderWizard walks through choosing a coffee and quantity, checks stock and
// asks for confirmation before placing the order.
func (s *session) orderWizard() {
	menu, err := s.svc.Menu(s.ctx, true)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	cli.PrintMenu(s.out, menu)
	fmt.Fprintln(s.out, "Type 'cancel' at any prompt to abort.")

	var coffeeID int
	for {
		fmt.Fprint(s.out, "  Coffee id: ")
		raw, err := s.readLine()
		if err != nil || strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(s.out, "Order cancelled.")
			return
		}
		id, err := strconv.Atoi(raw)
		if err != nil || !menuHas(menu, id) {
			fmt.Fprintln(s.out, "  Not on the menu.")
			continue
		}
		coffeeID = id
		break
	}

	quantity := 1
	for {
		fmt.Fprint(s.out, "  Quantity [1]: ")
		raw, err := s.readLine()
		if err != nil || strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(s.out, "Order cancelled.")
			return
		}
		if raw == "" {
			break
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fmt.Fprintln(s.out, "  Invalid quantity.")
			continue
		}
		quantity = n
		break
	}

	req := app.PlaceOrderRequest{CoffeeID: coffeeID, Quantity: quantity}
	check, err := s.svc.CheckOrder(s.ctx, req)
	if err != nil {
		cli.PrintOrderError(s.out, coffeeID, err)
		return
	}
	if !check.Sufficient() {
		cli.PrintDeficiencies(s.out, check.Deficiencies)
		return
	}

	fmt.Fprintf(s.out, "\nPlace %d x %s? (y/n): ", quantity, check.CoffeeName)
	choice, err := s.readLine()
	if err != nil {
		return
	}
	if c := strings.ToLower(choice); c != "y" && c != "yes" {
		fmt.Fprintln(s.out, "Order cancelled.")
		return
	}
	result, err := s.svc.PlaceOrder(s.ctx, req)
	if err != nil {
		cli.PrintOrderError(s.out, coffeeID, err)
		return
	}
	cli.PrintOrderPlaced(s.out, result)
}

func menuHas(menu *app.MenuResult, id int) bool {
	for _, item := range menu.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func recipeSummary(c *core.Coffee) string {
	parts := make([]string, len(c.Recipe))
	for i, rl := range c.Recipe {
		parts[i] = fmt.Sprintf("%s %s %s", rl.Quantity.String(), rl.Unit, rl.IngredientName)
	}
	return strings.Join(parts, ", ")
}
