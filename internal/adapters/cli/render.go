package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"coffee-shop/internal/app"
	"coffee-shop/internal/core"
)

// PrintMenu renders the coffee menu table.
func PrintMenu(out io.Writer, result *app.MenuResult) {
	fmt.Fprintln(out, "\n☕ Coffee Menu:")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	for _, item := range result.Items {
		line := fmt.Sprintf("%2d. %-20s %s", item.ID, item.Name, core.FormatPrice(item.Price))
		if result.WithAvailability {
			if item.Available {
				line += "  available"
			} else {
				names := make([]string, len(item.Missing))
				for i, d := range item.Missing {
					names[i] = d.Name
				}
				line += "  sold out (" + strings.Join(names, ", ") + ")"
			}
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

// PrintOrderPlaced renders a successful order.
func PrintOrderPlaced(out io.Writer, result *app.OrderResult) {
	qty := 0
	if len(result.Order.Lines) > 0 {
		qty = result.Order.Lines[0].Quantity
	}
	fmt.Fprintln(out, "✅ Order placed successfully!")
	fmt.Fprintf(out, "   Order: #%d\n", result.Order.ID)
	fmt.Fprintf(out, "   Coffee: %s\n", result.Coffee.Name)
	fmt.Fprintf(out, "   Quantity: %d\n", qty)
	fmt.Fprintf(out, "   Total: %s\n", core.FormatPrice(result.Order.TotalPrice))
}

// PrintDeficiencies renders the itemised list of a rejected order.
func PrintDeficiencies(out io.Writer, deficiencies []core.Deficiency) {
	fmt.Fprintln(out, "Cannot fulfill order. Missing ingredients:")
	for _, d := range deficiencies {
		fmt.Fprintf(out, "  - %s\n", d)
	}
}

// PrintOrderError renders an order rejection. Errors that are not domain
// rejections are shown as-is.
func PrintOrderError(out io.Writer, coffeeID int, err error) {
	var nf *core.NotFoundError
	var insufficient *core.InsufficientStockError
	switch {
	case errors.As(err, &nf):
		fmt.Fprintf(out, "Error: Coffee with ID %d not found.\n", coffeeID)
	case errors.As(err, &insufficient):
		PrintDeficiencies(out, insufficient.Deficiencies)
	default:
		fmt.Fprintf(out, "Error placing order: %v\n", err)
	}
}

func stockMarker(s core.StockStatus) string {
	switch s {
	case core.StockOK:
		return "✅"
	case core.StockLow:
		return "⚠️ "
	default:
		return "❌"
	}
}

// PrintInventory renders every ingredient with its stock marker.
func PrintInventory(out io.Writer, result *app.InventoryResult) {
	fmt.Fprintln(out, "\n📦 Inventory:")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	for _, l := range result.Levels {
		fmt.Fprintf(out, "%s %-15s %6s %s\n", stockMarker(l.Status()), l.Name, l.Quantity.StringFixed(1), l.Unit)
	}
	fmt.Fprintln(out)
}

// PrintReport renders the sales summary and the popularity ranking.
func PrintReport(out io.Writer, r *core.SalesReport) {
	fmt.Fprintf(out, "\n📊 Sales Report (Last %d days):\n", r.WindowDays)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Total Sales: %s\n", core.FormatPrice(r.TotalSales))
	fmt.Fprintf(out, "Number of Orders: %d\n", r.OrderCount)
	fmt.Fprintf(out, "Average Order Value: %s\n", core.FormatPrice(r.AverageOrderValue))

	fmt.Fprintln(out, "\n🍵 Popular Coffees:")
	for _, c := range r.TopCoffees {
		fmt.Fprintf(out, "  %-15s %3d orders, %s\n", c.Name, c.Quantity, core.FormatPrice(c.Revenue))
	}
	fmt.Fprintln(out)
}

// PrintOrders renders recent orders with their lines.
func PrintOrders(out io.Writer, result *app.OrderListResult) {
	if len(result.Orders) == 0 {
		fmt.Fprintln(out, "No orders yet.")
		return
	}
	for _, o := range result.Orders {
		fmt.Fprintf(out, "Order #%d: %s - %s\n", o.ID, core.FormatPrice(o.TotalPrice), o.CreatedAt.Format("2006-01-02 15:04:05"))
		for _, l := range o.Lines {
			fmt.Fprintf(out, "  - %s x%d @ %s\n", l.CoffeeName, l.Quantity, core.FormatPrice(l.Price))
		}
	}
}
