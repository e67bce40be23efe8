package repl

import (
	"fmt"
	"io"
	"strings"

	"coffee-shop/internal/app"
	"coffee-shop/internal/core"
)

func printCoffee(out io.Writer, c *core.Coffee) {
	fmt.Fprintf(out, "\n%d: %s - %s\n", c.ID, c.Name, core.FormatPrice(c.Price))
	if c.Description != "" {
		fmt.Fprintf(out, "   %s\n", c.Description)
	}
	for _, rl := range c.Recipe {
		fmt.Fprintf(out, "  - %s: %s %s\n", rl.IngredientName, rl.Quantity.String(), rl.Unit)
	}
}

func printIntent(out io.Writer, result *app.AIResult) {
	intent := result.Intent
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "  Order: %d x %s\n", intent.Quantity, result.Coffee.Name)
	fmt.Fprintf(out, "  Price: %s each\n", core.FormatPrice(result.Coffee.Price))
	fmt.Fprintf(out, "  Recipe: %s\n", recipeSummary(result.Coffee))
	fmt.Fprintf(out, "  Confidence: %.2f\n", intent.Confidence)
	if intent.Reasoning != "" {
		fmt.Fprintf(out, "  Reasoning: %s\n", intent.Reasoning)
	}
	fmt.Fprintln(out, strings.Repeat("=", 50))
	if intent.Confidence < 0.6 {
		fmt.Fprintln(out, "WARNING: Low confidence interpretation.")
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "COFFEE SHOP - COMMANDS")
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  MENU")
	fmt.Fprintln(out, "  /menu                          Menu with availability")
	fmt.Fprintln(out, "  /coffee <id>                   Coffee details and recipe")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ORDERS")
	fmt.Fprintln(out, "  /order <id> [qty]              Place an order")
	fmt.Fprintln(out, "  /check <id> [qty]              Check stock without ordering")
	fmt.Fprintln(out, "  /new-order                     Place an order (interactive)")
	fmt.Fprintln(out, "  /orders [n]                    Recent orders (default 10)")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  STOCK AND SALES")
	fmt.Fprintln(out, "  /inventory                     Ingredient stock levels")
	fmt.Fprintln(out, "  /report [days]                 Sales report (default 7 days)")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  SESSION")
	fmt.Fprintln(out, "  /help                          Show this help")
	fmt.Fprintln(out, "  /exit                          Exit")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ASSISTANT  (no / prefix, needs OPENAI_API_KEY)")
	fmt.Fprintln(out, "  Example: \"two lattes please\"")
	fmt.Fprintln(out, strings.Repeat("=", 62))
}
