package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"coffee-shop/internal/ai"
	"coffee-shop/internal/app"
	"coffee-shop/internal/core"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const usage = `Usage: coffee <command> [arguments]

Commands:
  menu [--available]             Display the coffee menu
  order [--check] <id> [qty]     Place an order (quantity defaults to 1); --check only tests stock
  inventory | inv                Check current inventory levels
  report [--days N]              Sales report for the last N days (default 7)
  init                           Create the database schema
  seed                           Reset the database and load the shop catalog
  export [--days N] --to DEST    Archive a sales report as JSON (directory or s3://bucket/prefix)
  ask "<request>" [--yes]        Let the assistant interpret a request; --yes places the order
  (no command)                   Interactive session`

// Run executes a one-shot CLI command and returns the process exit code.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return ExitUsage
	}

	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "menu":
		return runMenu(ctx, svc, rest, out)
	case "order":
		return runOrder(ctx, svc, rest, out)
	case "inventory", "inv":
		return runInventory(ctx, svc, rest, out)
	case "report":
		return runReport(ctx, svc, rest, out)
	case "init":
		return runInit(ctx, svc, rest, out)
	case "seed":
		return runSeed(ctx, svc, rest, out)
	case "export":
		return runExport(ctx, svc, rest, out)
	case "ask":
		return runAsk(ctx, svc, rest, out)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return ExitOK
	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n%s\n", args[0], usage)
		return ExitUsage
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// parseArgs parses flags anywhere on the command line and returns the positional
// arguments in order. Negative numbers are positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for len(args) > 0 {
		a := args[0]
		if a == "--" {
			return append(positional, args[1:]...), nil
		}
		if !strings.HasPrefix(a, "-") || isNumber(a) {
			positional = append(positional, a)
			args = args[1:]
			continue
		}
		n := min(flagSpan(fs, a), len(args))
		if err := fs.Parse(args[:n]); err != nil {
			return nil, err
		}
		args = args[n:]
	}
	return positional, nil
}

// flagSpan is the number of arguments a flag token consumes.
func flagSpan(fs *flag.FlagSet, arg string) int {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return 1
	}
	f := fs.Lookup(name)
	if f == nil {
		return 1
	}
	if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
		return 1
	}
	return 2
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func expectNoArgs(name string, positional []string, out io.Writer) bool {
	if len(positional) > 0 {
		fmt.Fprintf(out, "Error: %s takes no arguments, got %q\n", name, strings.Join(positional, " "))
		return false
	}
	return true
}

func runMenu(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	fs := newFlagSet("menu", out)
	available := fs.Bool("available", false, "mark coffees current stock cannot make")
	positional, err := parseArgs(fs, args)
	if err != nil || !expectNoArgs("menu", positional, out) {
		return ExitUsage
	}

	result, err := svc.Menu(ctx, *available)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return ExitError
	}
	PrintMenu(out, result)
	return ExitOK
}

func runOrder(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	fs := newFlagSet("order", out)
	check := fs.Bool("check", false, "only check stock, do not place the order")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return ExitUsage
	}
	if len(positional) < 1 || len(positional) > 2 {
		fmt.Fprintln(out, "Usage: coffee order <coffee_id> [quantity]")
		return ExitUsage
	}
	coffeeID, err := strconv.Atoi(positional[0])
	if err != nil {
		fmt.Fprintf(out, "Error: invalid coffee id %q: must be an integer\n", positional[0])
		return ExitUsage
	}
	quantity := 1
	if len(positional) == 2 {
		quantity, err = strconv.Atoi(positional[1])
		if err != nil {
			fmt.Fprintf(out, "Error: invalid quantity %q: must be an integer\n", positional[1])
			return ExitUsage
		}
	}
	if quantity < 1 {
		fmt.Fprintf(out, "Error: %v, got %d\n", core.ErrInvalidQuantity, quantity)
		return ExitOK
	}

	req := app.PlaceOrderRequest{CoffeeID: coffeeID, Quantity: quantity}
	if *check {
		sc, err := svc.CheckOrder(ctx, req)
		if err != nil {
			PrintOrderError(out, coffeeID, err)
			return ExitOK
		}
		if sc.Sufficient() {
			fmt.Fprintf(out, "Stock covers %d x %s.\n", quantity, sc.CoffeeName)
		} else {
			PrintDeficiencies(out, sc.Deficiencies)
		}
		return ExitOK
	}

	result, err := svc.PlaceOrder(ctx, req)
	if err != nil {
		// Rejections are reported, not fatal.
		PrintOrderError(out, coffeeID, err)
		return ExitOK
	}
	PrintOrderPlaced(out, result)
	return ExitOK
}

func runInventory(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	positional, err := parseArgs(newFlagSet("inventory", out), args)
	if err != nil || !expectNoArgs("inventory", positional, out) {
		return ExitUsage
	}
	result, err := svc.Inventory(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return ExitError
	}
	PrintInventory(out, result)
	return ExitOK
}

func runReport(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	fs := newFlagSet("report", out)
	days := fs.Int("days", 7, "number of days to include in report")
	positional, err := parseArgs(fs, args)
	if err != nil || !expectNoArgs("report", positional, out) {
		return ExitUsage
	}
	report, err := svc.SalesReport(ctx, *days)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		if errors.Is(err, core.ErrInvalidWindow) {
			return ExitUsage
		}
		return ExitError
	}
	PrintReport(out, report)
	return ExitOK
}

func runInit(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	positional, err := parseArgs(newFlagSet("init", out), args)
	if err != nil || !expectNoArgs("init", positional, out) {
		return ExitUsage
	}
	if err := svc.InitSchema(ctx); err != nil {
		fmt.Fprintf(out, "Error initializing database: %v\n", err)
		return ExitError
	}
	fmt.Fprintln(out, "Database initialized successfully!")
	return ExitOK
}

func runSeed(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	positional, err := parseArgs(newFlagSet("seed", out), args)
	if err != nil || !expectNoArgs("seed", positional, out) {
		return ExitUsage
	}
	result, err := svc.Seed(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error seeding database: %v\n", err)
		return ExitError
	}
	fmt.Fprintln(out, "Database seeded successfully!")
	fmt.Fprintf(out, "Created %d coffees and %d ingredients.\n", result.Coffees, result.Ingredients)
	return ExitOK
}

func runExport(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	fs := newFlagSet("export", out)
	days := fs.Int("days", 7, "number of days to include in report")
	to := fs.String("to", "", "destination directory or s3://bucket/prefix")
	positional, err := parseArgs(fs, args)
	if err != nil || !expectNoArgs("export", positional, out) {
		return ExitUsage
	}
	if *to == "" {
		fmt.Fprintln(out, "Usage: coffee export [--days N] --to <dir|s3://bucket/prefix>")
		return ExitUsage
	}
	result, err := svc.ExportReport(ctx, app.ExportRequest{Days: *days, To: *to})
	if err != nil {
		fmt.Fprintf(out, "Error exporting report: %v\n", err)
		return ExitError
	}
	fmt.Fprintf(out, "Exported %d-day report (%d orders, %s) to %s as %s\n",
		result.Report.WindowDays, result.Report.OrderCount, core.FormatPrice(result.Report.TotalSales),
		result.Destination, result.Object.Key)
	return ExitOK
}

func runAsk(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) int {
	fs := newFlagSet("ask", out)
	yes := fs.Bool("yes", false, "place the interpreted order without asking")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return ExitUsage
	}
	if len(positional) == 0 {
		fmt.Fprintln(out, `Usage: coffee ask "<request>" [--yes]`)
		return ExitUsage
	}

	result, err := svc.InterpretRequest(ctx, strings.Join(positional, " "))
	if err != nil {
		fmt.Fprintf(out, "Assistant error: %v\n", err)
		return ExitError
	}
	return ExecuteIntent(ctx, svc, result, *yes, out)
}

// ExecuteIntent acts on an interpreted request. Orders are only placed when place is true.
func ExecuteIntent(ctx context.Context, svc app.ApplicationService, result *app.AIResult, place bool, out io.Writer) int {
	intent := result.Intent
	switch intent.Kind {
	case ai.KindClarify:
		fmt.Fprintln(out, "Assistant needs clarification:", intent.Message)
		return ExitOK
	case ai.KindMenu:
		return runMenu(ctx, svc, nil, out)
	case ai.KindInventory:
		return runInventory(ctx, svc, nil, out)
	case ai.KindReport:
		return runReport(ctx, svc, []string{"--days", strconv.Itoa(intent.Days)}, out)
	case ai.KindOrder:
		fmt.Fprintf(out, "Proposed order: %d x %s (%s each, confidence %.2f)\n",
			intent.Quantity, result.Coffee.Name, core.FormatPrice(result.Coffee.Price), intent.Confidence)
		if intent.Reasoning != "" {
			fmt.Fprintf(out, "Reasoning: %s\n", intent.Reasoning)
		}
		if !place {
			fmt.Fprintf(out, "Run with --yes to place it, or: coffee order %d %d\n", result.Coffee.ID, intent.Quantity)
			return ExitOK
		}
		return runOrder(ctx, svc, []string{strconv.Itoa(result.Coffee.ID), strconv.Itoa(intent.Quantity)}, out)
	default:
		fmt.Fprintf(out, "Assistant returned an unsupported action %q\n", intent.Kind)
		return ExitError
	}
}
