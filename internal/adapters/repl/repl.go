package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"coffee-shop/internal/adapters/cli"
	"coffee-shop/internal/ai"
	"coffee-shop/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the order assistant.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Coffee Shop")
	fmt.Fprintln(out, "Type an order in plain words, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	s := &session{ctx: ctx, svc: svc, reader: reader, out: out}
	for {
		fmt.Fprint(out, "\n> ")
		input, err := s.readLine()
		if err != nil {
			fmt.Fprintln(out, "\nGoodbye!")
			return
		}
		if input == "" {
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := s.dispatchSlash(input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		if err := s.assist(input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

type session struct {
	ctx    context.Context
	svc    app.ApplicationService
	reader *bufio.Reader
	out    io.Writer
}

// readLine returns io.EOF only when the input ended without a final line.
func (s *session) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *session) dispatchSlash(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "menu", "m":
		result, err := s.svc.Menu(s.ctx, true)
		if err != nil {
			return err
		}
		cli.PrintMenu(s.out, result)

	case "order", "o":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /order <coffee_id> [quantity]")
			return nil
		}
		cli.Run(s.ctx, s.svc, append([]string{"order"}, args...), s.out)

	case "check":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /check <coffee_id> [quantity]")
			return nil
		}
		cli.Run(s.ctx, s.svc, append([]string{"order", "--check"}, args...), s.out)

	case "new-order", "new":
		s.orderWizard()

	case "inventory", "inv", "stock":
		result, err := s.svc.Inventory(s.ctx)
		if err != nil {
			return err
		}
		cli.PrintInventory(s.out, result)

	case "report", "r":
		days := 7
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(s.out, "Invalid days: %s\n", args[0])
				return nil
			}
			days = n
		}
		report, err := s.svc.SalesReport(s.ctx, days)
		if err != nil {
			return err
		}
		cli.PrintReport(s.out, report)

	case "orders":
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(s.out, "Invalid limit: %s\n", args[0])
				return nil
			}
			limit = n
		}
		result, err := s.svc.ListOrders(s.ctx, limit)
		if err != nil {
			return err
		}
		cli.PrintOrders(s.out, result)

	case "coffee":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /coffee <coffee_id>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid coffee id: %s\n", args[0])
			return nil
		}
		coffee, err := s.svc.GetCoffee(s.ctx, id)
		if err != nil {
			return err
		}
		printCoffee(s.out, coffee)

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(s.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// assist routes natural language through the assistant, asking the user to
// answer clarifications and to approve any order before it is placed.
func (s *session) assist(input string) error {
	fmt.Fprintln(s.out, "[AI] Processing...")
	accumulated := input

	for round := 1; round <= 3; round++ {
		result, err := s.svc.InterpretRequest(s.ctx, accumulated)
		if err != nil {
			return err
		}
		intent := result.Intent

		if intent.Kind != ai.KindClarify {
			if intent.Kind != ai.KindOrder {
				cli.ExecuteIntent(s.ctx, s.svc, result, false, s.out)
				return nil
			}
			printIntent(s.out, result)
			fmt.Fprint(s.out, "\nPlace this order? (y/n): ")
			choice, err := s.readLine()
			if err != nil {
				return errExit
			}
			choice = strings.ToLower(choice)
			if choice == "y" || choice == "yes" {
				cli.ExecuteIntent(s.ctx, s.svc, result, true, s.out)
			} else {
				fmt.Fprintln(s.out, "Order cancelled.")
			}
			return nil
		}

		fmt.Fprintf(s.out, "\n[AI]: %s\n> ", intent.Message)
		followUp, err := s.readLine()
		if err != nil {
			return errExit
		}
		// Slash command during clarification cancels the assistant and runs it.
		if strings.HasPrefix(followUp, "/") {
			fmt.Fprintln(s.out, "(AI session cancelled)")
			return s.dispatchSlash(followUp)
		}
		if followUp == "" || strings.EqualFold(followUp, "cancel") {
			fmt.Fprintln(s.out, "Cancelled.")
			return nil
		}
		accumulated = fmt.Sprintf("Original request: %s\nClarification requested: %s\nCustomer response: %s",
			accumulated, intent.Message, followUp)
		fmt.Fprintln(s.out, "[AI] Thinking...")
	}
	fmt.Fprintln(s.out, "Could not work out an order. Try a slash command instead; type /help.")
	return nil
}
