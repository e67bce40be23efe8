package main

import (
	"bufio"
	"context"
	"log"
	"os"

	"coffee-shop/internal/adapters/cli"
	"coffee-shop/internal/adapters/repl"
	"coffee-shop/internal/ai"
	"coffee-shop/internal/app"
	"coffee-shop/internal/config"
	"coffee-shop/internal/core"
	"coffee-shop/internal/db"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	ctx := context.Background()
	store, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	var agent ai.AgentService
	if cfg.AssistantEnabled() {
		agent = ai.NewAgent(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	svc := app.New(store, core.SystemClock, agent)

	if len(os.Args) > 1 {
		code := cli.Run(ctx, svc, os.Args[1:], os.Stdout)
		store.Close()
		os.Exit(code)
	}

	if agent == nil {
		log.Println("Warning: OPENAI_API_KEY is not set; only slash commands are available")
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
	store.Close()
}
