package main

import (
	"context"
	"fmt"
	"os"

	"promo-console/internal/audit"
	"promo-console/internal/config"
	"promo-console/internal/database"

	"github.com/rs/zerolog"
)

// Connects to the audit database from the console's environment and
// prints the journal of the promotion given as the first argument.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: check_audit_db <promotion-id>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to audit database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	entries, err := audit.NewPostgresRecorder(pool, zerolog.Nop()).ListByPromotion(ctx, os.Args[1], 100)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", cfg.Database.Database)
	fmt.Printf("%d entries for promotion %s\n", len(entries), os.Args[1])
	for _, e := range entries {
		fmt.Printf("  %s  %-10s %-8s %s\n", e.RecordedAt.Format("2006-01-02 15:04:05"), e.Action, e.Outcome, e.Message)
	}
}
