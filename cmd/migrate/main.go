// Package main provides the schema migration CLI.
// Usage: migrate up
//
//	migrate down
//	migrate status
//	migrate version
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"staffdesk/db/migrations"
	"staffdesk/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	provider, db := newProvider(ctx)
	defer db.Close()

	var err error
	switch cmd {
	case "up":
		err = up(ctx, provider)
	case "down":
		err = down(ctx, provider)
	case "status":
		err = status(ctx, provider)
	case "version":
		err = version(ctx, provider)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Staffdesk Migration CLI

Usage:
  migrate <command>

Commands:
  up        Apply all pending migrations
  down      Roll back the latest migration
  status    List migrations and whether they are applied
  version   Print the current schema version
  help      Show this help

The database is taken from the server configuration
(CONFIG_PATH, .env or DATABASE_DSN).`)
}

func newProvider(ctx context.Context) (*goose.Provider, *sql.DB) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		fmt.Printf("Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	if err := db.PingContext(ctx); err != nil {
		fmt.Printf("Error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		fmt.Printf("Error: failed to load migrations: %v\n", err)
		os.Exit(1)
	}
	return provider, db
}

func up(ctx context.Context, p *goose.Provider) error {
	results, err := p.Up(ctx)
	for _, r := range results {
		fmt.Printf("  applied %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("Schema is up to date")
	}
	return nil
}

func down(ctx context.Context, p *goose.Provider) error {
	r, err := p.Down(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  rolled back %s\n", r.Source.Path)
	return nil
}

func status(ctx context.Context, p *goose.Provider) error {
	list, err := p.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%-8s %-10s %-20s %s\n", "VERSION", "STATE", "APPLIED AT", "FILE")
	for _, s := range list {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-8d %-10s %-20s %s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return nil
}

func version(ctx context.Context, p *goose.Provider) error {
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Current version: %d\n", v)
	return nil
}
