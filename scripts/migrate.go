// Command migrate applies or rolls back the activity log schema.
//
//	go run ./scripts/migrate.go -direction up
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/leadreach/leadreach/internal/repository"
	"github.com/leadreach/leadreach/migrations"
)

func main() {
	_ = godotenv.Load()

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		direction   = flag.String("direction", "up", "up applies pending migrations, down reverts the latest one")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	switch *direction {
	case "up":
		applied, err := repo.MigrateUp(ctx, migrations.FS)
		for _, v := range applied {
			fmt.Println("applied", v)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if len(applied) == 0 {
			fmt.Println("schema is up to date")
		}
	case "down":
		reverted, err := repo.MigrateDown(ctx, migrations.FS)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println("reverted", reverted)
	default:
		fmt.Fprintf(os.Stderr, "unknown direction %q (want up or down)\n", *direction)
		os.Exit(1)
	}
}
