// Package main is the entrypoint for the leadreach command-line client.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/leadreach/leadreach/internal/cli"
)

func main() {
	// Lets a project-local .env set LEADREACH_API_URL.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
