// Package main provides the ShopScout command line interface.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/shopscout-ai/shopscout/cmd/shopscout-cli/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
