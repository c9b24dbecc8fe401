// Package main is the entry point for the sqlquest CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlquest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
