// Package main provides the dartfront command-line tool.
package main

import (
	"os"

	"github.com/dartfront/dartfront/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
