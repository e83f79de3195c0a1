// Package main is the entry point for the scsc CLI.
package main

import (
	"os"

	"github.com/halcyondude/supply-chain-security-collector/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
