// Package main provides the typetight CLI.
package main

import (
	"os"

	"github.com/typetight-labs/typetight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
