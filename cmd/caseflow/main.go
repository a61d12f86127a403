// Package main provides the entry point for the caseflow CLI.
package main

import (
	"os"

	"github.com/caseflow-dev/caseflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
