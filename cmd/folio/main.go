// Package main is the entry point for the folio CLI tool.
package main

import (
	"os"

	"github.com/folio-bib/folio/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
