// Package main is the entry point for the elabql CLI.
package main

import (
	"os"

	"github.com/roach88/elabql/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
