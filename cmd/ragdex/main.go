// Package main is the entry point for the ragdex CLI.
package main

import (
	"os"

	"github.com/ragdex/ragdex/cmd/ragdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
