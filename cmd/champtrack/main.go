// Package main is the entry point for the champtrack CLI tool.
package main

import (
	"os"

	"github.com/champtrack/champtrack/cmd/champtrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
