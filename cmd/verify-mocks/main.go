// Package main is the entry point for the verify-mocks binary.
package main

import (
	"os"

	"github.com/okian/mockmetrics/internal/verify"
)

func main() {
	if err := verify.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
