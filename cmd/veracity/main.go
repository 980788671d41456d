// Package main is the entry point for the Veracity CLI.
package main

import (
	"os"

	"github.com/veracity/veracity-sdk-go/cmd/veracity/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
