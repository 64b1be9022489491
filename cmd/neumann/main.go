// Package main provides the entry point for the neumann CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kailas-cloud/neumann/cmd/neumann/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
