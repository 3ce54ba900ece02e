//go:build !windows

// Command vtterm runs a shell in a terminal emulator, in a window or inside
// the terminal it was started from.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
