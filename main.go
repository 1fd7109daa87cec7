// Package main is the entry point for ringsniff.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/ringsniff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
