// Package main provides bindctl, a small CLI around the databind engine. It
// prints the effective engine configuration and walks through a live
// binding session on a dispatch loop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
