// Package main provides the gridloom CLI: a local-first data grid with typed
// columns, schemaless row documents, saved views, and a dynamic row query
// engine.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
