// Command tagtool works with view templates: it builds views,
// analyzes and documents templates, and converts them between YAML
// and JSON.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
