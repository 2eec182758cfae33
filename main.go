// The main package for the billtext executable.
package main

import (
	"os"

	"github.com/JakeFAU/billtext-ingest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
