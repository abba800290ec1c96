// Command pgdeck browses a PostgreSQL database from the terminal.
package main

import (
	"fmt"
	"os"

	"pgdeck/internal/driver"
)

func main() {
	if err := newRootCmd(driver.NewOpener).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
