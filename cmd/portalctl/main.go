// Command portalctl is the operator CLI for the reporting portal. It talks
// to the database directly and shares the server's configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}
