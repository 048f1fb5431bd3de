// decharger - charge state and adduct deconvolution of LC-MS features
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/decharger/cmd/decharger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
