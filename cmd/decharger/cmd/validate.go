package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/decharger/pkg/decharge"
)

func runValidate(cmd *cobra.Command, args []string) error {
	params, err := loadParams(cmd)
	if err != nil {
		return err
	}
	cat, source, err := loadCatalog(params.NegativeMode)
	if err != nil {
		return err
	}

	// New checks the catalog against the ion mode and charge range
	if _, err := decharge.New(cat, params); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: OK\n", configFile)
	fmt.Fprintf(out, "Charges: %d to %d, mode %s\n", params.ChargeMin, params.ChargeMax, params.ChargeMode)
	fmt.Fprintf(out, "Adducts (%s):\n", source)
	fmt.Fprintf(out, "  %-12s %-10s %7s %12s %8s %8s\n", "Label", "Formula", "Charge", "Mass", "Prob", "RTShift")
	for _, e := range cat.Entries() {
		fmt.Fprintf(out, "  %-12s %-10s %7d %12.6f %8.4f %8.3f\n",
			e.Label, e.Formula, e.Charge, e.Mass, math.Exp(e.LogProb), e.RTShift)
	}

	return nil
}
