package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/decharger/pkg/catalog"
	"github.com/ChrisMcGann/decharger/pkg/decharge"
)

// loadParams reads the parameter file, if any, and applies the flags the
// user actually set on top of it.
func loadParams(cmd *cobra.Command) (decharge.Params, error) {
	p := decharge.DefaultParams()
	if configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return p, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		p, err = decharge.LoadParams(f)
		if err != nil {
			return p, fmt.Errorf("%s: %w", configFile, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("negative") {
		p.NegativeMode = negative
		// flip the default positive range unless it is given explicitly
		if negative && p.ChargeMin > 0 && !flags.Changed("charge-min") && !flags.Changed("charge-max") {
			p.ChargeMin, p.ChargeMax = -p.ChargeMax, -p.ChargeMin
		}
	}
	if flags.Changed("rt-window") {
		p.RTWindow = rtWindow
	}
	if flags.Changed("mass-tol") {
		p.MassTolerance = massTolerance
	}
	if flags.Changed("unit") {
		p.Unit = unit
	}
	if flags.Changed("charge-min") {
		p.ChargeMin = chargeMin
	}
	if flags.Changed("charge-max") {
		p.ChargeMax = chargeMax
	}
	if flags.Changed("degree-cap") {
		p.DegreeCap = degreeCap
		p.DegreeCapEnabled = degreeCap > 0
	}
	if flags.Changed("workers") {
		p.Workers = workers
	}

	return p, p.Validate()
}

// loadCatalog builds the adduct catalog from --catalog, then --adduct, then
// the built-in default for the ion mode.
func loadCatalog(negativeMode bool) (*catalog.Catalog, string, error) {
	if catalogFile != "" && len(adducts) > 0 {
		return nil, "", fmt.Errorf("--catalog and --adduct cannot be combined")
	}

	if catalogFile != "" {
		f, err := os.Open(catalogFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open catalog file: %w", err)
		}
		defer f.Close()

		var cat *catalog.Catalog
		switch ext := strings.ToLower(filepath.Ext(catalogFile)); ext {
		case ".csv":
			cat, err = catalog.LoadFromCSV(f)
		case ".yaml", ".yml":
			cat, err = catalog.LoadYAML(f)
		default:
			return nil, "", fmt.Errorf("cannot detect catalog format from extension '%s', use .csv, .yaml or .yml", ext)
		}
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", catalogFile, err)
		}
		return cat, catalogFile, nil
	}

	if len(adducts) > 0 {
		cat, err := catalog.ParseAdducts(adducts)
		if err != nil {
			return nil, "", err
		}
		return cat, "command line", nil
	}

	if negativeMode {
		return catalog.DefaultNegative(), "default negative", nil
	}
	return catalog.DefaultPositive(), "default positive", nil
}
