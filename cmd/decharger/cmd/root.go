// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Flags shared by run and validate
	configFile  string
	catalogFile string
	adducts     []string
	negative    bool

	// Flags for run command
	inputFile     string
	outputFile    string
	rtWindow      float64
	massTolerance float64
	unit          string
	chargeMin     int
	chargeMax     int
	degreeCap     int
	workers       int
	logFile       string
	logLevel      string
	metricsFile   string
)

var rootCmd = &cobra.Command{
	Use:   "decharger",
	Short: "decharger - charge state and adduct deconvolution",
	Long: `decharger groups LC-MS features that are different charge states or adducts
of the same neutral species and writes the groups to a SQLite database.

Pairs of co-eluting features are explained by combinations of adducts from a
configurable catalog, and a consistent set of explanations is chosen by
integer programming:
- Adduct catalogs from strings, CSV or YAML
- Charge ladders and adduct swaps in positive or negative mode
- Intensity plausibility filter and inference of complex adducts
- Optional degree cap per feature`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVarP(&configFile, "config", "c", "", "YAML parameter file")
		c.Flags().StringVar(&catalogFile, "catalog", "", "Adduct catalog file (.csv, .yaml or .yml)")
		c.Flags().StringArrayVar(&adducts, "adduct", nil, "Adduct as Elements:Charge:Probability[:RTShift[:Label]] (repeatable)")
		c.Flags().BoolVar(&negative, "negative", false, "Negative ion mode")
	}

	// Run command flags
	runCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input feature table, CSV or TSV (required)")
	runCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	runCmd.Flags().Float64Var(&rtWindow, "rt-window", 0, "Maximum retention time difference of a pair")
	runCmd.Flags().Float64Var(&massTolerance, "mass-tol", 0, "Mass tolerance per charge")
	runCmd.Flags().StringVar(&unit, "unit", "", "Mass tolerance unit: Da or ppm")
	runCmd.Flags().IntVar(&chargeMin, "charge-min", 0, "Lowest charge to consider")
	runCmd.Flags().IntVar(&chargeMax, "charge-max", 0, "Highest charge to consider")
	runCmd.Flags().IntVar(&degreeCap, "degree-cap", 0, "Maximum selected edges per feature (enables the cap)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Number of pair graph workers (0 = all CPUs)")
	runCmd.Flags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	runCmd.MarkFlagRequired("in")
	runCmd.MarkFlagRequired("out")
	validateCmd.MarkFlagRequired("config")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Group features into charge groups",
	Long: `Read a feature table, explain co-eluting feature pairs with adducts from the
catalog and write the selected charge groups to a SQLite database.

Parameters come from the YAML file given by --config, on top of the built-in
defaults; individual flags override the file.

Examples:
  # Run with the default positive mode catalog
  decharger run --in features.csv --out groups.db

  # Negative mode with a custom catalog and a degree cap
  decharger run --in features.tsv --out groups.db --negative --catalog adducts.yaml --degree-cap 2

  # Adducts on the command line, ppm tolerance
  decharger run --in features.csv --out groups.db --adduct H:+:0.6 --adduct Na:+:0.4 --mass-tol 5 --unit ppm`,
	RunE: runDecharge,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a parameter file and adduct catalog",
	Long:  `Load a parameter file and an adduct catalog, report every configuration problem and print the catalog.`,
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a feature table",
	Long:  `Print summary statistics about a feature table including feature count, m/z, retention time and intensity ranges, and charge coverage.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		return summarize(f, cmd.OutOrStdout())
	},
}
