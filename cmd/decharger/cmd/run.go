package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/decharger/pkg/core"
	"github.com/ChrisMcGann/decharger/pkg/decharge"
	"github.com/ChrisMcGann/decharger/pkg/reader/features"
	"github.com/ChrisMcGann/decharger/pkg/writer/sqlite"
)

func runDecharge(cmd *cobra.Command, args []string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, cleanup := setupLogger(logFile, level)
	defer cleanup()

	params, err := loadParams(cmd)
	if err != nil {
		return err
	}
	cat, source, err := loadCatalog(params.NegativeMode)
	if err != nil {
		return err
	}

	fmt.Printf("Decharging %s to %s...\n", inputFile, outputFile)
	fmt.Printf("Adducts: %d (%s)\n", cat.Len(), source)
	fmt.Printf("Charges: %d to %d\n", params.ChargeMin, params.ChargeMax)
	fmt.Printf("Mass tolerance: %g %s\n", params.MassTolerance, params.Unit)
	if params.DegreeCapEnabled {
		fmt.Printf("Degree cap: %d\n", params.DegreeCap)
	}

	d, err := decharge.New(cat, params, decharge.WithLogger(logger))
	if err != nil {
		return err
	}

	feats, err := readFeatures(inputFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	res, err := d.Run(ctx, feats)
	if err != nil {
		return fmt.Errorf("decharging failed: %w", err)
	}
	elapsed := time.Since(start)

	// Create SQLite writer
	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	effective, err := yaml.Marshal(d.Params())
	if err != nil {
		return fmt.Errorf("failed to serialize parameters: %w", err)
	}
	writer.SetDescription(fmt.Sprintf("decharger %s on %s", rootCmd.Version, inputFile), string(effective))

	if err := writer.WriteResult(res); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	printSummary(res, elapsed)

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		fmt.Printf("Metrics: %s\n", metricsFile)
	}

	return nil
}

func readFeatures(path string) ([]core.Feature, error) {
	inFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	reader := features.NewReader(inFile)
	var feats []core.Feature
	for reader.Next() {
		feats = append(feats, reader.Feature())
		if len(feats)%10000 == 0 {
			fmt.Printf("Read %d features...\n", len(feats))
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	fmt.Printf("Read %d features\n", len(feats))

	return feats, nil
}

func printSummary(res *decharge.Result, elapsed time.Duration) {
	grouped := 0
	for _, g := range res.Groups {
		grouped += len(g.Members)
	}
	warnings := 0
	for _, d := range res.Diagnostics {
		if d.Severity == decharge.SeverityWarning {
			warnings++
		}
	}

	fmt.Printf("\nDecharging complete!\n")
	fmt.Printf("Edges: %d (%d selected, %d inferred, %d rejected by intensity)\n",
		len(res.Edges), res.Stats.Selection.Selected, res.Stats.Filter.Inferred, res.Stats.Filter.IntensityRejected)
	fmt.Printf("Groups: %d (%d features)\n", len(res.Groups), grouped)
	fmt.Printf("Singletons: %d\n", len(res.Singletons))
	if warnings > 0 {
		fmt.Printf("Warnings: %d (see DiagnosticTable)\n", warnings)
	}
	fmt.Printf("Elapsed: %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Output: %s\n", outputFile)
}
