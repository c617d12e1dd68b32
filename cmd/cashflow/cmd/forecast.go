package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang-cashflow-engine/cmd/cashflow/config"
	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/reporter"
	"golang-cashflow-engine/internal/snapshot"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the forecast command
var (
	forecastSnapshot string
	forecastHorizon  int
	forecastAnchor   string
	forecastFormat   string
	forecastOutput   string
	forecastBands    bool
	forecastScoped   bool
	forecastStrict   bool
	forecastAccounts bool

	// Parsed from forecastAnchor during flag validation
	forecastAnchorTime time.Time
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project account balances day by day",
	Long: `Forecast simulates every account's balance across the horizon using
transaction history, recurring payments, income streams and loan
repayments from the snapshot.

The report includes a headline summary, shortfall analysis, per-account
ranges and the daily projection series.

Examples:
  # 90-day forecast to the terminal
  cashflow forecast --snapshot household.json

  # Six months with confidence bands, written as JSON
  cashflow forecast --snapshot household.json --horizon 180 \
    --confidence-bands --output-format json --output-file forecast.json

  # Anchor the simulation at a fixed date for reproducible output
  cashflow forecast --snapshot household.json --anchor 2026-01-01

  # Daily series as CSV for a spreadsheet
  cashflow forecast --snapshot household.json --output-format csv`,

	PreRunE: validateForecastFlags,
	RunE:    runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)

	// Required flags
	forecastCmd.Flags().StringVarP(&forecastSnapshot, "snapshot", "s", "", "path to snapshot JSON file (required)")

	// Simulation flags
	forecastCmd.Flags().IntVarP(&forecastHorizon, "horizon", "d", 90, "forecast horizon in days")
	forecastCmd.Flags().StringVar(&forecastAnchor, "anchor", "", "simulation start date (YYYY-MM-DD, default today)")
	forecastCmd.Flags().BoolVar(&forecastBands, "confidence-bands", false, "include volatility-scaled confidence bands")
	forecastCmd.Flags().BoolVar(&forecastScoped, "scoped-costs", false, "attribute income and loan repayments to their own accounts only")
	forecastCmd.Flags().BoolVar(&forecastStrict, "strict", false, "fail on any invalid snapshot record instead of skipping it")

	// Output flags
	forecastCmd.Flags().StringVarP(&forecastFormat, "output-format", "f", "console", "output format: console, json, csv")
	forecastCmd.Flags().StringVarP(&forecastOutput, "output-file", "o", "", "output file path (default: stdout)")
	forecastCmd.Flags().BoolVar(&forecastAccounts, "include-accounts", true, "include per-account detail in the report")

	forecastCmd.MarkFlagRequired("snapshot")

	// Bind flags to viper
	viper.BindPFlag("forecast.snapshot", forecastCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("forecast.horizon", forecastCmd.Flags().Lookup("horizon"))
	viper.BindPFlag("forecast.anchor", forecastCmd.Flags().Lookup("anchor"))
	viper.BindPFlag("forecast.confidence-bands", forecastCmd.Flags().Lookup("confidence-bands"))
	viper.BindPFlag("forecast.scoped-costs", forecastCmd.Flags().Lookup("scoped-costs"))
	viper.BindPFlag("forecast.strict", forecastCmd.Flags().Lookup("strict"))
	viper.BindPFlag("forecast.output-format", forecastCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("forecast.output-file", forecastCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("forecast.include-accounts", forecastCmd.Flags().Lookup("include-accounts"))
}

func validateForecastFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	forecastSnapshot = viper.GetString("forecast.snapshot")
	forecastHorizon = viper.GetInt("forecast.horizon")
	forecastAnchor = viper.GetString("forecast.anchor")
	forecastFormat = viper.GetString("forecast.output-format")
	forecastOutput = viper.GetString("forecast.output-file")
	forecastBands = viper.GetBool("forecast.confidence-bands")
	forecastScoped = viper.GetBool("forecast.scoped-costs")
	forecastStrict = viper.GetBool("forecast.strict")
	forecastAccounts = viper.GetBool("forecast.include-accounts")

	if forecastSnapshot == "" {
		return fmt.Errorf("snapshot is required")
	}
	if err := validateFileExists(forecastSnapshot, "snapshot file"); err != nil {
		return err
	}

	if err := validateHorizon(forecastHorizon); err != nil {
		return err
	}

	if _, err := reporter.ParseFormat(forecastFormat); err != nil {
		return err
	}

	anchor, err := parseAnchorDate(forecastAnchor)
	if err != nil {
		return err
	}
	forecastAnchorTime = anchor

	return validateOutputPath(forecastOutput)
}

func runForecast(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Generating forecast...\n")
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", forecastSnapshot)
		fmt.Fprintf(os.Stderr, "Horizon: %d days\n", forecastHorizon)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", forecastFormat)
		if forecastOutput != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", forecastOutput)
		}
	}

	snap, err := loadHouseholdSnapshot(forecastSnapshot, forecastStrict)
	if err != nil {
		return err
	}

	engineConfig := config.CreateForecastConfig(forecastHorizon, forecastAnchorTime, forecastBands, forecastScoped)
	fc, err := forecast.NewEngine(engineConfig).Generate(snap.ForecastInput())
	if err != nil {
		return fmt.Errorf("forecast generation failed: %w", err)
	}

	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(forecastFormat, forecastAccounts))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output, cleanup, err := openOutput(forecastOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := generator.WriteForecast(fc, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nForecast completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Ending balance after %d days: %s\n",
			fc.HorizonDays, fc.EndingBalance().StringFixed(2))
		if fc.Shortfall.HasShortfall {
			fmt.Fprintf(os.Stderr, "First shortfall on %s, %d days below zero.\n",
				fc.Shortfall.FirstDate.Format("2006-01-02"), len(fc.Shortfall.Dates))
		}
	}

	return nil
}

// Shared helpers for the snapshot-driven commands

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func validateHorizon(days int) error {
	if days < 1 {
		return fmt.Errorf("horizon must be at least 1 day")
	}
	if days > forecast.MaxHorizonDays {
		return fmt.Errorf("horizon cannot exceed %d days", forecast.MaxHorizonDays)
	}
	return nil
}

func parseAnchorDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	anchor, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor date format. Use YYYY-MM-DD: %w", err)
	}
	return anchor, nil
}

func validateOutputPath(outputFile string) error {
	if outputFile == "" {
		return nil
	}

	dir := filepath.Dir(outputFile)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

func loadHouseholdSnapshot(path string, strict bool) (*snapshot.Snapshot, error) {
	loader := snapshot.NewLoader(config.CreateLoaderConfig(strict))
	snap, stats, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "%s\n", stats)
		for _, warning := range stats.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return snap, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}
