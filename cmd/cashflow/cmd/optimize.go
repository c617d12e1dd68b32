package cmd

import (
	"fmt"
	"os"
	"time"

	"golang-cashflow-engine/cmd/cashflow/config"
	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/optimizer"
	"golang-cashflow-engine/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the optimize command
var (
	optimizeSnapshot   string
	optimizeHorizon    int
	optimizeFormat     string
	optimizeOutput     string
	optimizeBenchmarks string
	optimizeStrict     bool
	optimizeFindings   bool
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:     "optimize",
	Aliases: []string{"optimise"},
	Short:   "Find savings opportunities and rank them",
	Long: `Optimize runs a forecast and then inspects spending patterns, account
structure, payment schedules and loans for savings opportunities.

Each finding is wrapped in a prioritised strategy with concrete steps, an
estimated monthly and annual value, and a confidence level.

Examples:
  # Ranked strategies to the terminal
  cashflow optimize --snapshot household.json

  # Full findings as JSON
  cashflow optimize --snapshot household.json --output-format json

  # Strategy list only, skipping the detail sections
  cashflow optimize --snapshot household.json --findings=false

  # Compare spending against your own benchmark table
  cashflow optimize --snapshot household.json --benchmarks benchmarks.json`,

	PreRunE: validateOptimizeFlags,
	RunE:    runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVarP(&optimizeSnapshot, "snapshot", "s", "", "path to snapshot JSON file (required)")
	optimizeCmd.Flags().IntVarP(&optimizeHorizon, "horizon", "d", 90, "forecast horizon in days")
	optimizeCmd.Flags().StringVarP(&optimizeFormat, "output-format", "f", "console", "output format: console, json, csv")
	optimizeCmd.Flags().StringVarP(&optimizeOutput, "output-file", "o", "", "output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeBenchmarks, "benchmarks", "", "path to a JSON file of category spending benchmarks")
	optimizeCmd.Flags().BoolVar(&optimizeStrict, "strict", false, "fail on any invalid snapshot record instead of skipping it")
	optimizeCmd.Flags().BoolVar(&optimizeFindings, "findings", true, "include the detailed finding sections in the report")

	optimizeCmd.MarkFlagRequired("snapshot")

	viper.BindPFlag("optimize.snapshot", optimizeCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("optimize.horizon", optimizeCmd.Flags().Lookup("horizon"))
	viper.BindPFlag("optimize.output-format", optimizeCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("optimize.output-file", optimizeCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("optimize.benchmarks", optimizeCmd.Flags().Lookup("benchmarks"))
	viper.BindPFlag("optimize.strict", optimizeCmd.Flags().Lookup("strict"))
	viper.BindPFlag("optimize.findings", optimizeCmd.Flags().Lookup("findings"))
}

func validateOptimizeFlags(cmd *cobra.Command, args []string) error {
	optimizeSnapshot = viper.GetString("optimize.snapshot")
	optimizeHorizon = viper.GetInt("optimize.horizon")
	optimizeFormat = viper.GetString("optimize.output-format")
	optimizeOutput = viper.GetString("optimize.output-file")
	optimizeBenchmarks = viper.GetString("optimize.benchmarks")
	optimizeStrict = viper.GetBool("optimize.strict")
	optimizeFindings = viper.GetBool("optimize.findings")

	if optimizeSnapshot == "" {
		return fmt.Errorf("snapshot is required")
	}
	if err := validateFileExists(optimizeSnapshot, "snapshot file"); err != nil {
		return err
	}

	if optimizeBenchmarks != "" {
		if err := validateFileExists(optimizeBenchmarks, "benchmarks file"); err != nil {
			return err
		}
	}

	if err := validateHorizon(optimizeHorizon); err != nil {
		return err
	}

	if _, err := reporter.ParseFormat(optimizeFormat); err != nil {
		return err
	}

	return validateOutputPath(optimizeOutput)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Running optimisation...\n")
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", optimizeSnapshot)
		fmt.Fprintf(os.Stderr, "Horizon: %d days\n", optimizeHorizon)
	}

	snap, err := loadHouseholdSnapshot(optimizeSnapshot, optimizeStrict)
	if err != nil {
		return err
	}

	engineConfig := config.CreateForecastConfig(optimizeHorizon, time.Time{}, false, false)
	fc, err := forecast.NewEngine(engineConfig).Generate(snap.ForecastInput())
	if err != nil {
		return fmt.Errorf("forecast generation failed: %w", err)
	}

	benchmarks, err := config.LoadBenchmarks(optimizeBenchmarks)
	if err != nil {
		return err
	}

	result, err := optimizer.NewEngine(config.CreateOptimizerConfig(benchmarks)).Optimise(optimizer.Input{
		Forecast:          fc,
		Accounts:          snap.Accounts,
		RecurringPayments: snap.RecurringPayments,
		IncomeStreams:     snap.IncomeStreams,
		Loans:             snap.Loans,
	})
	if err != nil {
		return fmt.Errorf("optimisation failed: %w", err)
	}

	reportConfig := config.CreateReportConfig(optimizeFormat, true)
	reportConfig.IncludeFindings = optimizeFindings
	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output, cleanup, err := openOutput(optimizeOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := generator.WriteOptimisation(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nOptimisation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Found %d strategies worth %s/year.\n",
			len(result.Strategies), result.TotalAnnualSavings.StringFixed(2))
	}

	return nil
}
