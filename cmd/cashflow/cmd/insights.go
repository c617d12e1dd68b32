package cmd

import (
	"fmt"
	"os"
	"time"

	"golang-cashflow-engine/cmd/cashflow/config"
	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/insights"
	"golang-cashflow-engine/internal/optimizer"
	"golang-cashflow-engine/internal/reporter"
	"golang-cashflow-engine/internal/stress"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the insights command
var (
	insightsSnapshot string
	insightsHorizon  int
	insightsFormat   string
	insightsOutput   string
	insightsStrict   bool
	insightsMax      int
	insightsNoStress bool
)

// insightsCmd represents the insights command
var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Run the full analysis and surface what matters",
	Long: `Insights runs the forecast, the optimisation pass and the stress test
library, then distils the results into a ranked feed of findings:
shortfall warnings, negative cashflow, low buffers, burn rate, spending
volatility, savings opportunities and resilience problems.

Examples:
  # Full insight feed
  cashflow insights --snapshot household.json

  # Skip the stress pass for a faster run
  cashflow insights --snapshot household.json --no-stress

  # Top five findings as JSON
  cashflow insights --snapshot household.json --max 5 --output-format json`,

	PreRunE: validateInsightsFlags,
	RunE:    runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)

	insightsCmd.Flags().StringVarP(&insightsSnapshot, "snapshot", "s", "", "path to snapshot JSON file (required)")
	insightsCmd.Flags().IntVarP(&insightsHorizon, "horizon", "d", 90, "forecast horizon in days")
	insightsCmd.Flags().IntVar(&insightsMax, "max", 0, "cap the insight list (default: generator setting)")
	insightsCmd.Flags().BoolVar(&insightsNoStress, "no-stress", false, "skip the stress test pass")
	insightsCmd.Flags().StringVarP(&insightsFormat, "output-format", "f", "console", "output format: console, json, csv")
	insightsCmd.Flags().StringVarP(&insightsOutput, "output-file", "o", "", "output file path (default: stdout)")
	insightsCmd.Flags().BoolVar(&insightsStrict, "strict", false, "fail on any invalid snapshot record instead of skipping it")

	insightsCmd.MarkFlagRequired("snapshot")

	viper.BindPFlag("insights.snapshot", insightsCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("insights.horizon", insightsCmd.Flags().Lookup("horizon"))
	viper.BindPFlag("insights.max", insightsCmd.Flags().Lookup("max"))
	viper.BindPFlag("insights.no-stress", insightsCmd.Flags().Lookup("no-stress"))
	viper.BindPFlag("insights.output-format", insightsCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("insights.output-file", insightsCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("insights.strict", insightsCmd.Flags().Lookup("strict"))
}

func validateInsightsFlags(cmd *cobra.Command, args []string) error {
	insightsSnapshot = viper.GetString("insights.snapshot")
	insightsHorizon = viper.GetInt("insights.horizon")
	insightsMax = viper.GetInt("insights.max")
	insightsNoStress = viper.GetBool("insights.no-stress")
	insightsFormat = viper.GetString("insights.output-format")
	insightsOutput = viper.GetString("insights.output-file")
	insightsStrict = viper.GetBool("insights.strict")

	if insightsSnapshot == "" {
		return fmt.Errorf("snapshot is required")
	}
	if err := validateFileExists(insightsSnapshot, "snapshot file"); err != nil {
		return err
	}

	if err := validateHorizon(insightsHorizon); err != nil {
		return err
	}

	if insightsMax < 0 {
		return fmt.Errorf("max cannot be negative")
	}

	if _, err := reporter.ParseFormat(insightsFormat); err != nil {
		return err
	}

	return validateOutputPath(insightsOutput)
}

func runInsights(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Generating insights...\n")
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", insightsSnapshot)
		fmt.Fprintf(os.Stderr, "Horizon: %d days\n", insightsHorizon)
	}

	snap, err := loadHouseholdSnapshot(insightsSnapshot, insightsStrict)
	if err != nil {
		return err
	}
	input := snap.ForecastInput()

	forecastConfig := config.CreateForecastConfig(insightsHorizon, time.Time{}, false, false)
	fc, err := forecast.NewEngine(forecastConfig).Generate(input)
	if err != nil {
		return fmt.Errorf("forecast generation failed: %w", err)
	}

	optimisation, err := optimizer.NewEngine(config.CreateOptimizerConfig(nil)).Optimise(optimizer.Input{
		Forecast:          fc,
		Accounts:          snap.Accounts,
		RecurringPayments: snap.RecurringPayments,
		IncomeStreams:     snap.IncomeStreams,
		Loans:             snap.Loans,
	})
	if err != nil {
		return fmt.Errorf("optimisation failed: %w", err)
	}

	var stressOutput *stress.Output
	if !insightsNoStress {
		stressOutput, err = stress.NewEngine(config.CreateStressConfig(0, forecastConfig)).Run(input, nil)
		if err != nil {
			return fmt.Errorf("stress test failed: %w", err)
		}
	}

	list, err := insights.NewGenerator(config.CreateInsightsConfig(insightsMax)).Generate(insights.Input{
		Forecast:     fc,
		Optimisation: optimisation,
		Stress:       stressOutput,
	})
	if err != nil {
		return fmt.Errorf("insight generation failed: %w", err)
	}

	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(insightsFormat, true))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output, cleanup, err := openOutput(insightsOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := generator.WriteInsights(list, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nInsight generation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Produced %d insights.\n", len(list))
	}

	return nil
}
