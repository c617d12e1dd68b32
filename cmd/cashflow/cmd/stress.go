package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang-cashflow-engine/cmd/cashflow/config"
	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/internal/reporter"
	"golang-cashflow-engine/internal/stress"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the stress command
var (
	stressSnapshot    string
	stressHorizon     int
	stressFormat      string
	stressOutput      string
	stressScenarios   []string
	stressConcurrency int
	stressStrict      bool

	// Custom scenario flags
	stressIncomeDrop  float64
	stressExpenseRise float64
	stressRateRise    int
	stressShockAmount string
	stressShockDate   string

	// Resolved from the scenario flags during flag validation
	stressSelected []stress.Scenario
)

// stressCmd represents the stress command
var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Stress test the forecast against adverse scenarios",
	Long: `Stress re-runs the forecast under adverse scenarios such as income
drops, expense rises, interest rate rises and one-off expense shocks,
then scores how long the finances survive under each.

Without --scenarios the built-in scenario library is used. A custom
scenario can be built from the --income-drop, --expense-rise,
--rate-rise-bps and --shock-amount flags; it runs alone unless
--scenarios adds library scenarios alongside it. The report includes
per-scenario survival, balance impact and suggested mitigations, plus an
overall resilience score.

Examples:
  # Run the built-in scenario library
  cashflow stress --snapshot household.json

  # Specific scenarios only
  cashflow stress --snapshot household.json \
    --scenarios income_drop_50,rate_rise_200

  # A custom scenario from the shock flags
  cashflow stress --snapshot household.json \
    --income-drop 30 --rate-rise-bps 150

  # One-off expense shock on a fixed date, next to the full library
  cashflow stress --snapshot household.json --scenarios all \
    --shock-amount 8000 --shock-date 2026-10-01

  # Scenario table as CSV
  cashflow stress --snapshot household.json --output-format csv`,

	PreRunE: validateStressFlags,
	RunE:    runStress,
}

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().StringVarP(&stressSnapshot, "snapshot", "s", "", "path to snapshot JSON file (required)")
	stressCmd.Flags().IntVarP(&stressHorizon, "horizon", "d", 90, "forecast horizon in days")
	stressCmd.Flags().StringSliceVar(&stressScenarios, "scenarios", []string{}, "comma-separated scenario IDs, or 'all' (default: built-in library)")
	stressCmd.Flags().IntVar(&stressConcurrency, "concurrency", 0, "scenarios to simulate in parallel (default: engine setting)")
	stressCmd.Flags().StringVarP(&stressFormat, "output-format", "f", "console", "output format: console, json, csv")
	stressCmd.Flags().StringVarP(&stressOutput, "output-file", "o", "", "output file path (default: stdout)")
	stressCmd.Flags().BoolVar(&stressStrict, "strict", false, "fail on any invalid snapshot record instead of skipping it")

	// Custom scenario flags
	stressCmd.Flags().Float64Var(&stressIncomeDrop, "income-drop", 0, "custom scenario: income drop percentage (0-100)")
	stressCmd.Flags().Float64Var(&stressExpenseRise, "expense-rise", 0, "custom scenario: expense increase percentage (0-100)")
	stressCmd.Flags().IntVar(&stressRateRise, "rate-rise-bps", 0, "custom scenario: interest rate rise in basis points (0-2000)")
	stressCmd.Flags().StringVar(&stressShockAmount, "shock-amount", "", "custom scenario: one-off expense shock amount")
	stressCmd.Flags().StringVar(&stressShockDate, "shock-date", "", "custom scenario: shock date (YYYY-MM-DD, default one week in)")

	stressCmd.MarkFlagRequired("snapshot")

	viper.BindPFlag("stress.snapshot", stressCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("stress.horizon", stressCmd.Flags().Lookup("horizon"))
	viper.BindPFlag("stress.scenarios", stressCmd.Flags().Lookup("scenarios"))
	viper.BindPFlag("stress.concurrency", stressCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("stress.output-format", stressCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("stress.output-file", stressCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("stress.strict", stressCmd.Flags().Lookup("strict"))
	viper.BindPFlag("stress.income-drop", stressCmd.Flags().Lookup("income-drop"))
	viper.BindPFlag("stress.expense-rise", stressCmd.Flags().Lookup("expense-rise"))
	viper.BindPFlag("stress.rate-rise-bps", stressCmd.Flags().Lookup("rate-rise-bps"))
	viper.BindPFlag("stress.shock-amount", stressCmd.Flags().Lookup("shock-amount"))
	viper.BindPFlag("stress.shock-date", stressCmd.Flags().Lookup("shock-date"))
}

func validateStressFlags(cmd *cobra.Command, args []string) error {
	stressSnapshot = viper.GetString("stress.snapshot")
	stressHorizon = viper.GetInt("stress.horizon")
	stressScenarios = viper.GetStringSlice("stress.scenarios")
	stressConcurrency = viper.GetInt("stress.concurrency")
	stressFormat = viper.GetString("stress.output-format")
	stressOutput = viper.GetString("stress.output-file")
	stressStrict = viper.GetBool("stress.strict")
	stressIncomeDrop = viper.GetFloat64("stress.income-drop")
	stressExpenseRise = viper.GetFloat64("stress.expense-rise")
	stressRateRise = viper.GetInt("stress.rate-rise-bps")
	stressShockAmount = viper.GetString("stress.shock-amount")
	stressShockDate = viper.GetString("stress.shock-date")

	if stressSnapshot == "" {
		return fmt.Errorf("snapshot is required")
	}
	if err := validateFileExists(stressSnapshot, "snapshot file"); err != nil {
		return err
	}

	if err := validateHorizon(stressHorizon); err != nil {
		return err
	}

	if stressConcurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}

	if _, err := reporter.ParseFormat(stressFormat); err != nil {
		return err
	}

	custom, hasCustom, err := buildCustomScenario()
	if err != nil {
		return err
	}

	selected, err := config.SelectScenarios(stressScenarios)
	if err != nil {
		return err
	}
	if hasCustom {
		if len(stressScenarios) == 0 {
			// Shock flags alone replace the default library
			selected = []stress.Scenario{custom}
		} else {
			selected = append(selected, custom)
		}
	}
	stressSelected = selected

	return validateOutputPath(stressOutput)
}

// buildCustomScenario assembles a scenario from the shock flags. The second
// return value is false when none of them were set.
func buildCustomScenario() (stress.Scenario, bool, error) {
	hasShock := stressShockAmount != ""
	if stressShockDate != "" && !hasShock {
		return stress.Scenario{}, false, fmt.Errorf("shock-date requires shock-amount")
	}
	if stressIncomeDrop == 0 && stressExpenseRise == 0 && stressRateRise == 0 && !hasShock {
		return stress.Scenario{}, false, nil
	}

	scenario := stress.Scenario{
		ID:                     "custom",
		Name:                   "Custom scenario",
		IncomeDropPercent:      stressIncomeDrop,
		ExpenseIncreasePercent: stressExpenseRise,
		RateRiseBasisPoints:    stressRateRise,
	}

	var parts []string
	if stressIncomeDrop != 0 {
		parts = append(parts, fmt.Sprintf("income down %g%%", stressIncomeDrop))
	}
	if stressExpenseRise != 0 {
		parts = append(parts, fmt.Sprintf("expenses up %g%%", stressExpenseRise))
	}
	if stressRateRise != 0 {
		parts = append(parts, fmt.Sprintf("rates up %d bps", stressRateRise))
	}

	if hasShock {
		amount, err := models.ParseAmount(stressShockAmount)
		if err != nil {
			return stress.Scenario{}, false, fmt.Errorf("invalid shock-amount: %w", err)
		}
		scenario.ExpenseShockAmount = amount
		parts = append(parts, fmt.Sprintf("one-off expense of %s", amount.StringFixed(2)))

		if stressShockDate != "" {
			date, err := time.Parse("2006-01-02", stressShockDate)
			if err != nil {
				return stress.Scenario{}, false, fmt.Errorf("invalid shock-date format. Use YYYY-MM-DD: %w", err)
			}
			scenario.ExpenseShockDate = &date
		}
	}

	scenario.Description = "User-defined shock: " + strings.Join(parts, ", ")

	if err := scenario.Validate(); err != nil {
		return stress.Scenario{}, false, err
	}

	return scenario, true, nil
}

func runStress(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		names := make([]string, 0, len(stressSelected))
		for _, scenario := range stressSelected {
			names = append(names, scenario.ID)
		}
		fmt.Fprintf(os.Stderr, "Running stress test...\n")
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", stressSnapshot)
		fmt.Fprintf(os.Stderr, "Scenarios: %s\n", strings.Join(names, ", "))
	}

	snap, err := loadHouseholdSnapshot(stressSnapshot, stressStrict)
	if err != nil {
		return err
	}

	forecastConfig := config.CreateForecastConfig(stressHorizon, time.Time{}, false, false)
	engine := stress.NewEngine(config.CreateStressConfig(stressConcurrency, forecastConfig))

	result, err := engine.Run(snap.ForecastInput(), stressSelected)
	if err != nil {
		return fmt.Errorf("stress test failed: %w", err)
	}

	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(stressFormat, true))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output, cleanup, err := openOutput(stressOutput)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := generator.WriteStress(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nStress test completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Ran %d scenarios, resilience score %.0f/100.\n",
			len(result.Results), result.ResilienceScore)
	}

	return nil
}
