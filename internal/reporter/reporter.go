// Package reporter renders forecast, optimisation, stress and insight
// output for people and machines.
//
// Supported output formats:
//   - Console: human-readable sections for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: flat rows for spreadsheet applications
//
// Report types available:
//   - Forecast reports: headline summary, shortfalls and the daily series
//   - Optimisation reports: ranked strategies and the findings behind them
//   - Stress reports: per-scenario survival, impact and mitigations
//   - Insight reports: the ranked insight feed
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = generator.WriteForecast(fc, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/insights"
	"golang-cashflow-engine/internal/optimizer"
	"golang-cashflow-engine/internal/stress"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ParseFormat converts a string to an OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported output format: %s (expected console, json or csv)", s)
	}
	return format, nil
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	// Output format
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeAccounts bool `json:"include_accounts"`
	IncludeFindings bool `json:"include_findings"`

	// Console table limits
	MaxTableRows  int `json:"max_table_rows"`
	MaxStrategies int `json:"max_strategies"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:          FormatConsole,
		IncludeAccounts: true,
		IncludeFindings: true,
		MaxTableRows:    14,
		MaxStrategies:   10,
		CSVDelimiter:    ',',
		CSVHeaders:      true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxTableRows < 1 {
		return fmt.Errorf("max table rows must be at least 1, got %d", c.MaxTableRows)
	}

	if c.MaxStrategies < 1 {
		return fmt.Errorf("max strategies must be at least 1, got %d", c.MaxStrategies)
	}

	return nil
}

// ReportGenerator renders analysis output in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

// WriteForecast renders a forecast to the provided writer
func (rg *ReportGenerator) WriteForecast(fc *forecast.Forecast, writer io.Writer) error {
	if fc == nil {
		return fmt.Errorf("forecast cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.forecastConsole(fc, writer)
	case FormatJSON:
		return rg.encodeJSON(rg.forecastJSON(fc), writer)
	case FormatCSV:
		return rg.forecastCSV(fc, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// WriteOptimisation renders an optimisation result to the provided writer
func (rg *ReportGenerator) WriteOptimisation(result *optimizer.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("optimisation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.optimisationConsole(result, writer)
	case FormatJSON:
		return rg.encodeJSON(rg.optimisationJSON(result), writer)
	case FormatCSV:
		return rg.optimisationCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// WriteStress renders a stress run to the provided writer
func (rg *ReportGenerator) WriteStress(output *stress.Output, writer io.Writer) error {
	if output == nil {
		return fmt.Errorf("stress output cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.stressConsole(output, writer)
	case FormatJSON:
		return rg.encodeJSON(output, writer)
	case FormatCSV:
		return rg.stressCSV(output, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// WriteInsights renders the insight feed to the provided writer
func (rg *ReportGenerator) WriteInsights(list []insights.Insight, writer io.Writer) error {
	switch rg.config.Format {
	case FormatConsole:
		return rg.insightsConsole(list, writer)
	case FormatJSON:
		return rg.encodeJSON(list, writer)
	case FormatCSV:
		return rg.insightsCSV(list, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// Console rendering

func (rg *ReportGenerator) forecastConsole(fc *forecast.Forecast, writer io.Writer) error {
	fmt.Fprintf(writer, "CASHFLOW FORECAST\n")
	fmt.Fprintf(writer, "Generated: %s\n", fc.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Horizon: %d days\n\n", fc.HorizonDays)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Starting Balance:  %s\n", fc.StartingBalance.StringFixed(2))
	fmt.Fprintf(writer, "Ending Balance:    %s\n", fc.EndingBalance().StringFixed(2))
	fmt.Fprintf(writer, "Monthly Burn Rate: %s\n", fc.Summary.MonthlyBurnRate.StringFixed(2))
	fmt.Fprintf(writer, "Withdrawable Cash: %s\n", fc.Summary.WithdrawableCash.StringFixed(2))
	fmt.Fprintf(writer, "Buffer:            %.1f months\n", fc.Summary.BufferMonths)
	if fc.Summary.BreakEvenDay >= 0 {
		fmt.Fprintf(writer, "Break-even Day:    %d\n", fc.Summary.BreakEvenDay)
	} else {
		fmt.Fprintf(writer, "Break-even Day:    not within 30 days\n")
	}

	rg.printWindow(writer, "Next 30 Days", fc.Summary.Next30Days)
	rg.printWindow(writer, "Next 90 Days", fc.Summary.Next90Days)
	fmt.Fprintf(writer, "\n")

	if fc.Shortfall.HasShortfall {
		fmt.Fprintf(writer, "=== SHORTFALLS ===\n")
		fmt.Fprintf(writer, "First Shortfall:   %s\n", fc.Shortfall.FirstDate.Format("2006-01-02"))
		fmt.Fprintf(writer, "Worst Shortfall:   %s on %s\n",
			fc.Shortfall.WorstAmount.StringFixed(2), fc.Shortfall.WorstDate.Format("2006-01-02"))
		fmt.Fprintf(writer, "Days in Shortfall: %d\n", len(fc.Shortfall.Dates))
		if len(fc.Shortfall.AccountsAtRisk) > 0 {
			fmt.Fprintf(writer, "Accounts at Risk:  %s\n", strings.Join(fc.Shortfall.AccountsAtRisk, ", "))
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeAccounts && len(fc.Accounts) > 0 {
		fmt.Fprintf(writer, "=== ACCOUNTS ===\n")
		for _, account := range fc.Accounts {
			fmt.Fprintf(writer, "%s (%s):\n", account.Name, account.AccountID)
			fmt.Fprintf(writer, "  Range:   %s to %s, average %s\n",
				account.MinBalance.StringFixed(2), account.MaxBalance.StringFixed(2),
				account.AverageBalance.StringFixed(2))
			fmt.Fprintf(writer, "  Shortfall days: %d\n", len(account.ShortfallDates))
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(fc.Global) > 0 {
		fmt.Fprintf(writer, "=== DAILY PROJECTION ===\n")
		fmt.Fprintf(writer, "%-12s %12s %12s %12s %12s\n", "Date", "Balance", "Income", "Expenses", "Confidence")
		for i, point := range fc.Global {
			fmt.Fprintf(writer, "%-12s %12s %12s %12s %11.0f%%\n",
				point.Date.Format("2006-01-02"),
				point.Balance.StringFixed(2),
				point.Income.StringFixed(2),
				point.Expenses.StringFixed(2),
				point.Confidence*100)

			if i >= rg.config.MaxTableRows-1 && len(fc.Global) > rg.config.MaxTableRows {
				fmt.Fprintf(writer, "... and %d more days\n", len(fc.Global)-rg.config.MaxTableRows)
				break
			}
		}
	}

	return nil
}

func (rg *ReportGenerator) printWindow(writer io.Writer, title string, window forecast.WindowSummary) {
	fmt.Fprintf(writer, "\n%s:\n", title)
	fmt.Fprintf(writer, "  Income:   %s\n", window.TotalIncome.StringFixed(2))
	fmt.Fprintf(writer, "  Expenses: %s\n", window.TotalExpenses.StringFixed(2))
	fmt.Fprintf(writer, "  Net:      %s\n", window.NetCashflow.StringFixed(2))
}

func (rg *ReportGenerator) optimisationConsole(result *optimizer.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "OPTIMISATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", result.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Monthly Savings Identified: %s\n", result.TotalMonthlySavings.StringFixed(2))
	fmt.Fprintf(writer, "Annual Savings Identified:  %s\n\n", result.TotalAnnualSavings.StringFixed(2))

	fmt.Fprintf(writer, "=== STRATEGIES ===\n")
	if len(result.Strategies) == 0 {
		fmt.Fprintf(writer, "Nothing to recommend. Spending and structure look sound.\n")
	}
	for i, strategy := range result.Strategies {
		if i >= rg.config.MaxStrategies {
			fmt.Fprintf(writer, "... and %d more strategies\n", len(result.Strategies)-rg.config.MaxStrategies)
			break
		}

		fmt.Fprintf(writer, "%d. [%d] %s\n", i+1, strategy.Priority, strategy.Title)
		fmt.Fprintf(writer, "   Saves %s/month (%s/year), confidence %.0f%%\n",
			strategy.MonthlyValue.StringFixed(2), strategy.AnnualValue.StringFixed(2),
			strategy.Confidence*100)
		for _, step := range strategy.Steps {
			fmt.Fprintf(writer, "   %d) %s\n", step.Order, step.Description)
		}
	}
	fmt.Fprintf(writer, "\n")

	if !rg.config.IncludeFindings {
		return nil
	}

	if len(result.Inefficiencies) > 0 {
		fmt.Fprintf(writer, "=== SPENDING ===\n")
		for _, finding := range result.Inefficiencies {
			fmt.Fprintf(writer, "- %s: %s/month against a %s benchmark (save %s)\n",
				finding.Category, finding.MonthlyAverage.StringFixed(2),
				finding.Benchmark.StringFixed(2), finding.PotentialSaving.StringFixed(2))
		}
		fmt.Fprintf(writer, "\n")
	}

	priceRises := 0
	for _, finding := range result.Subscriptions {
		if finding.HasPriceIncrease {
			priceRises++
		}
	}
	if priceRises > 0 {
		fmt.Fprintf(writer, "=== PRICE RISES ===\n")
		for _, finding := range result.Subscriptions {
			if !finding.HasPriceIncrease {
				continue
			}
			fmt.Fprintf(writer, "- %s: %s/month, up %.1f%% (%s/year)\n",
				finding.Merchant, finding.CurrentAmount.StringFixed(2),
				finding.PriceChangePercent, finding.AnnualCost.StringFixed(2))
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(result.FundMovements) > 0 {
		fmt.Fprintf(writer, "=== FUND MOVEMENTS ===\n")
		for _, movement := range result.FundMovements {
			fmt.Fprintf(writer, "- [%s] Move %s from %s to %s", movement.Urgency,
				movement.Amount.StringFixed(2), movement.FromAccountID, movement.ToAccountID)
			if movement.AnnualBenefit.IsPositive() {
				fmt.Fprintf(writer, " (worth %s/year)", movement.AnnualBenefit.StringFixed(2))
			}
			fmt.Fprintf(writer, "\n")
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(result.ScheduleChanges) > 0 {
		fmt.Fprintf(writer, "=== SCHEDULE CHANGES ===\n")
		for _, change := range result.ScheduleChanges {
			fmt.Fprintf(writer, "- Shift %d bills (%s/month) to day %d, est. benefit %s/month\n",
				len(change.PaymentIDs), change.MonthlyTotal.StringFixed(2),
				change.ProposedDay, change.EstimatedBenefit.StringFixed(2))
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(result.RepaymentFindings) > 0 {
		fmt.Fprintf(writer, "=== REPAYMENTS ===\n")
		for _, finding := range result.RepaymentFindings {
			fmt.Fprintf(writer, "- %s: %s\n", finding.LoanID, finding.Description)
			fmt.Fprintf(writer, "  Payment %s to %s, est. saving %s over the term\n",
				finding.CurrentPayment.StringFixed(2), finding.SuggestedPayment.StringFixed(2),
				finding.EstimatedSaving.StringFixed(2))
		}
	}

	return nil
}

func (rg *ReportGenerator) stressConsole(output *stress.Output, writer io.Writer) error {
	fmt.Fprintf(writer, "STRESS TEST REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", output.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Resilience Score: %.0f/100\n", output.ResilienceScore)
	if output.Baseline != nil {
		fmt.Fprintf(writer, "Baseline Ending Balance: %s\n", output.Baseline.EndingBalance().StringFixed(2))
	}
	fmt.Fprintf(writer, "\n=== SCENARIOS ===\n")

	for _, result := range output.Results {
		fmt.Fprintf(writer, "%s (%s):\n", result.Scenario.Name, result.Scenario.ID)
		fmt.Fprintf(writer, "  Score:          %.1f/100\n", result.Score)
		fmt.Fprintf(writer, "  Survival:       %.1f months\n", result.SurvivalMonths)
		fmt.Fprintf(writer, "  Balance Impact: %s\n", result.BalanceImpact.StringFixed(2))
		if result.WorstShortfall.IsPositive() {
			fmt.Fprintf(writer, "  Worst Shortfall: %s (%d days under)\n",
				result.WorstShortfall.StringFixed(2), result.AddedShortfallDays)
		}
		if len(result.Mitigations) > 0 {
			fmt.Fprintf(writer, "  Mitigations:\n")
			for _, mitigation := range result.Mitigations {
				fmt.Fprintf(writer, "    - %s\n", mitigation.Description)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	return nil
}

func (rg *ReportGenerator) insightsConsole(list []insights.Insight, writer io.Writer) error {
	fmt.Fprintf(writer, "INSIGHTS\n")
	if len(list) == 0 {
		fmt.Fprintf(writer, "Nothing needs attention.\n")
		return nil
	}

	for _, insight := range list {
		fmt.Fprintf(writer, "[%s] %s\n", insight.Severity, insight.Title)
		fmt.Fprintf(writer, "    %s\n", insight.Message)
	}

	return nil
}

// JSON rendering

func (rg *ReportGenerator) encodeJSON(payload interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// forecastJSON filters the forecast by the configured detail level
func (rg *ReportGenerator) forecastJSON(fc *forecast.Forecast) map[string]interface{} {
	output := map[string]interface{}{
		"generated_at":     fc.GeneratedAt,
		"horizon_days":     fc.HorizonDays,
		"starting_balance": fc.StartingBalance,
		"summary":          fc.Summary,
		"shortfall":        fc.Shortfall,
		"global":           fc.Global,
	}

	if rg.config.IncludeAccounts {
		output["accounts"] = fc.Accounts
	}

	if fc.Profile != nil {
		output["profile"] = fc.Profile
	}

	return output
}

// optimisationJSON filters the result by the configured detail level
func (rg *ReportGenerator) optimisationJSON(result *optimizer.Result) map[string]interface{} {
	output := map[string]interface{}{
		"generated_at":          result.GeneratedAt,
		"strategies":            result.Strategies,
		"total_monthly_savings": result.TotalMonthlySavings,
		"total_annual_savings":  result.TotalAnnualSavings,
		"break_even_day":        result.BreakEvenDay,
	}

	if rg.config.IncludeFindings {
		output["inefficiencies"] = result.Inefficiencies
		output["subscriptions"] = result.Subscriptions
		output["fund_movements"] = result.FundMovements
		output["schedule_changes"] = result.ScheduleChanges
		output["repayment_findings"] = result.RepaymentFindings
	}

	return output
}

// CSV rendering

func (rg *ReportGenerator) forecastCSV(fc *forecast.Forecast, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"date", "balance", "income", "expenses",
			"recurring_expenses", "non_recurring_expenses",
			"confidence", "lower_bound", "upper_bound",
			"shortfall_risk", "shortfall_amount",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, point := range fc.Global {
		lower, upper := "", ""
		if point.LowerBound != nil {
			lower = point.LowerBound.StringFixed(2)
		}
		if point.UpperBound != nil {
			upper = point.UpperBound.StringFixed(2)
		}

		record := []string{
			point.Date.Format("2006-01-02"),
			point.Balance.StringFixed(2),
			point.Income.StringFixed(2),
			point.Expenses.StringFixed(2),
			point.RecurringExpenses.StringFixed(2),
			point.NonRecurringExpenses.StringFixed(2),
			fmt.Sprintf("%.4f", point.Confidence),
			lower,
			upper,
			strconv.FormatBool(point.ShortfallRisk),
			point.ShortfallAmount.StringFixed(2),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write forecast record: %w", err)
		}
	}

	return nil
}

func (rg *ReportGenerator) optimisationCSV(result *optimizer.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"id", "kind", "title", "priority",
			"monthly_value", "annual_value", "confidence", "status",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, strategy := range result.Strategies {
		record := []string{
			strategy.ID,
			string(strategy.Kind),
			strategy.Title,
			strconv.Itoa(strategy.Priority),
			strategy.MonthlyValue.StringFixed(2),
			strategy.AnnualValue.StringFixed(2),
			fmt.Sprintf("%.2f", strategy.Confidence),
			string(strategy.Status),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write strategy record: %w", err)
		}
	}

	return nil
}

func (rg *ReportGenerator) stressCSV(output *stress.Output, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"scenario_id", "name", "score", "survival_months",
			"balance_impact", "added_shortfall_days", "worst_shortfall",
			"required_emergency_savings", "required_income_increase",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, result := range output.Results {
		record := []string{
			result.Scenario.ID,
			result.Scenario.Name,
			fmt.Sprintf("%.1f", result.Score),
			fmt.Sprintf("%.2f", result.SurvivalMonths),
			result.BalanceImpact.StringFixed(2),
			strconv.Itoa(result.AddedShortfallDays),
			result.WorstShortfall.StringFixed(2),
			result.RequiredEmergencySavings.StringFixed(2),
			result.RequiredIncomeIncrease.StringFixed(2),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write scenario record: %w", err)
		}
	}

	return nil
}

func (rg *ReportGenerator) insightsCSV(list []insights.Insight, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"id", "type", "severity", "title",
			"estimated_value", "source", "action_available",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, insight := range list {
		record := []string{
			insight.ID,
			string(insight.Type),
			string(insight.Severity),
			insight.Title,
			insight.EstimatedValue.StringFixed(2),
			insight.Source,
			strconv.FormatBool(insight.ActionAvailable),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write insight record: %w", err)
		}
	}

	return nil
}
