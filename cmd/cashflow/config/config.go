package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/insights"
	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/internal/optimizer"
	"golang-cashflow-engine/internal/reporter"
	"golang-cashflow-engine/internal/snapshot"
	"golang-cashflow-engine/internal/stress"

	"github.com/shopspring/decimal"
)

// CreateLoaderConfig creates a snapshot loader configuration
func CreateLoaderConfig(strict bool) *snapshot.Config {
	config := snapshot.DefaultConfig()

	// Apply CLI overrides
	config.Strict = strict

	return config
}

// CreateForecastConfig creates a forecast configuration with the specified horizon
func CreateForecastConfig(horizonDays int, anchor time.Time, includeBands, scopedCosts bool) *forecast.Config {
	config := forecast.DefaultConfig()

	// Apply CLI overrides
	config.HorizonDays = horizonDays
	config.Anchor = anchor
	config.IncludeBands = includeBands
	if scopedCosts {
		config.CostAttribution = forecast.AttributionScoped
	}

	return config
}

// CreateOptimizerConfig creates an optimizer configuration. A non-empty
// benchmarks table replaces the built-in spending benchmarks.
func CreateOptimizerConfig(benchmarks map[string]decimal.Decimal) *optimizer.Config {
	config := optimizer.DefaultConfig()

	// Apply CLI overrides
	if len(benchmarks) > 0 {
		config.Benchmarks = benchmarks
	}

	return config
}

// LoadBenchmarks reads a spending benchmark table from a JSON file mapping
// category names to monthly amounts, e.g. {"groceries": "850", "dining": "400"}.
// An empty path returns nil, which keeps the built-in benchmarks.
func LoadBenchmarks(path string) (map[string]decimal.Decimal, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmarks file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse benchmarks file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("benchmarks file %s holds no categories", path)
	}

	benchmarks := make(map[string]decimal.Decimal, len(raw))
	for category, value := range raw {
		amount, err := models.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("invalid benchmark amount for category %s: %w", category, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("benchmark for category %s cannot be negative: %s", category, amount)
		}
		benchmarks[strings.ToLower(strings.TrimSpace(category))] = amount
	}

	return benchmarks, nil
}

// CreateStressConfig creates a stress test configuration sharing the
// forecast settings already resolved for the run
func CreateStressConfig(concurrency int, forecastConfig *forecast.Config) *stress.Config {
	config := stress.DefaultConfig()

	// Apply CLI overrides
	if concurrency > 0 {
		config.MaxConcurrency = concurrency
	}
	if forecastConfig != nil {
		config.Forecast = forecastConfig.Clone()
	}

	return config
}

// CreateInsightsConfig creates an insight generator configuration
func CreateInsightsConfig(maxInsights int) *insights.Config {
	config := insights.DefaultConfig()

	// Apply CLI overrides
	if maxInsights > 0 {
		config.MaxInsights = maxInsights
	}

	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, includeAccounts bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.IncludeAccounts = includeAccounts

	// Set output format
	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeFindings = false // CSV is for strategy data
	}

	return config
}

// SelectScenarios resolves scenario IDs against the built-in library.
// An empty selection or the single keyword "all" means the full library.
func SelectScenarios(ids []string) ([]stress.Scenario, error) {
	library := stress.Library()
	if len(ids) == 0 {
		return library, nil
	}
	if len(ids) == 1 && strings.EqualFold(strings.TrimSpace(ids[0]), "all") {
		return library, nil
	}

	byID := make(map[string]stress.Scenario, len(library))
	for _, scenario := range library {
		byID[scenario.ID] = scenario
	}

	selected := make([]stress.Scenario, 0, len(ids))
	for _, id := range ids {
		scenario, ok := byID[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("unknown scenario: %s (available: %s)", id, strings.Join(ScenarioIDs(), ", "))
		}
		selected = append(selected, scenario)
	}

	return selected, nil
}

// ScenarioIDs returns the IDs of the built-in scenario library
func ScenarioIDs() []string {
	library := stress.Library()
	ids := make([]string, 0, len(library))
	for _, scenario := range library {
		ids = append(ids, scenario.ID)
	}
	return ids
}
