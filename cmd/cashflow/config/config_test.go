package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/reporter"

	"github.com/shopspring/decimal"
)

func TestCreateLoaderConfig(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
	}{
		{"strict loading", true},
		{"lenient loading", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateLoaderConfig(tt.strict)

			if config.Strict != tt.strict {
				t.Errorf("expected Strict %v, got %v", tt.strict, config.Strict)
			}
		})
	}
}

func TestCreateForecastConfig(t *testing.T) {
	anchor := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name                string
		horizonDays         int
		anchor              time.Time
		includeBands        bool
		scopedCosts         bool
		expectedAttribution forecast.CostAttribution
	}{
		{"defaults", 90, time.Time{}, false, false, forecast.AttributionShared},
		{"custom horizon with bands", 365, anchor, true, false, forecast.AttributionShared},
		{"scoped costs", 30, time.Time{}, false, true, forecast.AttributionScoped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateForecastConfig(tt.horizonDays, tt.anchor, tt.includeBands, tt.scopedCosts)

			if config.HorizonDays != tt.horizonDays {
				t.Errorf("expected HorizonDays %d, got %d", tt.horizonDays, config.HorizonDays)
			}
			if !config.Anchor.Equal(tt.anchor) {
				t.Errorf("expected Anchor %v, got %v", tt.anchor, config.Anchor)
			}
			if config.IncludeBands != tt.includeBands {
				t.Errorf("expected IncludeBands %v, got %v", tt.includeBands, config.IncludeBands)
			}
			if config.CostAttribution != tt.expectedAttribution {
				t.Errorf("expected CostAttribution %s, got %s", tt.expectedAttribution, config.CostAttribution)
			}

			// Test default settings
			if config.Analyzer == nil {
				t.Error("expected Analyzer to be set")
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("forecast config should be valid: %v", err)
			}
		})
	}
}

func TestCreateOptimizerConfig(t *testing.T) {
	t.Run("default benchmarks", func(t *testing.T) {
		config := CreateOptimizerConfig(nil)

		if len(config.Benchmarks) == 0 {
			t.Error("expected benchmarks to be set")
		}
		if config.AmortisationYears < 1 {
			t.Errorf("expected positive amortisation term, got %d", config.AmortisationYears)
		}

		// Validate the configuration
		if err := config.Validate(); err != nil {
			t.Errorf("optimizer config should be valid: %v", err)
		}
	})

	t.Run("custom benchmarks replace the built-in table", func(t *testing.T) {
		custom := map[string]decimal.Decimal{"groceries": decimal.NewFromInt(700)}
		config := CreateOptimizerConfig(custom)

		if len(config.Benchmarks) != 1 {
			t.Fatalf("expected 1 benchmark, got %d", len(config.Benchmarks))
		}
		if !config.Benchmarks["groceries"].Equal(decimal.NewFromInt(700)) {
			t.Errorf("expected groceries benchmark 700, got %s", config.Benchmarks["groceries"])
		}
	})
}

func TestLoadBenchmarks(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "benchmarks.json")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write benchmarks file: %v", err)
		}
		return path
	}

	t.Run("empty path keeps built-in benchmarks", func(t *testing.T) {
		benchmarks, err := LoadBenchmarks("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if benchmarks != nil {
			t.Errorf("expected nil benchmarks, got %v", benchmarks)
		}
	})

	t.Run("valid table", func(t *testing.T) {
		path := writeFile(t, `{"Groceries": "$1,150.50", "dining": "400"}`)

		benchmarks, err := LoadBenchmarks(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(benchmarks) != 2 {
			t.Fatalf("expected 2 benchmarks, got %d", len(benchmarks))
		}

		// Keys are normalised to lowercase, amounts parsed as decimals
		if !benchmarks["groceries"].Equal(decimal.NewFromFloat(1150.50)) {
			t.Errorf("expected groceries 1150.50, got %s", benchmarks["groceries"])
		}
		if !benchmarks["dining"].Equal(decimal.NewFromInt(400)) {
			t.Errorf("expected dining 400, got %s", benchmarks["dining"])
		}
	})

	tests := []struct {
		name          string
		content       string
		errorContains string
	}{
		{"malformed JSON", `{"groceries": `, "failed to parse"},
		{"empty table", `{}`, "holds no categories"},
		{"invalid amount", `{"groceries": "lots"}`, "invalid benchmark amount"},
		{"negative amount", `{"groceries": "-50"}`, "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)

			_, err := LoadBenchmarks(path)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("expected error containing '%s', got '%s'", tt.errorContains, err.Error())
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadBenchmarks(filepath.Join(t.TempDir(), "absent.json"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !strings.Contains(err.Error(), "failed to read") {
			t.Errorf("expected read error, got '%s'", err.Error())
		}
	})
}

func TestCreateStressConfig(t *testing.T) {
	forecastConfig := CreateForecastConfig(120, time.Time{}, false, false)

	tests := []struct {
		name                string
		concurrency         int
		forecastConfig      *forecast.Config
		expectedConcurrency int
		expectedHorizon     int
	}{
		{"defaults", 0, nil, 4, 90},
		{"custom concurrency", 8, nil, 8, 90},
		{"shared forecast settings", 0, forecastConfig, 4, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateStressConfig(tt.concurrency, tt.forecastConfig)

			if config.MaxConcurrency != tt.expectedConcurrency {
				t.Errorf("expected MaxConcurrency %d, got %d", tt.expectedConcurrency, config.MaxConcurrency)
			}
			if config.Forecast == nil {
				t.Fatal("expected Forecast to be set")
			}
			if config.Forecast.HorizonDays != tt.expectedHorizon {
				t.Errorf("expected forecast horizon %d, got %d", tt.expectedHorizon, config.Forecast.HorizonDays)
			}

			// The stress engine must not share the caller's forecast config
			if tt.forecastConfig != nil && config.Forecast == tt.forecastConfig {
				t.Error("expected forecast config to be cloned, not shared")
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("stress config should be valid: %v", err)
			}
		})
	}
}

func TestCreateInsightsConfig(t *testing.T) {
	tests := []struct {
		name        string
		maxInsights int
		expectedMax int
	}{
		{"default cap", 0, 25},
		{"custom cap", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateInsightsConfig(tt.maxInsights)

			if config.MaxInsights != tt.expectedMax {
				t.Errorf("expected MaxInsights %d, got %d", tt.expectedMax, config.MaxInsights)
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("insights config should be valid: %v", err)
			}
		})
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name            string
		format          string
		includeAccounts bool
		expectedType    reporter.OutputFormat
	}{
		{"console format", "console", true, reporter.FormatConsole},
		{"json format", "json", false, reporter.FormatJSON},
		{"csv format", "csv", true, reporter.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateReportConfig(tt.format, tt.includeAccounts)

			if config.Format != tt.expectedType {
				t.Errorf("expected Format %s, got %s", tt.expectedType, config.Format)
			}
			if config.IncludeAccounts != tt.includeAccounts {
				t.Errorf("expected IncludeAccounts %v, got %v", tt.includeAccounts, config.IncludeAccounts)
			}

			// Test format-specific settings
			switch tt.format {
			case "csv":
				if !config.CSVHeaders {
					t.Error("CSV format should include headers")
				}
				if config.CSVDelimiter != ',' {
					t.Error("CSV format should use comma delimiter")
				}
				if config.IncludeFindings {
					t.Error("CSV format should not include finding sections")
				}
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("report config should be valid: %v", err)
			}
		})
	}
}

func TestSelectScenarios(t *testing.T) {
	tests := []struct {
		name        string
		ids         []string
		expected    int
		fullLibrary bool
		expectError bool
	}{
		{"empty selection means full library", nil, 7, true, false},
		{"all keyword means full library", []string{"all"}, 7, true, false},
		{"all keyword is case insensitive", []string{" ALL "}, 7, true, false},
		{"single scenario", []string{"rate_rise_200"}, 1, false, false},
		{"multiple scenarios", []string{"income_drop_25", "expense_shock_5k"}, 2, false, false},
		{"whitespace tolerated", []string{" combined_mild "}, 1, false, false},
		{"unknown scenario", []string{"meteor_strike"}, 0, false, true},
		{"known and unknown mixed", []string{"income_drop_25", "meteor_strike"}, 0, false, true},
		{"all mixed with an ID is not a keyword", []string{"all", "income_drop_25"}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenarios, err := SelectScenarios(tt.ids)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for ids %v", tt.ids)
				}
				if scenarios != nil {
					t.Error("expected nil scenarios on error")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(scenarios) != tt.expected {
				t.Errorf("expected %d scenarios, got %d", tt.expected, len(scenarios))
			}
			if tt.fullLibrary {
				return
			}

			// Selection preserves the requested order
			for i, id := range tt.ids {
				want := strings.TrimSpace(id)
				if scenarios[i].ID != want {
					t.Errorf("expected scenario %d to be %s, got %s", i, want, scenarios[i].ID)
				}
			}
		})
	}
}

func TestScenarioIDs(t *testing.T) {
	ids := ScenarioIDs()

	if len(ids) == 0 {
		t.Fatal("expected at least one scenario ID")
	}

	expected := []string{"income_drop_25", "income_drop_50", "rate_rise_200", "combined_severe"}
	for _, want := range expected {
		found := false
		for _, id := range ids {
			if id == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected to find scenario ID '%s'", want)
		}
	}
}
