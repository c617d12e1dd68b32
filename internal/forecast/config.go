// Package forecast simulates day-by-day account balances over a horizon.
//
// The engine combines three inputs into a daily balance series per account:
//  1. A spending profile extracted from transaction history
//  2. Projected timelines of income, recurring payments and loan repayments
//  3. Account starting balances at the forecast anchor
//
// Simulation is a pure left fold per account: each day's point is derived
// from the previous balance plus that day's projected movements, producing
// an immutable series. A global series merges the per-account series by
// date, and shortfall analysis plus a summary are computed from the result.
//
// Example usage:
//
//	config := forecast.DefaultConfig()
//	config.HorizonDays = 90
//	config.IncludeBands = true
//
//	engine := forecast.NewEngine(config)
//	result, err := engine.Generate(input)
package forecast

import (
	"fmt"
	"time"

	"golang-cashflow-engine/internal/patterns"
	"golang-cashflow-engine/internal/timeline"
)

// MaxHorizonDays bounds the forecast window to three years
const MaxHorizonDays = 1095

// CostAttribution defines how unscoped costs and income are applied
// across accounts during simulation.
type CostAttribution int

const (
	// AttributionShared applies income, loan repayments and the
	// non-recurring spending estimate to every account's series. This keeps
	// parity with household-level views where each account is projected as
	// if it carried the full cashflow.
	AttributionShared CostAttribution = iota

	// AttributionScoped applies loan repayments to the account linked to
	// the loan, and income plus the non-recurring estimate to transactional
	// accounts only. Use this for account-accurate projections.
	AttributionScoped
)

// String returns the string representation of CostAttribution
func (c CostAttribution) String() string {
	switch c {
	case AttributionShared:
		return "Shared"
	case AttributionScoped:
		return "Scoped"
	default:
		return "Unknown"
	}
}

// Config holds configuration parameters for forecast generation
type Config struct {
	// HorizonDays is the number of days to simulate beyond the anchor
	HorizonDays int `json:"horizon_days"`

	// IncludeBands enables volatility-scaled confidence bands on each point
	IncludeBands bool `json:"include_bands"`

	// CostAttribution selects how unscoped movements map onto accounts
	CostAttribution CostAttribution `json:"cost_attribution"`

	// NetIncome converts gross salary occurrences to net amounts.
	// Nil means no withholding is applied.
	NetIncome timeline.NetIncomeFunc `json:"-"`

	// Anchor is the simulation start day. The zero value means the current
	// day at the time Generate is called.
	Anchor time.Time `json:"anchor,omitempty"`

	// Analyzer configures the pattern analysis feeding the simulation
	Analyzer *patterns.AnalyzerConfig `json:"analyzer,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HorizonDays:     90,
		IncludeBands:    false,
		CostAttribution: AttributionShared,
		Analyzer:        patterns.DefaultAnalyzerConfig(),
	}
}

// Validate checks if the forecast configuration is valid
func (c *Config) Validate() error {
	if c.HorizonDays < 1 {
		return fmt.Errorf("forecast horizon must be at least 1 day: %d", c.HorizonDays)
	}

	if c.HorizonDays > MaxHorizonDays {
		return fmt.Errorf("forecast horizon cannot exceed %d days: %d", MaxHorizonDays, c.HorizonDays)
	}

	if c.CostAttribution != AttributionShared && c.CostAttribution != AttributionScoped {
		return fmt.Errorf("invalid cost attribution mode: %d", c.CostAttribution)
	}

	if c.Analyzer != nil {
		if err := c.Analyzer.Validate(); err != nil {
			return fmt.Errorf("invalid analyzer configuration: %w", err)
		}
	}

	return nil
}

// Clone creates a copy of the forecast configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	return &Config{
		HorizonDays:     c.HorizonDays,
		IncludeBands:    c.IncludeBands,
		CostAttribution: c.CostAttribution,
		NetIncome:       c.NetIncome,
		Anchor:          c.Anchor,
		Analyzer:        c.Analyzer.Clone(),
	}
}
