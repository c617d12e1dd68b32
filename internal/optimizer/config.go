package optimizer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the thresholds the optimisation engine works against.
// Benchmarks are injected rather than embedded so locale tables can be
// swapped without a rebuild.
type Config struct {
	// Benchmarks maps a lowercase spending category to a typical
	// household monthly spend
	Benchmarks map[string]decimal.Decimal `json:"benchmarks"`

	// BenchmarkTolerance is the multiple of the benchmark a category
	// average must strictly exceed before it is flagged
	BenchmarkTolerance float64 `json:"benchmark_tolerance"`

	// MinSaving is the smallest monthly saving worth reporting
	MinSaving decimal.Decimal `json:"min_saving"`

	// SubscriptionReviewFloor is the monthly amount above which a
	// subscription-like payment becomes a review candidate
	SubscriptionReviewFloor decimal.Decimal `json:"subscription_review_floor"`

	// StreamingOverlapLimit is the number of concurrent streaming
	// services that triggers an overlap finding
	StreamingOverlapLimit int `json:"streaming_overlap_limit"`

	// ExcessBuffer is the balance an account keeps before the remainder
	// counts as movable excess
	ExcessBuffer decimal.Decimal `json:"excess_buffer"`

	// MinAnnualInterestSaving is the smallest annual benefit worth a
	// fund movement recommendation
	MinAnnualInterestSaving decimal.Decimal `json:"min_annual_interest_saving"`

	// HighValueThreshold marks the annual benefit above which a fund
	// movement becomes high urgency
	HighValueThreshold decimal.Decimal `json:"high_value_threshold"`

	// PriceIncreaseThreshold is the percentage change above which a
	// subscription price rise is flagged
	PriceIncreaseThreshold float64 `json:"price_increase_threshold"`

	// SurplusFloor is the monthly surplus required before extra loan
	// repayments are suggested
	SurplusFloor decimal.Decimal `json:"surplus_floor"`

	// ExtraRepaymentCap bounds the suggested extra monthly repayment
	ExtraRepaymentCap decimal.Decimal `json:"extra_repayment_cap"`

	// OffsetUtilisationFloor is the offset balance, as a fraction of the
	// linked principal, below which an offset build-up is suggested
	OffsetUtilisationFloor float64 `json:"offset_utilisation_floor"`

	// AmortisationYears is the loan term used when projecting repayment
	// schedules and interest savings
	AmortisationYears int `json:"amortisation_years"`
}

// DefaultBenchmarks returns typical Australian household monthly spend per
// category, keyed by lowercase category name.
func DefaultBenchmarks() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"groceries":     decimal.NewFromInt(800),
		"dining":        decimal.NewFromInt(400),
		"entertainment": decimal.NewFromInt(250),
		"transport":     decimal.NewFromInt(350),
		"fuel":          decimal.NewFromInt(250),
		"utilities":     decimal.NewFromInt(300),
		"shopping":      decimal.NewFromInt(400),
		"health":        decimal.NewFromInt(350),
		"insurance":     decimal.NewFromInt(300),
	}
}

// DefaultConfig returns the standard optimisation thresholds
func DefaultConfig() *Config {
	return &Config{
		Benchmarks:              DefaultBenchmarks(),
		BenchmarkTolerance:      1.5,
		MinSaving:               decimal.NewFromInt(20),
		SubscriptionReviewFloor: decimal.NewFromInt(50),
		StreamingOverlapLimit:   3,
		ExcessBuffer:            decimal.NewFromInt(5000),
		MinAnnualInterestSaving: decimal.NewFromInt(100),
		HighValueThreshold:      decimal.NewFromInt(500),
		PriceIncreaseThreshold:  5.0,
		SurplusFloor:            decimal.NewFromInt(500),
		ExtraRepaymentCap:       decimal.NewFromInt(500),
		OffsetUtilisationFloor:  0.10,
		AmortisationYears:       30,
	}
}

// Validate checks the configuration for invalid settings
func (c *Config) Validate() error {
	if c.BenchmarkTolerance < 1 {
		return fmt.Errorf("benchmark tolerance must be at least 1: %f", c.BenchmarkTolerance)
	}

	if c.MinSaving.IsNegative() {
		return fmt.Errorf("minimum saving cannot be negative: %s", c.MinSaving)
	}

	if c.StreamingOverlapLimit < 2 {
		return fmt.Errorf("streaming overlap limit must be at least 2: %d", c.StreamingOverlapLimit)
	}

	if c.ExcessBuffer.IsNegative() {
		return fmt.Errorf("excess buffer cannot be negative: %s", c.ExcessBuffer)
	}

	if c.PriceIncreaseThreshold < 0 {
		return fmt.Errorf("price increase threshold cannot be negative: %f", c.PriceIncreaseThreshold)
	}

	if c.OffsetUtilisationFloor < 0 || c.OffsetUtilisationFloor > 1 {
		return fmt.Errorf("offset utilisation floor must be a fraction in [0, 1]: %f", c.OffsetUtilisationFloor)
	}

	if c.AmortisationYears < 1 {
		return fmt.Errorf("amortisation years must be at least 1: %d", c.AmortisationYears)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Benchmarks = make(map[string]decimal.Decimal, len(c.Benchmarks))
	for category, benchmark := range c.Benchmarks {
		clone.Benchmarks[category] = benchmark
	}
	return &clone
}
