package insights

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the thresholds that decide when an observation becomes an
// insight and how severe it is
type Config struct {
	// CriticalShortfallDays is the horizon within which a projected
	// shortfall is critical
	CriticalShortfallDays int `json:"critical_shortfall_days"`

	// HighShortfallDays is the horizon within which a projected
	// shortfall is high severity; later shortfalls are medium
	HighShortfallDays int `json:"high_shortfall_days"`

	// HighVolatilityIndex and MediumVolatilityIndex grade the spending
	// volatility index, 0-100
	HighVolatilityIndex   float64 `json:"high_volatility_index"`
	MediumVolatilityIndex float64 `json:"medium_volatility_index"`

	// NegativeNetFloor is the monthly deficit beyond which negative
	// cashflow is high severity
	NegativeNetFloor decimal.Decimal `json:"negative_net_floor"`

	// LowBufferMonths and ThinBufferMonths grade the cash buffer
	LowBufferMonths  float64 `json:"low_buffer_months"`
	ThinBufferMonths float64 `json:"thin_buffer_months"`

	// HighBurnRatio and ElevatedBurnRatio grade monthly burn against
	// monthly income
	HighBurnRatio     float64 `json:"high_burn_ratio"`
	ElevatedBurnRatio float64 `json:"elevated_burn_ratio"`

	// StrategyPriorityFloor is the minimum optimiser priority that
	// surfaces as a savings insight
	StrategyPriorityFloor int `json:"strategy_priority_floor"`

	// SavingsMediumFloor is the annual saving above which a savings
	// insight is medium rather than low severity
	SavingsMediumFloor decimal.Decimal `json:"savings_medium_floor"`

	// LowResilienceScore and ModerateResilienceScore grade the stress
	// resilience score, 0-100
	LowResilienceScore      float64 `json:"low_resilience_score"`
	ModerateResilienceScore float64 `json:"moderate_resilience_score"`

	// MaxInsights caps the generated list, 0 for no cap
	MaxInsights int `json:"max_insights"`
}

// DefaultConfig returns the standard insight thresholds
func DefaultConfig() *Config {
	return &Config{
		CriticalShortfallDays:   14,
		HighShortfallDays:       30,
		HighVolatilityIndex:     70,
		MediumVolatilityIndex:   50,
		NegativeNetFloor:        decimal.NewFromInt(1000),
		LowBufferMonths:         1,
		ThinBufferMonths:        2,
		HighBurnRatio:           1.0,
		ElevatedBurnRatio:       0.9,
		StrategyPriorityFloor:   60,
		SavingsMediumFloor:      decimal.NewFromInt(1000),
		LowResilienceScore:      50,
		ModerateResilienceScore: 70,
		MaxInsights:             25,
	}
}

// Validate checks the configuration for invalid settings
func (c *Config) Validate() error {
	if c.CriticalShortfallDays < 1 {
		return fmt.Errorf("critical shortfall days must be at least 1: %d", c.CriticalShortfallDays)
	}

	if c.HighShortfallDays < c.CriticalShortfallDays {
		return fmt.Errorf("high shortfall days must not be below critical days: %d < %d",
			c.HighShortfallDays, c.CriticalShortfallDays)
	}

	if c.MediumVolatilityIndex < 0 || c.HighVolatilityIndex > 100 {
		return fmt.Errorf("volatility thresholds must sit within 0-100")
	}

	if c.HighVolatilityIndex < c.MediumVolatilityIndex {
		return fmt.Errorf("high volatility threshold must not be below medium: %f < %f",
			c.HighVolatilityIndex, c.MediumVolatilityIndex)
	}

	if c.NegativeNetFloor.IsNegative() {
		return fmt.Errorf("negative net floor cannot be negative: %s", c.NegativeNetFloor)
	}

	if c.LowBufferMonths < 0 || c.ThinBufferMonths < c.LowBufferMonths {
		return fmt.Errorf("buffer thresholds must be non-negative with thin at or above low")
	}

	if c.ElevatedBurnRatio < 0 || c.HighBurnRatio < c.ElevatedBurnRatio {
		return fmt.Errorf("burn ratios must be non-negative with high at or above elevated")
	}

	if c.StrategyPriorityFloor < 1 || c.StrategyPriorityFloor > 100 {
		return fmt.Errorf("strategy priority floor must be between 1 and 100: %d", c.StrategyPriorityFloor)
	}

	if c.SavingsMediumFloor.IsNegative() {
		return fmt.Errorf("savings medium floor cannot be negative: %s", c.SavingsMediumFloor)
	}

	if c.LowResilienceScore < 0 || c.ModerateResilienceScore > 100 {
		return fmt.Errorf("resilience thresholds must sit within 0-100")
	}

	if c.ModerateResilienceScore < c.LowResilienceScore {
		return fmt.Errorf("moderate resilience threshold must not be below low: %f < %f",
			c.ModerateResilienceScore, c.LowResilienceScore)
	}

	if c.MaxInsights < 0 {
		return fmt.Errorf("max insights cannot be negative: %d", c.MaxInsights)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}
