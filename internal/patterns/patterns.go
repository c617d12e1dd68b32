// Package patterns extracts spending behaviour from historical transactions.
//
// The analyzer turns raw transaction history into a compact spending profile
// that the forecast simulator consumes:
//   - Daily average spend over the observed days
//   - Per-weekday averages for day-of-week weighting
//   - Per-category monthly averages for benchmark comparison
//   - Spend volatility as a coefficient of variation
//   - A monthly trend classification over a configurable window
//
// Only outgoing transactions contribute to the profile; incoming transfers
// and income are handled by the timeline generators.
//
// Example usage:
//
//	analyzer := patterns.NewAnalyzer(patterns.DefaultAnalyzerConfig())
//	profile := analyzer.Analyze(transactions)
//
//	fmt.Println(profile.DailyAverage, profile.Trend)
package patterns

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/pkg/logger"
)

// Trend classifies the direction of recent monthly spending
type Trend string

const (
	// TrendIncreasing indicates monthly spend grew beyond the configured threshold
	TrendIncreasing Trend = "INCREASING"
	// TrendDecreasing indicates monthly spend fell beyond the configured threshold
	TrendDecreasing Trend = "DECREASING"
	// TrendStable indicates monthly spend stayed within the threshold, or there
	// is not enough history to classify
	TrendStable Trend = "STABLE"
)

// String returns the string representation of Trend
func (t Trend) String() string {
	return string(t)
}

// IsValid checks if the trend value is valid
func (t Trend) IsValid() bool {
	return t == TrendIncreasing || t == TrendDecreasing || t == TrendStable
}

// AnalyzerConfig holds configuration parameters for pattern analysis
type AnalyzerConfig struct {
	// TrendWindowMonths is the number of recent months compared for the trend
	TrendWindowMonths int `json:"trend_window_months"`

	// TrendThreshold is the relative change beyond which spend counts as
	// increasing or decreasing (0.10 means 10%)
	TrendThreshold float64 `json:"trend_threshold"`
}

// DefaultAnalyzerConfig returns a configuration with sensible defaults
func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		TrendWindowMonths: 3,
		TrendThreshold:    0.10,
	}
}

// Validate checks if the analyzer configuration is valid
func (c *AnalyzerConfig) Validate() error {
	if c.TrendWindowMonths < 2 {
		return fmt.Errorf("trend window must cover at least 2 months: %d", c.TrendWindowMonths)
	}

	if c.TrendThreshold <= 0 || c.TrendThreshold > 1 {
		return fmt.Errorf("trend threshold must be between 0 and 1: %f", c.TrendThreshold)
	}

	return nil
}

// Clone creates a copy of the analyzer configuration
func (c *AnalyzerConfig) Clone() *AnalyzerConfig {
	if c == nil {
		return nil
	}

	return &AnalyzerConfig{
		TrendWindowMonths: c.TrendWindowMonths,
		TrendThreshold:    c.TrendThreshold,
	}
}

// SpendingProfile summarises historical spending behaviour.
// All averages are derived from outgoing transactions only.
type SpendingProfile struct {
	// DailyAverage is the mean of per-day spend totals over observed days
	DailyAverage decimal.Decimal `json:"daily_average"`

	// WeekdayAverages holds the mean outgoing transaction amount per weekday,
	// indexed by time.Weekday (0 = Sunday)
	WeekdayAverages [7]decimal.Decimal `json:"weekday_averages"`

	// CategoryMonthly maps spending categories to their average monthly total
	CategoryMonthly map[string]decimal.Decimal `json:"category_monthly"`

	// Volatility is the coefficient of variation of daily spend totals
	Volatility float64 `json:"volatility"`

	// Trend classifies the recent direction of monthly spend
	Trend Trend `json:"trend"`

	// TrendPercent is the raw percentage change behind the trend classification
	TrendPercent float64 `json:"trend_percent"`

	// Months is the number of distinct calendar months observed
	Months int `json:"months"`

	// Observations is the number of outgoing transactions analysed
	Observations int `json:"observations"`
}

// WeekdayAverage returns the average outgoing amount for the given weekday
func (p *SpendingProfile) WeekdayAverage(day time.Weekday) decimal.Decimal {
	return p.WeekdayAverages[int(day)]
}

// VolatilityIndex scales volatility to a 0-100 style index
func (p *SpendingProfile) VolatilityIndex() float64 {
	return p.Volatility * 100
}

// Analyzer computes spending profiles from transaction history
type Analyzer struct {
	config *AnalyzerConfig
	logger logger.Logger
}

// NewAnalyzer creates an analyzer with the given configuration
func NewAnalyzer(config *AnalyzerConfig) *Analyzer {
	if config == nil {
		config = DefaultAnalyzerConfig()
	}

	return &Analyzer{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("pattern_analyzer"),
	}
}

// Analyze builds a spending profile from the given transactions.
// Empty or nil history yields an all-zero profile rather than an error.
func (a *Analyzer) Analyze(transactions []*models.Transaction) *SpendingProfile {
	profile := &SpendingProfile{
		DailyAverage:    decimal.Zero,
		CategoryMonthly: make(map[string]decimal.Decimal),
		Trend:           TrendStable,
	}

	outgoing := filterOutgoing(transactions)
	if len(outgoing) == 0 {
		return profile
	}
	profile.Observations = len(outgoing)

	dailyTotals := aggregateByDay(outgoing)
	profile.DailyAverage = meanOfTotals(dailyTotals)
	profile.Volatility = coefficientOfVariation(dailyTotals)
	profile.WeekdayAverages = weekdayAverages(outgoing)

	monthlyTotals := aggregateByMonth(outgoing)
	profile.Months = len(monthlyTotals)
	profile.CategoryMonthly = categoryMonthlyAverages(outgoing, len(monthlyTotals))
	profile.Trend, profile.TrendPercent = a.classifyTrend(monthlyTotals)

	a.logger.WithFields(logger.Fields{
		"observations":  profile.Observations,
		"months":        profile.Months,
		"daily_average": profile.DailyAverage.String(),
		"volatility":    profile.Volatility,
		"trend":         profile.Trend.String(),
	}).Debug("Spending profile computed")

	return profile
}

func filterOutgoing(transactions []*models.Transaction) []*models.Transaction {
	outgoing := make([]*models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx != nil && tx.IsOutgoing() {
			outgoing = append(outgoing, tx)
		}
	}
	return outgoing
}

func aggregateByDay(transactions []*models.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		key := models.DateKey(tx.Date)
		totals[key] = totals[key].Add(tx.Amount)
	}
	return totals
}

func aggregateByMonth(transactions []*models.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		key := tx.Date.Format("2006-01")
		totals[key] = totals[key].Add(tx.Amount)
	}
	return totals
}

func meanOfTotals(totals map[string]decimal.Decimal) decimal.Decimal {
	if len(totals) == 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, total := range totals {
		sum = sum.Add(total)
	}
	return sum.Div(decimal.NewFromInt(int64(len(totals))))
}

// coefficientOfVariation measures daily spend dispersion relative to the mean.
// Fewer than two observed days, or a zero mean, gives zero.
func coefficientOfVariation(totals map[string]decimal.Decimal) float64 {
	if len(totals) < 2 {
		return 0
	}

	values := make([]float64, 0, len(totals))
	sum := 0.0
	for _, total := range totals {
		v, _ := total.Float64()
		values = append(values, v)
		sum += v
	}

	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance) / mean
}

func weekdayAverages(transactions []*models.Transaction) [7]decimal.Decimal {
	var sums [7]decimal.Decimal
	var counts [7]int64

	for _, tx := range transactions {
		day := int(tx.Date.Weekday())
		sums[day] = sums[day].Add(tx.Amount)
		counts[day]++
	}

	var averages [7]decimal.Decimal
	for day := range sums {
		if counts[day] > 0 {
			averages[day] = sums[day].Div(decimal.NewFromInt(counts[day]))
		} else {
			averages[day] = decimal.Zero
		}
	}
	return averages
}

func categoryMonthlyAverages(transactions []*models.Transaction, months int) map[string]decimal.Decimal {
	if months < 1 {
		months = 1
	}

	totals := make(map[string]decimal.Decimal)
	for _, tx := range transactions {
		category := tx.Category
		if category == "" {
			category = "uncategorised"
		}
		totals[category] = totals[category].Add(tx.Amount)
	}

	averages := make(map[string]decimal.Decimal, len(totals))
	divisor := decimal.NewFromInt(int64(months))
	for category, total := range totals {
		averages[category] = total.Div(divisor)
	}
	return averages
}

// classifyTrend compares the first and last month of the recent window
func (a *Analyzer) classifyTrend(monthlyTotals map[string]decimal.Decimal) (Trend, float64) {
	if len(monthlyTotals) < a.config.TrendWindowMonths {
		return TrendStable, 0
	}

	months := make([]string, 0, len(monthlyTotals))
	for month := range monthlyTotals {
		months = append(months, month)
	}
	sort.Strings(months)

	window := months[len(months)-a.config.TrendWindowMonths:]
	first, _ := monthlyTotals[window[0]].Float64()
	last, _ := monthlyTotals[window[len(window)-1]].Float64()

	if first == 0 {
		return TrendStable, 0
	}

	change := (last - first) / first
	percent := change * 100

	switch {
	case change > a.config.TrendThreshold:
		return TrendIncreasing, percent
	case change < -a.config.TrendThreshold:
		return TrendDecreasing, percent
	default:
		return TrendStable, percent
	}
}
