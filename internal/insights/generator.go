// Package insights turns forecast, optimisation and stress output into a
// ranked list of plain-language observations.
//
// Each generated insight carries a severity, a dollar figure where one
// exists, and a flag for whether a concrete action backs it. The list is
// ordered most urgent first: severity, then value at stake, then title.
//
// Example usage:
//
//	generator := insights.NewGenerator(insights.DefaultConfig())
//	list, err := generator.Generate(insights.Input{Forecast: fc})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, insight := range list {
//		fmt.Printf("[%s] %s\n", insight.Severity, insight.Title)
//	}
package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/optimizer"
	"golang-cashflow-engine/internal/patterns"
	"golang-cashflow-engine/internal/stress"
	pkgerrors "golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"
)

// Input gathers the analysis artifacts insights are drawn from. Every
// field is optional; absent sources simply contribute nothing.
type Input struct {
	Forecast     *forecast.Forecast        `json:"forecast,omitempty"`
	Profile      *patterns.SpendingProfile `json:"profile,omitempty"`
	Optimisation *optimizer.Result         `json:"optimisation,omitempty"`
	Stress       *stress.Output            `json:"stress,omitempty"`
}

// Generator produces insights from analysis output
type Generator struct {
	config *Config
	logger logger.Logger
}

// NewGenerator creates a generator with the given configuration
func NewGenerator(config *Config) *Generator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Generator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("insight_generator"),
	}
}

// Config returns the generator's configuration
func (g *Generator) Config() *Config {
	return g.config
}

// Generate builds the ranked insight list. Insights come back unread and
// undismissed, most urgent first.
func (g *Generator) Generate(input Input) ([]Insight, error) {
	if err := g.config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "insights", nil, err)
	}

	now := generationTime(input)

	list := make([]Insight, 0)
	if insight := g.shortfallInsight(input.Forecast); insight != nil {
		list = append(list, *insight)
	}
	if insight := g.cashflowInsight(input.Forecast); insight != nil {
		list = append(list, *insight)
	}
	if insight := g.bufferInsight(input.Forecast); insight != nil {
		list = append(list, *insight)
	}
	if insight := g.burnInsight(input.Forecast); insight != nil {
		list = append(list, *insight)
	}
	if insight := g.volatilityInsight(profileFor(input)); insight != nil {
		list = append(list, *insight)
	}
	list = append(list, g.savingsInsights(input.Optimisation)...)
	if insight := g.resilienceInsight(input.Stress); insight != nil {
		list = append(list, *insight)
	}

	for i := range list {
		list[i].ID = uuid.NewString()
		list[i].CreatedAt = now
	}

	sort.SliceStable(list, func(a, b int) bool {
		if list[a].Severity != list[b].Severity {
			return list[a].Severity.Rank() > list[b].Severity.Rank()
		}
		if cmp := list[a].EstimatedValue.Cmp(list[b].EstimatedValue); cmp != 0 {
			return cmp > 0
		}
		return list[a].Title < list[b].Title
	})

	if g.config.MaxInsights > 0 && len(list) > g.config.MaxInsights {
		list = list[:g.config.MaxInsights]
	}

	g.logger.WithFields(logger.Fields{
		"insights": len(list),
	}).Info("Insight generation complete")

	return list, nil
}

// generationTime keeps insight timestamps aligned with the run that
// produced their sources
func generationTime(input Input) time.Time {
	if input.Forecast != nil {
		return input.Forecast.GeneratedAt
	}
	if input.Stress != nil {
		return input.Stress.GeneratedAt
	}
	return time.Now().UTC()
}

func profileFor(input Input) *patterns.SpendingProfile {
	if input.Profile != nil {
		return input.Profile
	}
	if input.Forecast != nil {
		return input.Forecast.Profile
	}
	return nil
}

func (g *Generator) shortfallInsight(fc *forecast.Forecast) *Insight {
	if fc == nil || !fc.Shortfall.HasShortfall {
		return nil
	}

	day := fc.FirstShortfallDay()

	severity := SeverityMedium
	switch {
	case day >= 0 && day <= g.config.CriticalShortfallDays:
		severity = SeverityCritical
	case day >= 0 && day <= g.config.HighShortfallDays:
		severity = SeverityHigh
	}

	return &Insight{
		Type:     InsightShortfallWarning,
		Severity: severity,
		Title:    fmt.Sprintf("Balance goes negative in %d days", day),
		Message: fmt.Sprintf("The projection dips below zero on %s, reaching %s at the worst point. Moving funds or trimming upcoming bills would cover it.",
			fc.Shortfall.FirstDate.Format("2006-01-02"), fc.Shortfall.WorstAmount.StringFixed(2)),
		EstimatedValue:  fc.Shortfall.WorstAmount,
		Source:          SourceForecast,
		ActionAvailable: true,
	}
}

func (g *Generator) cashflowInsight(fc *forecast.Forecast) *Insight {
	if fc == nil {
		return nil
	}

	net := fc.Summary.Next30Days.NetCashflow
	if !net.IsNegative() {
		return nil
	}

	deficit := net.Neg()
	severity := SeverityMedium
	if deficit.GreaterThan(g.config.NegativeNetFloor) {
		severity = SeverityHigh
	}

	return &Insight{
		Type:     InsightNegativeCashflow,
		Severity: severity,
		Title:    "Spending outpaces income this month",
		Message: fmt.Sprintf("The next 30 days run %s short. Income %s against %s of expenses.",
			deficit.StringFixed(2), fc.Summary.Next30Days.TotalIncome.StringFixed(2),
			fc.Summary.Next30Days.TotalExpenses.StringFixed(2)),
		EstimatedValue: deficit,
		Source:         SourceForecast,
	}
}

func (g *Generator) bufferInsight(fc *forecast.Forecast) *Insight {
	if fc == nil {
		return nil
	}

	buffer := fc.Summary.BufferMonths
	if buffer >= g.config.ThinBufferMonths {
		return nil
	}

	severity := SeverityMedium
	if buffer < g.config.LowBufferMonths {
		severity = SeverityHigh
	}

	// Amount needed to reach a comfortable buffer
	gap := fc.Summary.MonthlyBurnRate.Mul(decimal.NewFromFloat(g.config.ThinBufferMonths - buffer)).Round(2)
	if gap.IsNegative() {
		gap = decimal.Zero
	}

	return &Insight{
		Type:     InsightLowBuffer,
		Severity: severity,
		Title:    fmt.Sprintf("Cash buffer covers %.1f months", buffer),
		Message: fmt.Sprintf("Current balances cover %.1f months of spending. Setting aside %s would bring the buffer to %.0f months.",
			buffer, gap.StringFixed(2), g.config.ThinBufferMonths),
		EstimatedValue: gap,
		Source:         SourceForecast,
	}
}

func (g *Generator) burnInsight(fc *forecast.Forecast) *Insight {
	if fc == nil {
		return nil
	}

	burn := fc.Summary.MonthlyBurnRate
	if !burn.IsPositive() {
		return nil
	}

	income := fc.Summary.Next30Days.TotalIncome
	if !income.IsPositive() {
		return &Insight{
			Type:           InsightHighBurnRate,
			Severity:       SeverityHigh,
			Title:          "Spending with no income ahead",
			Message:        fmt.Sprintf("Monthly burn is %s with no income in the next 30 days.", burn.StringFixed(2)),
			EstimatedValue: burn,
			Source:         SourceForecast,
		}
	}

	var severity Severity
	switch {
	case burn.GreaterThan(income.Mul(decimal.NewFromFloat(g.config.HighBurnRatio))):
		severity = SeverityHigh
	case burn.GreaterThan(income.Mul(decimal.NewFromFloat(g.config.ElevatedBurnRatio))):
		severity = SeverityMedium
	default:
		return nil
	}

	return &Insight{
		Type:     InsightHighBurnRate,
		Severity: severity,
		Title:    "Burn rate is close to income",
		Message: fmt.Sprintf("Monthly burn of %s leaves little of the %s coming in. A small surprise would tip the month negative.",
			burn.StringFixed(2), income.StringFixed(2)),
		EstimatedValue: burn,
		Source:         SourceForecast,
	}
}

func (g *Generator) volatilityInsight(profile *patterns.SpendingProfile) *Insight {
	if profile == nil {
		return nil
	}

	index := profile.VolatilityIndex()

	var severity Severity
	switch {
	case index > g.config.HighVolatilityIndex:
		severity = SeverityHigh
	case index > g.config.MediumVolatilityIndex:
		severity = SeverityMedium
	default:
		return nil
	}

	return &Insight{
		Type:     InsightVolatileSpending,
		Severity: severity,
		Title:    "Spending swings widely day to day",
		Message: fmt.Sprintf("The volatility index is %.0f out of 100, which makes forecasts less certain. Smoothing large one-off purchases would tighten the projection.",
			index),
		EstimatedValue: decimal.Zero,
		Source:         SourcePatterns,
	}
}

func (g *Generator) savingsInsights(result *optimizer.Result) []Insight {
	if result == nil {
		return nil
	}

	list := make([]Insight, 0)
	for _, strategy := range result.Strategies {
		if strategy.Status != optimizer.StatusPending || strategy.Priority < g.config.StrategyPriorityFloor {
			continue
		}

		severity := SeverityLow
		if strategy.AnnualValue.GreaterThanOrEqual(g.config.SavingsMediumFloor) {
			severity = SeverityMedium
		}

		list = append(list, Insight{
			Type:     InsightSavingsOpportunity,
			Severity: severity,
			Title:    strategy.Title,
			Message: fmt.Sprintf("%s Worth about %s a year.",
				strategy.Description, strategy.AnnualValue.StringFixed(2)),
			EstimatedValue:  strategy.AnnualValue,
			Source:          SourceOptimizer,
			ActionAvailable: true,
		})
	}

	return list
}

func (g *Generator) resilienceInsight(output *stress.Output) *Insight {
	if output == nil {
		return nil
	}

	score := output.ResilienceScore

	var severity Severity
	switch {
	case score < g.config.LowResilienceScore:
		severity = SeverityHigh
	case score < g.config.ModerateResilienceScore:
		severity = SeverityMedium
	default:
		return nil
	}

	// The largest emergency fund any scenario calls for
	emergency := decimal.Zero
	for _, result := range output.Results {
		if result.RequiredEmergencySavings.GreaterThan(emergency) {
			emergency = result.RequiredEmergencySavings
		}
	}

	return &Insight{
		Type:     InsightLowResilience,
		Severity: severity,
		Title:    fmt.Sprintf("Finances score %.0f of 100 under stress", score),
		Message: fmt.Sprintf("Stress scenarios push the household into shortfall quickly. An emergency fund of %s would absorb the worst tested case.",
			emergency.StringFixed(2)),
		EstimatedValue:  emergency,
		Source:          SourceStress,
		ActionAvailable: emergency.IsPositive(),
	}
}
