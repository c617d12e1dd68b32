// Package stress measures how a household's cashflow holds up under adverse
// conditions.
//
// Each run produces a baseline forecast, then replays the same inputs under a
// set of scenarios: income drops, expense rises, rate rises, and one-off
// shocks. Scenarios never mutate the caller's records; the affected slices
// are rebuilt for each run and everything untouched is shared read-only.
// Scenario simulations execute concurrently under a bounded semaphore.
//
// Example usage:
//
//	engine := stress.NewEngine(stress.DefaultConfig())
//	output, err := engine.Run(input, stress.Library())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("resilience %.0f/100\n", output.ResilienceScore)
package stress

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/models"
	pkgerrors "golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"
)

const (
	defaultMaxConcurrency = 4

	// defaultShockOffsetDays places an undated expense shock one week out
	defaultShockOffsetDays = 7

	// amortisationYears is the term used when recomputing repayments
	// after a rate rise
	amortisationYears = 30

	// maxLoanRate keeps perturbed rates inside the model's valid range
	maxLoanRate = 0.99
)

// Config controls stress execution
type Config struct {
	// MaxConcurrency bounds how many scenarios simulate at once
	MaxConcurrency int `json:"max_concurrency"`

	// SurvivalCapMonths is the survival horizon that earns a full score
	SurvivalCapMonths int `json:"survival_cap_months"`

	// EmergencyFactor sizes the recommended emergency fund relative to
	// the worst shortfall
	EmergencyFactor float64 `json:"emergency_factor"`

	// MitigationImpactFloor is the balance impact below which no
	// spending-cut mitigation is suggested
	MitigationImpactFloor decimal.Decimal `json:"mitigation_impact_floor"`

	// Forecast configures the underlying simulations
	Forecast *forecast.Config `json:"forecast,omitempty"`
}

// DefaultConfig returns the standard stress settings
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency:        defaultMaxConcurrency,
		SurvivalCapMonths:     3,
		EmergencyFactor:       1.5,
		MitigationImpactFloor: decimal.NewFromInt(1000),
		Forecast:              forecast.DefaultConfig(),
	}
}

// Validate checks the configuration for invalid settings
func (c *Config) Validate() error {
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1: %d", c.MaxConcurrency)
	}

	if c.SurvivalCapMonths < 1 {
		return fmt.Errorf("survival cap must be at least 1 month: %d", c.SurvivalCapMonths)
	}

	if c.EmergencyFactor < 1 {
		return fmt.Errorf("emergency factor must be at least 1: %f", c.EmergencyFactor)
	}

	if c.MitigationImpactFloor.IsNegative() {
		return fmt.Errorf("mitigation impact floor cannot be negative: %s", c.MitigationImpactFloor)
	}

	if c.Forecast != nil {
		if err := c.Forecast.Validate(); err != nil {
			return fmt.Errorf("invalid forecast configuration: %w", err)
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.Forecast = c.Forecast.Clone()
	return &clone
}

// MitigationKind identifies the recommended counter-measure
type MitigationKind string

const (
	MitigationEmergencyFund   MitigationKind = "EMERGENCY_FUND"
	MitigationSpendingCut     MitigationKind = "SPENDING_CUT"
	MitigationDiversifyIncome MitigationKind = "DIVERSIFY_INCOME"
	MitigationFixRate         MitigationKind = "FIX_RATE"
)

// Mitigation is one action that softens a scenario's impact
type Mitigation struct {
	Kind        MitigationKind  `json:"kind"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
}

// Result captures how the household fared under one scenario
type Result struct {
	Scenario Scenario `json:"scenario"`

	// SurvivalMonths is how long balances stay non-negative
	SurvivalMonths float64 `json:"survival_months"`

	// Score grades survival against the configured cap, 0-100
	Score float64 `json:"score"`

	// BalanceImpact is the stressed final balance minus the baseline's
	BalanceImpact decimal.Decimal `json:"balance_impact"`

	AddedShortfallDays       int             `json:"added_shortfall_days"`
	WorstShortfall           decimal.Decimal `json:"worst_shortfall"`
	RequiredEmergencySavings decimal.Decimal `json:"required_emergency_savings"`
	RequiredIncomeIncrease   decimal.Decimal `json:"required_income_increase"`
	Mitigations              []Mitigation    `json:"mitigations"`
}

// Output is the complete result of a stress run
type Output struct {
	Baseline        *forecast.Forecast `json:"baseline"`
	Results         []Result           `json:"results"`
	ResilienceScore float64            `json:"resilience_score"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Engine runs stress scenarios against household inputs
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates a stress engine with the given configuration
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("stress_engine"),
	}
}

// Config returns the engine's configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Run simulates the baseline once, then every scenario concurrently.
// An empty scenario list runs the standard library. Results come back in
// input order regardless of completion order.
func (e *Engine) Run(input forecast.Input, scenarios []Scenario) (*Output, error) {
	start := time.Now()

	if err := e.config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "stress", nil, err)
	}

	if len(scenarios) == 0 {
		scenarios = Library()
	}

	for i := range scenarios {
		if err := scenarios[i].Validate(); err != nil {
			return nil, pkgerrors.SimulationError(pkgerrors.CodeScenarioInvalid, scenarios[i].ID, err)
		}
	}

	baseline, err := forecast.NewEngine(e.config.Forecast).Generate(input)
	if err != nil {
		return nil, err
	}

	maxConcurrency := e.config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	results := make([]Result, len(scenarios))
	errs := make([]error, len(scenarios))

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "stress_scenarios",
		Total:     int64(len(scenarios)),
		Logger:    e.logger,
	})

	semaphore := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i := range scenarios {
		wg.Add(1)

		go func(idx int, scenario Scenario) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx], errs[idx] = e.runScenario(input, scenario, baseline)
			progress.Increment()
		}(i, scenarios[i])
	}

	wg.Wait()

	for i, scenarioErr := range errs {
		if scenarioErr != nil {
			wrapped := pkgerrors.WrapIfNeeded(scenarioErr, pkgerrors.CategorySimulation,
				pkgerrors.CodeSimulationFailed, fmt.Sprintf("scenario %s failed", scenarios[i].ID))
			progress.CompleteWithError(wrapped)
			return nil, wrapped
		}
	}

	progress.Complete()

	total := 0.0
	for _, result := range results {
		total += result.Score
	}
	resilience := total / float64(len(results))

	e.logger.WithFields(logger.Fields{
		"scenarios":  len(results),
		"resilience": resilience,
		"duration":   time.Since(start).String(),
	}).Info("Stress run complete")

	return &Output{
		Baseline:        baseline,
		Results:         results,
		ResilienceScore: resilience,
		GeneratedAt:     baseline.GeneratedAt,
	}, nil
}

func (e *Engine) runScenario(input forecast.Input, scenario Scenario, baseline *forecast.Forecast) (Result, error) {
	perturbed := applyScenario(input, scenario, baseline.GeneratedAt)

	stressed, err := forecast.NewEngine(e.config.Forecast).Generate(perturbed)
	if err != nil {
		return Result{}, err
	}

	return e.buildResult(scenario, baseline, stressed), nil
}

func (e *Engine) buildResult(scenario Scenario, baseline, stressed *forecast.Forecast) Result {
	survival := survivalMonths(stressed)

	score := survival / float64(e.config.SurvivalCapMonths) * 100
	if score > 100 {
		score = 100
	}

	impact := stressed.EndingBalance().Sub(baseline.EndingBalance())

	added := len(stressed.Shortfall.Dates) - len(baseline.Shortfall.Dates)
	if added < 0 {
		added = 0
	}

	emergency := decimal.Zero
	if stressed.Shortfall.HasShortfall {
		emergency = stressed.Shortfall.WorstAmount.Mul(decimal.NewFromFloat(e.config.EmergencyFactor)).Round(2)
	}

	incomeIncrease := decimal.Zero
	if net := stressed.Summary.Next30Days.NetCashflow; net.IsNegative() {
		incomeIncrease = net.Neg().Round(2)
	}

	result := Result{
		Scenario:                 scenario,
		SurvivalMonths:           survival,
		Score:                    score,
		BalanceImpact:            impact.Round(2),
		AddedShortfallDays:       added,
		WorstShortfall:           stressed.Shortfall.WorstAmount,
		RequiredEmergencySavings: emergency,
		RequiredIncomeIncrease:   incomeIncrease,
	}
	result.Mitigations = e.mitigations(scenario, result)

	return result
}

// survivalMonths counts clean days before the first shortfall, in months.
// A clean run survives the whole horizon.
func survivalMonths(fc *forecast.Forecast) float64 {
	day := fc.FirstShortfallDay()
	if day < 0 {
		return float64(fc.HorizonDays) / 30
	}
	return float64(day) / 30
}

func (e *Engine) mitigations(scenario Scenario, result Result) []Mitigation {
	actions := make([]Mitigation, 0)

	if result.WorstShortfall.IsPositive() {
		actions = append(actions, Mitigation{
			Kind:  MitigationEmergencyFund,
			Value: result.RequiredEmergencySavings,
			Description: fmt.Sprintf("Build an emergency fund of %s to absorb the worst shortfall",
				result.RequiredEmergencySavings.StringFixed(2)),
		})
	}

	if result.BalanceImpact.Abs().GreaterThan(e.config.MitigationImpactFloor) {
		actions = append(actions, Mitigation{
			Kind:  MitigationSpendingCut,
			Value: result.BalanceImpact.Abs(),
			Description: fmt.Sprintf("Trim discretionary spending to recover the %s impact over the horizon",
				result.BalanceImpact.Abs().StringFixed(2)),
		})
	}

	if scenario.IncomeDropPercent > 0 {
		actions = append(actions, Mitigation{
			Kind:        MitigationDiversifyIncome,
			Value:       result.RequiredIncomeIncrease,
			Description: "Add a second income source so one payer cannot sink the household",
		})
	}

	if scenario.RateRiseBasisPoints > 0 {
		actions = append(actions, Mitigation{
			Kind:        MitigationFixRate,
			Value:       decimal.Zero,
			Description: "Fix part of the loan or refinance before variable rates move further",
		})
	}

	return actions
}

// applyScenario rebuilds only the slices a scenario touches. Untouched
// records are shared with the caller and must stay read-only.
func applyScenario(input forecast.Input, scenario Scenario, anchor time.Time) forecast.Input {
	perturbed := input

	if scenario.IncomeDropPercent > 0 && len(input.IncomeStreams) > 0 {
		factor := decimal.NewFromFloat(1 - scenario.IncomeDropPercent/100)
		streams := make([]*models.IncomeStream, 0, len(input.IncomeStreams))
		for _, stream := range input.IncomeStreams {
			if stream == nil || !factor.IsPositive() {
				continue
			}
			scaled := *stream
			scaled.MonthlyAmount = stream.MonthlyAmount.Mul(factor).Round(2)
			streams = append(streams, &scaled)
		}
		perturbed.IncomeStreams = streams
	}

	if scenario.ExpenseIncreasePercent > 0 && len(input.RecurringPayments) > 0 {
		factor := decimal.NewFromFloat(1 + scenario.ExpenseIncreasePercent/100)
		payments := make([]*models.RecurringPayment, 0, len(input.RecurringPayments))
		for _, payment := range input.RecurringPayments {
			if payment == nil {
				continue
			}
			scaled := *payment
			scaled.ExpectedAmount = payment.ExpectedAmount.Mul(factor).Round(2)
			payments = append(payments, &scaled)
		}
		perturbed.RecurringPayments = payments
	}

	if scenario.RateRiseBasisPoints > 0 && len(input.Loans) > 0 {
		rise := float64(scenario.RateRiseBasisPoints) / 10000
		loans := make([]*models.LoanSchedule, 0, len(input.Loans))
		for _, loan := range input.Loans {
			if loan == nil {
				continue
			}
			lifted := *loan
			lifted.AnnualRate = loan.AnnualRate + rise
			if lifted.AnnualRate > maxLoanRate {
				lifted.AnnualRate = maxLoanRate
			}
			if lifted.InterestOnly {
				lifted.MonthlyRepayment = lifted.MonthlyInterest()
			} else {
				lifted.MonthlyRepayment = lifted.AmortisedPayment(amortisationYears)
			}
			loans = append(loans, &lifted)
		}
		perturbed.Loans = loans
	}

	if accountID := shockAccountID(input.Accounts); scenario.ExpenseShockAmount.IsPositive() && accountID != "" {
		shockDate := anchor.AddDate(0, 0, defaultShockOffsetDays)
		if scenario.ExpenseShockDate != nil {
			shockDate = *scenario.ExpenseShockDate
		}

		shock := &models.RecurringPayment{
			ID:             "shock-" + scenario.ID,
			Merchant:       scenario.Name,
			AccountID:      accountID,
			Pattern:        models.PatternAnnually,
			ExpectedAmount: scenario.ExpenseShockAmount,
			NextDue:        shockDate,
			Active:         true,
		}

		payments := make([]*models.RecurringPayment, len(perturbed.RecurringPayments), len(perturbed.RecurringPayments)+1)
		copy(payments, perturbed.RecurringPayments)
		perturbed.RecurringPayments = append(payments, shock)
	}

	return perturbed
}

// shockAccountID targets one-off shocks at the main spending account
func shockAccountID(accounts []*models.Account) string {
	for _, account := range accounts {
		if account != nil && account.Type == models.AccountTypeTransactional {
			return account.ID
		}
	}
	for _, account := range accounts {
		if account != nil {
			return account.ID
		}
	}
	return ""
}
