// Package optimizer turns a forecast and spending profile into concrete,
// ranked money-saving recommendations.
//
// The optimisation pass runs five independent detectors:
//  1. Spending inefficiencies: category averages above benchmark, oversized
//     subscriptions, and streaming-service overlap
//  2. Subscription analysis: price movements on active monthly payments
//  3. Fund movements: idle cash that could sit in a loan offset, and rescue
//     transfers for projected shortfalls
//  4. Schedule changes: recurring payments due before payday
//  5. Repayment changes: interest-only switches, offset build-up, and extra
//     repayments from surplus cash
//
// Every finding is then wrapped in a Strategy with a deterministic priority
// so callers can present a single ranked list.
//
// Example usage:
//
//	engine := optimizer.NewEngine(optimizer.DefaultConfig())
//	result, err := engine.Optimise(optimizer.Input{
//		Forecast:          fc,
//		Accounts:          accounts,
//		RecurringPayments: payments,
//		IncomeStreams:     streams,
//		Loans:             loans,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, strategy := range result.Strategies {
//		fmt.Printf("[%d] %s\n", strategy.Priority, strategy.Title)
//	}
package optimizer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/internal/patterns"
	pkgerrors "golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"
)

const (
	// rescueHeadroom is the multiple of the worst shortfall a source
	// account must hold before it funds a rescue transfer
	rescueHeadroom = 1.5

	// midMonthDay splits the month for payment schedule analysis
	midMonthDay = 15

	// minEarlyPayments is how many pre-payday payments it takes before a
	// reschedule is worth proposing
	minEarlyPayments = 3

	// scheduleBenefitRate estimates the overdraft and buffer cost avoided
	// by moving payments behind payday
	scheduleBenefitRate = 0.02

	// decliningBalanceFactor discounts multi-year interest projections for
	// the principal reduction that happens along the way
	decliningBalanceFactor = 0.7

	// lastScheduleDay keeps proposed due days inside every month
	lastScheduleDay = 28
)

var subscriptionKeywords = []string{
	"netflix", "spotify", "disney", "stan", "binge", "prime", "youtube",
	"audible", "kayo", "paramount", "apple", "hbo", "hulu", "twitch",
	"patreon", "subscription", "membership", "magazine", "news",
}

var streamingKeywords = []string{
	"netflix", "stan", "binge", "disney", "prime", "paramount", "kayo",
	"youtube", "hulu", "hbo", "apple tv",
}

// Input bundles everything the optimiser inspects. Profile may be nil, in
// which case the forecast's embedded profile is used.
type Input struct {
	Forecast          *forecast.Forecast
	Profile           *patterns.SpendingProfile
	Accounts          []*models.Account
	RecurringPayments []*models.RecurringPayment
	IncomeStreams     []*models.IncomeStream
	Loans             []*models.LoanSchedule
}

// Result is the full output of one optimisation pass
type Result struct {
	Inefficiencies      []SpendingInefficiency `json:"inefficiencies"`
	Subscriptions       []SubscriptionFinding  `json:"subscriptions"`
	FundMovements       []FundMovement         `json:"fund_movements"`
	ScheduleChanges     []ScheduleChange       `json:"schedule_changes"`
	RepaymentFindings   []RepaymentFinding     `json:"repayment_findings"`
	Strategies          []Strategy             `json:"strategies"`
	BreakEvenDay        int                    `json:"break_even_day"`
	TotalMonthlySavings decimal.Decimal        `json:"total_monthly_savings"`
	TotalAnnualSavings  decimal.Decimal        `json:"total_annual_savings"`
	GeneratedAt         time.Time              `json:"generated_at"`
}

// Engine runs the optimisation detectors against a forecast
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates an optimisation engine with the given configuration
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("optimizer"),
	}
}

// Config returns the engine's configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Optimise inspects the forecast and supporting records and returns every
// finding plus the ranked strategy list.
func (e *Engine) Optimise(input Input) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "optimizer", nil, err)
	}

	if input.Forecast == nil {
		return nil, pkgerrors.AnalysisError(pkgerrors.CodeInsufficientData, "optimise", nil).
			WithContext("reason", "a forecast is required")
	}

	profile := input.Profile
	if profile == nil {
		profile = input.Forecast.Profile
	}
	if profile == nil {
		profile = &patterns.SpendingProfile{}
	}

	result := &Result{
		Inefficiencies:    e.detectInefficiencies(profile, input.RecurringPayments),
		Subscriptions:     e.analyseSubscriptions(input.RecurringPayments),
		FundMovements:     e.recommendFundMovements(input.Forecast, input.Accounts, input.Loans),
		ScheduleChanges:   e.optimiseSchedule(input.IncomeStreams, input.RecurringPayments),
		RepaymentFindings: e.optimiseRepayments(input.Forecast, input.Accounts, input.Loans),
		BreakEvenDay:      input.Forecast.Summary.BreakEvenDay,
		GeneratedAt:       input.Forecast.GeneratedAt,
	}

	result.Strategies = e.buildStrategies(result)

	monthly := decimal.Zero
	annual := decimal.Zero
	for _, strategy := range result.Strategies {
		monthly = monthly.Add(strategy.MonthlyValue)
		annual = annual.Add(strategy.AnnualValue)
	}
	result.TotalMonthlySavings = monthly.Round(2)
	result.TotalAnnualSavings = annual.Round(2)

	e.logger.WithFields(logger.Fields{
		"inefficiencies": len(result.Inefficiencies),
		"fund_movements": len(result.FundMovements),
		"repayments":     len(result.RepaymentFindings),
		"strategies":     len(result.Strategies),
		"annual_savings": result.TotalAnnualSavings.String(),
	}).Info("Optimisation pass complete")

	return result, nil
}

// detectInefficiencies covers benchmark overspend, subscription review
// candidates, and streaming overlap.
func (e *Engine) detectInefficiencies(profile *patterns.SpendingProfile, payments []*models.RecurringPayment) []SpendingInefficiency {
	findings := make([]SpendingInefficiency, 0)

	categories := make([]string, 0, len(profile.CategoryMonthly))
	for category := range profile.CategoryMonthly {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	tolerance := decimal.NewFromFloat(e.config.BenchmarkTolerance)
	for _, category := range categories {
		benchmark, ok := e.config.Benchmarks[strings.ToLower(category)]
		if !ok {
			continue
		}

		average := profile.CategoryMonthly[category]
		if !average.GreaterThan(benchmark.Mul(tolerance)) {
			continue
		}

		saving := average.Sub(benchmark)
		if saving.LessThan(e.config.MinSaving) {
			continue
		}

		findings = append(findings, SpendingInefficiency{
			Category:        category,
			MonthlyAverage:  average,
			Benchmark:       benchmark,
			PotentialSaving: saving.Round(2),
			Kind:            InefficiencyOverspend,
			Description: fmt.Sprintf("%s spending averages %s/month against a %s benchmark",
				category, average.StringFixed(2), benchmark.StringFixed(2)),
			Confidence: 0.75,
		})
	}

	for _, payment := range payments {
		if payment == nil || !payment.Active || payment.Pattern != models.PatternMonthly {
			continue
		}
		if !payment.ExpectedAmount.GreaterThan(e.config.SubscriptionReviewFloor) {
			continue
		}
		if !matchesAny(payment.Merchant, subscriptionKeywords) {
			continue
		}

		findings = append(findings, SpendingInefficiency{
			Category:        "subscriptions",
			MonthlyAverage:  payment.ExpectedAmount,
			Benchmark:       decimal.Zero,
			PotentialSaving: payment.ExpectedAmount,
			Kind:            InefficiencyReview,
			Description: fmt.Sprintf("%s charges %s/month; confirm it is still used",
				payment.Merchant, payment.ExpectedAmount.StringFixed(2)),
			Confidence: 0.5,
		})
	}

	if overlap, ok := e.detectStreamingOverlap(payments); ok {
		findings = append(findings, overlap)
	}

	return findings
}

func (e *Engine) detectStreamingOverlap(payments []*models.RecurringPayment) (SpendingInefficiency, bool) {
	var monthly []decimal.Decimal
	var names []string
	for _, payment := range payments {
		if payment == nil || !payment.Active || !matchesAny(payment.Merchant, streamingKeywords) {
			continue
		}
		monthly = append(monthly, payment.MonthlyAmount())
		names = append(names, payment.Merchant)
	}

	if len(monthly) < e.config.StreamingOverlapLimit {
		return SpendingInefficiency{}, false
	}

	sort.Slice(monthly, func(i, j int) bool { return monthly[i].LessThan(monthly[j]) })

	total := decimal.Zero
	for _, amount := range monthly {
		total = total.Add(amount)
	}
	kept := monthly[0].Add(monthly[1])
	saving := total.Sub(kept)

	return SpendingInefficiency{
		Category:        "streaming",
		MonthlyAverage:  total.Round(2),
		Benchmark:       kept.Round(2),
		PotentialSaving: saving.Round(2),
		Kind:            InefficiencyStreamingOverlap,
		Description: fmt.Sprintf("%d streaming services active (%s); keeping the two cheapest saves %s/month",
			len(monthly), strings.Join(names, ", "), saving.StringFixed(2)),
		Confidence: 0.8,
	}, true
}

// analyseSubscriptions reports every active monthly payment with its price
// movement. A change above the threshold flags an increase.
func (e *Engine) analyseSubscriptions(payments []*models.RecurringPayment) []SubscriptionFinding {
	findings := make([]SubscriptionFinding, 0)

	for _, payment := range payments {
		if payment == nil || !payment.Active || payment.Pattern != models.PatternMonthly {
			continue
		}

		change := payment.PriceChangePercent()
		findings = append(findings, SubscriptionFinding{
			PaymentID:          payment.ID,
			Merchant:           payment.Merchant,
			CurrentAmount:      payment.ExpectedAmount,
			PreviousAmount:     payment.PreviousAmount(),
			PriceChangePercent: change,
			HasPriceIncrease:   change > e.config.PriceIncreaseThreshold,
			AnnualCost:         payment.AnnualAmount(),
		})
	}

	return findings
}

// recommendFundMovements finds idle balances that could offset loan interest
// and, when the forecast dips negative, a rescue transfer that covers it.
func (e *Engine) recommendFundMovements(fc *forecast.Forecast, accounts []*models.Account, loans []*models.LoanSchedule) []FundMovement {
	movements := make([]FundMovement, 0)

	averages := make(map[string]decimal.Decimal, len(fc.Accounts))
	for _, account := range fc.Accounts {
		averages[account.AccountID] = account.AverageBalance
	}

	for _, loan := range loans {
		if loan == nil || loan.AnnualRate <= 0 {
			continue
		}
		offset := offsetAccountFor(loan, accounts)
		if offset == nil {
			continue
		}

		rate := decimal.NewFromFloat(loan.AnnualRate)
		for _, account := range accounts {
			if account == nil || account.ID == offset.ID || account.Type == models.AccountTypeCreditCard {
				continue
			}

			average, ok := averages[account.ID]
			if !ok {
				continue
			}

			excess := average.Sub(e.config.ExcessBuffer)
			if !excess.IsPositive() {
				continue
			}

			benefit := excess.Mul(rate)
			if benefit.LessThan(e.config.MinAnnualInterestSaving) {
				continue
			}

			urgency := UrgencyMedium
			if benefit.GreaterThan(e.config.HighValueThreshold) {
				urgency = UrgencyHigh
			}

			movements = append(movements, FundMovement{
				Kind:          MovementOffsetTransfer,
				FromAccountID: account.ID,
				ToAccountID:   offset.ID,
				Amount:        excess.Round(2),
				AnnualBenefit: benefit.Round(2),
				Urgency:       urgency,
				Reason: fmt.Sprintf("Moving %s from %s into the offset saves %s in interest a year",
					excess.Round(2).StringFixed(2), account.Name, benefit.Round(2).StringFixed(2)),
			})
		}
	}

	if rescue, ok := e.rescueMovement(fc, accounts); ok {
		movements = append(movements, rescue)
	}

	return movements
}

func (e *Engine) rescueMovement(fc *forecast.Forecast, accounts []*models.Account) (FundMovement, bool) {
	shortfall := fc.Shortfall
	if !shortfall.HasShortfall || len(shortfall.AccountsAtRisk) == 0 {
		return FundMovement{}, false
	}

	worst := shortfall.WorstAmount
	required := worst.Mul(decimal.NewFromFloat(rescueHeadroom))
	target := shortfall.AccountsAtRisk[0]

	for _, account := range accounts {
		if account == nil || account.ID == target || account.Type == models.AccountTypeCreditCard {
			continue
		}
		if accountAtRisk(shortfall.AccountsAtRisk, account.ID) {
			continue
		}
		if account.Balance.LessThan(required) {
			continue
		}

		return FundMovement{
			Kind:          MovementShortfallRescue,
			FromAccountID: account.ID,
			ToAccountID:   target,
			Amount:        worst.Round(2),
			AnnualBenefit: decimal.Zero,
			Urgency:       UrgencyHigh,
			Reason: fmt.Sprintf("Covers the projected %s shortfall on %s",
				worst.StringFixed(2), shortfall.WorstDate.Format("2006-01-02")),
		}, true
	}

	return FundMovement{}, false
}

// optimiseSchedule proposes moving pre-payday payments behind the primary
// income day when enough of them pile up in the first half of the month.
func (e *Engine) optimiseSchedule(streams []*models.IncomeStream, payments []*models.RecurringPayment) []ScheduleChange {
	primary := primaryIncome(streams)
	if primary == nil {
		return nil
	}

	incomeDay := primary.NextDate.Day()
	if incomeDay <= midMonthDay {
		return nil
	}

	var ids []string
	var days []int
	total := decimal.Zero
	for _, payment := range payments {
		if payment == nil || !payment.Active {
			continue
		}

		day := paymentDueDay(payment)
		if day == 0 || day > midMonthDay {
			continue
		}

		ids = append(ids, payment.ID)
		days = append(days, day)
		total = total.Add(payment.MonthlyAmount())
	}

	if len(ids) <= minEarlyPayments {
		return nil
	}

	proposed := incomeDay + 3
	if proposed > lastScheduleDay {
		proposed = lastScheduleDay
	}

	return []ScheduleChange{{
		PaymentIDs:       ids,
		CurrentDays:      days,
		ProposedDay:      proposed,
		MonthlyTotal:     total.Round(2),
		EstimatedBenefit: total.Mul(decimal.NewFromFloat(scheduleBenefitRate)).Round(2),
	}}
}

// optimiseRepayments checks each loan for an interest-only switch, an
// underused offset, and headroom for extra repayments.
func (e *Engine) optimiseRepayments(fc *forecast.Forecast, accounts []*models.Account, loans []*models.LoanSchedule) []RepaymentFinding {
	findings := make([]RepaymentFinding, 0)
	surplus := fc.Summary.Next30Days.NetCashflow

	for _, loan := range loans {
		if loan == nil {
			continue
		}

		rate := decimal.NewFromFloat(loan.AnnualRate)

		if loan.InterestOnly {
			amortised := loan.AmortisedPayment(e.config.AmortisationYears)
			headroom := loan.MonthlyRepayment.Add(surplus)
			if amortised.IsPositive() && amortised.LessThanOrEqual(headroom) {
				principalMonthly := amortised.Sub(loan.MonthlyInterest())
				findings = append(findings, RepaymentFinding{
					LoanID:            loan.ID,
					Kind:              RepaymentSwitchToPI,
					CurrentPayment:    loan.MonthlyRepayment,
					SuggestedPayment:  amortised,
					MonthlyDifference: amortised.Sub(loan.MonthlyRepayment),
					EstimatedSaving:   e.savingOverTerm(principalMonthly.Mul(decimal.NewFromInt(12)), rate),
					Description: fmt.Sprintf("Switching loan %s to principal and interest at %s/month starts paying it down",
						loan.ID, amortised.StringFixed(2)),
				})
			}
		}

		if offset := offsetAccountFor(loan, accounts); offset != nil {
			target := loan.Principal.Mul(decimal.NewFromFloat(e.config.OffsetUtilisationFloor))
			if offset.Balance.LessThan(target) {
				gap := target.Sub(offset.Balance)
				findings = append(findings, RepaymentFinding{
					LoanID:            loan.ID,
					Kind:              RepaymentBuildOffset,
					CurrentPayment:    loan.MonthlyRepayment,
					SuggestedPayment:  loan.MonthlyRepayment,
					MonthlyDifference: decimal.Zero,
					EstimatedSaving:   e.savingOverTerm(gap, rate),
					Description: fmt.Sprintf("Offset %s sits %s below %.0f%% of the loan %s principal",
						offset.Name, gap.Round(2).StringFixed(2), e.config.OffsetUtilisationFloor*100, loan.ID),
				})
			}
		}

		if !loan.InterestOnly && surplus.GreaterThan(e.config.SurplusFloor) {
			extra := surplus
			if extra.GreaterThan(e.config.ExtraRepaymentCap) {
				extra = e.config.ExtraRepaymentCap
			}

			findings = append(findings, RepaymentFinding{
				LoanID:            loan.ID,
				Kind:              RepaymentExtra,
				CurrentPayment:    loan.MonthlyRepayment,
				SuggestedPayment:  loan.MonthlyRepayment.Add(extra),
				MonthlyDifference: extra,
				EstimatedSaving:   e.savingOverTerm(extra.Mul(decimal.NewFromInt(12)), rate),
				Description: fmt.Sprintf("An extra %s/month on loan %s from current surplus shortens the term",
					extra.StringFixed(2), loan.ID),
			})
		}
	}

	return findings
}

// savingOverTerm approximates the interest a balance reduction avoids over
// the configured term. The declining-balance factor accounts for the
// principal shrinking along the way.
func (e *Engine) savingOverTerm(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}

	years := decimal.NewFromInt(int64(e.config.AmortisationYears))
	return amount.Mul(rate).Mul(years).Mul(decimal.NewFromFloat(decliningBalanceFactor)).Round(2)
}

func offsetAccountFor(loan *models.LoanSchedule, accounts []*models.Account) *models.Account {
	if loan.OffsetAccountID != "" {
		for _, account := range accounts {
			if account != nil && account.ID == loan.OffsetAccountID {
				return account
			}
		}
	}

	for _, account := range accounts {
		if account != nil && account.LinkedLoanID == loan.ID && account.Type == models.AccountTypeOffset {
			return account
		}
	}
	return nil
}

func primaryIncome(streams []*models.IncomeStream) *models.IncomeStream {
	var primary *models.IncomeStream
	for _, stream := range streams {
		if stream == nil {
			continue
		}
		if primary == nil || stream.MonthlyAmount.GreaterThan(primary.MonthlyAmount) {
			primary = stream
		}
	}
	return primary
}

// paymentDueDay returns the day of month a payment lands on, 0 when the
// schedule carries no usable anchor.
func paymentDueDay(payment *models.RecurringPayment) int {
	if !payment.NextDue.IsZero() {
		return payment.NextDue.Day()
	}
	if !payment.LastCharged.IsZero() {
		return payment.LastCharged.Day()
	}
	return 0
}

func matchesAny(merchant string, keywords []string) bool {
	lowered := strings.ToLower(merchant)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func accountAtRisk(atRisk []string, accountID string) bool {
	for _, id := range atRisk {
		if id == accountID {
			return true
		}
	}
	return false
}
