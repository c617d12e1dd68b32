package forecast

import (
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/patterns"
)

// Point is one simulated day in a balance series. Points are immutable
// once the fold that produced them completes.
type Point struct {
	Date                 time.Time       `json:"date"`
	Balance              decimal.Decimal `json:"balance"`
	Income               decimal.Decimal `json:"income"`
	Expenses             decimal.Decimal `json:"expenses"`
	RecurringExpenses    decimal.Decimal `json:"recurring_expenses"`
	NonRecurringExpenses decimal.Decimal `json:"non_recurring_expenses"`

	// Confidence decays with forecast depth and spend volatility
	Confidence float64 `json:"confidence"`

	// VolatilityFactor is the spending profile volatility behind the bands
	VolatilityFactor float64 `json:"volatility_factor"`

	// UpperBound and LowerBound are set only when bands are enabled
	UpperBound *decimal.Decimal `json:"upper_bound,omitempty"`
	LowerBound *decimal.Decimal `json:"lower_bound,omitempty"`

	// ShortfallRisk marks days where the balance goes negative;
	// ShortfallAmount is how far below zero it goes
	ShortfallRisk   bool            `json:"shortfall_risk"`
	ShortfallAmount decimal.Decimal `json:"shortfall_amount"`
}

// AccountForecast is one account's simulated series plus its aggregates
type AccountForecast struct {
	AccountID      string          `json:"account_id"`
	Name           string          `json:"name"`
	Points         []Point         `json:"points"`
	MinBalance     decimal.Decimal `json:"min_balance"`
	MaxBalance     decimal.Decimal `json:"max_balance"`
	AverageBalance decimal.Decimal `json:"average_balance"`
	ShortfallDates []time.Time     `json:"shortfall_dates,omitempty"`
}

// ShortfallAnalysis summarises projected negative-balance days
type ShortfallAnalysis struct {
	HasShortfall   bool            `json:"has_shortfall"`
	Dates          []time.Time     `json:"dates,omitempty"`
	WorstAmount    decimal.Decimal `json:"worst_amount"`
	WorstDate      time.Time       `json:"worst_date,omitempty"`
	FirstDate      time.Time       `json:"first_date,omitempty"`
	AccountsAtRisk []string        `json:"accounts_at_risk,omitempty"`
}

// WindowSummary aggregates a forward window of the global series
type WindowSummary struct {
	AverageBalance decimal.Decimal `json:"average_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	NetCashflow    decimal.Decimal `json:"net_cashflow"`
}

// bufferMonthsCap is reported when there is no burn to divide by
const bufferMonthsCap = 999

// Summary aggregates the forecast into headline figures
type Summary struct {
	Next30Days WindowSummary `json:"next_30_days"`
	Next90Days WindowSummary `json:"next_90_days"`

	// MonthlyBurnRate extrapolates the first 30 simulated days of expenses
	MonthlyBurnRate decimal.Decimal `json:"monthly_burn_rate"`

	// WithdrawableCash is the balance above a three-month burn reserve
	WithdrawableCash decimal.Decimal `json:"withdrawable_cash"`

	// BreakEvenDay is the first day where cumulative income covers
	// cumulative expenses, -1 when that never happens in the first month
	BreakEvenDay int `json:"break_even_day"`

	// BufferMonths is how long current balances cover the burn rate
	BufferMonths float64 `json:"buffer_months"`
}

// Forecast is the complete output of a simulation run
type Forecast struct {
	GeneratedAt     time.Time                 `json:"generated_at"`
	HorizonDays     int                       `json:"horizon_days"`
	StartingBalance decimal.Decimal           `json:"starting_balance"`
	Accounts        []AccountForecast         `json:"accounts"`
	Global          []Point                   `json:"global"`
	Shortfall       ShortfallAnalysis         `json:"shortfall"`
	Summary         Summary                   `json:"summary"`
	Profile         *patterns.SpendingProfile `json:"profile,omitempty"`
}

// EndingBalance returns the final global balance, zero for an empty forecast
func (f *Forecast) EndingBalance() decimal.Decimal {
	if len(f.Global) == 0 {
		return decimal.Zero
	}
	return f.Global[len(f.Global)-1].Balance
}

// FirstShortfallDay returns the day offset of the first global shortfall,
// -1 when the horizon is clear.
func (f *Forecast) FirstShortfallDay() int {
	for d, point := range f.Global {
		if point.ShortfallRisk {
			return d
		}
	}
	return -1
}

// analyzeShortfalls scans the global series and per-account shortfall dates
func analyzeShortfalls(global []Point, accounts []AccountForecast) ShortfallAnalysis {
	analysis := ShortfallAnalysis{
		WorstAmount: decimal.Zero,
	}

	for _, point := range global {
		if !point.ShortfallRisk {
			continue
		}

		if !analysis.HasShortfall {
			analysis.HasShortfall = true
			analysis.FirstDate = point.Date
		}

		analysis.Dates = append(analysis.Dates, point.Date)
		if point.ShortfallAmount.GreaterThan(analysis.WorstAmount) {
			analysis.WorstAmount = point.ShortfallAmount
			analysis.WorstDate = point.Date
		}
	}

	for _, account := range accounts {
		if len(account.ShortfallDates) > 0 {
			analysis.AccountsAtRisk = append(analysis.AccountsAtRisk, account.AccountID)
		}
	}

	return analysis
}

// buildSummary aggregates the global series into headline figures.
// Windows cover days 1..30 and 1..90; the anchor day itself is excluded.
func buildSummary(global []Point, startingBalance decimal.Decimal) Summary {
	summary := Summary{
		Next30Days:       summariseWindow(global, 30),
		Next90Days:       summariseWindow(global, 90),
		MonthlyBurnRate:  decimal.Zero,
		WithdrawableCash: decimal.Zero,
		BreakEvenDay:     -1,
	}

	window := windowPoints(global, 30)
	if len(window) > 0 {
		totalExpenses := decimal.Zero
		for _, point := range window {
			totalExpenses = totalExpenses.Add(point.Expenses)
		}
		dailyBurn := totalExpenses.Div(decimal.NewFromInt(int64(len(window))))
		summary.MonthlyBurnRate = dailyBurn.Mul(decimal.NewFromInt(30)).Round(2)
	}

	reserve := summary.MonthlyBurnRate.Mul(decimal.NewFromInt(3))
	if withdrawable := startingBalance.Sub(reserve); withdrawable.IsPositive() {
		summary.WithdrawableCash = withdrawable
	}

	cumulativeIncome := decimal.Zero
	cumulativeExpenses := decimal.Zero
	for d, point := range windowPoints(global, 30) {
		cumulativeIncome = cumulativeIncome.Add(point.Income)
		cumulativeExpenses = cumulativeExpenses.Add(point.Expenses)
		if cumulativeIncome.GreaterThanOrEqual(cumulativeExpenses) {
			summary.BreakEvenDay = d + 1
			break
		}
	}

	if summary.MonthlyBurnRate.IsPositive() {
		ratio, _ := startingBalance.Div(summary.MonthlyBurnRate).Float64()
		if ratio < 0 {
			ratio = 0
		}
		summary.BufferMonths = ratio
	} else {
		summary.BufferMonths = bufferMonthsCap
	}

	return summary
}

// windowPoints returns up to n points after the anchor day
func windowPoints(global []Point, n int) []Point {
	if len(global) <= 1 {
		return nil
	}

	end := n + 1
	if end > len(global) {
		end = len(global)
	}
	return global[1:end]
}

func summariseWindow(global []Point, n int) WindowSummary {
	window := windowPoints(global, n)
	result := WindowSummary{
		AverageBalance: decimal.Zero,
		TotalIncome:    decimal.Zero,
		TotalExpenses:  decimal.Zero,
		NetCashflow:    decimal.Zero,
	}

	if len(window) == 0 {
		return result
	}

	balanceSum := decimal.Zero
	for _, point := range window {
		balanceSum = balanceSum.Add(point.Balance)
		result.TotalIncome = result.TotalIncome.Add(point.Income)
		result.TotalExpenses = result.TotalExpenses.Add(point.Expenses)
	}

	result.AverageBalance = balanceSum.Div(decimal.NewFromInt(int64(len(window)))).Round(2)
	result.NetCashflow = result.TotalIncome.Sub(result.TotalExpenses)
	return result
}
