package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/internal/patterns"
	"golang-cashflow-engine/internal/timeline"
	pkgerrors "golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"
)

// Input bundles the records a forecast is generated from
type Input struct {
	Accounts          []*models.Account          `json:"accounts"`
	Transactions      []*models.Transaction      `json:"transactions"`
	RecurringPayments []*models.RecurringPayment `json:"recurring_payments"`
	IncomeStreams     []*models.IncomeStream     `json:"income_streams"`
	Loans             []*models.LoanSchedule     `json:"loans"`
}

// Engine generates balance forecasts from caller-supplied inputs
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates a forecast engine with the given configuration
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("forecast_engine"),
	}
}

// Config returns the engine's configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Generate runs the simulation and returns the complete forecast.
// Invalid configuration or input records fail fast before any simulation;
// an input without accounts yields an empty forecast rather than an error.
func (e *Engine) Generate(input Input) (*Forecast, error) {
	op := logger.NewOperationLogger("forecast_generation", e.logger)

	if err := e.config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "forecast", e.config.HorizonDays, err)
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	anchor := anchorDay(e.config.Anchor)
	horizon := e.config.HorizonDays

	op.Step("analyzing_patterns")
	profile := patterns.NewAnalyzer(e.config.Analyzer).Analyze(input.Transactions)

	op.Step("building_timelines")
	generator := timeline.NewGenerator(anchor, horizon)
	ctx := &simContext{
		cfg:        e.config,
		anchor:     anchor,
		horizon:    horizon,
		profile:    profile,
		income:     generator.Income(input.IncomeStreams, e.config.NetIncome),
		recurring:  generator.Recurring(input.RecurringPayments),
		loans:      generator.Loans(input.Loans),
		primaryID:  primaryAccountID(input.Accounts),
		loanPayers: loanPayers(input.Accounts, input.Loans),
	}

	op.Step("simulating_accounts")
	accounts := make([]AccountForecast, 0, len(input.Accounts))
	startingBalance := decimal.Zero
	for _, account := range input.Accounts {
		accounts = append(accounts, simulateAccount(account, ctx))
		startingBalance = startingBalance.Add(account.Balance)
	}

	op.Step("analyzing_results")
	global := mergeGlobal(accounts, anchor, horizon, e.config, profile)
	shortfall := analyzeShortfalls(global, accounts)
	summary := buildSummary(global, startingBalance)

	result := &Forecast{
		GeneratedAt:     anchor,
		HorizonDays:     horizon,
		StartingBalance: startingBalance,
		Accounts:        accounts,
		Global:          global,
		Shortfall:       shortfall,
		Summary:         summary,
		Profile:         profile,
	}

	op.WithFields(logger.Fields{
		"accounts":      len(accounts),
		"horizon_days":  horizon,
		"events":        ctx.income.Len() + ctx.recurring.Len() + ctx.loans.Len(),
		"has_shortfall": shortfall.HasShortfall,
	}).Success("Forecast generated")

	return result, nil
}

func validateInput(input Input) error {
	for i, account := range input.Accounts {
		if account == nil {
			return pkgerrors.ValidationError(pkgerrors.CodeMissingField, fmt.Sprintf("accounts[%d]", i), nil, nil)
		}
		if err := account.Validate(); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryValidation, pkgerrors.CodeInvalidRecord,
				fmt.Sprintf("invalid account %q", account.ID))
		}
	}

	for i, tx := range input.Transactions {
		if tx == nil {
			return pkgerrors.ValidationError(pkgerrors.CodeMissingField, fmt.Sprintf("transactions[%d]", i), nil, nil)
		}
		if err := tx.Validate(); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryValidation, pkgerrors.CodeInvalidRecord,
				fmt.Sprintf("invalid transaction %q", tx.ID))
		}
	}

	for i, payment := range input.RecurringPayments {
		if payment == nil {
			return pkgerrors.ValidationError(pkgerrors.CodeMissingField, fmt.Sprintf("recurring_payments[%d]", i), nil, nil)
		}
		if err := payment.Validate(); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryValidation, pkgerrors.CodeInvalidRecord,
				fmt.Sprintf("invalid recurring payment %q", payment.ID))
		}
	}

	for i, stream := range input.IncomeStreams {
		if stream == nil {
			return pkgerrors.ValidationError(pkgerrors.CodeMissingField, fmt.Sprintf("income_streams[%d]", i), nil, nil)
		}
		if err := stream.Validate(); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryValidation, pkgerrors.CodeInvalidRecord,
				fmt.Sprintf("invalid income stream %q", stream.ID))
		}
	}

	for i, loan := range input.Loans {
		if loan == nil {
			return pkgerrors.ValidationError(pkgerrors.CodeMissingField, fmt.Sprintf("loans[%d]", i), nil, nil)
		}
		if err := loan.Validate(); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryValidation, pkgerrors.CodeInvalidRecord,
				fmt.Sprintf("invalid loan %q", loan.ID))
		}
	}

	return nil
}

// anchorDay resolves the simulation start to a midnight UTC day
func anchorDay(configured time.Time) time.Time {
	t := configured
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// simContext carries the shared read-only state of one simulation run
type simContext struct {
	cfg        *Config
	anchor     time.Time
	horizon    int
	profile    *patterns.SpendingProfile
	income     *timeline.Timeline
	recurring  *timeline.Timeline
	loans      *timeline.Timeline
	primaryID  string
	loanPayers map[string]string
}

func (c *simContext) incomeOn(account *models.Account, day time.Time) decimal.Decimal {
	if c.cfg.CostAttribution == AttributionScoped && account.ID != c.primaryID {
		return decimal.Zero
	}
	return c.income.TotalOnDay(day)
}

func (c *simContext) recurringOn(account *models.Account, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, event := range c.recurring.OnDay(day) {
		if event.AccountID == account.ID {
			total = total.Add(event.Amount)
		}
	}
	return total
}

func (c *simContext) loanOn(account *models.Account, day time.Time) decimal.Decimal {
	events := c.loans.OnDay(day)
	if len(events) == 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	for _, event := range events {
		if c.cfg.CostAttribution == AttributionShared || c.loanPayers[event.SourceID] == account.ID {
			total = total.Add(event.Amount)
		}
	}
	return total
}

func (c *simContext) nonRecurringOn(account *models.Account, day time.Time) decimal.Decimal {
	if c.cfg.CostAttribution == AttributionScoped && account.Type != models.AccountTypeTransactional {
		return decimal.Zero
	}
	return c.profile.WeekdayAverage(day.Weekday())
}

// simulateAccount folds the daily movements over the horizon into an
// immutable point series for one account.
func simulateAccount(account *models.Account, ctx *simContext) AccountForecast {
	points := make([]Point, 0, ctx.horizon+1)
	balance := account.Balance
	balanceSum := decimal.Zero
	minBalance := decimal.Zero
	maxBalance := decimal.Zero
	var shortfallDates []time.Time

	for d := 0; d <= ctx.horizon; d++ {
		day := ctx.anchor.AddDate(0, 0, d)

		income := ctx.incomeOn(account, day)
		scheduled := ctx.recurringOn(account, day).Add(ctx.loanOn(account, day))
		nonRecurring := ctx.nonRecurringOn(account, day)
		expenses := scheduled.Add(nonRecurring)

		balance = balance.Add(income).Sub(expenses)

		point := Point{
			Date:                 day,
			Balance:              balance,
			Income:               income,
			Expenses:             expenses,
			RecurringExpenses:    scheduled,
			NonRecurringExpenses: nonRecurring,
			Confidence:           confidenceAt(d, ctx.profile.Volatility),
			VolatilityFactor:     ctx.profile.Volatility,
			ShortfallAmount:      decimal.Zero,
		}

		if balance.IsNegative() {
			point.ShortfallRisk = true
			point.ShortfallAmount = balance.Neg()
			shortfallDates = append(shortfallDates, day)
		}

		if ctx.cfg.IncludeBands {
			half := bandHalfWidth(ctx.profile.DailyAverage, ctx.profile.Volatility, d)
			upper := balance.Add(half)
			lower := balance.Sub(half)
			point.UpperBound = &upper
			point.LowerBound = &lower
		}

		if d == 0 {
			minBalance = balance
			maxBalance = balance
		} else {
			if balance.LessThan(minBalance) {
				minBalance = balance
			}
			if balance.GreaterThan(maxBalance) {
				maxBalance = balance
			}
		}
		balanceSum = balanceSum.Add(balance)

		points = append(points, point)
	}

	average := decimal.Zero
	if len(points) > 0 {
		average = balanceSum.Div(decimal.NewFromInt(int64(len(points)))).Round(2)
	}

	return AccountForecast{
		AccountID:      account.ID,
		Name:           account.Name,
		Points:         points,
		MinBalance:     minBalance,
		MaxBalance:     maxBalance,
		AverageBalance: average,
		ShortfallDates: shortfallDates,
	}
}

// confidenceAt decays with forecast depth and volatility, floored at 0.1
func confidenceAt(day int, volatility float64) float64 {
	confidence := 0.95 * math.Exp(-0.002*float64(day)) * (1 - volatility*0.3)
	if confidence < 0.1 {
		return 0.1
	}
	return confidence
}

// bandHalfWidth widens with the square root of forecast depth
func bandHalfWidth(dailyAverage decimal.Decimal, volatility float64, day int) decimal.Decimal {
	scale := volatility * math.Sqrt(float64(day+1))
	return dailyAverage.Mul(decimal.NewFromFloat(scale)).Round(2)
}

// mergeGlobal combines account series into the household series, joined by
// date key. Balances and flows sum; confidence takes the worst account,
// volatility the highest; shortfall amounts sum over flagged accounts.
func mergeGlobal(accounts []AccountForecast, anchor time.Time, horizon int, cfg *Config, profile *patterns.SpendingProfile) []Point {
	if len(accounts) == 0 {
		return []Point{}
	}

	merged := make(map[string]*Point, horizon+1)
	for _, account := range accounts {
		for _, point := range account.Points {
			key := models.DateKey(point.Date)
			gp, exists := merged[key]
			if !exists {
				gp = &Point{
					Date:                 point.Date,
					Balance:              decimal.Zero,
					Income:               decimal.Zero,
					Expenses:             decimal.Zero,
					RecurringExpenses:    decimal.Zero,
					NonRecurringExpenses: decimal.Zero,
					Confidence:           point.Confidence,
					VolatilityFactor:     point.VolatilityFactor,
					ShortfallAmount:      decimal.Zero,
				}
				merged[key] = gp
			}

			gp.Balance = gp.Balance.Add(point.Balance)
			gp.Income = gp.Income.Add(point.Income)
			gp.Expenses = gp.Expenses.Add(point.Expenses)
			gp.RecurringExpenses = gp.RecurringExpenses.Add(point.RecurringExpenses)
			gp.NonRecurringExpenses = gp.NonRecurringExpenses.Add(point.NonRecurringExpenses)

			if point.Confidence < gp.Confidence {
				gp.Confidence = point.Confidence
			}
			if point.VolatilityFactor > gp.VolatilityFactor {
				gp.VolatilityFactor = point.VolatilityFactor
			}
			if point.ShortfallRisk {
				gp.ShortfallRisk = true
				gp.ShortfallAmount = gp.ShortfallAmount.Add(point.ShortfallAmount)
			}
		}
	}

	global := make([]Point, 0, horizon+1)
	for d := 0; d <= horizon; d++ {
		key := models.DateKey(anchor.AddDate(0, 0, d))
		gp, exists := merged[key]
		if !exists {
			continue
		}

		if cfg.IncludeBands {
			half := bandHalfWidth(profile.DailyAverage, profile.Volatility, d)
			upper := gp.Balance.Add(half)
			lower := gp.Balance.Sub(half)
			gp.UpperBound = &upper
			gp.LowerBound = &lower
		}

		global = append(global, *gp)
	}

	return global
}

func primaryAccountID(accounts []*models.Account) string {
	for _, account := range accounts {
		if account.Type == models.AccountTypeTransactional {
			return account.ID
		}
	}
	if len(accounts) > 0 {
		return accounts[0].ID
	}
	return ""
}

// loanPayers maps each loan to the account that pays it in scoped mode:
// the account linked to the loan, falling back to the primary account.
func loanPayers(accounts []*models.Account, loans []*models.LoanSchedule) map[string]string {
	primary := primaryAccountID(accounts)
	payers := make(map[string]string, len(loans))

	for _, loan := range loans {
		if loan == nil {
			continue
		}
		payers[loan.ID] = primary
		for _, account := range accounts {
			if account != nil && account.LinkedLoanID == loan.ID {
				payers[loan.ID] = account.ID
				break
			}
		}
	}

	return payers
}
