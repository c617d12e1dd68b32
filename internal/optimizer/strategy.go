package optimizer

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StrategyKind groups strategies by the finding that produced them
type StrategyKind string

const (
	StrategyShortfallRescue    StrategyKind = "SHORTFALL_RESCUE"
	StrategyFundMovement       StrategyKind = "FUND_MOVEMENT"
	StrategyRepayment          StrategyKind = "REPAYMENT"
	StrategySpendingReduction  StrategyKind = "SPENDING_REDUCTION"
	StrategyScheduleChange     StrategyKind = "SCHEDULE_CHANGE"
	StrategySubscriptionReview StrategyKind = "SUBSCRIPTION_REVIEW"
	StrategyPriceIncrease      StrategyKind = "PRICE_INCREASE"
)

// StrategyStatus tracks the lifecycle of a recommendation
type StrategyStatus string

const (
	StatusPending   StrategyStatus = "PENDING"
	StatusAccepted  StrategyStatus = "ACCEPTED"
	StatusDismissed StrategyStatus = "DISMISSED"
	StatusExpired   StrategyStatus = "EXPIRED"
)

// strategyTTL is how long a recommendation stays actionable
const strategyTTL = 30 * 24 * time.Hour

// Priority bases per strategy source; the value bonus stacks on top
const (
	priorityRescue        = 90
	priorityHighMovement  = 75
	priorityRepayment     = 65
	priorityOverspend     = 60
	prioritySchedule      = 55
	priorityMovement      = 50
	priorityOverlap       = 50
	priorityReview        = 45
	priorityPriceIncrease = 40
)

// Step is one ordered action inside a strategy
type Step struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
}

// Strategy is a ranked, actionable recommendation
type Strategy struct {
	ID           string          `json:"id"`
	Kind         StrategyKind    `json:"kind"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Steps        []Step          `json:"steps"`
	Priority     int             `json:"priority"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
	AnnualValue  decimal.Decimal `json:"annual_value"`
	Confidence   float64         `json:"confidence"`
	Status       StrategyStatus  `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// Accept marks a pending strategy as accepted
func (s Strategy) Accept() Strategy {
	if s.Status == StatusPending {
		s.Status = StatusAccepted
	}
	return s
}

// Dismiss marks a pending strategy as dismissed
func (s Strategy) Dismiss() Strategy {
	if s.Status == StatusPending {
		s.Status = StatusDismissed
	}
	return s
}

// ExpireIfPast marks a pending strategy as expired once its window has passed
func (s Strategy) ExpireIfPast(now time.Time) Strategy {
	if s.Status == StatusPending && now.After(s.ExpiresAt) {
		s.Status = StatusExpired
	}
	return s
}

// buildStrategies wraps every finding in a ranked strategy. Ordering is
// priority, then annual value, then title, all deterministic.
func (e *Engine) buildStrategies(result *Result) []Strategy {
	strategies := make([]Strategy, 0)
	createdAt := result.GeneratedAt

	for _, finding := range result.Inefficiencies {
		strategies = append(strategies, e.inefficiencyStrategy(finding, createdAt))
	}
	for _, finding := range result.Subscriptions {
		if finding.HasPriceIncrease {
			strategies = append(strategies, e.priceIncreaseStrategy(finding, createdAt))
		}
	}
	for _, movement := range result.FundMovements {
		strategies = append(strategies, e.movementStrategy(movement, createdAt))
	}
	for _, change := range result.ScheduleChanges {
		strategies = append(strategies, e.scheduleStrategy(change, createdAt))
	}
	for _, finding := range result.RepaymentFindings {
		strategies = append(strategies, e.repaymentStrategy(finding, createdAt))
	}

	sort.SliceStable(strategies, func(i, j int) bool {
		a, b := strategies[i], strategies[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if cmp := a.AnnualValue.Cmp(b.AnnualValue); cmp != 0 {
			return cmp > 0
		}
		return a.Title < b.Title
	})

	return strategies
}

func (e *Engine) inefficiencyStrategy(finding SpendingInefficiency, createdAt time.Time) Strategy {
	switch finding.Kind {
	case InefficiencyReview:
		return newStrategy(
			StrategySubscriptionReview,
			fmt.Sprintf("Review a %s/month subscription", finding.MonthlyAverage.StringFixed(2)),
			finding.Description,
			[]string{
				"Check when the service was last used",
				"Downgrade or cancel if it no longer earns its keep",
			},
			priorityReview, finding.PotentialSaving, finding.Confidence, createdAt,
		)
	case InefficiencyStreamingOverlap:
		return newStrategy(
			StrategySpendingReduction,
			"Trim streaming services to two",
			finding.Description,
			[]string{
				"Rank the streaming services by use",
				"Pause or cancel everything past the top two",
				"Rotate services instead of stacking them",
			},
			priorityOverlap, finding.PotentialSaving, finding.Confidence, createdAt,
		)
	default:
		return newStrategy(
			StrategySpendingReduction,
			fmt.Sprintf("Reduce %s spending", finding.Category),
			finding.Description,
			[]string{
				fmt.Sprintf("Review recent %s transactions for one-offs", finding.Category),
				fmt.Sprintf("Set a %s monthly budget", finding.Benchmark.StringFixed(2)),
				"Track the category weekly until it holds",
			},
			priorityOverspend, finding.PotentialSaving, finding.Confidence, createdAt,
		)
	}
}

func (e *Engine) priceIncreaseStrategy(finding SubscriptionFinding, createdAt time.Time) Strategy {
	increase := finding.CurrentAmount.Sub(finding.PreviousAmount)
	return newStrategy(
		StrategyPriceIncrease,
		fmt.Sprintf("Respond to the %s price rise", finding.Merchant),
		fmt.Sprintf("%s went from %s to %s/month (%.1f%%)",
			finding.Merchant, finding.PreviousAmount.StringFixed(2),
			finding.CurrentAmount.StringFixed(2), finding.PriceChangePercent),
		[]string{
			"Check for a cheaper plan tier",
			"Ask for a retention offer or switch providers",
			"Cancel if the new price is not worth it",
		},
		priorityPriceIncrease, increase, 0.9, createdAt,
	)
}

func (e *Engine) movementStrategy(movement FundMovement, createdAt time.Time) Strategy {
	if movement.Kind == MovementShortfallRescue {
		return newStrategy(
			StrategyShortfallRescue,
			"Cover the projected shortfall",
			movement.Reason,
			[]string{
				fmt.Sprintf("Transfer %s from %s to %s", movement.Amount.StringFixed(2), movement.FromAccountID, movement.ToAccountID),
				"Set a balance alert on the at-risk account",
			},
			priorityRescue, decimal.Zero, 0.95, createdAt,
		)
	}

	base := priorityMovement
	if movement.Urgency == UrgencyHigh {
		base = priorityHighMovement
	}

	return newStrategy(
		StrategyFundMovement,
		fmt.Sprintf("Move idle cash from %s into the offset", movement.FromAccountID),
		movement.Reason,
		[]string{
			fmt.Sprintf("Transfer %s from %s to %s", movement.Amount.StringFixed(2), movement.FromAccountID, movement.ToAccountID),
			"Keep the buffer amount behind for day-to-day spending",
		},
		base, movement.AnnualBenefit.Div(decimal.NewFromInt(12)), 0.85, createdAt,
	)
}

func (e *Engine) scheduleStrategy(change ScheduleChange, createdAt time.Time) Strategy {
	return newStrategy(
		StrategyScheduleChange,
		"Shift bills to after payday",
		fmt.Sprintf("%d payments totalling %s/month land before payday; moving them to day %d smooths the month",
			len(change.PaymentIDs), change.MonthlyTotal.StringFixed(2), change.ProposedDay),
		[]string{
			fmt.Sprintf("Ask each biller to move the due date to day %d", change.ProposedDay),
			"Align direct debits with the new dates",
			"Confirm the first cycle goes through cleanly",
		},
		prioritySchedule, change.EstimatedBenefit, 0.6, createdAt,
	)
}

func (e *Engine) repaymentStrategy(finding RepaymentFinding, createdAt time.Time) Strategy {
	var title string
	switch finding.Kind {
	case RepaymentSwitchToPI:
		title = fmt.Sprintf("Switch loan %s to principal and interest", finding.LoanID)
	case RepaymentBuildOffset:
		title = fmt.Sprintf("Build up the offset on loan %s", finding.LoanID)
	default:
		title = fmt.Sprintf("Add extra repayments to loan %s", finding.LoanID)
	}

	years := decimal.NewFromInt(int64(e.config.AmortisationYears))
	monthly := finding.EstimatedSaving.Div(years).Div(decimal.NewFromInt(12))

	return newStrategy(
		StrategyRepayment,
		title,
		finding.Description,
		[]string{
			"Confirm the change has no bank fees attached",
			fmt.Sprintf("Adjust the repayment to %s/month", finding.SuggestedPayment.StringFixed(2)),
			"Review the loan again after the next rate change",
		},
		priorityRepayment, monthly, 0.7, createdAt,
	)
}

func newStrategy(kind StrategyKind, title, description string, steps []string, base int, monthly decimal.Decimal, confidence float64, createdAt time.Time) Strategy {
	annual := monthly.Mul(decimal.NewFromInt(12)).Round(2)

	ordered := make([]Step, 0, len(steps))
	for i, step := range steps {
		ordered = append(ordered, Step{Order: i + 1, Description: step})
	}

	return Strategy{
		ID:           uuid.NewString(),
		Kind:         kind,
		Title:        title,
		Description:  description,
		Steps:        ordered,
		Priority:     priorityFor(base, annual),
		MonthlyValue: monthly.Round(2),
		AnnualValue:  annual,
		Confidence:   confidence,
		Status:       StatusPending,
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.Add(strategyTTL),
	}
}

// priorityFor adds a value bonus of one point per $200 of annual value,
// capped at 15, and clamps the result to [1, 100].
func priorityFor(base int, annualValue decimal.Decimal) int {
	bonus := annualValue.Div(decimal.NewFromInt(200)).IntPart()
	if bonus < 0 {
		bonus = 0
	}
	if bonus > 15 {
		bonus = 15
	}

	priority := base + int(bonus)
	if priority > 100 {
		priority = 100
	}
	if priority < 1 {
		priority = 1
	}
	return priority
}
