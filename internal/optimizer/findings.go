package optimizer

import (
	"github.com/shopspring/decimal"
)

// Urgency grades how quickly a recommendation should be acted on
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// InefficiencyKind identifies how a spending inefficiency was detected
type InefficiencyKind string

const (
	// InefficiencyOverspend marks a category running above its benchmark
	InefficiencyOverspend InefficiencyKind = "CATEGORY_OVERSPEND"

	// InefficiencyReview marks a subscription-like payment worth auditing
	InefficiencyReview InefficiencyKind = "SUBSCRIPTION_REVIEW"

	// InefficiencyStreamingOverlap marks too many concurrent streaming services
	InefficiencyStreamingOverlap InefficiencyKind = "STREAMING_OVERLAP"
)

// SpendingInefficiency reports a category or payment running above what a
// comparable household spends.
type SpendingInefficiency struct {
	Category        string           `json:"category"`
	MonthlyAverage  decimal.Decimal  `json:"monthly_average"`
	Benchmark       decimal.Decimal  `json:"benchmark"`
	PotentialSaving decimal.Decimal  `json:"potential_saving"`
	Kind            InefficiencyKind `json:"kind"`
	Description     string           `json:"description"`
	Confidence      float64          `json:"confidence"`
}

// SubscriptionFinding summarises one active subscription, including any
// observed price movement.
type SubscriptionFinding struct {
	PaymentID          string          `json:"payment_id"`
	Merchant           string          `json:"merchant"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	PreviousAmount     decimal.Decimal `json:"previous_amount"`
	PriceChangePercent float64         `json:"price_change_percent"`
	HasPriceIncrease   bool            `json:"has_price_increase"`
	AnnualCost         decimal.Decimal `json:"annual_cost"`
}

// FundMovementKind identifies why a transfer is recommended
type FundMovementKind string

const (
	// MovementOffsetTransfer moves idle cash against a loan
	MovementOffsetTransfer FundMovementKind = "OFFSET_TRANSFER"

	// MovementShortfallRescue covers a projected negative balance
	MovementShortfallRescue FundMovementKind = "SHORTFALL_RESCUE"
)

// FundMovement recommends moving money between two accounts
type FundMovement struct {
	Kind          FundMovementKind `json:"kind"`
	FromAccountID string           `json:"from_account_id"`
	ToAccountID   string           `json:"to_account_id"`
	Amount        decimal.Decimal  `json:"amount"`
	AnnualBenefit decimal.Decimal  `json:"annual_benefit"`
	Urgency       Urgency          `json:"urgency"`
	Reason        string           `json:"reason"`
}

// ScheduleChange proposes moving recurring payments to sit after payday
type ScheduleChange struct {
	PaymentIDs       []string        `json:"payment_ids"`
	CurrentDays      []int           `json:"current_days"`
	ProposedDay      int             `json:"proposed_day"`
	MonthlyTotal     decimal.Decimal `json:"monthly_total"`
	EstimatedBenefit decimal.Decimal `json:"estimated_benefit"`
}

// RepaymentKind identifies the loan repayment change being suggested
type RepaymentKind string

const (
	// RepaymentSwitchToPI converts an interest-only loan to principal and interest
	RepaymentSwitchToPI RepaymentKind = "SWITCH_TO_PRINCIPAL_AND_INTEREST"

	// RepaymentBuildOffset grows an underused offset account
	RepaymentBuildOffset RepaymentKind = "BUILD_OFFSET"

	// RepaymentExtra adds surplus cash to the monthly repayment
	RepaymentExtra RepaymentKind = "EXTRA_REPAYMENTS"
)

// RepaymentFinding recommends a change to a loan repayment arrangement
type RepaymentFinding struct {
	LoanID            string          `json:"loan_id"`
	Kind              RepaymentKind   `json:"kind"`
	CurrentPayment    decimal.Decimal `json:"current_payment"`
	SuggestedPayment  decimal.Decimal `json:"suggested_payment"`
	MonthlyDifference decimal.Decimal `json:"monthly_difference"`
	EstimatedSaving   decimal.Decimal `json:"estimated_saving"`
	Description       string          `json:"description"`
}
