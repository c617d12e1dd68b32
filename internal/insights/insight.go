package insights

import (
	"time"

	"github.com/shopspring/decimal"
)

// InsightType identifies what an insight is about
type InsightType string

const (
	InsightShortfallWarning   InsightType = "SHORTFALL_WARNING"
	InsightNegativeCashflow   InsightType = "NEGATIVE_CASHFLOW"
	InsightLowBuffer          InsightType = "LOW_BUFFER"
	InsightHighBurnRate       InsightType = "HIGH_BURN_RATE"
	InsightVolatileSpending   InsightType = "VOLATILE_SPENDING"
	InsightSavingsOpportunity InsightType = "SAVINGS_OPPORTUNITY"
	InsightLowResilience      InsightType = "LOW_RESILIENCE"
)

// Severity grades how urgently an insight needs attention
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities for sorting, higher is more urgent
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Insight sources
const (
	SourceForecast  = "forecast"
	SourcePatterns  = "patterns"
	SourceOptimizer = "optimizer"
	SourceStress    = "stress"
)

// Insight is one actionable observation about the household's finances
type Insight struct {
	ID       string      `json:"id"`
	Type     InsightType `json:"type"`
	Severity Severity    `json:"severity"`
	Title    string      `json:"title"`
	Message  string      `json:"message"`

	// EstimatedValue is the dollar amount at stake, zero when the
	// insight has no monetary figure
	EstimatedValue decimal.Decimal `json:"estimated_value"`

	// Source names the subsystem the insight came from
	Source string `json:"source"`

	// ActionAvailable marks insights backed by a concrete next step
	ActionAvailable bool `json:"action_available"`

	Read      bool      `json:"read"`
	Dismissed bool      `json:"dismissed"`
	CreatedAt time.Time `json:"created_at"`
}

// MarkRead returns a copy flagged as read
func (i Insight) MarkRead() Insight {
	i.Read = true
	return i
}

// Dismiss returns a copy flagged as dismissed
func (i Insight) Dismiss() Insight {
	i.Dismissed = true
	return i
}
