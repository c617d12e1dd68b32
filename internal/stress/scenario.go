package stress

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Scenario describes one adverse shift applied to a household's inputs.
// Zero-valued fields leave that dimension untouched, so a scenario can
// combine any mix of income, expense, rate, and one-off shocks.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// IncomeDropPercent scales every income stream down, 0-100
	IncomeDropPercent float64 `json:"income_drop_percent"`

	// ExpenseIncreasePercent scales every recurring payment up, 0-100
	ExpenseIncreasePercent float64 `json:"expense_increase_percent"`

	// RateRiseBasisPoints lifts every loan rate, 0-2000
	RateRiseBasisPoints int `json:"rate_rise_basis_points"`

	// ExpenseShockAmount lands as a one-off expense on the shock date
	ExpenseShockAmount decimal.Decimal `json:"expense_shock_amount"`

	// ExpenseShockDate is when the shock hits; nil means a week after the
	// simulation anchor
	ExpenseShockDate *time.Time `json:"expense_shock_date,omitempty"`
}

// Validate checks the scenario parameters are inside sane bounds
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("scenario ID cannot be empty")
	}

	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scenario name cannot be empty")
	}

	if s.IncomeDropPercent < 0 || s.IncomeDropPercent > 100 {
		return fmt.Errorf("income drop must be between 0 and 100 percent: %f", s.IncomeDropPercent)
	}

	if s.ExpenseIncreasePercent < 0 || s.ExpenseIncreasePercent > 100 {
		return fmt.Errorf("expense increase must be between 0 and 100 percent: %f", s.ExpenseIncreasePercent)
	}

	if s.RateRiseBasisPoints < 0 || s.RateRiseBasisPoints > 2000 {
		return fmt.Errorf("rate rise must be between 0 and 2000 basis points: %d", s.RateRiseBasisPoints)
	}

	if s.ExpenseShockAmount.IsNegative() {
		return fmt.Errorf("expense shock cannot be negative: %s", s.ExpenseShockAmount)
	}

	return nil
}

// Touches reports whether the scenario perturbs anything at all
func (s *Scenario) Touches() bool {
	return s.IncomeDropPercent > 0 ||
		s.ExpenseIncreasePercent > 0 ||
		s.RateRiseBasisPoints > 0 ||
		s.ExpenseShockAmount.IsPositive()
}

// Library returns the standard stress scenarios, mildest first
func Library() []Scenario {
	return []Scenario{
		{
			ID:                "income_drop_25",
			Name:              "Income drop 25%",
			Description:       "One earner moves to reduced hours",
			IncomeDropPercent: 25,
		},
		{
			ID:                "income_drop_50",
			Name:              "Income drop 50%",
			Description:       "Loss of one of two incomes",
			IncomeDropPercent: 50,
		},
		{
			ID:                     "expense_rise_20",
			Name:                   "Expenses rise 20%",
			Description:            "Sustained cost-of-living increase across all bills",
			ExpenseIncreasePercent: 20,
		},
		{
			ID:                  "rate_rise_200",
			Name:                "Rates rise 200bp",
			Description:         "Two percentage points added to every loan",
			RateRiseBasisPoints: 200,
		},
		{
			ID:                 "expense_shock_5k",
			Name:               "One-off $5k expense",
			Description:        "Urgent repair or medical bill next week",
			ExpenseShockAmount: decimal.NewFromInt(5000),
		},
		{
			ID:                     "combined_mild",
			Name:                   "Mild combined stress",
			Description:            "Small income dip with rising costs",
			IncomeDropPercent:      10,
			ExpenseIncreasePercent: 10,
		},
		{
			ID:                     "combined_severe",
			Name:                   "Severe combined stress",
			Description:            "Income down, costs up, rates rising",
			IncomeDropPercent:      30,
			ExpenseIncreasePercent: 20,
			RateRiseBasisPoints:    300,
		},
	}
}
