package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the direction of money movement on a transaction
type Direction string

const (
	// DirectionIn represents money flowing into an account
	DirectionIn Direction = "IN"
	// DirectionOut represents money flowing out of an account
	DirectionOut Direction = "OUT"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// ParseDirection parses and validates a direction from string
func ParseDirection(s string) (Direction, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	switch s {
	case "IN", "CREDIT", "CR":
		return DirectionIn, nil
	case "OUT", "DEBIT", "DR":
		return DirectionOut, nil
	default:
		return "", fmt.Errorf("invalid direction '%s': must be IN or OUT", s)
	}
}

// AccountType represents the kind of account a balance belongs to
type AccountType string

const (
	AccountTypeOffset        AccountType = "OFFSET"
	AccountTypeSavings       AccountType = "SAVINGS"
	AccountTypeTransactional AccountType = "TRANSACTIONAL"
	AccountTypeCreditCard    AccountType = "CREDIT_CARD"
)

// String returns the string representation of AccountType
func (a AccountType) String() string {
	return string(a)
}

// IsValid checks if the account type is valid
func (a AccountType) IsValid() bool {
	switch a {
	case AccountTypeOffset, AccountTypeSavings, AccountTypeTransactional, AccountTypeCreditCard:
		return true
	}
	return false
}

// ParseAccountType parses and validates an account type from string
func ParseAccountType(s string) (AccountType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	switch s {
	case "OFFSET":
		return AccountTypeOffset, nil
	case "SAVINGS":
		return AccountTypeSavings, nil
	case "TRANSACTIONAL", "CHECKING", "EVERYDAY":
		return AccountTypeTransactional, nil
	case "CREDIT_CARD", "CREDITCARD", "CC":
		return AccountTypeCreditCard, nil
	default:
		return "", fmt.Errorf("invalid account type '%s'", s)
	}
}

// RecurrencePattern represents how often a recurring payment is charged
type RecurrencePattern string

const (
	PatternWeekly      RecurrencePattern = "WEEKLY"
	PatternFortnightly RecurrencePattern = "FORTNIGHTLY"
	PatternMonthly     RecurrencePattern = "MONTHLY"
	PatternQuarterly   RecurrencePattern = "QUARTERLY"
	PatternAnnually    RecurrencePattern = "ANNUALLY"
)

// String returns the string representation of RecurrencePattern
func (p RecurrencePattern) String() string {
	return string(p)
}

// IsValid checks if the recurrence pattern is valid
func (p RecurrencePattern) IsValid() bool {
	switch p {
	case PatternWeekly, PatternFortnightly, PatternMonthly, PatternQuarterly, PatternAnnually:
		return true
	}
	return false
}

// Step advances an occurrence date by one recurrence interval. Weekly,
// fortnightly and quarterly intervals are fixed day counts; monthly and
// annual intervals use calendar arithmetic.
func (p RecurrencePattern) Step(from time.Time) time.Time {
	switch p {
	case PatternWeekly:
		return from.AddDate(0, 0, 7)
	case PatternFortnightly:
		return from.AddDate(0, 0, 14)
	case PatternMonthly:
		return from.AddDate(0, 1, 0)
	case PatternQuarterly:
		return from.AddDate(0, 0, 90)
	case PatternAnnually:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// MonthlyFactor returns the multiplier converting a per-occurrence amount
// into a monthly equivalent for this pattern.
func (p RecurrencePattern) MonthlyFactor() decimal.Decimal {
	switch p {
	case PatternWeekly:
		return decimal.NewFromFloat(4.33)
	case PatternFortnightly:
		return decimal.NewFromFloat(2.17)
	case PatternMonthly:
		return decimal.NewFromInt(1)
	case PatternQuarterly:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	case PatternAnnually:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(12))
	default:
		return decimal.NewFromInt(1)
	}
}

// ParseRecurrencePattern parses and validates a recurrence pattern from string
func ParseRecurrencePattern(s string) (RecurrencePattern, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	switch s {
	case "WEEKLY":
		return PatternWeekly, nil
	case "FORTNIGHTLY", "BIWEEKLY":
		return PatternFortnightly, nil
	case "MONTHLY":
		return PatternMonthly, nil
	case "QUARTERLY":
		return PatternQuarterly, nil
	case "ANNUALLY", "YEARLY", "ANNUAL":
		return PatternAnnually, nil
	default:
		return "", fmt.Errorf("invalid recurrence pattern '%s'", s)
	}
}

// IncomeType represents the source category of an income stream
type IncomeType string

const (
	IncomeTypeSalary     IncomeType = "SALARY"
	IncomeTypeRent       IncomeType = "RENT"
	IncomeTypeInvestment IncomeType = "INVESTMENT"
	IncomeTypeOther      IncomeType = "OTHER"
)

// String returns the string representation of IncomeType
func (i IncomeType) String() string {
	return string(i)
}

// IsValid checks if the income type is valid
func (i IncomeType) IsValid() bool {
	switch i {
	case IncomeTypeSalary, IncomeTypeRent, IncomeTypeInvestment, IncomeTypeOther:
		return true
	}
	return false
}

// ParseIncomeType parses and validates an income type from string
func ParseIncomeType(s string) (IncomeType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	switch s {
	case "SALARY", "WAGE", "WAGES":
		return IncomeTypeSalary, nil
	case "RENT", "RENTAL":
		return IncomeTypeRent, nil
	case "INVESTMENT", "DIVIDEND", "DIVIDENDS":
		return IncomeTypeInvestment, nil
	case "OTHER":
		return IncomeTypeOther, nil
	default:
		return "", fmt.Errorf("invalid income type '%s'", s)
	}
}

// IncomeFrequency represents how often an income stream pays out
type IncomeFrequency string

const (
	FrequencyWeekly      IncomeFrequency = "WEEKLY"
	FrequencyFortnightly IncomeFrequency = "FORTNIGHTLY"
	FrequencyMonthly     IncomeFrequency = "MONTHLY"
	FrequencyAnnual      IncomeFrequency = "ANNUAL"
)

// String returns the string representation of IncomeFrequency
func (f IncomeFrequency) String() string {
	return string(f)
}

// IsValid checks if the income frequency is valid
func (f IncomeFrequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly, FrequencyAnnual:
		return true
	}
	return false
}

// Next advances a payout date by one payment interval
func (f IncomeFrequency) Next(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyFortnightly:
		return from.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	case FrequencyAnnual:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// MonthlyFactor returns the number of payouts per month for this frequency
func (f IncomeFrequency) MonthlyFactor() decimal.Decimal {
	switch f {
	case FrequencyWeekly:
		return decimal.NewFromFloat(4.33)
	case FrequencyFortnightly:
		return decimal.NewFromFloat(2.17)
	case FrequencyMonthly:
		return decimal.NewFromInt(1)
	case FrequencyAnnual:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(12))
	default:
		return decimal.NewFromInt(1)
	}
}

// OccurrenceAmount converts a monthly-equivalent amount into the amount
// paid at each occurrence of this frequency.
func (f IncomeFrequency) OccurrenceAmount(monthly decimal.Decimal) decimal.Decimal {
	if f == FrequencyAnnual {
		return monthly.Mul(decimal.NewFromInt(12))
	}
	return monthly.Div(f.MonthlyFactor())
}

// ParseIncomeFrequency parses and validates an income frequency from string
func ParseIncomeFrequency(s string) (IncomeFrequency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	switch s {
	case "WEEKLY":
		return FrequencyWeekly, nil
	case "FORTNIGHTLY", "BIWEEKLY":
		return FrequencyFortnightly, nil
	case "MONTHLY":
		return FrequencyMonthly, nil
	case "ANNUAL", "ANNUALLY", "YEARLY":
		return FrequencyAnnual, nil
	default:
		return "", fmt.Errorf("invalid income frequency '%s'", s)
	}
}
