package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single historical account transaction
type Transaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
	Category  string          `json:"category,omitempty"`
	Merchant  string          `json:"merchant,omitempty"`
	Recurring bool            `json:"recurring,omitempty"`
}

// NewTransaction creates a new Transaction instance
func NewTransaction(id, accountID string, date time.Time, amount decimal.Decimal, direction Direction) *Transaction {
	return &Transaction{
		ID:        id,
		AccountID: accountID,
		Date:      date,
		Amount:    amount,
		Direction: direction,
	}
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}

	if strings.TrimSpace(t.AccountID) == "" {
		return fmt.Errorf("transaction account ID cannot be empty")
	}

	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if !t.Amount.IsPositive() {
		return fmt.Errorf("transaction amount must be positive, got %s", t.Amount.String())
	}

	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid transaction direction: %s", t.Direction)
	}

	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Account: %s, Amount: %s, Direction: %s, Date: %s}",
		t.ID, t.AccountID, t.Amount.String(), t.Direction, t.Date.Format("2006-01-02"))
}

// IsOutgoing returns true if the transaction moves money out of the account
func (t *Transaction) IsOutgoing() bool {
	return t.Direction == DirectionOut
}

// MarshalJSON implements custom JSON marshaling for Transaction
func (t *Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: t.Amount.String(),
		Date:   t.Date.Format("2006-01-02"),
		Alias:  (*Alias)(t),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Transaction
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type Alias Transaction
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	t.Amount, err = ParseAmount(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	t.Date, err = ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// RecurringPayment represents a detected or registered recurring charge
type RecurringPayment struct {
	ID             string            `json:"id"`
	Merchant       string            `json:"merchant"`
	AccountID      string            `json:"account_id"`
	Pattern        RecurrencePattern `json:"pattern"`
	ExpectedAmount decimal.Decimal   `json:"expected_amount"`
	LastCharged    time.Time         `json:"last_charged,omitempty"`
	NextDue        time.Time         `json:"next_due,omitempty"`
	Active         bool              `json:"active"`
	// LastPriceChange is the absolute delta of the most recent price change,
	// nil when no change has been observed.
	LastPriceChange *decimal.Decimal `json:"last_price_change,omitempty"`
}

// Validate performs basic validation on the RecurringPayment
func (p *RecurringPayment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("recurring payment ID cannot be empty")
	}

	if strings.TrimSpace(p.Merchant) == "" {
		return fmt.Errorf("recurring payment merchant cannot be empty")
	}

	if strings.TrimSpace(p.AccountID) == "" {
		return fmt.Errorf("recurring payment account ID cannot be empty")
	}

	if !p.Pattern.IsValid() {
		return fmt.Errorf("invalid recurrence pattern: %s", p.Pattern)
	}

	if !p.ExpectedAmount.IsPositive() {
		return fmt.Errorf("recurring payment amount must be positive, got %s", p.ExpectedAmount.String())
	}

	if p.NextDue.IsZero() && p.LastCharged.IsZero() {
		return fmt.Errorf("recurring payment needs next_due or last_charged to anchor its schedule")
	}

	return nil
}

// MonthlyAmount returns the payment amount normalised to a monthly equivalent
func (p *RecurringPayment) MonthlyAmount() decimal.Decimal {
	return p.ExpectedAmount.Mul(p.Pattern.MonthlyFactor())
}

// AnnualAmount returns the payment amount normalised to an annual equivalent
func (p *RecurringPayment) AnnualAmount() decimal.Decimal {
	return p.MonthlyAmount().Mul(decimal.NewFromInt(12))
}

// PreviousAmount returns the charge amount before the most recent price
// change, or the current amount when no change is recorded.
func (p *RecurringPayment) PreviousAmount() decimal.Decimal {
	if p.LastPriceChange == nil {
		return p.ExpectedAmount
	}
	return p.ExpectedAmount.Sub(*p.LastPriceChange)
}

// PriceChangePercent returns the most recent price change as a percentage
// of the previous amount. Zero when no change is recorded or the previous
// amount cannot be derived.
func (p *RecurringPayment) PriceChangePercent() float64 {
	if p.LastPriceChange == nil {
		return 0
	}

	previous := p.PreviousAmount()
	if previous.IsZero() {
		return 0
	}

	pct, _ := p.LastPriceChange.Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// MarshalJSON implements custom JSON marshaling for RecurringPayment
func (p *RecurringPayment) MarshalJSON() ([]byte, error) {
	type Alias RecurringPayment
	aux := &struct {
		ExpectedAmount  string `json:"expected_amount"`
		LastCharged     string `json:"last_charged,omitempty"`
		NextDue         string `json:"next_due,omitempty"`
		LastPriceChange string `json:"last_price_change,omitempty"`
		*Alias
	}{
		ExpectedAmount: p.ExpectedAmount.String(),
		Alias:          (*Alias)(p),
	}

	if !p.LastCharged.IsZero() {
		aux.LastCharged = p.LastCharged.Format("2006-01-02")
	}
	if !p.NextDue.IsZero() {
		aux.NextDue = p.NextDue.Format("2006-01-02")
	}
	if p.LastPriceChange != nil {
		aux.LastPriceChange = p.LastPriceChange.String()
	}

	return json.Marshal(aux)
}

// UnmarshalJSON implements custom JSON unmarshaling for RecurringPayment
func (p *RecurringPayment) UnmarshalJSON(data []byte) error {
	type Alias RecurringPayment
	aux := &struct {
		ExpectedAmount  string `json:"expected_amount"`
		LastCharged     string `json:"last_charged"`
		NextDue         string `json:"next_due"`
		LastPriceChange string `json:"last_price_change"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	p.ExpectedAmount, err = ParseAmount(aux.ExpectedAmount)
	if err != nil {
		return fmt.Errorf("invalid expected amount format: %w", err)
	}

	if aux.LastCharged != "" {
		if p.LastCharged, err = ParseDate(aux.LastCharged); err != nil {
			return fmt.Errorf("invalid last charged date: %w", err)
		}
	}

	if aux.NextDue != "" {
		if p.NextDue, err = ParseDate(aux.NextDue); err != nil {
			return fmt.Errorf("invalid next due date: %w", err)
		}
	}

	if aux.LastPriceChange != "" {
		change, err := ParseAmount(aux.LastPriceChange)
		if err != nil {
			return fmt.Errorf("invalid last price change: %w", err)
		}
		p.LastPriceChange = &change
	}

	return nil
}

// IncomeStream represents a regular source of income
type IncomeStream struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type IncomeType `json:"type"`
	// MonthlyAmount is the monthly-equivalent gross amount. Salary streams
	// are converted to net through the configured withholding function
	// during timeline generation.
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	Frequency     IncomeFrequency `json:"frequency"`
	NextDate      time.Time       `json:"next_date"`
	Volatility    float64         `json:"volatility"`
}

// Validate performs basic validation on the IncomeStream
func (s *IncomeStream) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("income stream ID cannot be empty")
	}

	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("income stream name cannot be empty")
	}

	if !s.Type.IsValid() {
		return fmt.Errorf("invalid income type: %s", s.Type)
	}

	if !s.MonthlyAmount.IsPositive() {
		return fmt.Errorf("income stream monthly amount must be positive, got %s", s.MonthlyAmount.String())
	}

	if !s.Frequency.IsValid() {
		return fmt.Errorf("invalid income frequency: %s", s.Frequency)
	}

	if s.NextDate.IsZero() {
		return fmt.Errorf("income stream next date cannot be zero")
	}

	if s.Volatility < 0 || s.Volatility > 1 {
		return fmt.Errorf("income stream volatility must be between 0 and 1, got %f", s.Volatility)
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for IncomeStream
func (s *IncomeStream) MarshalJSON() ([]byte, error) {
	type Alias IncomeStream
	return json.Marshal(&struct {
		MonthlyAmount string `json:"monthly_amount"`
		NextDate      string `json:"next_date"`
		*Alias
	}{
		MonthlyAmount: s.MonthlyAmount.String(),
		NextDate:      s.NextDate.Format("2006-01-02"),
		Alias:         (*Alias)(s),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for IncomeStream
func (s *IncomeStream) UnmarshalJSON(data []byte) error {
	type Alias IncomeStream
	aux := &struct {
		MonthlyAmount string `json:"monthly_amount"`
		NextDate      string `json:"next_date"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	s.MonthlyAmount, err = ParseAmount(aux.MonthlyAmount)
	if err != nil {
		return fmt.Errorf("invalid monthly amount format: %w", err)
	}

	s.NextDate, err = ParseDate(aux.NextDate)
	if err != nil {
		return fmt.Errorf("invalid next date format: %w", err)
	}

	return nil
}

// LoanSchedule represents an active loan and its repayment terms
type LoanSchedule struct {
	ID               string          `json:"id"`
	Principal        decimal.Decimal `json:"principal"`
	AnnualRate       float64         `json:"annual_rate"`
	MonthlyRepayment decimal.Decimal `json:"monthly_repayment"`
	RepaymentDay     int             `json:"repayment_day"`
	InterestOnly     bool            `json:"interest_only"`
	OffsetAccountID  string          `json:"offset_account_id,omitempty"`
}

// Validate performs basic validation on the LoanSchedule
func (l *LoanSchedule) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("loan ID cannot be empty")
	}

	if !l.Principal.IsPositive() {
		return fmt.Errorf("loan principal must be positive, got %s", l.Principal.String())
	}

	if l.AnnualRate < 0 || l.AnnualRate >= 1 {
		return fmt.Errorf("loan annual rate must be a fraction in [0, 1), got %f", l.AnnualRate)
	}

	if l.MonthlyRepayment.IsNegative() {
		return fmt.Errorf("loan monthly repayment cannot be negative, got %s", l.MonthlyRepayment.String())
	}

	// Days 29-31 do not exist in every month
	if l.RepaymentDay < 1 || l.RepaymentDay > 28 {
		return fmt.Errorf("loan repayment day must be between 1 and 28, got %d", l.RepaymentDay)
	}

	return nil
}

// String returns a string representation of the LoanSchedule
func (l *LoanSchedule) String() string {
	return fmt.Sprintf("LoanSchedule{ID: %s, Principal: %s, Rate: %.4f, Repayment: %s/month}",
		l.ID, l.Principal.String(), l.AnnualRate, l.MonthlyRepayment.String())
}

// MonthlyInterest returns one month of interest on the current principal
func (l *LoanSchedule) MonthlyInterest() decimal.Decimal {
	return l.Principal.Mul(decimal.NewFromFloat(l.AnnualRate)).Div(decimal.NewFromInt(12)).Round(2)
}

// AmortisedPayment returns the monthly payment that fully repays the
// principal over the given term using the standard amortisation formula.
func (l *LoanSchedule) AmortisedPayment(years int) decimal.Decimal {
	if years <= 0 || !l.Principal.IsPositive() {
		return decimal.Zero
	}

	n := float64(years * 12)
	monthlyRate := l.AnnualRate / 12

	if monthlyRate == 0 {
		return l.Principal.Div(decimal.NewFromFloat(n)).Round(2)
	}

	principal, _ := l.Principal.Float64()
	payment := principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -n))
	return decimal.NewFromFloat(payment).Round(2)
}

// MarshalJSON implements custom JSON marshaling for LoanSchedule
func (l *LoanSchedule) MarshalJSON() ([]byte, error) {
	type Alias LoanSchedule
	return json.Marshal(&struct {
		Principal        string `json:"principal"`
		MonthlyRepayment string `json:"monthly_repayment"`
		*Alias
	}{
		Principal:        l.Principal.String(),
		MonthlyRepayment: l.MonthlyRepayment.String(),
		Alias:            (*Alias)(l),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for LoanSchedule
func (l *LoanSchedule) UnmarshalJSON(data []byte) error {
	type Alias LoanSchedule
	aux := &struct {
		Principal        string `json:"principal"`
		MonthlyRepayment string `json:"monthly_repayment"`
		*Alias
	}{
		Alias: (*Alias)(l),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	l.Principal, err = ParseAmount(aux.Principal)
	if err != nil {
		return fmt.Errorf("invalid principal format: %w", err)
	}

	l.MonthlyRepayment, err = ParseAmount(aux.MonthlyRepayment)
	if err != nil {
		return fmt.Errorf("invalid monthly repayment format: %w", err)
	}

	return nil
}

// Account represents an account and its balance at the forecast anchor
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         AccountType     `json:"type"`
	Balance      decimal.Decimal `json:"balance"`
	LinkedLoanID string          `json:"linked_loan_id,omitempty"`
}

// NewAccount creates a new Account instance
func NewAccount(id, name string, accountType AccountType, balance decimal.Decimal) *Account {
	return &Account{
		ID:      id,
		Name:    name,
		Type:    accountType,
		Balance: balance,
	}
}

// Validate performs basic validation on the Account
func (a *Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}

	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name cannot be empty")
	}

	if !a.Type.IsValid() {
		return fmt.Errorf("invalid account type: %s", a.Type)
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Account
func (a *Account) MarshalJSON() ([]byte, error) {
	type Alias Account
	return json.Marshal(&struct {
		Balance string `json:"balance"`
		*Alias
	}{
		Balance: a.Balance.String(),
		Alias:   (*Alias)(a),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Account
func (a *Account) UnmarshalJSON(data []byte) error {
	type Alias Account
	aux := &struct {
		Balance string `json:"balance"`
		*Alias
	}{
		Alias: (*Alias)(a),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	a.Balance, err = ParseAmount(aux.Balance)
	if err != nil {
		return fmt.Errorf("invalid balance format: %w", err)
	}

	return nil
}

// Utility functions for type conversion and validation

// ParseAmount parses a decimal value from string with validation
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDate attempts to parse a date from string using multiple common formats
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"02/01/2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// DateKey returns the canonical day key used to index daily series
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether two times fall on the same calendar day
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Midnight truncates a time to the start of its calendar day
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}
