package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDirection_IsValid(t *testing.T) {
	tests := []struct {
		direction Direction
		valid     bool
	}{
		{DirectionIn, true},
		{DirectionOut, true},
		{"SIDEWAYS", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			if got := tt.direction.IsValid(); got != tt.valid {
				t.Errorf("Direction.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input     string
		expected  Direction
		wantError bool
	}{
		{"IN", DirectionIn, false},
		{"out", DirectionOut, false},
		{" DEBIT ", DirectionOut, false},
		{"CR", DirectionIn, false},
		{"nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDirection(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && got != tt.expected {
				t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRecurrencePattern_Step(t *testing.T) {
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		pattern  RecurrencePattern
		expected time.Time
	}{
		{PatternWeekly, time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC)},
		{PatternFortnightly, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)},
		{PatternMonthly, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{PatternQuarterly, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)},
		{PatternAnnually, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			if got := tt.pattern.Step(base); !got.Equal(tt.expected) {
				t.Errorf("Step() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRecurrencePattern_StepMonthEnd(t *testing.T) {
	// Go normalises Jan 31 + 1 month into early March
	base := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	got := PatternMonthly.Step(base)
	expected := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	if !got.Equal(expected) {
		t.Errorf("Step(Jan 31) = %v, want %v", got, expected)
	}
}

func TestIncomeFrequency_OccurrenceAmount(t *testing.T) {
	monthly := decimal.NewFromInt(866)

	tests := []struct {
		frequency IncomeFrequency
		expected  decimal.Decimal
	}{
		{FrequencyWeekly, monthly.Div(decimal.NewFromFloat(4.33))},
		{FrequencyFortnightly, monthly.Div(decimal.NewFromFloat(2.17))},
		{FrequencyMonthly, monthly},
		{FrequencyAnnual, decimal.NewFromInt(10392)},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			got := tt.frequency.OccurrenceAmount(monthly)
			if !CompareAmountsWithTolerance(got, tt.expected, decimal.NewFromFloat(0.01)) {
				t.Errorf("OccurrenceAmount() = %s, want %s", got.String(), tt.expected.String())
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	validAmount := decimal.NewFromFloat(100.50)
	validDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		transaction Transaction
		wantError   bool
	}{
		{
			name: "valid transaction",
			transaction: Transaction{
				ID:        "TX001",
				AccountID: "acc-1",
				Date:      validDate,
				Amount:    validAmount,
				Direction: DirectionOut,
			},
			wantError: false,
		},
		{
			name: "empty ID",
			transaction: Transaction{
				AccountID: "acc-1",
				Date:      validDate,
				Amount:    validAmount,
				Direction: DirectionOut,
			},
			wantError: true,
		},
		{
			name: "empty account ID",
			transaction: Transaction{
				ID:        "TX001",
				Date:      validDate,
				Amount:    validAmount,
				Direction: DirectionOut,
			},
			wantError: true,
		},
		{
			name: "zero amount",
			transaction: Transaction{
				ID:        "TX001",
				AccountID: "acc-1",
				Date:      validDate,
				Amount:    decimal.Zero,
				Direction: DirectionOut,
			},
			wantError: true,
		},
		{
			name: "negative amount",
			transaction: Transaction{
				ID:        "TX001",
				AccountID: "acc-1",
				Date:      validDate,
				Amount:    decimal.NewFromInt(-5),
				Direction: DirectionOut,
			},
			wantError: true,
		},
		{
			name: "invalid direction",
			transaction: Transaction{
				ID:        "TX001",
				AccountID: "acc-1",
				Date:      validDate,
				Amount:    validAmount,
				Direction: "UP",
			},
			wantError: true,
		},
		{
			name: "zero date",
			transaction: Transaction{
				ID:        "TX001",
				AccountID: "acc-1",
				Amount:    validAmount,
				Direction: DirectionOut,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.transaction.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestTransaction_JSONRoundTrip(t *testing.T) {
	original := Transaction{
		ID:        "TX001",
		AccountID: "acc-1",
		Date:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromFloat(142.75),
		Direction: DirectionOut,
		Category:  "groceries",
		Merchant:  "Local Grocer",
	}

	data, err := json.Marshal(&original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID = %s, want %s", decoded.ID, original.ID)
	}
	if !decoded.Amount.Equal(original.Amount) {
		t.Errorf("Amount = %s, want %s", decoded.Amount.String(), original.Amount.String())
	}
	if !SameDay(decoded.Date, original.Date) {
		t.Errorf("Date = %v, want %v", decoded.Date, original.Date)
	}
	if decoded.Category != original.Category {
		t.Errorf("Category = %s, want %s", decoded.Category, original.Category)
	}
}

func TestRecurringPayment_Validate(t *testing.T) {
	valid := RecurringPayment{
		ID:             "rp-1",
		Merchant:       "Netflix",
		AccountID:      "acc-1",
		Pattern:        PatternMonthly,
		ExpectedAmount: decimal.NewFromInt(25),
		NextDue:        time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Active:         true,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid payment returned %v", err)
	}

	noAnchor := valid
	noAnchor.NextDue = time.Time{}
	noAnchor.LastCharged = time.Time{}
	if err := noAnchor.Validate(); err == nil {
		t.Error("Validate() should fail without next_due or last_charged")
	}

	badPattern := valid
	badPattern.Pattern = "SOMETIMES"
	if err := badPattern.Validate(); err == nil {
		t.Error("Validate() should fail for invalid pattern")
	}
}

func TestRecurringPayment_MonthlyAmount(t *testing.T) {
	tests := []struct {
		pattern  RecurrencePattern
		amount   decimal.Decimal
		expected decimal.Decimal
	}{
		{PatternWeekly, decimal.NewFromInt(100), decimal.NewFromInt(433)},
		{PatternFortnightly, decimal.NewFromInt(100), decimal.NewFromInt(217)},
		{PatternMonthly, decimal.NewFromInt(100), decimal.NewFromInt(100)},
		{PatternQuarterly, decimal.NewFromInt(300), decimal.NewFromInt(100)},
		{PatternAnnually, decimal.NewFromInt(1200), decimal.NewFromInt(100)},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			payment := RecurringPayment{Pattern: tt.pattern, ExpectedAmount: tt.amount}
			got := payment.MonthlyAmount()
			if !CompareAmountsWithTolerance(got, tt.expected, decimal.NewFromFloat(0.01)) {
				t.Errorf("MonthlyAmount() = %s, want %s", got.String(), tt.expected.String())
			}
		})
	}
}

func TestRecurringPayment_PriceChangePercent(t *testing.T) {
	change := decimal.NewFromInt(5)
	payment := RecurringPayment{
		ID:              "rp-1",
		Merchant:        "StreamCo",
		ExpectedAmount:  decimal.NewFromInt(25),
		LastPriceChange: &change,
	}

	previous := payment.PreviousAmount()
	if !previous.Equal(decimal.NewFromInt(20)) {
		t.Errorf("PreviousAmount() = %s, want 20", previous.String())
	}

	pct := payment.PriceChangePercent()
	if pct < 24.99 || pct > 25.01 {
		t.Errorf("PriceChangePercent() = %f, want 25", pct)
	}

	noChange := RecurringPayment{ExpectedAmount: decimal.NewFromInt(25)}
	if got := noChange.PriceChangePercent(); got != 0 {
		t.Errorf("PriceChangePercent() without change = %f, want 0", got)
	}
}

func TestRecurringPayment_JSONRoundTrip(t *testing.T) {
	change := decimal.NewFromFloat(2.50)
	original := RecurringPayment{
		ID:              "rp-1",
		Merchant:        "Netflix",
		AccountID:       "acc-1",
		Pattern:         PatternMonthly,
		ExpectedAmount:  decimal.NewFromFloat(22.99),
		LastCharged:     time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		NextDue:         time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Active:          true,
		LastPriceChange: &change,
	}

	data, err := json.Marshal(&original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded RecurringPayment
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !decoded.ExpectedAmount.Equal(original.ExpectedAmount) {
		t.Errorf("ExpectedAmount = %s, want %s", decoded.ExpectedAmount.String(), original.ExpectedAmount.String())
	}
	if decoded.LastPriceChange == nil || !decoded.LastPriceChange.Equal(change) {
		t.Errorf("LastPriceChange = %v, want %s", decoded.LastPriceChange, change.String())
	}
	if !SameDay(decoded.NextDue, original.NextDue) {
		t.Errorf("NextDue = %v, want %v", decoded.NextDue, original.NextDue)
	}
}

func TestIncomeStream_Validate(t *testing.T) {
	valid := IncomeStream{
		ID:            "inc-1",
		Name:          "Salary",
		Type:          IncomeTypeSalary,
		MonthlyAmount: decimal.NewFromInt(8000),
		Frequency:     FrequencyFortnightly,
		NextDate:      time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Volatility:    0.05,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid stream returned %v", err)
	}

	badVolatility := valid
	badVolatility.Volatility = 1.5
	if err := badVolatility.Validate(); err == nil {
		t.Error("Validate() should fail for volatility above 1")
	}

	zeroAmount := valid
	zeroAmount.MonthlyAmount = decimal.Zero
	if err := zeroAmount.Validate(); err == nil {
		t.Error("Validate() should fail for zero monthly amount")
	}
}

func TestLoanSchedule_Validate(t *testing.T) {
	valid := LoanSchedule{
		ID:               "loan-1",
		Principal:        decimal.NewFromInt(480000),
		AnnualRate:       0.0625,
		MonthlyRepayment: decimal.NewFromInt(2955),
		RepaymentDay:     15,
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid loan returned %v", err)
	}

	badDay := valid
	badDay.RepaymentDay = 31
	if err := badDay.Validate(); err == nil {
		t.Error("Validate() should fail for repayment day above 28")
	}

	badRate := valid
	badRate.AnnualRate = 1.2
	if err := badRate.Validate(); err == nil {
		t.Error("Validate() should fail for rate at or above 1")
	}
}

func TestLoanSchedule_MonthlyInterest(t *testing.T) {
	loan := LoanSchedule{
		ID:         "loan-1",
		Principal:  decimal.NewFromInt(480000),
		AnnualRate: 0.06,
	}

	got := loan.MonthlyInterest()
	expected := decimal.NewFromInt(2400)
	if !got.Equal(expected) {
		t.Errorf("MonthlyInterest() = %s, want %s", got.String(), expected.String())
	}
}

func TestLoanSchedule_AmortisedPayment(t *testing.T) {
	loan := LoanSchedule{
		ID:         "loan-1",
		Principal:  decimal.NewFromInt(480000),
		AnnualRate: 0.0625,
	}

	// 480k at 6.25% over 30 years is about $2,955/month
	got := loan.AmortisedPayment(30)
	expected := decimal.NewFromFloat(2955.50)
	if !CompareAmountsWithTolerance(got, expected, decimal.NewFromInt(2)) {
		t.Errorf("AmortisedPayment(30) = %s, want about %s", got.String(), expected.String())
	}

	zeroRate := LoanSchedule{ID: "loan-2", Principal: decimal.NewFromInt(36000), AnnualRate: 0}
	got = zeroRate.AmortisedPayment(30)
	expected = decimal.NewFromInt(100)
	if !got.Equal(expected) {
		t.Errorf("AmortisedPayment(30) at zero rate = %s, want %s", got.String(), expected.String())
	}

	if !loan.AmortisedPayment(0).IsZero() {
		t.Error("AmortisedPayment(0) should be zero")
	}
}

func TestAccount_Validate(t *testing.T) {
	valid := Account{
		ID:      "acc-1",
		Name:    "Everyday",
		Type:    AccountTypeTransactional,
		Balance: decimal.NewFromInt(10000),
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid account returned %v", err)
	}

	negative := valid
	negative.Balance = decimal.NewFromInt(-2500)
	if err := negative.Validate(); err != nil {
		t.Errorf("Validate() should allow negative balances, got %v", err)
	}

	badType := valid
	badType.Type = "PIGGY_BANK"
	if err := badType.Validate(); err == nil {
		t.Error("Validate() should fail for invalid account type")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input     string
		expected  decimal.Decimal
		wantError bool
	}{
		{"100.50", decimal.NewFromFloat(100.50), false},
		{"$1,234.56", decimal.NewFromFloat(1234.56), false},
		{" 42 ", decimal.NewFromInt(42), false},
		{"-17.25", decimal.NewFromFloat(-17.25), false},
		{"", decimal.Zero, true},
		{"abc", decimal.Zero, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseAmount(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
			if !tt.wantError && !got.Equal(tt.expected) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.expected.String())
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input     string
		wantError bool
	}{
		{"2026-06-01", false},
		{"2026-06-01T10:30:00Z", false},
		{"2026/06/01", false},
		{"not a date", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseDate(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
		})
	}
}

func TestDateKey(t *testing.T) {
	date := time.Date(2026, 6, 1, 14, 30, 0, 0, time.UTC)
	if got := DateKey(date); got != "2026-06-01" {
		t.Errorf("DateKey() = %s, want 2026-06-01", got)
	}
}

func TestMidnight(t *testing.T) {
	date := time.Date(2026, 6, 1, 14, 30, 45, 12345, time.UTC)
	got := Midnight(date)
	expected := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if !got.Equal(expected) {
		t.Errorf("Midnight() = %v, want %v", got, expected)
	}
}
