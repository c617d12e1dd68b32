package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"time"

	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/internal/snapshot"

	"github.com/shopspring/decimal"
)

// SnapshotGenerator produces household snapshot JSON documents with a
// plausible transaction history behind the registered income streams,
// recurring payments and loans.
type SnapshotGenerator struct {
	Profile string
	Months  int
	Anchor  time.Time
	Seed    int64

	rng     *rand.Rand
	nextTxn int
}

// spendingCategory describes one stream of day-to-day card spending
type spendingCategory struct {
	Category string
	Merchant string
	Min      float64
	Max      float64
	PerMonth int
}

func main() {
	var (
		output  = flag.String("output", "household.json", "Output snapshot file path")
		profile = flag.String("profile", "comfortable", "Household profile: comfortable, stretched, indebted")
		months  = flag.Int("months", 6, "Months of transaction history to generate")
		anchor  = flag.String("anchor", "", "Snapshot date (YYYY-MM-DD, default today)")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	anchorDate := time.Now().UTC()
	if *anchor != "" {
		parsed, err := time.Parse("2006-01-02", *anchor)
		if err != nil {
			log.Fatalf("Invalid anchor date: %v", err)
		}
		anchorDate = parsed
	}
	anchorDate = time.Date(anchorDate.Year(), anchorDate.Month(), anchorDate.Day(), 0, 0, 0, 0, time.UTC)

	if *months < 1 {
		log.Fatalf("Months of history must be at least 1, got %d", *months)
	}

	generator := &SnapshotGenerator{
		Profile: *profile,
		Months:  *months,
		Anchor:  anchorDate,
		Seed:    *seed,
	}

	snap, err := generator.Generate()
	if err != nil {
		log.Fatalf("Failed to generate snapshot: %v", err)
	}

	if err := generator.WriteJSON(*output, snap); err != nil {
		log.Fatalf("Failed to write snapshot: %v", err)
	}

	windowStart := anchorDate.AddDate(0, -*months, 0)
	fmt.Printf("Generated %s household snapshot in %s\n", *profile, *output)
	fmt.Printf("Accounts: %d, Transactions: %d\n", len(snap.Accounts), len(snap.Transactions))
	fmt.Printf("Recurring payments: %d, Income streams: %d, Loans: %d\n",
		len(snap.RecurringPayments), len(snap.IncomeStreams), len(snap.Loans))
	fmt.Printf("History: %s to %s\n", windowStart.Format("2006-01-02"), anchorDate.Format("2006-01-02"))
	fmt.Printf("Seed used: %d\n", *seed)
}

// Generate builds the snapshot for the configured profile
func (sg *SnapshotGenerator) Generate() (*snapshot.Snapshot, error) {
	sg.rng = rand.New(rand.NewSource(sg.Seed))

	var snap *snapshot.Snapshot
	var spending []spendingCategory

	switch sg.Profile {
	case "comfortable":
		snap, spending = sg.comfortableProfile()
	case "stretched":
		snap, spending = sg.stretchedProfile()
	case "indebted":
		snap, spending = sg.indebtedProfile()
	default:
		return nil, fmt.Errorf("unknown profile %q (expected comfortable, stretched or indebted)", sg.Profile)
	}

	snap.GeneratedAt = sg.Anchor
	sg.fillHistory(snap, spending)

	sort.Slice(snap.Transactions, func(i, j int) bool {
		return snap.Transactions[i].Date.Before(snap.Transactions[j].Date)
	})

	return snap, nil
}

// comfortableProfile models a household with healthy buffers, an offset
// mortgage and rental income on the side.
func (sg *SnapshotGenerator) comfortableProfile() (*snapshot.Snapshot, []spendingCategory) {
	snap := &snapshot.Snapshot{
		Accounts: []*models.Account{
			{ID: "acc-everyday", Name: "Everyday", Type: models.AccountTypeTransactional, Balance: decimal.NewFromFloat(8200)},
			{ID: "acc-savings", Name: "Rainy Day", Type: models.AccountTypeSavings, Balance: decimal.NewFromFloat(42000)},
			{ID: "acc-offset", Name: "Mortgage Offset", Type: models.AccountTypeOffset, Balance: decimal.NewFromFloat(31500), LinkedLoanID: "loan-home"},
			{ID: "acc-card", Name: "Rewards Card", Type: models.AccountTypeCreditCard, Balance: decimal.NewFromFloat(-1850)},
		},
		IncomeStreams: []*models.IncomeStream{
			{ID: "inc-salary", Name: "Salary", Type: models.IncomeTypeSalary, MonthlyAmount: decimal.NewFromFloat(9800),
				Frequency: models.FrequencyFortnightly, NextDate: sg.Anchor.AddDate(0, 0, sg.rng.Intn(14)+1), Volatility: 0.05},
			{ID: "inc-rental", Name: "Unit 4 Rent", Type: models.IncomeTypeRent, MonthlyAmount: decimal.NewFromFloat(2300),
				Frequency: models.FrequencyMonthly, NextDate: sg.Anchor.AddDate(0, 0, sg.rng.Intn(28)+1), Volatility: 0.1},
		},
		Loans: []*models.LoanSchedule{
			{ID: "loan-home", Principal: decimal.NewFromFloat(385000), AnnualRate: 0.0589,
				MonthlyRepayment: decimal.NewFromFloat(2650), RepaymentDay: 15, OffsetAccountID: "acc-offset"},
		},
	}

	snap.RecurringPayments = sg.subscriptions([]*models.RecurringPayment{
		{ID: "rec-streaming", Merchant: "StreamFlix", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(17.99)},
		{ID: "rec-gym", Merchant: "Apex Fitness", Pattern: models.PatternFortnightly, ExpectedAmount: decimal.NewFromFloat(32.50)},
		{ID: "rec-insurance", Merchant: "Sentinel Insurance", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(210.40)},
		{ID: "rec-power", Merchant: "GridWorks Energy", Pattern: models.PatternQuarterly, ExpectedAmount: decimal.NewFromFloat(486.20)},
	})

	spending := []spendingCategory{
		{Category: "groceries", Merchant: "Harvest Market", Min: 80, Max: 240, PerMonth: 8},
		{Category: "fuel", Merchant: "Roadstar Fuel", Min: 70, Max: 115, PerMonth: 4},
		{Category: "dining", Merchant: "Corner Bistro", Min: 40, Max: 160, PerMonth: 5},
		{Category: "shopping", Merchant: "Galleria", Min: 30, Max: 350, PerMonth: 3},
	}

	return snap, spending
}

// stretchedProfile models a single-income household carrying a large
// mortgage with thin buffers.
func (sg *SnapshotGenerator) stretchedProfile() (*snapshot.Snapshot, []spendingCategory) {
	snap := &snapshot.Snapshot{
		Accounts: []*models.Account{
			{ID: "acc-everyday", Name: "Everyday", Type: models.AccountTypeTransactional, Balance: decimal.NewFromFloat(1900)},
			{ID: "acc-savings", Name: "Savings", Type: models.AccountTypeSavings, Balance: decimal.NewFromFloat(4200)},
			{ID: "acc-card", Name: "Credit Card", Type: models.AccountTypeCreditCard, Balance: decimal.NewFromFloat(-6400)},
		},
		IncomeStreams: []*models.IncomeStream{
			{ID: "inc-salary", Name: "Salary", Type: models.IncomeTypeSalary, MonthlyAmount: decimal.NewFromFloat(7100),
				Frequency: models.FrequencyFortnightly, NextDate: sg.Anchor.AddDate(0, 0, sg.rng.Intn(14)+1), Volatility: 0.1},
		},
		Loans: []*models.LoanSchedule{
			{ID: "loan-home", Principal: decimal.NewFromFloat(520000), AnnualRate: 0.0645,
				MonthlyRepayment: decimal.NewFromFloat(3280), RepaymentDay: 1},
		},
	}

	snap.RecurringPayments = sg.subscriptions([]*models.RecurringPayment{
		{ID: "rec-streaming", Merchant: "StreamFlix", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(25.99)},
		{ID: "rec-music", Merchant: "Tempo Music", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(13.99)},
		{ID: "rec-gym", Merchant: "Apex Fitness", Pattern: models.PatternFortnightly, ExpectedAmount: decimal.NewFromFloat(41.00)},
		{ID: "rec-insurance", Merchant: "Sentinel Insurance", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(289.70)},
		{ID: "rec-childcare", Merchant: "Little Steps", Pattern: models.PatternWeekly, ExpectedAmount: decimal.NewFromFloat(145.00)},
		{ID: "rec-power", Merchant: "GridWorks Energy", Pattern: models.PatternQuarterly, ExpectedAmount: decimal.NewFromFloat(612.80)},
	})

	spending := []spendingCategory{
		{Category: "groceries", Merchant: "Harvest Market", Min: 110, Max: 290, PerMonth: 9},
		{Category: "fuel", Merchant: "Roadstar Fuel", Min: 75, Max: 120, PerMonth: 5},
		{Category: "dining", Merchant: "Corner Bistro", Min: 35, Max: 120, PerMonth: 4},
		{Category: "kids", Merchant: "Bright Sparks", Min: 25, Max: 180, PerMonth: 3},
	}

	return snap, spending
}

// indebtedProfile models a household juggling consumer debt on gig
// income with almost no buffer.
func (sg *SnapshotGenerator) indebtedProfile() (*snapshot.Snapshot, []spendingCategory) {
	snap := &snapshot.Snapshot{
		Accounts: []*models.Account{
			{ID: "acc-everyday", Name: "Everyday", Type: models.AccountTypeTransactional, Balance: decimal.NewFromFloat(640)},
			{ID: "acc-savings", Name: "Savings", Type: models.AccountTypeSavings, Balance: decimal.NewFromFloat(850)},
			{ID: "acc-card", Name: "Credit Card", Type: models.AccountTypeCreditCard, Balance: decimal.NewFromFloat(-11200)},
		},
		IncomeStreams: []*models.IncomeStream{
			{ID: "inc-salary", Name: "Salary", Type: models.IncomeTypeSalary, MonthlyAmount: decimal.NewFromFloat(5900),
				Frequency: models.FrequencyMonthly, NextDate: sg.Anchor.AddDate(0, 0, sg.rng.Intn(28)+1), Volatility: 0.15},
			{ID: "inc-gigs", Name: "Rideshare", Type: models.IncomeTypeOther, MonthlyAmount: decimal.NewFromFloat(900),
				Frequency: models.FrequencyWeekly, NextDate: sg.Anchor.AddDate(0, 0, sg.rng.Intn(7)+1), Volatility: 0.4},
		},
		Loans: []*models.LoanSchedule{
			{ID: "loan-car", Principal: decimal.NewFromFloat(28000), AnnualRate: 0.094,
				MonthlyRepayment: decimal.NewFromFloat(610), RepaymentDay: 20},
			{ID: "loan-personal", Principal: decimal.NewFromFloat(12000), AnnualRate: 0.129,
				MonthlyRepayment: decimal.NewFromFloat(275), RepaymentDay: 5},
		},
	}

	snap.RecurringPayments = sg.subscriptions([]*models.RecurringPayment{
		{ID: "rec-streaming", Merchant: "StreamFlix", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(25.99)},
		{ID: "rec-sport", Merchant: "Sideline Sports", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(34.99)},
		{ID: "rec-music", Merchant: "Tempo Music", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(13.99)},
		{ID: "rec-phone", Merchant: "Skyline Mobile", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(89.00)},
		{ID: "rec-insurance", Merchant: "Sentinel Insurance", Pattern: models.PatternMonthly, ExpectedAmount: decimal.NewFromFloat(176.30)},
	})

	spending := []spendingCategory{
		{Category: "groceries", Merchant: "Harvest Market", Min: 60, Max: 200, PerMonth: 10},
		{Category: "fuel", Merchant: "Roadstar Fuel", Min: 60, Max: 110, PerMonth: 6},
		{Category: "dining", Merchant: "Quick Bite", Min: 15, Max: 65, PerMonth: 8},
		{Category: "entertainment", Merchant: "City Cinemas", Min: 20, Max: 90, PerMonth: 2},
	}

	return snap, spending
}

// subscriptions anchors a set of recurring payment templates around the
// snapshot date. Due days are staggered within one charge interval so
// the back-filled history never runs past the snapshot date.
func (sg *SnapshotGenerator) subscriptions(payments []*models.RecurringPayment) []*models.RecurringPayment {
	for _, payment := range payments {
		payment.AccountID = "acc-everyday"
		payment.Active = true
		payment.NextDue = sg.Anchor.AddDate(0, 0, sg.rng.Intn(intervalDays(payment.Pattern))+1)
	}
	return payments
}

func intervalDays(pattern models.RecurrencePattern) int {
	switch pattern {
	case models.PatternWeekly:
		return 7
	case models.PatternFortnightly:
		return 14
	case models.PatternQuarterly:
		return 90
	case models.PatternAnnually:
		return 365
	default:
		return 28
	}
}

// fillHistory generates the transaction history implied by the income
// streams, recurring payments, loans and spending categories.
func (sg *SnapshotGenerator) fillHistory(snap *snapshot.Snapshot, spending []spendingCategory) {
	windowStart := sg.Anchor.AddDate(0, -sg.Months, 0)
	account := primaryAccountID(snap)

	for _, stream := range snap.IncomeStreams {
		occurrence := stream.Frequency.OccurrenceAmount(stream.MonthlyAmount)
		for date := stepBack(stream.Frequency, stream.NextDate); !date.Before(windowStart); date = stepBack(stream.Frequency, date) {
			jitter := 1 + (sg.rng.Float64()*2-1)*stream.Volatility
			snap.Transactions = append(snap.Transactions, &models.Transaction{
				ID:        sg.txnID(),
				AccountID: account,
				Date:      date,
				Amount:    occurrence.Mul(decimal.NewFromFloat(jitter)).Round(2),
				Direction: models.DirectionIn,
				Category:  "income",
				Merchant:  stream.Name,
			})
		}
	}

	for _, payment := range snap.RecurringPayments {
		for date := patternBack(payment.Pattern, payment.NextDue); !date.Before(windowStart); date = patternBack(payment.Pattern, date) {
			if payment.LastCharged.IsZero() {
				payment.LastCharged = date
			}
			snap.Transactions = append(snap.Transactions, &models.Transaction{
				ID:        sg.txnID(),
				AccountID: payment.AccountID,
				Date:      date,
				Amount:    payment.ExpectedAmount,
				Direction: models.DirectionOut,
				Category:  "recurring",
				Merchant:  payment.Merchant,
				Recurring: true,
			})
		}
	}

	for _, loan := range snap.Loans {
		for m := 0; m < sg.Months; m++ {
			date := time.Date(sg.Anchor.Year(), sg.Anchor.Month()-time.Month(m), loan.RepaymentDay, 0, 0, 0, 0, time.UTC)
			if date.After(sg.Anchor) || date.Before(windowStart) {
				continue
			}
			snap.Transactions = append(snap.Transactions, &models.Transaction{
				ID:        sg.txnID(),
				AccountID: account,
				Date:      date,
				Amount:    loan.MonthlyRepayment,
				Direction: models.DirectionOut,
				Category:  "loan_repayment",
			})
		}
	}

	windowDays := int(sg.Anchor.Sub(windowStart).Hours() / 24)
	for _, category := range spending {
		for i := 0; i < category.PerMonth*sg.Months; i++ {
			date := windowStart.AddDate(0, 0, sg.rng.Intn(windowDays))
			amount := category.Min + sg.rng.Float64()*(category.Max-category.Min)
			snap.Transactions = append(snap.Transactions, &models.Transaction{
				ID:        sg.txnID(),
				AccountID: account,
				Date:      date,
				Amount:    decimal.NewFromFloat(amount).Round(2),
				Direction: models.DirectionOut,
				Category:  category.Category,
				Merchant:  category.Merchant,
			})
		}
	}
}

// WriteJSON writes the snapshot document to a file
func (sg *SnapshotGenerator) WriteJSON(filename string, snap *snapshot.Snapshot) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

func (sg *SnapshotGenerator) txnID() string {
	sg.nextTxn++
	return fmt.Sprintf("txn-%04d", sg.nextTxn)
}

// primaryAccountID returns the account day-to-day money moves through
func primaryAccountID(snap *snapshot.Snapshot) string {
	for _, account := range snap.Accounts {
		if account.Type == models.AccountTypeTransactional {
			return account.ID
		}
	}
	return snap.Accounts[0].ID
}

func stepBack(frequency models.IncomeFrequency, from time.Time) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, -7)
	case models.FrequencyFortnightly:
		return from.AddDate(0, 0, -14)
	case models.FrequencyAnnual:
		return from.AddDate(-1, 0, 0)
	default:
		return from.AddDate(0, -1, 0)
	}
}

func patternBack(pattern models.RecurrencePattern, from time.Time) time.Time {
	switch pattern {
	case models.PatternWeekly:
		return from.AddDate(0, 0, -7)
	case models.PatternFortnightly:
		return from.AddDate(0, 0, -14)
	case models.PatternQuarterly:
		return from.AddDate(0, 0, -90)
	case models.PatternAnnually:
		return from.AddDate(-1, 0, 0)
	default:
		return from.AddDate(0, -1, 0)
	}
}
