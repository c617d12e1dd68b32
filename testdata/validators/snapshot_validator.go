package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"golang-cashflow-engine/internal/models"

	"github.com/shopspring/decimal"
)

// SnapshotValidator checks a household snapshot document independently
// of the engine's loader: every record is decoded and validated, IDs
// are checked for duplicates and references for dangling targets, and
// stale or implausible values are flagged as warnings.
type SnapshotValidator struct {
	Verbose bool
	Strict  bool
}

// ValidationResult represents the outcome of validating one snapshot
type ValidationResult struct {
	FilePath string
	IsValid  bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
	Summary  ValidationSummary
}

// ValidationIssue pins a problem to a section entry
type ValidationIssue struct {
	Section string
	Entry   int
	Field   string
	Message string
	Value   string
}

// ValidationSummary provides aggregate snapshot statistics
type ValidationSummary struct {
	SectionCounts    map[string]int
	DateRange        DateRange
	BalancesByType   map[string]decimal.Decimal
	MonthlyIncome    decimal.Decimal
	MonthlyOutgoings decimal.Decimal
}

// DateRange represents the span of transaction dates in the snapshot
type DateRange struct {
	Min time.Time
	Max time.Time
}

// document mirrors the snapshot layout with undecoded sections so each
// record can be checked individually
type document struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	Accounts          []json.RawMessage `json:"accounts"`
	Transactions      []json.RawMessage `json:"transactions"`
	RecurringPayments []json.RawMessage `json:"recurring_payments"`
	IncomeStreams     []json.RawMessage `json:"income_streams"`
	Loans             []json.RawMessage `json:"loans"`
}

func main() {
	var (
		input   = flag.String("input", "", "Snapshot JSON file to validate")
		verbose = flag.Bool("verbose", false, "Show every error and warning")
		strict  = flag.Bool("strict", false, "Treat warnings as errors")
	)
	flag.Parse()

	if *input == "" {
		fmt.Println("Household Snapshot Validator")
		fmt.Println("============================")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  go run snapshot_validator.go -input=<snapshot.json> [options]")
		fmt.Println()
		fmt.Println("Options:")
		fmt.Println("  -input=FILE        Snapshot document to validate")
		fmt.Println("  -verbose           Show detailed validation output")
		fmt.Println("  -strict            Treat warnings as errors")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  go run snapshot_validator.go -input=household.json")
		fmt.Println("  go run snapshot_validator.go -input=household.json -verbose -strict")
		return
	}

	validator := &SnapshotValidator{
		Verbose: *verbose,
		Strict:  *strict,
	}

	result := validator.ValidateFile(*input)
	validator.PrintResult(result)

	if !result.IsValid {
		os.Exit(1)
	}
}

// ValidateFile validates a single snapshot document
func (sv *SnapshotValidator) ValidateFile(filePath string) ValidationResult {
	result := ValidationResult{
		FilePath: filePath,
		Summary: ValidationSummary{
			SectionCounts:  make(map[string]int),
			BalancesByType: make(map[string]decimal.Decimal),
		},
	}

	file, err := os.Open(filePath)
	if err != nil {
		result.addError("", -1, "", fmt.Sprintf("Cannot open file: %v", err), "")
		return result
	}
	defer file.Close()

	var doc document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		result.addError("", -1, "", fmt.Sprintf("Cannot parse snapshot: %v", err), "")
		return result
	}

	if len(doc.Accounts) == 0 && len(doc.Transactions) == 0 && len(doc.RecurringPayments) == 0 &&
		len(doc.IncomeStreams) == 0 && len(doc.Loans) == 0 {
		result.addError("", -1, "", "Snapshot holds no records", "")
		return result
	}

	accounts := sv.validateAccounts(doc.Accounts, &result)
	transactions := sv.validateTransactions(doc.Transactions, doc.GeneratedAt, &result)
	payments := sv.validateRecurringPayments(doc.RecurringPayments, doc.GeneratedAt, &result)
	streams := sv.validateIncomeStreams(doc.IncomeStreams, doc.GeneratedAt, &result)
	loans := sv.validateLoans(doc.Loans, &result)

	sv.checkReferences(accounts, transactions, payments, loans, &result)
	sv.buildSummary(accounts, transactions, payments, streams, loans, &result)

	result.IsValid = len(result.Errors) == 0
	if sv.Strict && len(result.Warnings) > 0 {
		result.IsValid = false
	}

	return result
}

func (sv *SnapshotValidator) validateAccounts(raws []json.RawMessage, result *ValidationResult) []*models.Account {
	accounts := make([]*models.Account, 0, len(raws))
	seen := make(map[string]int)

	for i, raw := range raws {
		var account models.Account
		if err := json.Unmarshal(raw, &account); err != nil {
			result.addError("accounts", i, "", fmt.Sprintf("Cannot decode record: %v", err), "")
			continue
		}

		if err := account.Validate(); err != nil {
			result.addError("accounts", i, "", err.Error(), "")
			continue
		}

		if first, exists := seen[account.ID]; exists {
			result.addError("accounts", i, "id",
				fmt.Sprintf("Duplicate account ID (first seen at entry %d)", first), account.ID)
			continue
		}
		seen[account.ID] = i

		if account.Type == models.AccountTypeCreditCard && account.Balance.IsPositive() {
			result.addWarning("accounts", i, "balance",
				"Credit card balance is positive, expected zero or negative", account.Balance.String())
		}

		accounts = append(accounts, &account)
	}

	result.Summary.SectionCounts["accounts"] = len(accounts)
	return accounts
}

func (sv *SnapshotValidator) validateTransactions(raws []json.RawMessage, generatedAt time.Time, result *ValidationResult) []*models.Transaction {
	transactions := make([]*models.Transaction, 0, len(raws))
	seen := make(map[string]int)

	for i, raw := range raws {
		var txn models.Transaction
		if err := json.Unmarshal(raw, &txn); err != nil {
			result.addError("transactions", i, "", fmt.Sprintf("Cannot decode record: %v", err), "")
			continue
		}

		if err := txn.Validate(); err != nil {
			result.addError("transactions", i, "", err.Error(), "")
			continue
		}

		if first, exists := seen[txn.ID]; exists {
			result.addWarning("transactions", i, "id",
				fmt.Sprintf("Duplicate transaction ID (first seen at entry %d)", first), txn.ID)
		} else {
			seen[txn.ID] = i
		}

		if !generatedAt.IsZero() && txn.Date.After(generatedAt) {
			result.addWarning("transactions", i, "date",
				"Transaction is dated after the snapshot was generated", txn.Date.Format("2006-01-02"))
		}

		transactions = append(transactions, &txn)
	}

	result.Summary.SectionCounts["transactions"] = len(transactions)
	return transactions
}

func (sv *SnapshotValidator) validateRecurringPayments(raws []json.RawMessage, generatedAt time.Time, result *ValidationResult) []*models.RecurringPayment {
	payments := make([]*models.RecurringPayment, 0, len(raws))
	seen := make(map[string]int)

	for i, raw := range raws {
		var payment models.RecurringPayment
		if err := json.Unmarshal(raw, &payment); err != nil {
			result.addError("recurring_payments", i, "", fmt.Sprintf("Cannot decode record: %v", err), "")
			continue
		}

		if err := payment.Validate(); err != nil {
			result.addError("recurring_payments", i, "", err.Error(), "")
			continue
		}

		if first, exists := seen[payment.ID]; exists {
			result.addWarning("recurring_payments", i, "id",
				fmt.Sprintf("Duplicate payment ID (first seen at entry %d)", first), payment.ID)
		} else {
			seen[payment.ID] = i
		}

		if !generatedAt.IsZero() && !payment.NextDue.IsZero() && payment.NextDue.Before(generatedAt) {
			result.addWarning("recurring_payments", i, "next_due",
				"Next due date is before the snapshot date", payment.NextDue.Format("2006-01-02"))
		}

		payments = append(payments, &payment)
	}

	result.Summary.SectionCounts["recurring_payments"] = len(payments)
	return payments
}

func (sv *SnapshotValidator) validateIncomeStreams(raws []json.RawMessage, generatedAt time.Time, result *ValidationResult) []*models.IncomeStream {
	streams := make([]*models.IncomeStream, 0, len(raws))
	seen := make(map[string]int)

	for i, raw := range raws {
		var stream models.IncomeStream
		if err := json.Unmarshal(raw, &stream); err != nil {
			result.addError("income_streams", i, "", fmt.Sprintf("Cannot decode record: %v", err), "")
			continue
		}

		if err := stream.Validate(); err != nil {
			result.addError("income_streams", i, "", err.Error(), "")
			continue
		}

		if first, exists := seen[stream.ID]; exists {
			result.addWarning("income_streams", i, "id",
				fmt.Sprintf("Duplicate stream ID (first seen at entry %d)", first), stream.ID)
		} else {
			seen[stream.ID] = i
		}

		if !generatedAt.IsZero() && stream.NextDate.Before(generatedAt) {
			result.addWarning("income_streams", i, "next_date",
				"Next payout date is before the snapshot date", stream.NextDate.Format("2006-01-02"))
		}

		streams = append(streams, &stream)
	}

	result.Summary.SectionCounts["income_streams"] = len(streams)
	return streams
}

func (sv *SnapshotValidator) validateLoans(raws []json.RawMessage, result *ValidationResult) []*models.LoanSchedule {
	loans := make([]*models.LoanSchedule, 0, len(raws))
	seen := make(map[string]int)

	for i, raw := range raws {
		var loan models.LoanSchedule
		if err := json.Unmarshal(raw, &loan); err != nil {
			result.addError("loans", i, "", fmt.Sprintf("Cannot decode record: %v", err), "")
			continue
		}

		if err := loan.Validate(); err != nil {
			result.addError("loans", i, "", err.Error(), "")
			continue
		}

		if first, exists := seen[loan.ID]; exists {
			result.addWarning("loans", i, "id",
				fmt.Sprintf("Duplicate loan ID (first seen at entry %d)", first), loan.ID)
		} else {
			seen[loan.ID] = i
		}

		if !loan.InterestOnly && loan.MonthlyRepayment.IsPositive() &&
			loan.MonthlyRepayment.LessThan(loan.MonthlyInterest()) {
			result.addWarning("loans", i, "monthly_repayment",
				fmt.Sprintf("Repayment does not cover the monthly interest of %s", loan.MonthlyInterest().String()),
				loan.MonthlyRepayment.String())
		}

		loans = append(loans, &loan)
	}

	result.Summary.SectionCounts["loans"] = len(loans)
	return loans
}

// checkReferences flags IDs that point at records the snapshot does not
// contain, matching the cross checks the engine's loader performs.
func (sv *SnapshotValidator) checkReferences(accounts []*models.Account, transactions []*models.Transaction,
	payments []*models.RecurringPayment, loans []*models.LoanSchedule, result *ValidationResult) {

	accountIDs := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		accountIDs[account.ID] = true
	}
	loanIDs := make(map[string]bool, len(loans))
	for _, loan := range loans {
		loanIDs[loan.ID] = true
	}

	for i, txn := range transactions {
		if !accountIDs[txn.AccountID] {
			result.addWarning("transactions", i, "account_id", "References an unknown account", txn.AccountID)
		}
	}

	for i, payment := range payments {
		if !accountIDs[payment.AccountID] {
			result.addWarning("recurring_payments", i, "account_id", "References an unknown account", payment.AccountID)
		}
	}

	for i, account := range accounts {
		if account.LinkedLoanID != "" && !loanIDs[account.LinkedLoanID] {
			result.addWarning("accounts", i, "linked_loan_id", "References an unknown loan", account.LinkedLoanID)
		}
	}

	for i, loan := range loans {
		if loan.OffsetAccountID != "" && !accountIDs[loan.OffsetAccountID] {
			result.addWarning("loans", i, "offset_account_id", "References an unknown account", loan.OffsetAccountID)
		}
	}
}

func (sv *SnapshotValidator) buildSummary(accounts []*models.Account, transactions []*models.Transaction,
	payments []*models.RecurringPayment, streams []*models.IncomeStream, loans []*models.LoanSchedule,
	result *ValidationResult) {

	for _, account := range accounts {
		key := account.Type.String()
		result.Summary.BalancesByType[key] = result.Summary.BalancesByType[key].Add(account.Balance)
	}

	for _, txn := range transactions {
		if result.Summary.DateRange.Min.IsZero() || txn.Date.Before(result.Summary.DateRange.Min) {
			result.Summary.DateRange.Min = txn.Date
		}
		if txn.Date.After(result.Summary.DateRange.Max) {
			result.Summary.DateRange.Max = txn.Date
		}
	}

	for _, stream := range streams {
		result.Summary.MonthlyIncome = result.Summary.MonthlyIncome.Add(stream.MonthlyAmount)
	}

	for _, payment := range payments {
		if payment.Active {
			result.Summary.MonthlyOutgoings = result.Summary.MonthlyOutgoings.Add(payment.MonthlyAmount())
		}
	}
	for _, loan := range loans {
		result.Summary.MonthlyOutgoings = result.Summary.MonthlyOutgoings.Add(loan.MonthlyRepayment)
	}
}

// PrintResult prints the validation outcome to the console
func (sv *SnapshotValidator) PrintResult(result ValidationResult) {
	fmt.Println("Snapshot Validation")
	fmt.Println("===================")
	fmt.Printf("\nFile: %s\n", result.FilePath)

	if result.IsValid {
		fmt.Printf("Status: ✓ VALID\n")
	} else {
		fmt.Printf("Status: ✗ INVALID\n")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("Errors: %d\n", len(result.Errors))
		if sv.Verbose {
			for _, issue := range result.Errors {
				fmt.Printf("  %s\n", issue.format())
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("Warnings: %d\n", len(result.Warnings))
		if sv.Verbose {
			for _, issue := range result.Warnings {
				fmt.Printf("  %s\n", issue.format())
			}
		}
	}

	totalRecords := 0
	for _, count := range result.Summary.SectionCounts {
		totalRecords += count
	}

	if totalRecords > 0 {
		fmt.Printf("Summary:\n")
		for _, section := range []string{"accounts", "transactions", "recurring_payments", "income_streams", "loans"} {
			fmt.Printf("  %s: %d\n", section, result.Summary.SectionCounts[section])
		}
		if !result.Summary.DateRange.Min.IsZero() {
			fmt.Printf("  Transaction dates: %s to %s\n",
				result.Summary.DateRange.Min.Format("2006-01-02"),
				result.Summary.DateRange.Max.Format("2006-01-02"))
		}
		for _, accountType := range []string{"TRANSACTIONAL", "SAVINGS", "OFFSET", "CREDIT_CARD"} {
			if balance, ok := result.Summary.BalancesByType[accountType]; ok {
				fmt.Printf("  Balance %s: %s\n", accountType, balance.String())
			}
		}
		if !result.Summary.MonthlyIncome.IsZero() || !result.Summary.MonthlyOutgoings.IsZero() {
			fmt.Printf("  Monthly income: %s, monthly commitments: %s\n",
				result.Summary.MonthlyIncome.String(), result.Summary.MonthlyOutgoings.String())
		}
	}

	if result.IsValid {
		fmt.Printf("\nResult: ✓ SNAPSHOT VALID\n")
	} else {
		fmt.Printf("\nResult: ✗ VALIDATION FAILED\n")
	}
}

func (r *ValidationResult) addError(section string, entry int, field, message, value string) {
	r.Errors = append(r.Errors, ValidationIssue{Section: section, Entry: entry, Field: field, Message: message, Value: value})
}

func (r *ValidationResult) addWarning(section string, entry int, field, message, value string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Section: section, Entry: entry, Field: field, Message: message, Value: value})
}

func (i ValidationIssue) format() string {
	location := i.Section
	if location == "" {
		location = "document"
	}
	if i.Entry >= 0 {
		location = fmt.Sprintf("%s[%d]", location, i.Entry)
	}
	if i.Field != "" {
		location = fmt.Sprintf("%s.%s", location, i.Field)
	}
	if i.Value != "" {
		return fmt.Sprintf("%s: %s (value: %s)", location, i.Message, i.Value)
	}
	return fmt.Sprintf("%s: %s", location, i.Message)
}
