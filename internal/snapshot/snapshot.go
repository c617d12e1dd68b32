// Package snapshot loads household financial snapshots from JSON documents.
//
// A snapshot is a point-in-time export of accounts, transaction history,
// recurring payments, income streams and loans. Accounts are the skeleton
// of the document: a bad account fails the load. Records in the other
// sections are optional, so one that fails to parse or validate is skipped
// with a warning and counted in the load statistics rather than aborting
// the run.
//
// Example usage:
//
//	loader := snapshot.NewLoader(nil)
//	snap, stats, err := loader.LoadFile("household.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(stats)
//	forecastInput := snap.ForecastInput()
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/models"
	pkgerrors "golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"
)

// Config controls snapshot loading behaviour
type Config struct {
	// Strict fails the load on any bad record instead of skipping the
	// optional ones
	Strict bool `json:"strict"`
}

// DefaultConfig returns the standard loader settings
func DefaultConfig() *Config {
	return &Config{
		Strict: false,
	}
}

// Snapshot is a decoded household snapshot
type Snapshot struct {
	GeneratedAt       time.Time                  `json:"generated_at"`
	Accounts          []*models.Account          `json:"accounts"`
	Transactions      []*models.Transaction      `json:"transactions"`
	RecurringPayments []*models.RecurringPayment `json:"recurring_payments"`
	IncomeStreams     []*models.IncomeStream     `json:"income_streams"`
	Loans             []*models.LoanSchedule     `json:"loans"`
}

// ForecastInput maps the snapshot onto simulation input
func (s *Snapshot) ForecastInput() forecast.Input {
	return forecast.Input{
		Accounts:          s.Accounts,
		Transactions:      s.Transactions,
		RecurringPayments: s.RecurringPayments,
		IncomeStreams:     s.IncomeStreams,
		Loans:             s.Loans,
	}
}

// document is the raw JSON layout. Sections stay undecoded so one
// unparseable record cannot take the whole file down.
type document struct {
	GeneratedAt       time.Time         `json:"generated_at"`
	Accounts          []json.RawMessage `json:"accounts"`
	Transactions      []json.RawMessage `json:"transactions"`
	RecurringPayments []json.RawMessage `json:"recurring_payments"`
	IncomeStreams     []json.RawMessage `json:"income_streams"`
	Loans             []json.RawMessage `json:"loans"`
}

func (d *document) isEmpty() bool {
	return len(d.Accounts) == 0 &&
		len(d.Transactions) == 0 &&
		len(d.RecurringPayments) == 0 &&
		len(d.IncomeStreams) == 0 &&
		len(d.Loans) == 0
}

// SectionStats counts the records of one snapshot section
type SectionStats struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// LoadStats summarises a load: how much of each section survived and
// every warning raised along the way
type LoadStats struct {
	Accounts          SectionStats `json:"accounts"`
	Transactions      SectionStats `json:"transactions"`
	RecurringPayments SectionStats `json:"recurring_payments"`
	IncomeStreams     SectionStats `json:"income_streams"`
	Loans             SectionStats `json:"loans"`
	Warnings          []string     `json:"warnings,omitempty"`
}

// TotalLoaded returns the number of records kept across all sections
func (ls *LoadStats) TotalLoaded() int {
	return ls.Accounts.Loaded + ls.Transactions.Loaded + ls.RecurringPayments.Loaded +
		ls.IncomeStreams.Loaded + ls.Loans.Loaded
}

// TotalSkipped returns the number of records dropped across all sections
func (ls *LoadStats) TotalSkipped() int {
	return ls.Accounts.Skipped + ls.Transactions.Skipped + ls.RecurringPayments.Skipped +
		ls.IncomeStreams.Skipped + ls.Loans.Skipped
}

// HasSkips returns true if any record was dropped
func (ls *LoadStats) HasSkips() bool {
	return ls.TotalSkipped() > 0
}

// String returns a human-readable summary of the load
func (ls *LoadStats) String() string {
	return fmt.Sprintf("Loaded %d records (%d skipped, %d warnings)",
		ls.TotalLoaded(), ls.TotalSkipped(), len(ls.Warnings))
}

func (ls *LoadStats) warn(format string, args ...interface{}) {
	ls.Warnings = append(ls.Warnings, fmt.Sprintf(format, args...))
}

// Loader reads and validates snapshot documents
type Loader struct {
	config *Config
	logger logger.Logger
}

// NewLoader creates a loader with the given configuration
func NewLoader(config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}

	return &Loader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("snapshot_loader"),
	}
}

// LoadFile opens and loads a snapshot document from disk
func (l *Loader) LoadFile(path string) (*Snapshot, *LoadStats, error) {
	l.logger.WithField("file_path", path).Debug("Opening snapshot file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.WithError(err).WithField("file_path", path).Error("Failed to open snapshot file")

		if os.IsNotExist(err) {
			return nil, nil, pkgerrors.FileError(pkgerrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, pkgerrors.FileError(pkgerrors.CodeFilePermission, path, err)
		}
		return nil, nil, pkgerrors.FileError(pkgerrors.CodeDirectoryError, path, err)
	}
	defer file.Close()

	return l.load(file, path)
}

// Load reads a snapshot document from a reader
func (l *Loader) Load(r io.Reader) (*Snapshot, *LoadStats, error) {
	return l.load(r, "")
}

func (l *Loader) load(r io.Reader, name string) (*Snapshot, *LoadStats, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		l.logger.WithError(err).WithField("file_path", name).Error("Failed to decode snapshot")
		return nil, nil, pkgerrors.SnapshotError(pkgerrors.CodeDecodeError, name, "", "not a valid snapshot document", err).
			WithSuggestion("Check that the file is valid JSON with a snapshot layout")
	}

	if doc.isEmpty() {
		return nil, nil, pkgerrors.SnapshotError(pkgerrors.CodeEmptySnapshot, name, "", "the document holds no records", nil).
			WithSuggestion("Export the snapshot again with at least one account or record")
	}

	stats := &LoadStats{}
	snap := &Snapshot{GeneratedAt: doc.GeneratedAt}

	accounts, err := l.loadAccounts(doc.Accounts, name, stats)
	if err != nil {
		return nil, nil, err
	}
	snap.Accounts = accounts

	snap.Transactions, err = loadSection[models.Transaction](l, doc.Transactions, name, "transactions", &stats.Transactions, stats)
	if err != nil {
		return nil, nil, err
	}
	snap.RecurringPayments, err = loadSection[models.RecurringPayment](l, doc.RecurringPayments, name, "recurring_payments", &stats.RecurringPayments, stats)
	if err != nil {
		return nil, nil, err
	}
	snap.IncomeStreams, err = loadSection[models.IncomeStream](l, doc.IncomeStreams, name, "income_streams", &stats.IncomeStreams, stats)
	if err != nil {
		return nil, nil, err
	}
	snap.Loans, err = loadSection[models.LoanSchedule](l, doc.Loans, name, "loans", &stats.Loans, stats)
	if err != nil {
		return nil, nil, err
	}

	l.crossCheck(snap, name, stats)

	l.logger.WithFields(logger.Fields{
		"file_path": name,
		"loaded":    stats.TotalLoaded(),
		"skipped":   stats.TotalSkipped(),
		"warnings":  len(stats.Warnings),
	}).Info("Snapshot loaded")

	return snap, stats, nil
}

// decodeRecord unmarshals and validates one raw entry
func decodeRecord[T any, PT interface {
	*T
	Validate() error
}](raw json.RawMessage) (PT, error) {
	if isNullRaw(raw) {
		return nil, fmt.Errorf("entry is null")
	}

	record := PT(new(T))
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, err
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

func isNullRaw(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// loadAccounts decodes the account section. Any bad account fails the
// load since every other record hangs off one.
func (l *Loader) loadAccounts(raws []json.RawMessage, name string, stats *LoadStats) ([]*models.Account, error) {
	loaded := make([]*models.Account, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for i, raw := range raws {
		account, err := decodeRecord[models.Account](raw)
		if err != nil {
			return nil, pkgerrors.InvalidRecordError(name, "accounts", i, err)
		}

		if seen[account.ID] {
			return nil, pkgerrors.DuplicateIDError(name, "accounts", i, account.ID)
		}
		seen[account.ID] = true

		loaded = append(loaded, account)
	}

	stats.Accounts.Loaded = len(loaded)
	return loaded, nil
}

// loadSection decodes one optional section, skipping bad records unless
// the loader is strict
func loadSection[T any, PT interface {
	*T
	Validate() error
}](l *Loader, raws []json.RawMessage, name, section string, counts *SectionStats, stats *LoadStats) ([]PT, error) {
	loaded := make([]PT, 0, len(raws))

	for i, raw := range raws {
		record, err := decodeRecord[T, PT](raw)
		if err != nil {
			recordErr := pkgerrors.InvalidRecordError(name, section, i, err)
			if l.config.Strict {
				return nil, recordErr
			}

			counts.Skipped++
			stats.warn("%s", recordErr.Warning())
			l.logger.WithFields(logger.Fields{
				"section": section,
				"entry":   i,
			}).WithError(err).Warn("Skipping invalid snapshot record")
			continue
		}

		loaded = append(loaded, record)
	}

	counts.Loaded = len(loaded)
	return loaded, nil
}

// crossCheck warns about dangling references between sections. The
// records stay loaded; a reference to a missing account just means the
// attribution falls back to defaults downstream.
func (l *Loader) crossCheck(snap *Snapshot, name string, stats *LoadStats) {
	accountIDs := make(map[string]bool, len(snap.Accounts))
	for _, account := range snap.Accounts {
		accountIDs[account.ID] = true
	}
	loanIDs := make(map[string]bool, len(snap.Loans))
	for _, loan := range snap.Loans {
		loanIDs[loan.ID] = true
	}

	dangling := func(section, recordID, field, kind, target string) {
		err := pkgerrors.DanglingReferenceError(name, section, recordID, field, kind, target)
		stats.warn("%s", err.Warning())
	}

	for _, txn := range snap.Transactions {
		if !accountIDs[txn.AccountID] {
			dangling("transactions", txn.ID, "account_id", "account", txn.AccountID)
		}
	}

	for _, payment := range snap.RecurringPayments {
		if !accountIDs[payment.AccountID] {
			dangling("recurring_payments", payment.ID, "account_id", "account", payment.AccountID)
		}
	}

	for _, account := range snap.Accounts {
		if account.LinkedLoanID != "" && !loanIDs[account.LinkedLoanID] {
			dangling("accounts", account.ID, "linked_loan_id", "loan", account.LinkedLoanID)
		}
	}

	for _, loan := range snap.Loans {
		if loan.OffsetAccountID != "" && !accountIDs[loan.OffsetAccountID] {
			dangling("loans", loan.ID, "offset_account_id", "account", loan.OffsetAccountID)
		}
	}
}
