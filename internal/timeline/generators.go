package timeline

import (
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/models"
	"golang-cashflow-engine/pkg/logger"
)

// NetIncomeFunc converts a gross income occurrence into its net amount.
// This is the boundary to an external tax or withholding calculator; the
// engine applies it to salary streams only.
type NetIncomeFunc func(gross decimal.Decimal, frequency models.IncomeFrequency) decimal.Decimal

// PassthroughNet returns income unchanged. Used when no withholding
// calculator is configured.
func PassthroughNet(gross decimal.Decimal, _ models.IncomeFrequency) decimal.Decimal {
	return gross
}

// Generator expands scheduled inputs into dated cash events within the
// forecast window [anchor, anchor+horizon days].
type Generator struct {
	anchor  time.Time
	horizon int
	end     time.Time
	logger  logger.Logger
}

// NewGenerator creates a generator for the given anchor day and horizon.
// The anchor is truncated to its calendar day.
func NewGenerator(anchor time.Time, horizonDays int) *Generator {
	day := normaliseDay(anchor)
	if horizonDays < 0 {
		horizonDays = 0
	}

	return &Generator{
		anchor:  day,
		horizon: horizonDays,
		end:     day.AddDate(0, 0, horizonDays),
		logger:  logger.GetGlobalLogger().WithComponent("timeline"),
	}
}

// Recurring projects active recurring payments onto the window.
// Each payment anchors on its next due date when known, otherwise one
// recurrence step after its last charge.
func (g *Generator) Recurring(payments []*models.RecurringPayment) *Timeline {
	tl := NewTimeline()

	for _, payment := range payments {
		if payment == nil || !payment.Active {
			continue
		}
		if !payment.ExpectedAmount.IsPositive() {
			continue
		}

		occurrence := normaliseDay(payment.NextDue)
		if payment.NextDue.IsZero() {
			occurrence = normaliseDay(payment.Pattern.Step(payment.LastCharged))
		}

		// Past occurrences advance the schedule without being emitted
		for occurrence.Before(g.anchor) {
			occurrence = payment.Pattern.Step(occurrence)
		}

		for !occurrence.After(g.end) {
			tl.Add(Event{
				Date:      occurrence,
				Amount:    payment.ExpectedAmount,
				Kind:      EventRecurring,
				AccountID: payment.AccountID,
				Source:    payment.Merchant,
				SourceID:  payment.ID,
			})
			occurrence = payment.Pattern.Step(occurrence)
		}
	}

	g.logger.WithFields(logger.Fields{
		"payments": len(payments),
		"events":   tl.Len(),
	}).Debug("Recurring payment timeline generated")

	tl.ensureSorted()
	return tl
}

// Income projects income streams onto the window. Salary occurrences pass
// through the supplied withholding function; other income types are taken
// as-is. A nil function means no withholding.
func (g *Generator) Income(streams []*models.IncomeStream, net NetIncomeFunc) *Timeline {
	if net == nil {
		net = PassthroughNet
	}

	tl := NewTimeline()

	for _, stream := range streams {
		if stream == nil || !stream.MonthlyAmount.IsPositive() {
			continue
		}

		gross := stream.Frequency.OccurrenceAmount(stream.MonthlyAmount)
		amount := gross
		if stream.Type == models.IncomeTypeSalary {
			amount = net(gross, stream.Frequency)
		}

		occurrence := normaliseDay(stream.NextDate)
		for occurrence.Before(g.anchor) {
			occurrence = stream.Frequency.Next(occurrence)
		}

		for !occurrence.After(g.end) {
			tl.Add(Event{
				Date:     occurrence,
				Amount:   amount,
				Kind:     EventIncome,
				Source:   stream.Name,
				SourceID: stream.ID,
			})
			occurrence = stream.Frequency.Next(occurrence)
		}
	}

	g.logger.WithFields(logger.Fields{
		"streams": len(streams),
		"events":  tl.Len(),
	}).Debug("Income timeline generated")

	tl.ensureSorted()
	return tl
}

// Loans projects monthly loan repayments onto the window, landing on each
// loan's repayment day.
func (g *Generator) Loans(loans []*models.LoanSchedule) *Timeline {
	tl := NewTimeline()

	for _, loan := range loans {
		if loan == nil || !loan.MonthlyRepayment.IsPositive() {
			continue
		}

		occurrence := time.Date(g.anchor.Year(), g.anchor.Month(), loan.RepaymentDay, 0, 0, 0, 0, time.UTC)
		if occurrence.Before(g.anchor) {
			occurrence = occurrence.AddDate(0, 1, 0)
		}

		for !occurrence.After(g.end) {
			tl.Add(Event{
				Date:     occurrence,
				Amount:   loan.MonthlyRepayment,
				Kind:     EventLoan,
				Source:   loan.ID,
				SourceID: loan.ID,
			})
			occurrence = occurrence.AddDate(0, 1, 0)
		}
	}

	g.logger.WithFields(logger.Fields{
		"loans":  len(loans),
		"events": tl.Len(),
	}).Debug("Loan repayment timeline generated")

	tl.ensureSorted()
	return tl
}
