// Package timeline projects scheduled cash movements onto the forecast window.
//
// Three generators expand the scheduled inputs into dated cash events:
//   - Recurring payments stepped by their recurrence pattern
//   - Income streams stepped at their payout frequency
//   - Loan repayments on their monthly repayment day
//
// Events are collected into a Timeline, which keeps a date-keyed index so the
// simulator can look up a day's events in constant time. Occurrences that fall
// before the forecast anchor seed the stepping but are never emitted, so
// schedules stay aligned without drifting.
package timeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"golang-cashflow-engine/internal/models"
)

// EventKind classifies what produced a cash event
type EventKind string

const (
	// EventIncome is an income stream payout
	EventIncome EventKind = "INCOME"
	// EventRecurring is a recurring payment charge
	EventRecurring EventKind = "RECURRING"
	// EventLoan is a scheduled loan repayment
	EventLoan EventKind = "LOAN"
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	return string(k)
}

// Event represents a single projected cash movement on a calendar day.
// Income and loan events leave AccountID empty; the simulator attributes
// them according to its cost attribution mode.
type Event struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Kind      EventKind       `json:"kind"`
	AccountID string          `json:"account_id,omitempty"`
	Source    string          `json:"source,omitempty"`
	SourceID  string          `json:"source_id,omitempty"`
}

// Timeline holds projected events with a date-keyed index for day lookups
type Timeline struct {
	events []Event
	byDate map[string][]Event
	sorted bool
}

// NewTimeline creates an empty timeline
func NewTimeline() *Timeline {
	return &Timeline{
		events: []Event{},
		byDate: make(map[string][]Event),
		sorted: true,
	}
}

// Add appends an event and indexes it by day
func (t *Timeline) Add(event Event) {
	t.events = append(t.events, event)
	key := models.DateKey(event.Date)
	t.byDate[key] = append(t.byDate[key], event)
	t.sorted = false
}

// Len returns the number of events on the timeline
func (t *Timeline) Len() int {
	return len(t.events)
}

// Events returns all events ordered by date
func (t *Timeline) Events() []Event {
	t.ensureSorted()
	return t.events
}

// OnDay returns the events falling on the given calendar day
func (t *Timeline) OnDay(day time.Time) []Event {
	return t.byDate[models.DateKey(day)]
}

// TotalOnDay sums the event amounts on the given calendar day
func (t *Timeline) TotalOnDay(day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, event := range t.byDate[models.DateKey(day)] {
		total = total.Add(event.Amount)
	}
	return total
}

// Between returns the events within the date range (inclusive)
func (t *Timeline) Between(start, end time.Time) []Event {
	var result []Event

	current := normaliseDay(start)
	last := normaliseDay(end)
	for !current.After(last) {
		if events, exists := t.byDate[models.DateKey(current)]; exists {
			result = append(result, events...)
		}
		current = current.AddDate(0, 0, 1)
	}

	return result
}

// Merge combines this timeline with another into a new timeline
func (t *Timeline) Merge(other *Timeline) *Timeline {
	merged := NewTimeline()
	for _, event := range t.events {
		merged.Add(event)
	}
	if other != nil {
		for _, event := range other.events {
			merged.Add(event)
		}
	}
	merged.ensureSorted()
	return merged
}

func (t *Timeline) ensureSorted() {
	if t.sorted {
		return
	}
	sort.SliceStable(t.events, func(i, j int) bool {
		return t.events[i].Date.Before(t.events[j].Date)
	})
	t.sorted = true
}

// normaliseDay truncates a time to midnight UTC so events generated from
// inputs in different locations index under the same day key.
func normaliseDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
