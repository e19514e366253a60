// Package paper simulates order execution against the live book: it fills
// shadow orders by crossing the spread and tracks position and profit
// without routing anything to a venue.
package paper

import "github.com/lwittchen/arthur/internal/execution"

// Entry is one executed order together with its cash effect.
type Entry struct {
	Order    execution.Order `json:"order"`
	Cashflow float64         `json:"cashflow"`
	Turnover float64         `json:"turnover"`
}

// Ledger stores executed entries newest first. It is append-only: entries
// are never modified or removed once recorded.
type Ledger struct {
	entries []Entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record prepends an entry, keeping the most recent fill at the head.
func (l *Ledger) Record(entry Entry) {
	l.entries = append([]Entry{entry}, l.entries...)
}

// Last returns the most recent entry, or false if nothing has traded yet.
func (l *Ledger) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[0], true
}

// Realized sums the cashflows of every recorded entry.
func (l *Ledger) Realized() float64 {
	var total float64
	for _, entry := range l.entries {
		total += entry.Cashflow
	}
	return total
}

// Turnover sums the absolute traded volume of every recorded entry.
func (l *Ledger) Turnover() float64 {
	var total float64
	for _, entry := range l.entries {
		total += entry.Turnover
	}
	return total
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns a copy of the ledger, newest first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
