package paper

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/execution"
	"github.com/lwittchen/arthur/internal/market"
	"github.com/lwittchen/arthur/internal/metrics"
)

// ErrNoMarketState marks a rebalance or valuation attempted before any
// market snapshot was supplied. The caller must skip the tick and retry
// with fresh data rather than trade at a stale or default price.
var ErrNoMarketState = errors.New("no market state")

// FillRecorder receives every executed entry, e.g. for a JSONL audit trail.
type FillRecorder interface {
	Record(Entry)
}

// Simulator converts a desired position into shadow fills. Fills are
// aggressive and unconditional: a buy lifts the best ask, a sell hits the
// best bid, always for the full delta. That deliberately models the
// worst-case cost of crossing the spread.
//
// A Simulator is owned by a single trading loop and is not safe for
// concurrent use.
type Simulator struct {
	position float64
	ledger   *Ledger
	snap     *market.Snapshot
	recorder FillRecorder
	log      zerolog.Logger
}

// Option configures Simulator construction.
type Option func(*Simulator)

// WithRecorder attaches a fill recorder that sees every executed entry.
func WithRecorder(r FillRecorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// NewSimulator builds a flat simulator with an empty ledger.
func NewSimulator(log zerolog.Logger, opts ...Option) *Simulator {
	s := &Simulator{ledger: NewLedger(), log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateMarketState replaces the stored snapshot reference. Pure
// assignment; nothing is computed here.
func (s *Simulator) UpdateMarketState(snap market.Snapshot) {
	s.snap = &snap
}

// Rebalance moves the position to desired by executing at most one
// aggressive order for the difference. A zero delta is a no-op that leaves
// ledger and position untouched and returns no order.
func (s *Simulator) Rebalance(desired float64) (*execution.Order, error) {
	if s.snap == nil {
		return nil, fmt.Errorf("rebalance: %w", ErrNoMarketState)
	}

	delta := desired - s.position
	if delta == 0 {
		return nil, nil
	}

	var side execution.Side
	var price float64
	var err error
	if delta > 0 {
		side = execution.Buy
		price, err = s.snap.Book.BestAsk()
	} else {
		side = execution.Sell
		price, err = s.snap.Book.BestBid()
	}
	if err != nil {
		return nil, fmt.Errorf("rebalance: %w", err)
	}

	order := execution.Order{
		ID:     s.snap.Time.Format(time.RFC3339Nano),
		Side:   side,
		Price:  price,
		Volume: math.Abs(delta),
	}
	entry := Entry{Order: order, Cashflow: order.Cashflow(), Turnover: math.Abs(delta)}
	s.ledger.Record(entry)
	if s.recorder != nil {
		s.recorder.Record(entry)
	}
	s.position = desired

	metrics.OrdersTotal.WithLabelValues(string(side)).Inc()
	metrics.Position.Set(s.position)
	s.log.Debug().Stringer("order", order).Float64("position", s.position).Msg("executed shadow order")
	return &order, nil
}

// CurrentProfit returns realized plus unrealized profit. The open position
// is marked conservatively: a long at the price it could be sold into (the
// bid), a short at the price it would cost to cover (the ask), never at the
// midpoint or the entry price.
func (s *Simulator) CurrentProfit() (float64, error) {
	if s.snap == nil {
		return 0, fmt.Errorf("profit: %w", ErrNoMarketState)
	}

	unrealized := 0.0
	switch {
	case s.position > 0:
		bid, err := s.snap.Book.BestBid()
		if err != nil {
			return 0, fmt.Errorf("profit: %w", err)
		}
		unrealized = s.position * bid
	case s.position < 0:
		ask, err := s.snap.Book.BestAsk()
		if err != nil {
			return 0, fmt.Errorf("profit: %w", err)
		}
		unrealized = s.position * ask
	}
	return s.ledger.Realized() + unrealized, nil
}

// LastOrder returns the most recently executed order, or false if nothing
// has traded yet.
func (s *Simulator) LastOrder() (execution.Order, bool) {
	entry, ok := s.ledger.Last()
	return entry.Order, ok
}

// Position returns the current net exposure.
func (s *Simulator) Position() float64 { return s.position }

// Ledger exposes the append-only fill history for reporting.
func (s *Simulator) Ledger() *Ledger { return s.ledger }
