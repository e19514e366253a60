// Package market holds the per-tick view of the traded instrument: the
// resting order book, recent trade bars, and the prices derived from them.
package market

import (
	"errors"
	"fmt"
	"time"
)

// Side identifies one half of the order book.
type Side string

const (
	// Bid is the buy side of the book, sorted descending by price.
	Bid Side = "bid"
	// Ask is the sell side of the book, sorted ascending by price.
	Ask Side = "ask"
)

var (
	// ErrDataUnavailable marks a quantity that cannot be derived because the
	// underlying data is missing (empty book side, empty bar history, zero
	// resting volume). Callers treat it as "skip this tick", never as zero.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrInvalidParameter marks a derivation request outside the supported
	// parameter range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Level is a single resting order book entry.
type Level struct {
	Price     float64
	Volume    float64
	Timestamp int64
}

// Book is both sides of the order book. The feed that builds it guarantees
// bids descending and asks ascending by price; the best quote is therefore
// always the first entry of each side.
type Book struct {
	Bids []Level
	Asks []Level
}

// Bar is one OHLC trade bar.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	VWAP      float64
	Volume    float64
	Count     int64
}

// Snapshot is the immutable market state for one tick. It is rebuilt
// wholesale by the feed every tick and never mutated in place.
type Snapshot struct {
	Time time.Time
	Book Book
	Bars []Bar
}

// BestBid returns the highest resting bid price.
func (b Book) BestBid() (float64, error) {
	if len(b.Bids) == 0 {
		return 0, fmt.Errorf("best bid: %w", ErrDataUnavailable)
	}
	return b.Bids[0].Price, nil
}

// BestAsk returns the lowest resting ask price.
func (b Book) BestAsk() (float64, error) {
	if len(b.Asks) == 0 {
		return 0, fmt.Errorf("best ask: %w", ErrDataUnavailable)
	}
	return b.Asks[0].Price, nil
}

// Crossed reports whether the book is crossed (best bid at or above best
// ask). A crossed book is a data-quality condition: it is surfaced to the
// caller, never corrected here.
func (b Book) Crossed() (bool, error) {
	bid, err := b.BestBid()
	if err != nil {
		return false, err
	}
	ask, err := b.BestAsk()
	if err != nil {
		return false, err
	}
	return bid >= ask, nil
}

// Midprice returns the mean of the best bid and best ask.
func (b Book) Midprice() (float64, error) {
	bid, err := b.BestBid()
	if err != nil {
		return 0, err
	}
	ask, err := b.BestAsk()
	if err != nil {
		return 0, err
	}
	return (bid + ask) / 2, nil
}

// VolumeWeightedPrice computes the volume weighted mean price over the top
// depthPct percent of one side's resting volume.
//
// Entries are walked in book order; entry i is included while the cumulative
// volume through i stays at or below total*depthPct/100. If that selects
// nothing (depthPct of 0, or a target smaller than the first level), the
// first level is force-included so the result is always defined.
func (b Book) VolumeWeightedPrice(side Side, depthPct float64) (float64, error) {
	if depthPct < 0 || depthPct > 100 {
		return 0, fmt.Errorf("depth %.2f out of [0,100]: %w", depthPct, ErrInvalidParameter)
	}

	var levels []Level
	switch side {
	case Bid:
		levels = b.Bids
	case Ask:
		levels = b.Asks
	default:
		return 0, fmt.Errorf("side %q: %w", side, ErrInvalidParameter)
	}
	if len(levels) == 0 {
		return 0, fmt.Errorf("%s side empty: %w", side, ErrDataUnavailable)
	}

	var total float64
	for _, lvl := range levels {
		total += lvl.Volume
	}
	if total <= 0 {
		return 0, fmt.Errorf("%s side has no resting volume: %w", side, ErrDataUnavailable)
	}

	target := total * depthPct / 100
	var sumPV, sumV, cum float64
	for _, lvl := range levels {
		cum += lvl.Volume
		if cum > target {
			break
		}
		sumPV += lvl.Price * lvl.Volume
		sumV += lvl.Volume
	}
	if sumV == 0 {
		// Target below the first level: at least the best quote is used.
		sumPV = levels[0].Price * levels[0].Volume
		sumV = levels[0].Volume
	}
	return sumPV / sumV, nil
}

// LastPrice returns the close of the trade bar with the highest timestamp.
func (s Snapshot) LastPrice() (float64, error) {
	if len(s.Bars) == 0 {
		return 0, fmt.Errorf("last price: %w", ErrDataUnavailable)
	}
	latest := s.Bars[0]
	for _, bar := range s.Bars[1:] {
		if bar.Timestamp > latest.Timestamp {
			latest = bar
		}
	}
	return latest.Close, nil
}
