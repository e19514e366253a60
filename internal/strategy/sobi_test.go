package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/market"
)

// Ten levels per side with unit volume: at depth 50 the volume weighted
// quotes are 17 (bid) and 23 (ask).
func sobiSnapshot(lastPrice float64) market.Snapshot {
	book := market.Book{}
	for i := 0; i < 10; i++ {
		book.Bids = append(book.Bids, market.Level{Price: float64(19 - i), Volume: 1})
		book.Asks = append(book.Asks, market.Level{Price: float64(21 + i), Volume: 1})
	}
	return market.Snapshot{
		Time: time.Unix(1000, 0),
		Book: book,
		Bars: []market.Bar{{Timestamp: 999, Close: lastPrice}},
	}
}

func TestSOBIBalancedBookIsFlat(t *testing.T) {
	strat := NewSOBI(1, 0.5, 50, 0.1, zerolog.Nop())

	// vw_bid=17, vw_ask=23, last=20: both imbalances are 3, difference 0.
	rep, err := strat.Update(sobiSnapshot(20))
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rep.Current != Flat {
		t.Fatalf("expected flat signal, got %v", rep.Current)
	}
	for _, ind := range rep.Indicators {
		switch ind.Name {
		case "imb_bid", "imb_ask":
			if !ind.OK || ind.Value != 3 {
				t.Fatalf("expected %s = 3, got %+v", ind.Name, ind)
			}
		}
	}
}

func TestSOBISignalDirections(t *testing.T) {
	// Last trading below mid: the ask imbalance dominates, buy pressure.
	strat := NewSOBI(1, 0.5, 50, 0.1, zerolog.Nop())
	rep, err := strat.Update(sobiSnapshot(19))
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rep.Current != Long || rep.Trade != Long {
		t.Fatalf("expected long signal, got current=%v trade=%v", rep.Current, rep.Trade)
	}

	// Last trading above mid: sell pressure.
	strat = NewSOBI(1, 0.5, 50, 0.1, zerolog.Nop())
	rep, err = strat.Update(sobiSnapshot(21))
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rep.Current != Short {
		t.Fatalf("expected short signal, got %v", rep.Current)
	}
}

func TestSOBISignalMutuallyExclusive(t *testing.T) {
	for _, theta := range []float64{0, 0.1, 0.5, 2} {
		for imbBid := -3.0; imbBid <= 3; imbBid += 0.5 {
			for imbAsk := -3.0; imbAsk <= 3; imbAsk += 0.5 {
				sig := sobiSignal(imbBid, imbAsk, theta)
				if sig < Short || sig > Long {
					t.Fatalf("signal out of range for bid=%.1f ask=%.1f theta=%.1f", imbBid, imbAsk, theta)
				}
				if sig == Long && imbBid-imbAsk > theta {
					t.Fatalf("long and short branches overlap at bid=%.1f ask=%.1f theta=%.1f", imbBid, imbAsk, theta)
				}
			}
		}
	}
}

func TestSOBIWarmingHoldsTradeFlat(t *testing.T) {
	strat := NewSOBI(3, 0.5, 50, 0.1, zerolog.Nop())

	rep, err := strat.Update(sobiSnapshot(19))
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rep.State != StateWarming {
		t.Fatalf("expected warming state, got %v", rep.State)
	}
	if rep.Current != Long {
		t.Fatalf("instantaneous signal should fire while warming, got %v", rep.Current)
	}
	if rep.Trade != Flat || rep.RollingOK {
		t.Fatalf("trade signal must stay flat until the window fills")
	}

	desired, err := strat.DesiredPosition()
	if err != nil {
		t.Fatalf("DesiredPosition returned error: %v", err)
	}
	if desired != 0 {
		t.Fatalf("expected flat desired position while warming, got %.2f", desired)
	}
}

func TestSOBIReadyAfterWindowFills(t *testing.T) {
	strat := NewSOBI(3, 0.5, 50, 0.1, zerolog.Nop())

	var rep Report
	for i := 0; i < 3; i++ {
		var err error
		rep, err = strat.Update(sobiSnapshot(19))
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
	}
	if rep.State != StateReady {
		t.Fatalf("expected ready state, got %v", rep.State)
	}
	if !rep.RollingOK || rep.Rolling != Long || rep.Trade != Long {
		t.Fatalf("expected rolling long signal, got %+v", rep)
	}

	desired, err := strat.DesiredPosition()
	if err != nil {
		t.Fatalf("DesiredPosition returned error: %v", err)
	}
	if desired != 0.1 {
		t.Fatalf("expected desired position 0.1, got %.2f", desired)
	}
}

func TestSOBIDegradedTickHoldsSignal(t *testing.T) {
	strat := NewSOBI(1, 0.5, 50, 0.1, zerolog.Nop())
	if _, err := strat.Update(sobiSnapshot(19)); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	// Empty trade history: last price is unavailable this tick.
	broken := sobiSnapshot(19)
	broken.Bars = nil
	rep, err := strat.Update(broken)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !rep.Degraded {
		t.Fatalf("expected degraded tick")
	}
	if rep.State != StateReady {
		t.Fatalf("ready strategy must not fall back to warming, got %v", rep.State)
	}
	if rep.Trade != Long {
		t.Fatalf("degraded tick must hold the previous signal, got %v", rep.Trade)
	}

	desired, err := strat.DesiredPosition()
	if err != nil {
		t.Fatalf("DesiredPosition returned error: %v", err)
	}
	if desired != 0.1 {
		t.Fatalf("expected held desired position 0.1, got %.2f", desired)
	}
}

func TestSOBIDesiredPositionBeforeUpdate(t *testing.T) {
	strat := NewSOBI(3, 0.5, 50, 0.1, zerolog.Nop())
	if _, err := strat.DesiredPosition(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	// A degraded first tick is not a successful update either.
	broken := sobiSnapshot(19)
	broken.Bars = nil
	if _, err := strat.Update(broken); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, err := strat.DesiredPosition(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady after degraded first tick, got %v", err)
	}
}
