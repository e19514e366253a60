package strategy

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/indicator"
	"github.com/lwittchen/arthur/internal/market"
)

// Williams %R action levels: above the upper bound the instrument is
// overbought (fade it short), below the lower bound oversold (buy it).
const (
	wrOverbought = -20
	wrOversold   = -80
)

// WilliamsR is a mean-reversion variant driven by the Williams %R momentum
// reading over the lookback window.
type WilliamsR struct {
	lookback     int
	positionSize float64

	state       State
	trade       Signal
	initialized bool

	log zerolog.Logger
}

// NewWilliamsR builds a Williams %R instance over the configured lookback.
func NewWilliamsR(lookback int, positionSize float64, log zerolog.Logger) *WilliamsR {
	if lookback <= 0 {
		lookback = 14
	}
	if positionSize <= 0 {
		positionSize = 0.1
	}
	return &WilliamsR{lookback: lookback, positionSize: positionSize, log: log}
}

// Name returns the identifier for the strategy implementation.
func (w *WilliamsR) Name() string { return "williamsr" }

// Update recomputes Williams %R from the bar history.
func (w *WilliamsR) Update(snap market.Snapshot) (Report, error) {
	wr, err := indicator.WilliamsR(snap.Bars, w.lookback)
	if err != nil {
		degraded := w.state == StateReady
		if !degraded && errors.Is(err, indicator.ErrInsufficientData) {
			w.state = StateWarming
		} else {
			w.log.Warn().Err(err).Msg("holding signal, williams %R unavailable")
		}
		return Report{
			Indicators: []NamedValue{{Name: "wr_idx"}},
			Current:    w.trade,
			Trade:      w.trade,
			State:      w.state,
			Degraded:   degraded,
		}, nil
	}

	switch {
	case wr > wrOverbought:
		w.trade = Short
	case wr < wrOversold:
		w.trade = Long
	default:
		w.trade = Flat
	}
	w.state = StateReady
	w.initialized = true

	return Report{
		Indicators: []NamedValue{{Name: "wr_idx", Value: wr, OK: true}},
		Current:    w.trade,
		Trade:      w.trade,
		State:      w.state,
	}, nil
}

// DesiredPosition returns the net exposure the strategy wants to hold.
func (w *WilliamsR) DesiredPosition() (float64, error) {
	if !w.initialized {
		return 0, ErrNotReady
	}
	return float64(w.trade) * w.positionSize, nil
}
