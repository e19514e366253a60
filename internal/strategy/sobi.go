package strategy

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/market"
)

// SOBI implements the static order book imbalance strategy: the asymmetry
// between the last traded price and each side's volume weighted quote,
// smoothed over a rolling window before it is allowed to move the position.
type SOBI struct {
	theta        float64
	depthPct     float64
	positionSize float64
	window       *window

	state       State
	current     Signal
	rolling     Signal
	rollingOK   bool
	trade       Signal
	initialized bool

	log zerolog.Logger
}

// NewSOBI builds a SOBI instance. Out-of-range knobs fall back to the
// defaults the live setup runs with.
func NewSOBI(windowSize int, theta, depthPct, positionSize float64, log zerolog.Logger) *SOBI {
	if windowSize <= 0 {
		windowSize = 30
	}
	if theta < 0 {
		theta = 0.5
	}
	if depthPct <= 0 || depthPct > 100 {
		depthPct = 50
	}
	if positionSize <= 0 {
		positionSize = 0.1
	}
	return &SOBI{
		theta:        theta,
		depthPct:     depthPct,
		positionSize: positionSize,
		window:       newWindow(windowSize),
		log:          log,
	}
}

// Name returns the identifier for the strategy implementation.
func (s *SOBI) Name() string { return "sobi" }

// Update recomputes indicators and signals from the snapshot. A tick whose
// indicators cannot be derived holds the previous signal and is reported as
// degraded; it never resets a ready strategy.
func (s *SOBI) Update(snap market.Snapshot) (Report, error) {
	vwBid, errBid := snap.Book.VolumeWeightedPrice(market.Bid, s.depthPct)
	vwAsk, errAsk := snap.Book.VolumeWeightedPrice(market.Ask, s.depthPct)
	last, errLast := snap.LastPrice()

	if err := errors.Join(errBid, errAsk, errLast); err != nil {
		s.log.Warn().Err(err).Msg("holding signal, indicators unavailable")
		return Report{
			Indicators: []NamedValue{
				{Name: "vw_bid", Value: vwBid, OK: errBid == nil},
				{Name: "vw_ask", Value: vwAsk, OK: errAsk == nil},
				{Name: "last_price", Value: last, OK: errLast == nil},
			},
			Current:   s.current,
			Rolling:   s.rolling,
			RollingOK: s.rollingOK,
			Trade:     s.trade,
			State:     s.state,
			Degraded:  true,
		}, nil
	}

	imbBid := last - vwBid
	imbAsk := vwAsk - last
	s.window.push(imbalancePair{bid: imbBid, ask: imbAsk})
	s.current = sobiSignal(imbBid, imbAsk, s.theta)

	var rollBid, rollAsk float64
	if s.window.full() {
		rollBid, rollAsk = s.window.mean()
		s.rolling = sobiSignal(rollBid, rollAsk, s.theta)
		s.rollingOK = true
		// The externally visible signal is the smoothed one.
		s.trade = s.rolling
		s.state = StateReady
	} else {
		s.state = StateWarming
	}
	s.initialized = true

	return Report{
		Indicators: []NamedValue{
			{Name: "vw_bid", Value: vwBid, OK: true},
			{Name: "vw_ask", Value: vwAsk, OK: true},
			{Name: "last_price", Value: last, OK: true},
			{Name: "imb_bid", Value: imbBid, OK: true},
			{Name: "imb_ask", Value: imbAsk, OK: true},
			{Name: "rolling_imb_bid", Value: rollBid, OK: s.rollingOK},
			{Name: "rolling_imb_ask", Value: rollAsk, OK: s.rollingOK},
		},
		Current:   s.current,
		Rolling:   s.rolling,
		RollingOK: s.rollingOK,
		Trade:     s.trade,
		State:     s.state,
	}, nil
}

// DesiredPosition returns the net exposure the strategy wants to hold.
func (s *SOBI) DesiredPosition() (float64, error) {
	if !s.initialized {
		return 0, ErrNotReady
	}
	return float64(s.trade) * s.positionSize, nil
}

// sobiSignal applies the theta rule to a pair of imbalances. For theta >= 0
// the long and short branches are mutually exclusive.
func sobiSignal(imbBid, imbAsk, theta float64) Signal {
	switch {
	case imbAsk-imbBid > theta:
		return Long
	case imbBid-imbAsk > theta:
		return Short
	default:
		return Flat
	}
}
