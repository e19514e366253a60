package strategy

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/indicator"
	"github.com/lwittchen/arthur/internal/market"
)

// Trend trades in the direction of the smoothed directional movement of the
// bar history once the directional strength index clears a threshold.
type Trend struct {
	windowSize   int
	adxThreshold float64
	positionSize float64

	state       State
	trade       Signal
	initialized bool

	log zerolog.Logger
}

// NewTrend builds a trend instance over the configured lookback.
func NewTrend(windowSize int, adxThreshold, positionSize float64, log zerolog.Logger) *Trend {
	if windowSize <= 0 {
		windowSize = 14
	}
	if adxThreshold <= 0 {
		adxThreshold = 20
	}
	if positionSize <= 0 {
		positionSize = 0.1
	}
	return &Trend{
		windowSize:   windowSize,
		adxThreshold: adxThreshold,
		positionSize: positionSize,
		log:          log,
	}
}

// Name returns the identifier for the strategy implementation.
func (t *Trend) Name() string { return "trend" }

// Update recomputes ADX and its directional components from the full bar
// history. Too little history keeps the strategy warming; once ready, a
// tick without usable bars holds the previous signal.
func (t *Trend) Update(snap market.Snapshot) (Report, error) {
	res, err := indicator.ADX(snap.Bars, t.windowSize)
	if err != nil {
		degraded := t.state == StateReady
		if !degraded && errors.Is(err, indicator.ErrInsufficientData) {
			t.state = StateWarming
		} else {
			t.log.Warn().Err(err).Msg("holding signal, adx unavailable")
		}
		return Report{
			Indicators: []NamedValue{
				{Name: "adx_idx"},
				{Name: "adx_pos"},
				{Name: "adx_neg"},
			},
			Current:  t.trade,
			Trade:    t.trade,
			State:    t.state,
			Degraded: degraded,
		}, nil
	}

	t.trade = trendSignal(res, t.adxThreshold)
	t.state = StateReady
	t.initialized = true

	return Report{
		Indicators: []NamedValue{
			{Name: "adx_idx", Value: res.ADX, OK: true},
			{Name: "adx_pos", Value: res.PlusDI, OK: true},
			{Name: "adx_neg", Value: res.MinusDI, OK: true},
		},
		Current: t.trade,
		Trade:   t.trade,
		State:   t.state,
	}, nil
}

// DesiredPosition returns the net exposure the strategy wants to hold.
func (t *Trend) DesiredPosition() (float64, error) {
	if !t.initialized {
		return 0, ErrNotReady
	}
	return float64(t.trade) * t.positionSize, nil
}

// trendSignal follows the direction of the stronger component, but only
// when the trend itself is strong enough to act on.
func trendSignal(res indicator.ADXResult, threshold float64) Signal {
	if res.ADX <= threshold {
		return Flat
	}
	switch {
	case res.PlusDI > res.MinusDI:
		return Long
	case res.MinusDI > res.PlusDI:
		return Short
	default:
		return Flat
	}
}
