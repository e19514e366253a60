// Package indicator holds the bar-history indicator math used by the trend
// style strategies. Everything here is recomputed from the supplied history
// on each call; rolling state lives with the strategy, not here.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/lwittchen/arthur/internal/market"
)

var (
	// ErrInsufficientData marks a history too short for the requested period.
	ErrInsufficientData = errors.New("not enough bars")
	// ErrInvalidPeriod marks a non-positive lookback period.
	ErrInvalidPeriod = errors.New("period must be positive")
)

// ADXResult bundles the directional strength index with its positive and
// negative directional components, all in [0,100].
type ADXResult struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX computes the average directional index over the bar history using
// Wilder smoothing: true range and directional movement are smoothed with
// factor 1/period (SMA seeded), the directional indicators are the ratio of
// smoothed movement to smoothed true range, and ADX is the smoothed
// normalized difference of the two.
//
// Needs at least 2*period+1 bars: period for the smoothing seed and another
// period of DX values before the first ADX exists.
func ADX(bars []market.Bar, period int) (ADXResult, error) {
	if period <= 0 {
		return ADXResult{}, fmt.Errorf("adx period %d: %w", period, ErrInvalidPeriod)
	}
	if len(bars) < 2*period+1 {
		return ADXResult{}, fmt.Errorf("adx needs %d bars, have %d: %w", 2*period+1, len(bars), ErrInsufficientData)
	}

	n := len(bars)
	tr := make([]float64, n-1)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		cur, prev := bars[i], bars[i-1]
		tr[i-1] = trueRange(cur, prev)

		up := cur.High - prev.High
		down := prev.Low - cur.Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	// Wilder smoothing seed: plain sum over the first period, then
	// sm = sm - sm/period + current.
	var smTR, smPlus, smMinus float64
	for i := 0; i < period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	p := float64(period)
	var plusDI, minusDI float64
	var adx float64
	var dxCount int
	for i := period; i <= len(tr); i++ {
		plusDI, minusDI = directionalIndicators(smTR, smPlus, smMinus)
		dx := 0.0
		if plusDI+minusDI > 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
		}

		dxCount++
		if dxCount <= period {
			adx += dx
			if dxCount == period {
				adx /= p
			}
		} else {
			adx = (adx*(p-1) + dx) / p
		}

		if i == len(tr) {
			break
		}
		smTR = smTR - smTR/p + tr[i]
		smPlus = smPlus - smPlus/p + plusDM[i]
		smMinus = smMinus - smMinus/p + minusDM[i]
	}

	return ADXResult{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}, nil
}

func trueRange(cur, prev market.Bar) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

func directionalIndicators(smTR, smPlus, smMinus float64) (float64, float64) {
	if smTR <= 0 {
		return 0, 0
	}
	return 100 * smPlus / smTR, 100 * smMinus / smTR
}
