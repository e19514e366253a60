package indicator

import (
	"fmt"

	"github.com/lwittchen/arthur/internal/market"
)

// WilliamsR computes Williams %R over the trailing lookback bars: the
// position of the latest close inside the lookback high-low range, scaled
// to [-100, 0]. A flat range yields -50 (mid-range).
func WilliamsR(bars []market.Bar, lookback int) (float64, error) {
	if lookback <= 0 {
		return 0, fmt.Errorf("williams lookback %d: %w", lookback, ErrInvalidPeriod)
	}
	if len(bars) < lookback {
		return 0, fmt.Errorf("williams needs %d bars, have %d: %w", lookback, len(bars), ErrInsufficientData)
	}

	window := bars[len(bars)-lookback:]
	highest := window[0].High
	lowest := window[0].Low
	for _, bar := range window[1:] {
		if bar.High > highest {
			highest = bar.High
		}
		if bar.Low < lowest {
			lowest = bar.Low
		}
	}

	if highest == lowest {
		return -50, nil
	}
	last := window[len(window)-1].Close
	return -100 * (highest - last) / (highest - lowest), nil
}
