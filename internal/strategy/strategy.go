// Package strategy turns market snapshots into indicators and a discrete
// trade signal. Each variant owns its own rolling history; instances are
// confined to a single trading loop and never shared between instruments.
package strategy

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/market"
)

// Signal is the discrete trading bias: +1 long, -1 short, 0 flat.
type Signal int

const (
	Short Signal = -1
	Flat  Signal = 0
	Long  Signal = 1
)

func (s Signal) String() string {
	switch {
	case s > 0:
		return "long"
	case s < 0:
		return "short"
	default:
		return "flat"
	}
}

// State describes how much history a strategy instance has seen.
type State int

const (
	// StateUninitialized means no snapshot has been processed yet.
	StateUninitialized State = iota
	// StateWarming means the rolling history is still below capacity.
	StateWarming
	// StateReady means the full history is available. A ready strategy
	// never returns to warming; on a tick with missing data it holds its
	// previous signal instead.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateWarming:
		return "warming"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// ErrNotReady marks a desired-position request before any successful update.
var ErrNotReady = errors.New("strategy has not processed a snapshot")

// NamedValue is one indicator reading. OK distinguishes a real zero from an
// unavailable value; the two must never be conflated.
type NamedValue struct {
	Name  string
	Value float64
	OK    bool
}

// Report is the full per-tick output of a strategy: every indicator,
// recomputed from scratch, plus the signal state.
type Report struct {
	Indicators []NamedValue
	Current    Signal
	Rolling    Signal
	RollingOK  bool
	Trade      Signal
	State      State
	// Degraded marks a tick where an indicator could not be computed and
	// the previous signal was held.
	Degraded bool
}

// Strategy is the per-tick computation contract shared by all variants.
type Strategy interface {
	Update(snap market.Snapshot) (Report, error)
	DesiredPosition() (float64, error)
	Name() string
}

// Params expresses the tunable knobs required by strategy constructors.
type Params struct {
	WindowSize   int
	Theta        float64
	DepthPct     float64
	ADXThreshold float64
	PositionSize float64
}

// Build returns the strategy implementation matching the configured mode.
func Build(mode string, params Params, log zerolog.Logger) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "trend":
		return NewTrend(params.WindowSize, params.ADXThreshold, params.PositionSize, log)
	case "williams", "williamsr", "wr":
		return NewWilliamsR(params.WindowSize, params.PositionSize, log)
	default:
		return NewSOBI(params.WindowSize, params.Theta, params.DepthPct, params.PositionSize, log)
	}
}
