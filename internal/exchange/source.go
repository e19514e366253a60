// Package exchange hosts the market data collaborators: everything that
// talks to a venue lives here, so the core never performs network I/O. A
// source owns its retry policy and always hands correctly sorted book sides
// to the rest of the system.
package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/market"
)

const (
	// ProviderKraken polls the Kraken public REST API once per tick.
	ProviderKraken = "kraken"
	// ProviderKrakenWS maintains a live book from the Kraken websocket feed.
	ProviderKrakenWS = "kraken-ws"
	// ProviderStub emits deterministic synthetic snapshots for offline work.
	ProviderStub = "stub"

	defaultBaseURL     = "https://api.kraken.com/0/public"
	defaultWSURL       = "wss://ws.kraken.com"
	defaultAttempts    = 5
	defaultBackoff     = 2 * time.Second
	defaultBarInterval = 1
	defaultBookDepth   = 10
)

// Source supplies one market snapshot per tick.
type Source interface {
	Name() string
	Snapshot(ctx context.Context) (market.Snapshot, error)
}

// Runner is implemented by sources that need a background connection loop.
type Runner interface {
	Run(ctx context.Context) error
}

type options struct {
	baseURL     string
	wsURL       string
	attempts    int
	backoff     time.Duration
	barInterval int
	bookDepth   int
	client      *http.Client
}

// Option configures source construction.
type Option func(*options)

// WithBaseURL overrides the REST endpoint, e.g. for tests.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithWSURL overrides the websocket endpoint.
func WithWSURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.wsURL = url
		}
	}
}

// WithRetry overrides the bounded fixed-backoff retry policy for REST calls.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if backoff >= 0 {
			o.backoff = backoff
		}
	}
}

// WithBarInterval sets the OHLC bar size in minutes.
func WithBarInterval(minutes int) Option {
	return func(o *options) {
		if minutes > 0 {
			o.barInterval = minutes
		}
	}
}

// WithBookDepth sets how many levels per side the websocket source keeps.
func WithBookDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.bookDepth = depth
		}
	}
}

// NewSource constructs a market data source for the requested provider.
func NewSource(provider, pair string, log zerolog.Logger, opts ...Option) (Source, error) {
	o := options{
		baseURL:     defaultBaseURL,
		wsURL:       defaultWSURL,
		attempts:    defaultAttempts,
		backoff:     defaultBackoff,
		barInterval: defaultBarInterval,
		bookDepth:   defaultBookDepth,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderKraken, "":
		if pair == "" {
			return nil, fmt.Errorf("kraken source requires a pair")
		}
		return newRESTSource(pair, o, log), nil
	case ProviderKrakenWS:
		if pair == "" {
			return nil, fmt.Errorf("kraken websocket source requires a pair")
		}
		return newWSSource(pair, o, log), nil
	case ProviderStub:
		return newStubSource(pair), nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q", provider)
	}
}
