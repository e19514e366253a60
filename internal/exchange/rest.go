package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/market"
)

// restSource polls the Kraken public REST API. Each Snapshot issues the
// Time, Depth and OHLC queries and assembles the result; transient HTTP
// failures are retried a bounded number of times with a fixed backoff.
type restSource struct {
	client      *http.Client
	baseURL     string
	pair        string
	barInterval int
	attempts    int
	backoff     time.Duration
	log         zerolog.Logger
}

func newRESTSource(pair string, o options, log zerolog.Logger) *restSource {
	return &restSource{
		client:      o.client,
		baseURL:     o.baseURL,
		pair:        pair,
		barInterval: o.barInterval,
		attempts:    o.attempts,
		backoff:     o.backoff,
		log:         log,
	}
}

func (r *restSource) Name() string { return ProviderKraken }

// Snapshot fetches server time, order book and bar history and builds one
// immutable snapshot. Any failure surfaces as an error; a partially filled
// snapshot is never returned.
func (r *restSource) Snapshot(ctx context.Context) (market.Snapshot, error) {
	ts, err := r.serverTime(ctx)
	if err != nil {
		return market.Snapshot{}, err
	}
	book, err := r.orderBook(ctx)
	if err != nil {
		return market.Snapshot{}, err
	}
	bars, err := r.ohlc(ctx)
	if err != nil {
		return market.Snapshot{}, err
	}
	return market.Snapshot{Time: ts, Book: book, Bars: bars}, nil
}

type krakenResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (r *restSource) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff):
			}
		}
		raw, err := r.getOnce(ctx, endpoint, params)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		r.log.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("kraken request failed")
	}
	return nil, fmt.Errorf("%s after %d attempts: %w", endpoint, r.attempts, lastErr)
}

func (r *restSource) getOnce(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	target := r.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var kr krakenResponse
	if err := json.NewDecoder(resp.Body).Decode(&kr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(kr.Error) > 0 {
		return nil, fmt.Errorf("kraken error: %v", kr.Error)
	}
	return kr.Result, nil
}

func (r *restSource) serverTime(ctx context.Context) (time.Time, error) {
	raw, err := r.get(ctx, "Time", nil)
	if err != nil {
		return time.Time{}, err
	}
	var result struct {
		Unixtime int64 `json:"unixtime"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return time.Time{}, fmt.Errorf("parse server time: %w", err)
	}
	return time.Unix(result.Unixtime, 0).UTC(), nil
}

func (r *restSource) orderBook(ctx context.Context) (market.Book, error) {
	raw, err := r.get(ctx, "Depth", url.Values{"pair": {r.pair}})
	if err != nil {
		return market.Book{}, err
	}
	var result map[string]struct {
		Asks [][]any `json:"asks"`
		Bids [][]any `json:"bids"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return market.Book{}, fmt.Errorf("parse depth: %w", err)
	}
	for _, payload := range result {
		bids, err := parseLevels(payload.Bids)
		if err != nil {
			return market.Book{}, fmt.Errorf("parse bids: %w", err)
		}
		asks, err := parseLevels(payload.Asks)
		if err != nil {
			return market.Book{}, fmt.Errorf("parse asks: %w", err)
		}
		return sortBook(bids, asks), nil
	}
	return market.Book{}, fmt.Errorf("depth response missing pair %s", r.pair)
}

func (r *restSource) ohlc(ctx context.Context) ([]market.Bar, error) {
	params := url.Values{"pair": {r.pair}, "interval": {strconv.Itoa(r.barInterval)}}
	raw, err := r.get(ctx, "OHLC", params)
	if err != nil {
		return nil, err
	}
	var result map[string]json.RawMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse ohlc: %w", err)
	}
	for key, payload := range result {
		if key == "last" {
			continue
		}
		var rows [][]any
		if err := json.Unmarshal(payload, &rows); err != nil {
			return nil, fmt.Errorf("parse ohlc rows: %w", err)
		}
		return parseBars(rows)
	}
	return nil, fmt.Errorf("ohlc response missing pair %s", r.pair)
}

// parseLevels converts raw [price, volume, timestamp] triples. Kraken
// encodes prices and volumes as strings and timestamps as numbers.
func parseLevels(rows [][]any) ([]market.Level, error) {
	levels := make([]market.Level, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("level row has %d fields", len(row))
		}
		price, err := asFloat(row[0])
		if err != nil {
			return nil, err
		}
		volume, err := asFloat(row[1])
		if err != nil {
			return nil, err
		}
		ts, err := asFloat(row[2])
		if err != nil {
			return nil, err
		}
		levels = append(levels, market.Level{Price: price, Volume: volume, Timestamp: int64(ts)})
	}
	return levels, nil
}

// parseBars converts raw [time, open, high, low, close, vwap, volume, count]
// rows into bars.
func parseBars(rows [][]any) ([]market.Bar, error) {
	bars := make([]market.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 8 {
			return nil, fmt.Errorf("ohlc row has %d fields", len(row))
		}
		vals := make([]float64, 8)
		for i := range vals {
			v, err := asFloat(row[i])
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		bars = append(bars, market.Bar{
			Timestamp: int64(vals[0]),
			Open:      vals[1],
			High:      vals[2],
			Low:       vals[3],
			Close:     vals[4],
			VWAP:      vals[5],
			Volume:    vals[6],
			Count:     int64(vals[7]),
		})
	}
	return bars, nil
}

// sortBook enforces the ordering invariant the core relies on: bids
// descending, asks ascending by price.
func sortBook(bids, asks []market.Level) market.Book {
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })
	return market.Book{Bids: bids, Asks: asks}
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	case json.Number:
		return t.Float64()
	default:
		return 0, fmt.Errorf("unexpected field type %T", v)
	}
}
