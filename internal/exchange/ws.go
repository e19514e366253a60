package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/market"
)

const maxBars = 720

// wsSource maintains a live market view from the Kraken public websocket:
// the depth ladder is rebuilt from the book snapshot plus delta messages,
// bar history from the ohlc channel. Run owns the connection; Snapshot only
// copies the current state, so the trading loop never blocks on the wire.
type wsSource struct {
	url   string
	pair  string
	depth int
	log   zerolog.Logger

	mu       sync.RWMutex
	bids     []market.Level
	asks     []market.Level
	bars     []market.Bar
	synced   bool
	lastSeen time.Time
}

func newWSSource(pair string, o options, log zerolog.Logger) *wsSource {
	return &wsSource{url: o.wsURL, pair: pair, depth: o.bookDepth, log: log}
}

func (w *wsSource) Name() string { return ProviderKrakenWS }

// Snapshot copies the current book and bar state. Before the first book
// snapshot arrives the data is unavailable, not empty.
func (w *wsSource) Snapshot(ctx context.Context) (market.Snapshot, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.synced {
		return market.Snapshot{}, fmt.Errorf("websocket book not synced: %w", market.ErrDataUnavailable)
	}
	snap := market.Snapshot{
		Time: w.lastSeen,
		Book: market.Book{
			Bids: append([]market.Level(nil), w.bids...),
			Asks: append([]market.Level(nil), w.asks...),
		},
		Bars: append([]market.Bar(nil), w.bars...),
	}
	return snap, nil
}

// Run keeps the websocket subscription alive until the context is
// canceled, reconnecting with growing backoff on failure.
func (w *wsSource) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Warn().Err(err).Msg("kraken websocket disconnected, retrying")
			w.mu.Lock()
			w.synced = false
			w.mu.Unlock()
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (w *wsSource) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	subs := []map[string]any{
		{"event": "subscribe", "pair": []string{w.pair}, "subscription": map[string]any{"name": "book", "depth": w.depth}},
		{"event": "subscribe", "pair": []string{w.pair}, "subscription": map[string]any{"name": "ohlc", "interval": 1}},
	}
	for _, sub := range subs {
		if err := conn.WriteJSON(sub); err != nil {
			return err
		}
	}
	w.log.Info().Str("pair", w.pair).Int("depth", w.depth).Msg("subscribed to kraken websocket")

	conn.SetReadLimit(1 << 20)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := conn.SetReadDeadline(time.Now().Add(30 * time.Second)); err != nil {
			return err
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := w.handleMessage(message); err != nil {
			w.log.Warn().Err(err).Msg("skipping malformed websocket message")
		}
	}
}

// channel payload shapes. A book message carries either the initial
// snapshot (as/bs) or deltas (a/b); both sides can arrive in one frame.
type bookPayload struct {
	AskSnapshot [][]any `json:"as"`
	BidSnapshot [][]any `json:"bs"`
	AskDeltas   [][]any `json:"a"`
	BidDeltas   [][]any `json:"b"`
}

func (w *wsSource) handleMessage(message []byte) error {
	var frame []json.RawMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		// Non-array frames are events (heartbeat, subscriptionStatus).
		return nil
	}
	if len(frame) < 4 {
		return fmt.Errorf("short channel frame")
	}

	var channel string
	if err := json.Unmarshal(frame[len(frame)-2], &channel); err != nil {
		return fmt.Errorf("channel name: %w", err)
	}

	for _, payload := range frame[1 : len(frame)-2] {
		switch {
		case strings.HasPrefix(channel, "book"):
			var book bookPayload
			if err := json.Unmarshal(payload, &book); err != nil {
				return fmt.Errorf("book payload: %w", err)
			}
			if err := w.applyBook(book); err != nil {
				return err
			}
		case strings.HasPrefix(channel, "ohlc"):
			var row []any
			if err := json.Unmarshal(payload, &row); err != nil {
				return fmt.Errorf("ohlc payload: %w", err)
			}
			if err := w.applyOHLC(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *wsSource) applyBook(payload bookPayload) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(payload.BidSnapshot) > 0 || len(payload.AskSnapshot) > 0 {
		bids, err := parseLevels(payload.BidSnapshot)
		if err != nil {
			return err
		}
		asks, err := parseLevels(payload.AskSnapshot)
		if err != nil {
			return err
		}
		book := sortBook(bids, asks)
		w.bids, w.asks = book.Bids, book.Asks
		w.synced = true
	}

	if len(payload.BidDeltas) > 0 {
		deltas, err := parseLevels(payload.BidDeltas)
		if err != nil {
			return err
		}
		w.bids = applyDeltas(w.bids, deltas, w.depth, func(i, j market.Level) bool { return i.Price > j.Price })
	}
	if len(payload.AskDeltas) > 0 {
		deltas, err := parseLevels(payload.AskDeltas)
		if err != nil {
			return err
		}
		w.asks = applyDeltas(w.asks, deltas, w.depth, func(i, j market.Level) bool { return i.Price < j.Price })
	}
	w.lastSeen = time.Now().UTC()
	return nil
}

// applyDeltas upserts price levels into one sorted side. A delta with zero
// volume removes the level; the side is re-sorted and truncated to depth.
func applyDeltas(side []market.Level, deltas []market.Level, depth int, less func(i, j market.Level) bool) []market.Level {
	for _, delta := range deltas {
		idx := -1
		for i, lvl := range side {
			if lvl.Price == delta.Price {
				idx = i
				break
			}
		}
		switch {
		case delta.Volume == 0 && idx >= 0:
			side = append(side[:idx], side[idx+1:]...)
		case idx >= 0:
			side[idx] = delta
		case delta.Volume > 0:
			side = append(side, delta)
		}
	}
	sort.Slice(side, func(i, j int) bool { return less(side[i], side[j]) })
	if len(side) > depth {
		side = side[:depth]
	}
	return side
}

// applyOHLC merges one ohlc row: [time, etime, open, high, low, close,
// vwap, volume, count]. Rows sharing an end time update the same bar.
func (w *wsSource) applyOHLC(row []any) error {
	if len(row) < 9 {
		return fmt.Errorf("ohlc row has %d fields", len(row))
	}
	vals := make([]float64, 9)
	for i := range vals {
		v, err := asFloat(row[i])
		if err != nil {
			return err
		}
		vals[i] = v
	}
	bar := market.Bar{
		Timestamp: int64(vals[1]),
		Open:      vals[2],
		High:      vals[3],
		Low:       vals[4],
		Close:     vals[5],
		VWAP:      vals[6],
		Volume:    vals[7],
		Count:     int64(vals[8]),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if n := len(w.bars); n > 0 && w.bars[n-1].Timestamp == bar.Timestamp {
		w.bars[n-1] = bar
	} else {
		w.bars = append(w.bars, bar)
		if len(w.bars) > maxBars {
			w.bars = w.bars[1:]
		}
	}
	w.lastSeen = time.Now().UTC()
	return nil
}
