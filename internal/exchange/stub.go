package exchange

import (
	"context"
	"time"

	"github.com/lwittchen/arthur/internal/market"
)

// stubSource emits deterministic synthetic snapshots: a ten-level book with
// unit volumes around a slowly drifting mid, plus a matching bar ramp.
// Useful for tests and offline runs.
type stubSource struct {
	pair string
	tick int
	bars []market.Bar
}

func newStubSource(pair string) *stubSource {
	return &stubSource{pair: pair}
}

func (s *stubSource) Name() string { return ProviderStub }

func (s *stubSource) Snapshot(ctx context.Context) (market.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return market.Snapshot{}, err
	}

	s.tick++
	mid := 20.0 + 0.1*float64(s.tick)
	ts := int64(1_700_000_000 + 60*s.tick)

	book := market.Book{}
	for i := 0; i < 10; i++ {
		book.Bids = append(book.Bids, market.Level{Price: mid - 1 - float64(i), Volume: 1, Timestamp: ts})
		book.Asks = append(book.Asks, market.Level{Price: mid + 1 + float64(i), Volume: 1, Timestamp: ts})
	}

	s.bars = append(s.bars, market.Bar{
		Timestamp: ts,
		Open:      mid - 0.1,
		High:      mid + 0.2,
		Low:       mid - 0.2,
		Close:     mid,
		VWAP:      mid,
		Volume:    10,
		Count:     5,
	})
	if len(s.bars) > maxBars {
		s.bars = s.bars[1:]
	}

	return market.Snapshot{
		Time: time.Unix(ts, 0).UTC(),
		Book: book,
		Bars: append([]market.Bar(nil), s.bars...),
	}, nil
}
