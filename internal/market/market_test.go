package market

import (
	"errors"
	"math"
	"testing"
	"time"
)

// Ten levels per side, unit volume: bids 19..10 descending, asks 21..30
// ascending.
func testBook() Book {
	book := Book{}
	for i := 0; i < 10; i++ {
		book.Bids = append(book.Bids, Level{Price: float64(19 - i), Volume: 1, Timestamp: int64(999 - i)})
		book.Asks = append(book.Asks, Level{Price: float64(21 + i), Volume: 1, Timestamp: int64(999 + i)})
	}
	return book
}

func TestBestBidAsk(t *testing.T) {
	book := testBook()

	bid, err := book.BestBid()
	if err != nil {
		t.Fatalf("BestBid returned error: %v", err)
	}
	if bid != 19 {
		t.Fatalf("expected best bid 19, got %.2f", bid)
	}

	ask, err := book.BestAsk()
	if err != nil {
		t.Fatalf("BestAsk returned error: %v", err)
	}
	if ask != 21 {
		t.Fatalf("expected best ask 21, got %.2f", ask)
	}
}

func TestMidprice(t *testing.T) {
	book := testBook()
	mid, err := book.Midprice()
	if err != nil {
		t.Fatalf("Midprice returned error: %v", err)
	}
	if mid != 20 {
		t.Fatalf("expected midprice 20, got %.2f", mid)
	}
}

func TestBestQuotesEmptySide(t *testing.T) {
	book := Book{Asks: testBook().Asks}
	if _, err := book.BestBid(); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if _, err := book.Midprice(); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable from midprice, got %v", err)
	}
}

func TestVolumeWeightedPrice(t *testing.T) {
	book := testBook()
	cases := []struct {
		name  string
		side  Side
		depth float64
		want  float64
	}{
		{"bid top of book", Bid, 1, 19},
		{"bid half depth", Bid, 50, 17},
		{"bid full depth", Bid, 100, 14.5},
		{"bid zero depth forces best quote", Bid, 0, 19},
		{"ask top of book", Ask, 1, 21},
		{"ask full depth", Ask, 100, 25.5},
	}
	for _, tc := range cases {
		got, err := book.VolumeWeightedPrice(tc.side, tc.depth)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: expected %.2f, got %.4f", tc.name, tc.want, got)
		}
	}
}

func TestVolumeWeightedPriceInvalidParameter(t *testing.T) {
	book := testBook()
	if _, err := book.VolumeWeightedPrice(Bid, -1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for negative depth, got %v", err)
	}
	if _, err := book.VolumeWeightedPrice(Bid, 101); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for depth over 100, got %v", err)
	}
	if _, err := book.VolumeWeightedPrice(Side("mid"), 50); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for unknown side, got %v", err)
	}
}

func TestVolumeWeightedPriceUnavailable(t *testing.T) {
	empty := Book{}
	if _, err := empty.VolumeWeightedPrice(Bid, 50); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for empty side, got %v", err)
	}

	zeroVol := Book{Bids: []Level{{Price: 19, Volume: 0}, {Price: 18, Volume: 0}}}
	if _, err := zeroVol.VolumeWeightedPrice(Bid, 50); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for zero resting volume, got %v", err)
	}
}

func TestCrossedBookSurfaced(t *testing.T) {
	crossed := Book{
		Bids: []Level{{Price: 22, Volume: 1}},
		Asks: []Level{{Price: 21, Volume: 1}},
	}
	isCrossed, err := crossed.Crossed()
	if err != nil {
		t.Fatalf("Crossed returned error: %v", err)
	}
	if !isCrossed {
		t.Fatalf("expected crossed book to be reported")
	}

	// Quotes are returned as supplied, not corrected.
	bid, _ := crossed.BestBid()
	ask, _ := crossed.BestAsk()
	if bid != 22 || ask != 21 {
		t.Fatalf("expected raw quotes 22/21, got %.2f/%.2f", bid, ask)
	}
}

func TestLastPriceMaxTimestamp(t *testing.T) {
	snap := Snapshot{
		Time: time.Now(),
		Bars: []Bar{
			{Timestamp: 100, Close: 10},
			{Timestamp: 300, Close: 30},
			{Timestamp: 200, Close: 20},
		},
	}
	last, err := snap.LastPrice()
	if err != nil {
		t.Fatalf("LastPrice returned error: %v", err)
	}
	if last != 30 {
		t.Fatalf("expected close of latest bar 30, got %.2f", last)
	}
}

func TestLastPriceEmptyHistory(t *testing.T) {
	var snap Snapshot
	if _, err := snap.LastPrice(); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
