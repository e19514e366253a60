// Package execution defines the order records produced by the shadow
// execution layer.
package execution

import "fmt"

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Order is one executed shadow fill. Orders are immutable once created;
// Volume is always non-negative, the direction lives in Side.
type Order struct {
	ID     string  `json:"id"`
	Side   Side    `json:"side"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// Cashflow is the cash generated by the order: negative for buys, positive
// for sells.
func (o Order) Cashflow() float64 {
	if o.Side == Buy {
		return -o.Price * o.Volume
	}
	return o.Price * o.Volume
}

// String renders the order for tick logging, e.g. "BUY 1.0000@21.00".
func (o Order) String() string {
	return fmt.Sprintf("%s %.4f@%.2f", o.Side, o.Volume, o.Price)
}
