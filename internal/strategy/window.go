package strategy

// imbalancePair is one (bid, ask) imbalance observation.
type imbalancePair struct {
	bid float64
	ask float64
}

// window is a fixed-capacity FIFO of imbalance observations. Pushing onto a
// full window evicts the oldest element; length never exceeds capacity.
type window struct {
	capacity int
	items    []imbalancePair
}

func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{capacity: capacity, items: make([]imbalancePair, 0, capacity)}
}

func (w *window) push(p imbalancePair) {
	w.items = append(w.items, p)
	if len(w.items) > w.capacity {
		w.items = w.items[1:]
	}
}

func (w *window) size() int { return len(w.items) }

func (w *window) full() bool { return len(w.items) == w.capacity }

// mean returns the elementwise mean of all stored pairs.
func (w *window) mean() (float64, float64) {
	if len(w.items) == 0 {
		return 0, 0
	}
	var bid, ask float64
	for _, p := range w.items {
		bid += p.bid
		ask += p.ask
	}
	n := float64(len(w.items))
	return bid / n, ask / n
}
