// Package metrics exposes the prometheus instruments shared across the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market snapshots processed"},
		[]string{"provider"},
	)
	DegradedTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "degraded_ticks_total", Help: "Ticks where indicators were unavailable and the previous signal was held"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Shadow orders executed"},
		[]string{"side"},
	)
	PnL = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pnl", Help: "Realized plus unrealized profit"},
	)
	Position = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "position", Help: "Current net position in instrument units"},
	)
	TradeSignal = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "trade_signal", Help: "Current strategy trade signal (-1, 0, +1)"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, DegradedTicksTotal, OrdersTotal, PnL, Position, TradeSignal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
