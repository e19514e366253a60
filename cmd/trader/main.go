// Binary trader runs the shadow trading loop: fetch a market snapshot,
// update the strategy, rebalance the simulated position, report profit.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lwittchen/arthur/internal/config"
	"github.com/lwittchen/arthur/internal/exchange"
	"github.com/lwittchen/arthur/internal/metrics"
	"github.com/lwittchen/arthur/internal/paper"
	"github.com/lwittchen/arthur/internal/strategy"
	"github.com/lwittchen/arthur/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := util.NewLogger("info")
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := util.NewLogger(cfg.App.LogLevel)
	if cfg.App.Env == "dev" {
		log = util.NewConsoleLogger(cfg.App.LogLevel)
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, err := exchange.NewSource(cfg.Exchange.Provider, cfg.Exchange.Pair, log,
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithWSURL(cfg.Exchange.WSURL),
		exchange.WithRetry(cfg.Exchange.RetryAttempts, time.Duration(cfg.Exchange.RetryBackoffMs)*time.Millisecond),
		exchange.WithBarInterval(cfg.Exchange.BarIntervalMin),
		exchange.WithBookDepth(cfg.Exchange.BookDepth),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("build market data source")
	}
	if runner, ok := src.(exchange.Runner); ok {
		go func() {
			if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("market data source stopped")
				cancel()
			}
		}()
	}

	strat := strategy.Build(cfg.Strategy.Mode, strategy.Params{
		WindowSize:   cfg.Strategy.Params.WindowSize,
		Theta:        cfg.Strategy.Params.Theta,
		DepthPct:     cfg.Strategy.Params.DepthPct,
		ADXThreshold: cfg.Strategy.Params.ADXThreshold,
		PositionSize: cfg.Strategy.Params.PositionSize,
	}, log)

	var simOpts []paper.Option
	if cfg.Paper.FillsPath != "" {
		rec, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fill recorder")
		}
		defer rec.Close()
		simOpts = append(simOpts, paper.WithRecorder(rec))
	}
	sim := paper.NewSimulator(log, simOpts...)

	interval := time.Duration(cfg.Exchange.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().
		Str("strategy", strat.Name()).
		Str("provider", src.Name()).
		Str("pair", cfg.Exchange.Pair).
		Dur("interval", interval).
		Msg("shadow trading loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case <-ticker.C:
			runTick(ctx, log, src, strat, sim)
		}
	}
}

// runTick performs one fetch → update → rebalance → report round trip.
// Every failure is local to the tick: log, skip, and retry with fresh data
// on the next one.
func runTick(ctx context.Context, log zerolog.Logger, src exchange.Source, strat strategy.Strategy, sim *paper.Simulator) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no snapshot, skipping tick")
		return
	}
	metrics.TicksTotal.WithLabelValues(src.Name()).Inc()

	rep, err := strat.Update(snap)
	if err != nil {
		log.Warn().Err(err).Msg("strategy update failed, skipping tick")
		return
	}
	if rep.Degraded {
		metrics.DegradedTicksTotal.Inc()
	}
	metrics.TradeSignal.Set(float64(rep.Trade))

	sim.UpdateMarketState(snap)
	desired, err := strat.DesiredPosition()
	if err != nil {
		if errors.Is(err, strategy.ErrNotReady) {
			log.Debug().Str("state", rep.State.String()).Msg("strategy warming up")
			return
		}
		log.Warn().Err(err).Msg("no desired position, skipping tick")
		return
	}
	if _, err := sim.Rebalance(desired); err != nil {
		log.Warn().Err(err).Msg("rebalance failed, skipping tick")
		return
	}
	pnl, err := sim.CurrentProfit()
	if err != nil {
		log.Warn().Err(err).Msg("profit unavailable")
		return
	}
	metrics.PnL.Set(pnl)

	ev := log.Info().Time("server_time", snap.Time)
	if mid, err := snap.Book.Midprice(); err == nil {
		ev = ev.Float64("midprice", mid)
	}
	if bid, err := snap.Book.BestBid(); err == nil {
		ev = ev.Float64("best_bid", bid)
	}
	if ask, err := snap.Book.BestAsk(); err == nil {
		ev = ev.Float64("best_ask", ask)
	}
	for _, ind := range rep.Indicators {
		if ind.OK {
			ev = ev.Float64(ind.Name, ind.Value)
		} else {
			ev = ev.Str(ind.Name, "n/a")
		}
	}
	if last, ok := sim.LastOrder(); ok {
		ev = ev.Stringer("last_order", last)
	} else {
		ev = ev.Str("last_order", "-")
	}
	ev.Str("signal", rep.Trade.String()).
		Float64("position", sim.Position()).
		Float64("pnl", pnl).
		Msg("tick")
}
