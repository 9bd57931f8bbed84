// Package engine drives the decision cycle: snapshot in, scored signals
// through risk and execution optimization, simulated fills back into the
// performance ledgers.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"defi-core/internal/events"
	"defi-core/internal/market"
	"defi-core/internal/monitor"
	"defi-core/internal/optimizer"
	"defi-core/internal/paper"
	"defi-core/internal/risk"
	"defi-core/internal/strategy"
)

// Feed supplies one market snapshot per cycle.
type Feed interface {
	Next() market.Snapshot
}

// Config holds the collaborators the engine composes.
type Config struct {
	Registry  *strategy.Registry
	Analyzer  *market.Analyzer
	Risk      *risk.Manager
	Optimizer *optimizer.Optimizer
	Account   *paper.Account
	Ledger    *paper.Ledger
	Bus       *events.Bus
	Feed      Feed
	CycleRate float64
	Log       zerolog.Logger
}

// Decision is the outcome of one strategy's pass through the cycle.
type Decision struct {
	Strategy     string          `json:"strategy"`
	Signal       strategy.Signal `json:"signal"`
	Assessment   risk.Assessment `json:"assessment"`
	PositionSize float64         `json:"position_size"`
	PositionID   string          `json:"position_id,omitempty"`
	Executed     bool            `json:"executed"`
}

// CycleResult summarises a full decision cycle.
type CycleResult struct {
	Decisions []Decision     `json:"decisions"`
	Plan      optimizer.Plan `json:"plan"`
	Duration  time.Duration  `json:"duration"`
}

// Engine runs the pipeline.
type Engine struct {
	registry  *strategy.Registry
	analyzer  *market.Analyzer
	risk      *risk.Manager
	optimizer *optimizer.Optimizer
	account   *paper.Account
	ledger    *paper.Ledger
	bus       *events.Bus
	feed      Feed
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// New wires the engine from its collaborators.
func New(cfg Config) *Engine {
	cycleRate := cfg.CycleRate
	if cycleRate <= 0 {
		cycleRate = 1
	}
	return &Engine{
		registry:  cfg.Registry,
		analyzer:  cfg.Analyzer,
		risk:      cfg.Risk,
		optimizer: cfg.Optimizer,
		account:   cfg.Account,
		ledger:    cfg.Ledger,
		bus:       cfg.Bus,
		feed:      cfg.Feed,
		limiter:   rate.NewLimiter(rate.Limit(cycleRate), 1),
		log:       cfg.Log.With().Str("component", "engine").Logger(),
	}
}

// Run pulls snapshots from the feed at the configured rate until the
// context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		e.ProcessSnapshot(e.feed.Next())
	}
}

// ProcessSnapshot runs one full decision cycle over every enabled strategy.
func (e *Engine) ProcessSnapshot(snap market.Snapshot) CycleResult {
	started := time.Now()

	analysis := e.analyzer.Analyze(snap)

	var (
		result CycleResult
		types  []strategy.Type
	)
	for _, s := range e.registry.All() {
		if !s.Enabled() {
			continue
		}
		types = append(types, s.Type())
		result.Decisions = append(result.Decisions, e.decide(s, snap, analysis))
	}

	result.Plan = e.lastPlan(analysis, types, result.Decisions)
	result.Duration = time.Since(started)

	e.registry.UpdateGlobalRankings()
	e.publishRankings()

	monitor.CyclesTotal.Inc()
	monitor.CycleDuration.Observe(result.Duration.Seconds())
	monitor.PortfolioExposure.Set(e.risk.Status().TotalExposure)
	e.bus.Publish(events.EventCycleComplete, result)

	return result
}

// decide runs one strategy through score, signal, risk gate, sizing and
// simulated execution.
func (e *Engine) decide(s strategy.Strategy, snap market.Snapshot, conditions market.Analysis) Decision {
	sig := s.GenerateSignal(s.Analyze(snap))
	monitor.SignalsTotal.WithLabelValues(s.Name(), sig.Action).Inc()
	e.bus.Publish(events.EventSignal, sig)

	d := Decision{Strategy: s.Name(), Signal: sig}
	if sig.Action == strategy.ActionHold {
		return d
	}

	d.Assessment = e.risk.AssessRisk(conditions.Volatility, conditions.Liquidity, s.Type())
	if !d.Assessment.Approved {
		monitor.RiskRejections.Inc()
		e.bus.Publish(events.EventRiskRejected, d)
		return d
	}

	equity := e.account.Equity()
	d.PositionSize = s.CalculatePositionSize(sig, equity, strategy.RiskParams{
		MaxPositionSize: d.Assessment.PositionSize,
	})
	if d.PositionSize <= 0 {
		return d
	}

	d.PositionID = e.risk.OpenPosition(s.Name(), d.PositionSize, conditions.Price,
		d.Assessment.StopLoss, d.Assessment.TakeProfit)
	e.bus.Publish(events.EventPositionOpened, d)
	d.Executed = true

	e.settle(s, d, conditions, equity)
	return d
}

// settle simulates the fill at the signal's expected profit and feeds the
// outcome back into the ledgers.
func (e *Engine) settle(s strategy.Strategy, d Decision, conditions market.Analysis, equity float64) {
	notional := d.PositionSize * equity
	profit := notional * d.Signal.ExpectedProfit
	won := profit > 0

	fill := paper.Fill{
		Strategy: s.Name(),
		Action:   d.Signal.Action,
		Size:     decimal.NewFromFloat(notional),
		Price:    decimal.NewFromFloat(conditions.Price),
		Profit:   decimal.NewFromFloat(profit),
		Won:      won,
		Time:     time.Now().UTC(),
	}
	if err := e.account.Settle(fill); err != nil {
		e.log.Warn().Err(err).Str("strategy", s.Name()).Msg("fill rejected")
		return
	}
	e.ledger.Record(fill)

	s.RecordTrade(profit, won)
	e.optimizer.RecordTradeResult(s.Type(), profit, won)
	e.risk.ClosePosition(d.PositionID)
	e.risk.UpdatePortfolio(e.account.Equity())
	e.bus.Publish(events.EventPositionClosed, d.PositionID)

	outcome := "loss"
	if won {
		outcome = "win"
	}
	monitor.TradesTotal.WithLabelValues(s.Name(), outcome).Inc()
	e.bus.Publish(events.EventTradeRecorded, fill)
}

// lastPlan asks the optimizer which strategy class fits the snapshot, using
// the strongest approved assessment of the cycle.
func (e *Engine) lastPlan(analysis market.Analysis, types []strategy.Type, decisions []Decision) optimizer.Plan {
	assessment := risk.Assessment{}
	for _, d := range decisions {
		if d.Assessment.Approved {
			assessment = d.Assessment
			break
		}
	}
	return e.optimizer.OptimizeExecution(analysis, types, assessment)
}

func (e *Engine) publishRankings() {
	rankings := e.registry.GlobalRankings()
	for _, entry := range rankings {
		monitor.StrategyRankScore.WithLabelValues(entry.Strategy).Set(entry.Score)
	}
	e.bus.Publish(events.EventRankingsUpdate, rankings)
}
