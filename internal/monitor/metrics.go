// Package monitor exposes the pipeline's prometheus instrumentation.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "decision_cycles_total", Help: "Count of completed decision cycles"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals generated per strategy and action"},
		[]string{"strategy", "action"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Recorded trades per strategy and outcome"},
		[]string{"strategy", "outcome"},
	)
	RiskRejections = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "risk_rejections_total", Help: "Trades rejected by the risk manager"},
	)
	PortfolioExposure = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "portfolio_exposure", Help: "Current aggregate exposure fraction"},
	)
	StrategyRankScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "strategy_rank_score", Help: "Global rank score per strategy"},
		[]string{"strategy"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decision_cycle_seconds",
			Help:    "Wall time of one full decision cycle",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		SignalsTotal,
		TradesTotal,
		RiskRejections,
		PortfolioExposure,
		StrategyRankScore,
		CycleDuration,
	)
}
