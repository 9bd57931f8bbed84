// Package optimizer picks which strategy class fits the current market
// conditions and prices the execution for it.
package optimizer

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"defi-core/internal/market"
	"defi-core/internal/risk"
	"defi-core/internal/strategy"
)

// Priority orders optimized plans for the execution layer.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Plan is the optimizer's verdict for one decision cycle.
type Plan struct {
	StrategyType   strategy.Type `json:"strategy_type"`
	TypeScore      float64       `json:"type_score"`
	EntryPrice     float64       `json:"entry_price"`
	ExitPrice      float64       `json:"exit_price"`
	ExpectedProfit float64       `json:"expected_profit"`
	Confidence     float64       `json:"confidence"`
	Priority       Priority      `json:"priority"`
}

// typeStats is the rolling per-class trade record.
type typeStats struct {
	trades int
	wins   int
	profit float64
}

// Optimizer scores strategy classes against live conditions, weighted by
// each class's historical win rate.
type Optimizer struct {
	mu    sync.Mutex
	stats map[strategy.Type]*typeStats
	log   zerolog.Logger
}

// New creates an optimizer with no history. Unknown classes start at a
// win rate of 1.0 so new strategies are not starved.
func New(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		stats: make(map[strategy.Type]*typeStats),
		log:   log.With().Str("component", "optimizer").Logger(),
	}
}

// OptimizeExecution picks the best-fitting strategy class and prices the
// trade around the risk assessment.
func (o *Optimizer) OptimizeExecution(analysis market.Analysis, types []strategy.Type, assessment risk.Assessment) Plan {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(types) == 0 {
		return Plan{Priority: PriorityLow}
	}

	// A flat, quiet market still recommends some class, so seed with the
	// first candidate rather than an empty plan.
	best := Plan{StrategyType: types[0], TypeScore: o.typeScore(types[0], analysis) * o.winRate(types[0])}
	for _, t := range types[1:] {
		score := o.typeScore(t, analysis) * o.winRate(t)
		if score > best.TypeScore {
			best.StrategyType = t
			best.TypeScore = score
		}
	}

	winRate := o.winRate(best.StrategyType)
	opCount := float64(len(analysis.Opportunities))

	best.EntryPrice = entryPrice(analysis.Price, analysis.Trend, analysis.Volatility)
	best.ExitPrice = exitPrice(best.EntryPrice, analysis.Trend, assessment.TakeProfit)
	best.ExpectedProfit = assessment.PositionSize * assessment.TakeProfit *
		o.provenWinRate(best.StrategyType) * (1 + 0.1*opCount)
	best.Confidence = clamp((0.5+0.1*opCount+0.3*analysis.TrendStrength)*winRate, 0, 1)
	best.Priority = priority(best.ExpectedProfit, assessment.RiskReward)

	o.log.Debug().
		Str("type", string(best.StrategyType)).
		Float64("score", best.TypeScore).
		Str("priority", string(best.Priority)).
		Msg("execution optimized")

	return best
}

// typeScore measures how well each class fits the current snapshot.
// Callers hold the lock.
func (o *Optimizer) typeScore(t strategy.Type, analysis market.Analysis) float64 {
	switch t {
	case strategy.TypeArbitrage:
		count := 0
		for _, op := range analysis.Opportunities {
			if op.Type == "arbitrage" {
				count++
			}
		}
		return 10 * float64(count)
	case strategy.TypeTrendFollowing:
		return 100 * analysis.TrendStrength
	case strategy.TypeMeanReversion:
		return 20 * math.Abs(analysis.PriceDeviation)
	case strategy.TypeMomentum:
		return 100 * math.Abs(analysis.Momentum)
	case strategy.TypeLiquidityProvision:
		return analysis.Liquidity / 100000
	default:
		return 0
	}
}

// winRate returns the class's historical win rate, defaulting to 1.0
// with no history. Callers hold the lock.
func (o *Optimizer) winRate(t strategy.Type) float64 {
	s, ok := o.stats[t]
	if !ok || s.trades == 0 {
		return 1.0
	}
	return float64(s.wins) / float64(s.trades)
}

// provenWinRate is the expected-profit variant: a class with no record is
// assumed to win half the time instead of always. Callers hold the lock.
func (o *Optimizer) provenWinRate(t strategy.Type) float64 {
	s, ok := o.stats[t]
	if !ok || s.trades == 0 {
		return 0.5
	}
	return float64(s.wins) / float64(s.trades)
}

// entryPrice shades the quote against the trend: buy dips in uptrends,
// fade pops in downtrends.
func entryPrice(price, trend, volatility float64) float64 {
	adjustment := 0.0
	if trend > 0 {
		adjustment = -volatility * 0.5
	} else if trend < 0 {
		adjustment = volatility * 0.5
	}
	return price * (1 + adjustment)
}

func exitPrice(entry, trend, takeProfit float64) float64 {
	if trend < 0 {
		return entry * (1 - takeProfit)
	}
	return entry * (1 + takeProfit)
}

func priority(expectedProfit, riskReward float64) Priority {
	switch {
	case expectedProfit > 0.05 && riskReward > 3:
		return PriorityHigh
	case expectedProfit > 0.02 && riskReward > 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// RecordTradeResult feeds an executed trade back into the class stats.
func (o *Optimizer) RecordTradeResult(t strategy.Type, profit float64, won bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.stats[t]
	if !ok {
		s = &typeStats{}
		o.stats[t] = s
	}
	s.trades++
	if won {
		s.wins++
	}
	s.profit += profit
}

// TypeReport is the per-class slice of the optimizer report.
type TypeReport struct {
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	TotalProfit float64 `json:"total_profit"`
}

// PerformanceReport snapshots the per-class records.
func (o *Optimizer) PerformanceReport() map[strategy.Type]TypeReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[strategy.Type]TypeReport, len(o.stats))
	for t, s := range o.stats {
		r := TypeReport{Trades: s.trades, Wins: s.wins, TotalProfit: s.profit}
		if s.trades > 0 {
			r.WinRate = float64(s.wins) / float64(s.trades)
		}
		out[t] = r
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
