package strategy

import (
	"math"
	"sync"
)

// profitFactorCap replaces an infinite profit factor (no losses yet) in
// reported snapshots; ranking math clamps before the cap matters.
const profitFactorCap = 1000.0

// Performance is a point-in-time copy of a strategy's ledger.
type Performance struct {
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Type               Type               `json:"type"`
	Rank               Rank               `json:"rank"`
	GlobalRankScore    float64            `json:"global_rank_score"`
	Enabled            bool               `json:"enabled"`
	TotalTrades        int                `json:"total_trades"`
	WinningTrades      int                `json:"winning_trades"`
	WinRate            float64            `json:"win_rate"`
	TotalProfit        float64            `json:"total_profit"`
	TotalLoss          float64            `json:"total_loss"`
	AverageProfit      float64            `json:"average_profit"`
	ProfitFactor       float64            `json:"profit_factor"`
	RiskAdjustedReturn float64            `json:"risk_adjusted_return"`
	Extras             map[string]float64 `json:"extras,omitempty"`
}

// RankingEntry is one row of the global ranking.
type RankingEntry struct {
	Strategy           string  `json:"strategy"`
	Rank               Rank    `json:"rank"`
	Score              float64 `json:"score"`
	WinRate            float64 `json:"win_rate"`
	ProfitFactor       float64 `json:"profit_factor"`
	RiskAdjustedReturn float64 `json:"risk_adjusted_return"`
	TotalTrades        int     `json:"total_trades"`
	GlobalPosition     int     `json:"global_position,omitempty"`
}

// Tracker owns a strategy's performance ledger and all ranking math. It is
// the single mutable component strategies share through embedding; every
// read-modify-write runs under its lock.
type Tracker struct {
	mu sync.Mutex

	name         string
	description  string
	strategyType Type
	rank         Rank
	enabled      bool

	totalTrades   int
	winningTrades int
	totalProfit   float64
	totalLoss     float64

	winRate            float64
	averageProfit      float64
	profitFactor       float64 // +Inf while lossless with profit
	riskAdjustedReturn float64
	globalRankScore    float64

	// Reporting counters (opportunities seen, pairs evaluated). They share
	// the ledger lock because Performance snapshots read them alongside the
	// trade metrics while the engine keeps analyzing.
	counters map[string]float64
}

// NewTracker creates a ledger for a named strategy, enabled and ranked
// standard.
func NewTracker(name, description string, typ Type) *Tracker {
	return &Tracker{
		name:         name,
		description:  description,
		strategyType: typ,
		rank:         RankStandard,
		enabled:      true,
		counters:     make(map[string]float64),
	}
}

// addCounter bumps a reporting counter under the ledger lock.
func (t *Tracker) addCounter(key string, n float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[key] += n
}

// setCounter pins a reporting counter to a fixed value.
func (t *Tracker) setCounter(key string, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[key] = v
}

// Name returns the strategy name.
func (t *Tracker) Name() string { return t.name }

// Description returns the strategy description.
func (t *Tracker) Description() string { return t.description }

// Type returns the strategy type classification.
func (t *Tracker) Type() Type { return t.strategyType }

// RecordTrade appends one trade result to the ledger and recomputes every
// derived metric, the global rank score and the tier.
func (t *Tracker) RecordTrade(profit float64, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalTrades++
	if success {
		t.winningTrades++
		t.totalProfit += profit
	} else {
		t.totalLoss += math.Abs(profit)
	}
	t.updateMetrics()
}

// updateMetrics recomputes the derived fields. Caller holds the lock.
func (t *Tracker) updateMetrics() {
	if t.totalTrades == 0 {
		return
	}

	t.winRate = float64(t.winningTrades) / float64(t.totalTrades)
	t.averageProfit = (t.totalProfit - t.totalLoss) / float64(t.totalTrades)

	switch {
	case t.totalLoss > 0:
		t.profitFactor = t.totalProfit / t.totalLoss
	case t.totalProfit > 0:
		t.profitFactor = math.Inf(1)
	default:
		t.profitFactor = 0
	}

	// Only meaningful with a minimum sample size.
	if t.totalTrades >= 10 {
		returns := t.totalProfit - t.totalLoss
		risk := math.Max(t.totalLoss, 0.01)
		t.riskAdjustedReturn = returns / risk
	}

	t.updateRankScore()
}

// updateRankScore recomputes the weighted composite and the tier. Strategies
// with fewer than five trades score zero and keep their current tier.
// Caller holds the lock.
func (t *Tracker) updateRankScore() {
	if t.totalTrades < 5 {
		t.globalRankScore = 0
		return
	}

	winRateScore := math.Min(t.winRate*100, 100)
	profitFactorScore := math.Min(t.profitFactor/3.0*100, 100)
	riskAdjustedScore := math.Min(t.riskAdjustedReturn*10, 100)
	consistencyScore := math.Min(float64(t.totalTrades)/100*100, 100)

	t.globalRankScore = winRateScore*0.30 +
		profitFactorScore*0.30 +
		riskAdjustedScore*0.25 +
		consistencyScore*0.15

	t.rank = rankFor(t.globalRankScore)
}

// rankFor maps a global rank score to a tier. RankExperimental is never
// produced here.
func rankFor(score float64) Rank {
	switch {
	case score >= 90:
		return RankElite
	case score >= 75:
		return RankAdvanced
	case score >= 60:
		return RankProfessional
	default:
		return RankStandard
	}
}

// Performance returns a copy of the ledger.
func (t *Tracker) Performance() Performance {
	t.mu.Lock()
	defer t.mu.Unlock()

	var extras map[string]float64
	if len(t.counters) > 0 {
		extras = make(map[string]float64, len(t.counters))
		for k, v := range t.counters {
			extras[k] = v
		}
	}

	return Performance{
		Name:               t.name,
		Description:        t.description,
		Type:               t.strategyType,
		Rank:               t.rank,
		GlobalRankScore:    t.globalRankScore,
		Enabled:            t.enabled,
		TotalTrades:        t.totalTrades,
		WinningTrades:      t.winningTrades,
		WinRate:            t.winRate,
		TotalProfit:        t.totalProfit,
		TotalLoss:          t.totalLoss,
		AverageProfit:      t.averageProfit,
		ProfitFactor:       capProfitFactor(t.profitFactor),
		RiskAdjustedReturn: t.riskAdjustedReturn,
		Extras:             extras,
	}
}

// Ranking returns this strategy's row for the global ranking.
func (t *Tracker) Ranking() RankingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	return RankingEntry{
		Strategy:           t.name,
		Rank:               t.rank,
		Score:              t.globalRankScore,
		WinRate:            t.winRate,
		ProfitFactor:       capProfitFactor(t.profitFactor),
		RiskAdjustedReturn: t.riskAdjustedReturn,
		TotalTrades:        t.totalTrades,
	}
}

// ProductionReady reports whether the strategy meets every live-trading
// criterion simultaneously.
func (t *Tracker) ProductionReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enabled &&
		t.totalTrades >= 10 &&
		t.winRate >= 0.5 &&
		t.profitFactor >= 1.5 &&
		t.globalRankScore >= 60
}

// Rank returns the current tier.
func (t *Tracker) Rank() Rank {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rank
}

// SetRank overrides the tier manually (the only way to reach
// RankExperimental).
func (t *Tracker) SetRank(r Rank) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rank = r
}

// Enabled reports whether the strategy may trade.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled toggles the strategy.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func capProfitFactor(pf float64) float64 {
	if math.IsInf(pf, 1) || pf > profitFactorCap {
		return profitFactorCap
	}
	return pf
}
