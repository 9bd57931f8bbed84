// Package strategy contains the opportunity scorers, the shared strategy
// contract with its performance ledger, and the global ranking registry.
package strategy

import (
	"defi-core/internal/market"
)

// Type classifies a strategy for risk multipliers and optimizer selection.
type Type string

const (
	TypeArbitrage          Type = "arbitrage"
	TypeTrendFollowing     Type = "trend_following"
	TypeMeanReversion      Type = "mean_reversion"
	TypeMomentum           Type = "momentum"
	TypeLiquidityProvision Type = "liquidity_provision"
)

// Rank is the global ranking tier of a strategy.
type Rank string

const (
	RankElite        Rank = "elite"
	RankAdvanced     Rank = "advanced"
	RankProfessional Rank = "professional"
	RankStandard     Rank = "standard"
	// RankExperimental is a valid manual/initial tier. The automatic scoring
	// path never assigns it; scores below the professional band map to
	// RankStandard.
	RankExperimental Rank = "experimental"
)

// Signal actions. Every strategy emits either its execute action or ActionHold.
const (
	ActionHold               = "HOLD"
	ActionExecuteArbitrage   = "EXECUTE_ARBITRAGE"
	ActionExecuteCrossChain  = "EXECUTE_CROSS_CHAIN"
	ActionExecuteLiquidation = "EXECUTE_LIQUIDATION"
	ActionExecuteMEV         = "EXECUTE_MEV"
	ActionExecuteStatArb     = "EXECUTE_STAT_ARB"
	ActionOptimizeYield      = "OPTIMIZE_YIELD"
)

// Opportunity is a scored, algorithm-specific candidate trade. Concrete
// types live next to their strategy.
type Opportunity interface {
	// Score is the strategy's composite ranking score; opportunity lists are
	// always sorted descending by it.
	Score() float64
}

// Analysis is the result of one Analyze call over one snapshot.
type Analysis struct {
	Opportunities []Opportunity `json:"opportunities"`
	Best          Opportunity   `json:"best_opportunity"`
	Total         int           `json:"total_opportunities"`
}

// Signal is the directional decision derived from the best opportunity.
// Confidence is deterministic in the opportunity score.
type Signal struct {
	Action         string      `json:"action"`
	Confidence     float64     `json:"confidence"`
	Reason         string      `json:"reason,omitempty"`
	ExpectedProfit float64     `json:"expected_profit"`
	Details        Opportunity `json:"details,omitempty"` // nil on HOLD
}

// Hold builds the inert signal every scorer returns for empty or
// non-qualifying input.
func Hold(reason string) Signal {
	return Signal{Action: ActionHold, Confidence: 0, Reason: reason}
}

// RiskParams is the sizing surface strategies consume.
type RiskParams struct {
	MaxPositionSize float64 `json:"max_position_size"`
}

// Strategy is the contract shared by all six scorers. Analyze, GenerateSignal
// and CalculatePositionSize are pure in their inputs; the ledger methods
// mutate the embedded Tracker under its lock.
type Strategy interface {
	Name() string
	Description() string
	Type() Type

	Analyze(snap market.Snapshot) Analysis
	GenerateSignal(analysis Analysis) Signal
	CalculatePositionSize(sig Signal, portfolioValue float64, params RiskParams) float64

	RecordTrade(profit float64, success bool)
	Performance() Performance
	Ranking() RankingEntry
	ProductionReady() bool
	Rank() Rank
	Enabled() bool
	SetEnabled(enabled bool)
}
