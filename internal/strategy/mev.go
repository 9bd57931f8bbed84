package strategy

import (
	"math"

	"defi-core/internal/market"
)

// Targets bidding above this gas price are assumed to be bots front-running
// us back.
const mevMaxTargetGasPrice = 500 // gwei

// MEVConfig tunes the sandwich scorer.
type MEVConfig struct {
	MinTransactionSize float64
	MinExpectedProfit  float64
	MaxSlippageImpact  float64
}

// MEVOpportunity is a scored sandwich candidate built around one pending
// swap.
type MEVOpportunity struct {
	Kind           string  `json:"type"` // always "sandwich"
	TargetTx       string  `json:"target_tx"`
	TargetSize     float64 `json:"target_size"`
	Pool           string  `json:"pool"`
	TokenIn        string  `json:"token_in"`
	TokenOut       string  `json:"token_out"`
	FrontRunAmount float64 `json:"front_run_amount"`
	BackRunAmount  float64 `json:"back_run_amount"`
	ExpectedProfit float64 `json:"expected_profit"`
	SlippageCaused float64 `json:"slippage_caused"`
	MEVScore       float64 `json:"mev_score"`
}

// Score implements Opportunity.
func (o MEVOpportunity) Score() float64 { return o.MEVScore }

// MEVSandwich simulates front-run / victim / back-run bundles against
// constant-product pools.
type MEVSandwich struct {
	*Tracker

	minTransactionSize float64
	minExpectedProfit  float64
	maxSlippageImpact  float64
}

// NewMEVSandwich creates the strategy with the given thresholds.
func NewMEVSandwich(cfg MEVConfig) *MEVSandwich {
	if cfg.MinTransactionSize <= 0 {
		cfg.MinTransactionSize = 10000
	}
	if cfg.MinExpectedProfit <= 0 {
		cfg.MinExpectedProfit = 0.01
	}
	if cfg.MaxSlippageImpact <= 0 {
		cfg.MaxSlippageImpact = 0.005
	}
	return &MEVSandwich{
		Tracker:            NewTracker("MEV Strategy", "MEV extraction via sandwich bundles", TypeArbitrage),
		minTransactionSize: cfg.MinTransactionSize,
		minExpectedProfit:  cfg.MinExpectedProfit,
		maxSlippageImpact:  cfg.MaxSlippageImpact,
	}
}

// Analyze walks the mempool and keeps swaps whose simulated sandwich clears
// the profit gate inside the slippage budget.
func (s *MEVSandwich) Analyze(snap market.Snapshot) Analysis {
	if len(snap.Mempool) == 0 {
		return Analysis{}
	}

	var opportunities []Opportunity
	for _, tx := range snap.Mempool {
		if !s.isTarget(tx) {
			continue
		}

		result, ok := s.simulateSandwich(tx, snap.Pools)
		if !ok || result.ExpectedProfit < s.minExpectedProfit {
			continue
		}

		opportunities = append(opportunities, result)
	}

	sortByScore(opportunities)
	s.addCounter("mev_opportunities_detected", float64(len(opportunities)))

	return analysisOf(opportunities)
}

// isTarget filters for sizeable swaps that are not themselves bidding for
// priority.
func (s *MEVSandwich) isTarget(tx market.PendingTx) bool {
	if tx.Type != "swap" && tx.Type != "trade" {
		return false
	}
	if tx.Value < s.minTransactionSize {
		return false
	}
	if tx.GasPrice > mevMaxTargetGasPrice {
		return false
	}
	return true
}

// simulateSandwich plays front-run buy, victim swap, back-run sell against
// the pool's reserves and prices the bundle.
func (s *MEVSandwich) simulateSandwich(tx market.PendingTx, pools map[string]market.Pool) (MEVOpportunity, bool) {
	pool, ok := pools[tx.Pool]
	if !ok || pool.ReserveIn == 0 || pool.ReserveOut == 0 {
		return MEVOpportunity{}, false
	}

	frontRun := optimalFrontRun(tx.Value, pool.ReserveIn)
	if frontRun == 0 {
		return MEVOpportunity{}, false
	}

	// Front-run buy moves the pool first.
	frontOut := amountOut(frontRun, pool.ReserveIn, pool.ReserveOut)
	reserveIn := pool.ReserveIn + frontRun
	reserveOut := pool.ReserveOut - frontOut

	// Victim swap executes at the worsened price.
	victimOut := amountOut(tx.Value, reserveIn, reserveOut)
	reserveIn += tx.Value
	reserveOut -= victimOut

	// Back-run sells what the front-run bought, reversed direction.
	backOut := amountOut(frontOut, reserveOut, reserveIn)

	profitPct := 0.0
	if frontRun > 0 {
		profitPct = (backOut - frontRun) / frontRun
	}

	originalPrice := pool.ReserveOut / pool.ReserveIn
	victimPrice := 0.0
	if tx.Value > 0 {
		victimPrice = victimOut / tx.Value
	}
	slippage := math.Abs(victimPrice-originalPrice) / originalPrice

	if slippage > s.maxSlippageImpact {
		return MEVOpportunity{}, false // too visible, too unfair
	}

	return MEVOpportunity{
		Kind:           "sandwich",
		TargetTx:       tx.Hash,
		TargetSize:     tx.Value,
		Pool:           tx.Pool,
		TokenIn:        tx.TokenIn,
		TokenOut:       tx.TokenOut,
		FrontRunAmount: frontRun,
		BackRunAmount:  frontOut,
		ExpectedProfit: profitPct,
		SlippageCaused: slippage,
		MEVScore:       mevScore(profitPct, tx.Value, slippage),
	}, true
}

// optimalFrontRun picks the front-run size relative to pool depth: large
// victim trades get a smaller front-run, small ones a larger one.
func optimalFrontRun(targetAmount, reserveIn float64) float64 {
	if reserveIn <= 0 {
		return 0
	}

	depthRatio := targetAmount / reserveIn
	switch {
	case depthRatio > 0.1:
		return targetAmount * 0.3
	case depthRatio < 0.01:
		return targetAmount * 0.7
	default:
		return targetAmount * 0.5
	}
}

// amountOut is the constant-product AMM output with the 0.3% fee.
func amountOut(amountIn, reserveIn, reserveOut float64) float64 {
	if reserveIn == 0 || reserveOut == 0 {
		return 0
	}
	inWithFee := amountIn * 0.997
	denominator := reserveIn + inWithFee
	if denominator == 0 {
		return 0
	}
	return inWithFee * reserveOut / denominator
}

// mevScore weights bundle profit, victim size and the slippage footprint.
func mevScore(profitPct, targetSize, slippage float64) float64 {
	profitScore := profitPct * 100
	sizeScore := math.Min(targetSize/50000, 10)
	slippageScore := math.Max(10-slippage*100, 0)

	return profitScore*0.50 + sizeScore*0.30 + slippageScore*0.20
}

// GenerateSignal derives the execute/hold decision from the best bundle.
func (s *MEVSandwich) GenerateSignal(analysis Analysis) Signal {
	best, ok := analysis.Best.(MEVOpportunity)
	if !ok {
		return Hold("no MEV opportunities found")
	}

	return Signal{
		Action:         ActionExecuteMEV,
		Confidence:     math.Min(best.MEVScore/20, 1.0),
		ExpectedProfit: best.ExpectedProfit,
		Details:        best,
	}
}

// CalculatePositionSize bounds the bundle by the front-run amount, the risk
// cap and profit scaling.
func (s *MEVSandwich) CalculatePositionSize(sig Signal, portfolioValue float64, params RiskParams) float64 {
	if sig.Action == ActionHold || portfolioValue <= 0 {
		return 0
	}

	var frontRun float64
	if best, ok := sig.Details.(MEVOpportunity); ok {
		frontRun = best.FrontRunAmount
	}

	maxPosition := params.MaxPositionSize
	if maxPosition <= 0 {
		maxPosition = 0.3
	}

	optimal := math.Min(frontRun/portfolioValue, maxPosition)
	optimal = math.Min(optimal, sig.ExpectedProfit*5)

	return math.Max(optimal, 0.02)
}
