package strategy

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"defi-core/internal/market"
)

// YieldConfig tunes the allocation scorer.
type YieldConfig struct {
	MinAPY             float64
	MaxRiskScore       float64
	RebalanceThreshold float64
}

// YieldOpportunity is a protocol allocation ranked by risk-adjusted APY.
type YieldOpportunity struct {
	Protocol        string  `json:"protocol"`
	APY             float64 `json:"apy"`
	TVL             float64 `json:"tvl"`
	RiskScore       float64 `json:"risk_score"`
	RiskAdjustedAPY float64 `json:"risk_adjusted_apy"`
	YieldScore      float64 `json:"yield_score"`
}

// Score implements Opportunity.
func (o YieldOpportunity) Score() float64 { return o.YieldScore }

// YieldOptimizer rotates capital toward the best risk-adjusted yield and
// holds when the current allocation is already close enough.
type YieldOptimizer struct {
	*Tracker

	minAPY             float64
	maxRiskScore       float64
	rebalanceThreshold float64

	// mu guards currentAllocation, which Analyze writes while the API
	// serves reads of the same strategy.
	mu                sync.Mutex
	currentAllocation string
}

// NewYieldOptimizer creates the strategy with the given thresholds.
func NewYieldOptimizer(cfg YieldConfig) *YieldOptimizer {
	if cfg.MinAPY <= 0 {
		cfg.MinAPY = 0.15
	}
	if cfg.MaxRiskScore <= 0 {
		cfg.MaxRiskScore = 0.5
	}
	if cfg.RebalanceThreshold <= 0 {
		cfg.RebalanceThreshold = 0.05
	}
	return &YieldOptimizer{
		Tracker:            NewTracker("Yield Optimizer", "Risk-adjusted yield farming rotation", TypeLiquidityProvision),
		minAPY:             cfg.MinAPY,
		maxRiskScore:       cfg.MaxRiskScore,
		rebalanceThreshold: cfg.RebalanceThreshold,
	}
}

// Analyze ranks every protocol that clears the APY and risk gates.
func (s *YieldOptimizer) Analyze(snap market.Snapshot) Analysis {
	if len(snap.YieldProtocols) == 0 {
		return Analysis{}
	}
	if len(snap.CurrentAllocation) > 0 {
		s.setAllocation(dominantAllocation(snap.CurrentAllocation))
	}

	var opportunities []Opportunity
	for _, p := range snap.YieldProtocols {
		if p.APY < s.minAPY || p.RiskScore > s.maxRiskScore {
			continue
		}

		adjusted := riskAdjustedAPY(p.APY, p.RiskScore, p.TVL)
		opportunities = append(opportunities, YieldOpportunity{
			Protocol:        p.Name,
			APY:             p.APY,
			TVL:             p.TVL,
			RiskScore:       p.RiskScore,
			RiskAdjustedAPY: adjusted,
			YieldScore:      yieldScore(adjusted, p.RiskScore, p.TVL),
		})
	}

	sortByScore(opportunities)
	return analysisOf(opportunities)
}

// dominantAllocation returns the protocol holding the most capital.
// Names sorted first so map iteration cannot flip ties between cycles.
func dominantAllocation(alloc map[string]float64) string {
	names := make([]string, 0, len(alloc))
	for name := range alloc {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestAmount := 0.0
	for _, name := range names {
		if alloc[name] > bestAmount {
			best = name
			bestAmount = alloc[name]
		}
	}
	return best
}

// riskAdjustedAPY discounts for protocol risk and rewards deep TVL.
func riskAdjustedAPY(apy, riskScore, tvl float64) float64 {
	tvlFactor := math.Min(tvl/1e8, 1.2)
	return apy * (1 - riskScore*0.7) * tvlFactor
}

// yieldScore weights adjusted yield, safety and depth.
func yieldScore(adjustedAPY, riskScore, tvl float64) float64 {
	return adjustedAPY*60 + (1-riskScore)*25 + math.Min(tvl/1e7, 1)*15
}

// GenerateSignal only moves capital when the best option beats the current
// allocation by the rebalance threshold.
func (s *YieldOptimizer) GenerateSignal(analysis Analysis) Signal {
	best, ok := analysis.Best.(YieldOpportunity)
	if !ok {
		return Hold("no yield protocols clear the gates")
	}

	if allocation := s.allocation(); allocation != "" {
		current := s.findOpportunity(analysis, allocation)
		if current != nil && best.RiskAdjustedAPY <= current.RiskAdjustedAPY*(1+s.rebalanceThreshold) {
			s.addCounter("rebalances_skipped", 1)
			return Signal{
				Action:     ActionHold,
				Confidence: 0.5,
				Reason:     fmt.Sprintf("current allocation %s within rebalance threshold", allocation),
			}
		}
	}

	return Signal{
		Action:         ActionOptimizeYield,
		Confidence:     math.Min(best.YieldScore/100, 1.0),
		Reason:         fmt.Sprintf("rotate into %s at %.1f%% adjusted APY", best.Protocol, best.RiskAdjustedAPY*100),
		ExpectedProfit: best.RiskAdjustedAPY,
		Details:        best,
	}
}

func (s *YieldOptimizer) findOpportunity(analysis Analysis, protocol string) *YieldOpportunity {
	for _, op := range analysis.Opportunities {
		if y, ok := op.(YieldOpportunity); ok && y.Protocol == protocol {
			return &y
		}
	}
	return nil
}

// CalculatePositionSize allocates more to safer, higher-yield protocols.
func (s *YieldOptimizer) CalculatePositionSize(sig Signal, portfolioValue float64, params RiskParams) float64 {
	if sig.Action == ActionHold || portfolioValue <= 0 {
		return 0
	}

	maxPosition := params.MaxPositionSize
	if maxPosition <= 0 {
		maxPosition = 0.4
	}

	var optimal float64
	if best, ok := sig.Details.(YieldOpportunity); ok {
		safety := 1 - best.RiskScore
		yieldFactor := math.Min(best.RiskAdjustedAPY/0.5, 1.0)
		optimal = 0.2*safety*yieldFactor + 0.1
	}

	return math.Max(math.Min(optimal, maxPosition), 0.05)
}

func (s *YieldOptimizer) setAllocation(protocol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAllocation = protocol
}

func (s *YieldOptimizer) allocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAllocation
}
