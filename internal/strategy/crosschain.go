package strategy

import (
	"math"
	"sort"

	"defi-core/internal/market"
)

// DEX swap fees on both legs of a cross-chain round trip (0.3% each side).
const dexFeesBothSides = 0.006

// defaultBridgeFee applies to chain pairs missing from the fee table.
const defaultBridgeFee = 0.002

// chainPair is an unordered bridge route key.
type chainPair struct{ a, b string }

// bridgeFees holds fee estimates for known routes; lookups try both orders.
var bridgeFees = map[chainPair]float64{
	{"Ethereum", "BSC"}:      0.001,
	{"Ethereum", "Polygon"}:  0.001,
	{"Ethereum", "Arbitrum"}: 0.0005,
	{"Ethereum", "Optimism"}: 0.0005,
	{"BSC", "Polygon"}:       0.002,
	{"BSC", "Avalanche"}:     0.002,
}

// l2Chains bridge materially faster than L1s.
var l2Chains = map[string]bool{
	"Arbitrum": true,
	"Optimism": true,
	"Polygon":  true,
}

// CrossChainConfig tunes the cross-chain arbitrage scorer.
type CrossChainConfig struct {
	MinProfitAfterFees float64
	MaxBridgeTime      int // seconds
	SupportedChains    []string
}

// CrossChainOpportunity is a scored bridge-arbitrage candidate.
type CrossChainOpportunity struct {
	BuyChain         string  `json:"buy_chain"`
	SellChain        string  `json:"sell_chain"`
	BuyPrice         float64 `json:"buy_price"`
	SellPrice        float64 `json:"sell_price"`
	GrossProfit      float64 `json:"gross_profit"`
	NetProfit        float64 `json:"net_profit"`
	BridgeFee        float64 `json:"bridge_fee"`
	BridgeTime       int     `json:"bridge_time"`
	Liquidity        float64 `json:"liquidity"`
	OpportunityScore float64 `json:"opportunity_score"`
}

// Score implements Opportunity.
func (o CrossChainOpportunity) Score() float64 { return o.OpportunityScore }

// CrossChainArbitrage scores price differences between networks net of
// bridge and swap fees.
type CrossChainArbitrage struct {
	*Tracker

	minProfitAfterFees float64
	maxBridgeTime      int
	supported          map[string]bool
}

// NewCrossChainArbitrage creates the strategy with the given thresholds.
func NewCrossChainArbitrage(cfg CrossChainConfig) *CrossChainArbitrage {
	if cfg.MinProfitAfterFees <= 0 {
		cfg.MinProfitAfterFees = 0.03
	}
	if cfg.MaxBridgeTime <= 0 {
		cfg.MaxBridgeTime = 600
	}
	if len(cfg.SupportedChains) == 0 {
		cfg.SupportedChains = []string{"Ethereum", "BSC", "Polygon", "Arbitrum", "Optimism", "Avalanche"}
	}
	supported := make(map[string]bool, len(cfg.SupportedChains))
	for _, c := range cfg.SupportedChains {
		supported[c] = true
	}
	s := &CrossChainArbitrage{
		Tracker:            NewTracker("Cross-Chain Arbitrage", "Multi-chain arbitrage across bridges", TypeArbitrage),
		minProfitAfterFees: cfg.MinProfitAfterFees,
		maxBridgeTime:      cfg.MaxBridgeTime,
		supported:          supported,
	}
	s.setCounter("supported_chains", float64(len(supported)))
	return s
}

// Analyze compares every supported chain pair and keeps routes whose net
// profit and bridge time pass the gates.
func (s *CrossChainArbitrage) Analyze(snap market.Snapshot) Analysis {
	if len(snap.Chains) < 2 {
		return Analysis{}
	}

	names := sortedChainNames(snap.Chains)

	var opportunities []Opportunity
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			chainA, chainB := names[i], names[j]
			if !s.supported[chainA] || !s.supported[chainB] {
				continue
			}

			quoteA, quoteB := snap.Chains[chainA], snap.Chains[chainB]
			if quoteA.Price <= 0 || quoteB.Price <= 0 {
				continue
			}

			buyChain, sellChain := chainA, chainB
			buyPrice, sellPrice := quoteA.Price, quoteB.Price
			if quoteB.Price < quoteA.Price {
				buyChain, sellChain = chainB, chainA
				buyPrice, sellPrice = quoteB.Price, quoteA.Price
			}

			gross := (sellPrice - buyPrice) / buyPrice
			fee := bridgeFee(buyChain, sellChain)
			net := gross - fee - dexFeesBothSides
			bridgeTime := estimateBridgeTime(buyChain, sellChain)

			if net < s.minProfitAfterFees || bridgeTime > s.maxBridgeTime {
				continue
			}

			liquidity := math.Min(quoteA.Liquidity, quoteB.Liquidity)
			opportunities = append(opportunities, CrossChainOpportunity{
				BuyChain:         buyChain,
				SellChain:        sellChain,
				BuyPrice:         buyPrice,
				SellPrice:        sellPrice,
				GrossProfit:      gross,
				NetProfit:        net,
				BridgeFee:        fee,
				BridgeTime:       bridgeTime,
				Liquidity:        liquidity,
				OpportunityScore: crossChainScore(net, liquidity, bridgeTime, fee),
			})
		}
	}

	sortByScore(opportunities)
	s.addCounter("cross_chain_opportunities", float64(len(opportunities)))

	return analysisOf(opportunities)
}

// crossChainScore weights net profit, liquidity, bridge speed and fee
// efficiency.
func crossChainScore(netProfit, liquidity float64, bridgeTime int, fee float64) float64 {
	profitScore := netProfit * 100
	liquidityScore := math.Min(liquidity/50000, 10.0)
	speedScore := math.Max(10-float64(bridgeTime)/60, 0)
	feeScore := math.Max(10-fee*500, 0)

	return profitScore*0.50 + liquidityScore*0.25 + speedScore*0.15 + feeScore*0.10
}

func bridgeFee(chainA, chainB string) float64 {
	if fee, ok := bridgeFees[chainPair{chainA, chainB}]; ok {
		return fee
	}
	if fee, ok := bridgeFees[chainPair{chainB, chainA}]; ok {
		return fee
	}
	return defaultBridgeFee
}

// estimateBridgeTime returns the expected bridge latency in seconds.
func estimateBridgeTime(chainA, chainB string) int {
	switch {
	case l2Chains[chainA] && l2Chains[chainB]:
		return 180
	case l2Chains[chainA] || l2Chains[chainB]:
		return 420
	default:
		return 600
	}
}

// GenerateSignal derives the execute/hold decision from the best route.
func (s *CrossChainArbitrage) GenerateSignal(analysis Analysis) Signal {
	best, ok := analysis.Best.(CrossChainOpportunity)
	if !ok {
		return Hold("no cross-chain opportunities found")
	}

	return Signal{
		Action:         ActionExecuteCrossChain,
		Confidence:     math.Min(best.OpportunityScore/30, 1.0),
		ExpectedProfit: best.NetProfit,
		Details:        best,
	}
}

// CalculatePositionSize shrinks with bridge time; capital locked in transit
// carries price risk.
func (s *CrossChainArbitrage) CalculatePositionSize(sig Signal, portfolioValue float64, params RiskParams) float64 {
	if sig.Action == ActionHold || portfolioValue <= 0 {
		return 0
	}

	best, ok := sig.Details.(CrossChainOpportunity)
	if !ok {
		return 0
	}

	maxPosition := params.MaxPositionSize
	if maxPosition <= 0 {
		maxPosition = 0.15
	}

	timeFactor := math.Max(1.0-float64(best.BridgeTime)/float64(s.maxBridgeTime)*0.5, 0.5)

	optimal := math.Min(best.Liquidity/portfolioValue*0.5, maxPosition)
	optimal = math.Min(optimal, best.NetProfit*3*timeFactor)

	return math.Max(optimal, 0.02)
}

func sortedChainNames(chains map[string]market.ChainQuote) []string {
	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	// Map iteration order is random; pair enumeration must be deterministic.
	sort.Strings(names)
	return names
}
