package strategy

import (
	"math"
	"testing"

	"defi-core/internal/market"
)

func TestCrossChainNetProfitMath(t *testing.T) {
	s := NewCrossChainArbitrage(CrossChainConfig{})
	snap := market.Snapshot{
		Chains: map[string]market.ChainQuote{
			"Ethereum": {Price: 2000, Liquidity: 500000},
			"Arbitrum": {Price: 2100, Liquidity: 400000},
		},
	}

	analysis := s.Analyze(snap)
	if analysis.Total != 1 {
		t.Fatalf("expected 1 route, got %d", analysis.Total)
	}

	best := analysis.Best.(CrossChainOpportunity)
	if best.BuyChain != "Ethereum" || best.SellChain != "Arbitrum" {
		t.Fatalf("wrong route: buy %s sell %s", best.BuyChain, best.SellChain)
	}
	// gross 0.05, bridge fee 0.0005, DEX fees 0.006
	if math.Abs(best.NetProfit-0.0435) > 1e-9 {
		t.Fatalf("net=%v, expected 0.0435", best.NetProfit)
	}
	if best.BridgeTime != 420 {
		t.Fatalf("bridge time=%d, expected 420 for L1-L2", best.BridgeTime)
	}
}

func TestCrossChainBridgeTimes(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"Arbitrum", "Optimism", 180},
		{"Ethereum", "Polygon", 420},
		{"Ethereum", "BSC", 600},
	}
	for _, tt := range tests {
		if got := estimateBridgeTime(tt.a, tt.b); got != tt.want {
			t.Fatalf("bridge %s-%s=%d, expected %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCrossChainBridgeFeeLookupBothOrders(t *testing.T) {
	if bridgeFee("Arbitrum", "Ethereum") != 0.0005 {
		t.Fatalf("reversed route must find the fee table entry")
	}
	if bridgeFee("Solana", "Ethereum") != defaultBridgeFee {
		t.Fatalf("unknown route must fall back to the default fee")
	}
}

func TestCrossChainGates(t *testing.T) {
	tests := []struct {
		name string
		cfg  CrossChainConfig
		snap market.Snapshot
	}{
		{
			name: "thin spread fails net profit gate",
			snap: market.Snapshot{Chains: map[string]market.ChainQuote{
				"Ethereum": {Price: 2000, Liquidity: 1e6},
				"Arbitrum": {Price: 2020, Liquidity: 1e6}, // gross 0.01 < fees+min
			}},
		},
		{
			name: "slow bridge fails time gate",
			cfg:  CrossChainConfig{MaxBridgeTime: 300},
			snap: market.Snapshot{Chains: map[string]market.ChainQuote{
				"Ethereum": {Price: 2000, Liquidity: 1e6},
				"BSC":      {Price: 2200, Liquidity: 1e6}, // 600s L1-L1
			}},
		},
		{
			name: "unsupported chain ignored",
			cfg:  CrossChainConfig{SupportedChains: []string{"Ethereum", "Polygon"}},
			snap: market.Snapshot{Chains: map[string]market.ChainQuote{
				"Ethereum": {Price: 2000, Liquidity: 1e6},
				"Fantom":   {Price: 2200, Liquidity: 1e6},
			}},
		},
		{name: "single chain", snap: market.Snapshot{Chains: map[string]market.ChainQuote{
			"Ethereum": {Price: 2000, Liquidity: 1e6},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCrossChainArbitrage(tt.cfg)
			if got := s.Analyze(tt.snap); got.Total != 0 {
				t.Fatalf("expected no routes, got %d", got.Total)
			}
		})
	}
}

func TestCrossChainPositionSizeShrinksWithBridgeTime(t *testing.T) {
	s := NewCrossChainArbitrage(CrossChainConfig{})

	fast := Signal{
		Action:         ActionExecuteCrossChain,
		ExpectedProfit: 0.04,
		Details:        CrossChainOpportunity{NetProfit: 0.04, BridgeTime: 180, Liquidity: 500000},
	}
	slow := fast
	slow.Details = CrossChainOpportunity{NetProfit: 0.04, BridgeTime: 600, Liquidity: 500000}

	if s.CalculatePositionSize(fast, 100000, RiskParams{}) < s.CalculatePositionSize(slow, 100000, RiskParams{}) {
		t.Fatalf("longer bridge must not size larger")
	}
}
