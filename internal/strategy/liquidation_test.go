package strategy

import (
	"math"
	"testing"

	"defi-core/internal/market"
)

func underwaterPosition() market.LendingPosition {
	return market.LendingPosition{
		ID:                   "pos-1",
		Protocol:             "Aave",
		CollateralAsset:      "ETH",
		DebtAsset:            "USDC",
		CollateralAmount:     100,
		DebtAmount:           190000,
		LiquidationThreshold: 0.8,
		LiquidationBonus:     0.05,
		MaxLiquidationPct:    0.5,
	}
}

func TestLiquidationHealthFactor(t *testing.T) {
	prices := map[string]float64{"ETH": 2000, "USDC": 1}

	hf := healthFactor(underwaterPosition(), prices)
	// 100*2000*0.8 / 190000 = 0.8421
	if math.Abs(hf-0.842105) > 1e-5 {
		t.Fatalf("health=%v, expected 0.8421", hf)
	}

	zeroDebt := underwaterPosition()
	zeroDebt.DebtAmount = 0
	if !math.IsInf(healthFactor(zeroDebt, prices), 1) {
		t.Fatalf("zero debt must be infinitely healthy")
	}
}

func TestLiquidationAnalyze(t *testing.T) {
	s := NewLiquidationHunter(LiquidationConfig{})
	snap := market.Snapshot{
		GasPrice:         50,
		LendingPositions: []market.LendingPosition{underwaterPosition()},
		AssetPrices:      map[string]float64{"ETH": 2000, "USDC": 1},
	}

	analysis := s.Analyze(snap)
	if analysis.Total != 1 {
		t.Fatalf("expected 1 opportunity, got %d", analysis.Total)
	}

	best := analysis.Best.(LiquidationOpportunity)
	if best.UrgencyScore != 10 {
		t.Fatalf("urgency=%v, expected 10 for liquidatable position", best.UrgencyScore)
	}
	// repay 95000, receive 49.875 ETH (99750), minus 30 gas: 4720/95000
	if math.Abs(best.LiquidationProfit-0.049684) > 1e-5 {
		t.Fatalf("profit=%v, expected 0.049684", best.LiquidationProfit)
	}
}

func TestLiquidationSkipsHealthyPositions(t *testing.T) {
	s := NewLiquidationHunter(LiquidationConfig{})
	healthy := underwaterPosition()
	healthy.DebtAmount = 100000 // HF = 1.6

	analysis := s.Analyze(market.Snapshot{
		LendingPositions: []market.LendingPosition{healthy},
		AssetPrices:      map[string]float64{"ETH": 2000, "USDC": 1},
	})
	if analysis.Total != 0 {
		t.Fatalf("healthy position must not be flagged")
	}
	if s.GenerateSignal(analysis).Action != ActionHold {
		t.Fatalf("expected HOLD on healthy book")
	}
}

func TestLiquidationMissingPricesYieldZeroProfit(t *testing.T) {
	s := NewLiquidationHunter(LiquidationConfig{})
	analysis := s.Analyze(market.Snapshot{
		LendingPositions: []market.LendingPosition{underwaterPosition()},
		AssetPrices:      map[string]float64{"USDC": 1}, // no collateral price
	})
	if analysis.Total != 0 {
		t.Fatalf("missing collateral price must not produce an opportunity")
	}
}

func TestLiquidationPositionSizeScalesWithUrgency(t *testing.T) {
	s := NewLiquidationHunter(LiquidationConfig{})

	urgent := Signal{
		Action:         ActionExecuteLiquidation,
		ExpectedProfit: 0.05,
		Details:        LiquidationOpportunity{LiquidationProfit: 0.05, UrgencyScore: 10},
	}
	mild := Signal{
		Action:         ActionExecuteLiquidation,
		ExpectedProfit: 0.05,
		Details:        LiquidationOpportunity{LiquidationProfit: 0.05, UrgencyScore: 3},
	}

	if s.CalculatePositionSize(urgent, 100000, RiskParams{}) < s.CalculatePositionSize(mild, 100000, RiskParams{}) {
		t.Fatalf("urgent liquidation must size at least as large")
	}
}
