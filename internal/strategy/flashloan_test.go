package strategy

import (
	"math"
	"testing"

	"defi-core/internal/market"
)

func TestFlashLoanAnalyzeTwoVenueSpread(t *testing.T) {
	s := NewFlashLoanArbitrage(FlashLoanConfig{})
	snap := market.Snapshot{
		GasPrice: 50,
		Exchanges: []market.Exchange{
			{Name: "Uniswap", Price: 2000, Liquidity: 500000},
			{Name: "SushiSwap", Price: 2050, Liquidity: 300000},
		},
	}

	analysis := s.Analyze(snap)
	if analysis.Total != 1 {
		t.Fatalf("expected 1 opportunity, got %d", analysis.Total)
	}

	best := analysis.Best.(FlashLoanOpportunity)
	if best.BuyExchange != "Uniswap" || best.SellExchange != "SushiSwap" {
		t.Fatalf("wrong direction: buy %s sell %s", best.BuyExchange, best.SellExchange)
	}
	if math.Abs(best.ProfitPercentage-0.025) > 1e-9 {
		t.Fatalf("profit=%v, expected 0.025", best.ProfitPercentage)
	}
	// 2.5 * liq(3) * prob(1) - gas(40/500)*10 = 6.7
	if math.Abs(best.TARScore-6.7) > 1e-9 {
		t.Fatalf("TAR=%v, expected 6.7", best.TARScore)
	}
}

func TestReportingCountersConcurrentWithAnalyze(t *testing.T) {
	s := NewFlashLoanArbitrage(FlashLoanConfig{})
	snap := market.Snapshot{
		GasPrice: 50,
		Exchanges: []market.Exchange{
			{Name: "Uniswap", Price: 2000, Liquidity: 500000},
			{Name: "SushiSwap", Price: 2050, Liquidity: 300000},
		},
	}

	// Performance snapshots are served to the API while the engine keeps
	// analyzing; both sides must be safe to run at once.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.Analyze(snap)
		}
	}()
	for i := 0; i < 200; i++ {
		s.Performance()
	}
	<-done

	if got := s.Performance().Extras["opportunities_found"]; got != 200 {
		t.Fatalf("opportunities_found=%v, expected 200", got)
	}
}

func TestFlashLoanGates(t *testing.T) {
	tests := []struct {
		name string
		snap market.Snapshot
	}{
		{name: "empty snapshot", snap: market.Snapshot{}},
		{
			name: "single venue",
			snap: market.Snapshot{Exchanges: []market.Exchange{{Name: "Uniswap", Price: 2000, Liquidity: 1e6}}},
		},
		{
			name: "spread below threshold",
			snap: market.Snapshot{Exchanges: []market.Exchange{
				{Name: "Uniswap", Price: 2000, Liquidity: 1e6},
				{Name: "SushiSwap", Price: 2002, Liquidity: 1e6},
			}},
		},
		{
			name: "thin liquidity",
			snap: market.Snapshot{Exchanges: []market.Exchange{
				{Name: "Uniswap", Price: 2000, Liquidity: 5000},
				{Name: "SushiSwap", Price: 2100, Liquidity: 5000},
			}},
		},
		{
			name: "zero price",
			snap: market.Snapshot{Exchanges: []market.Exchange{
				{Name: "Uniswap", Price: 0, Liquidity: 1e6},
				{Name: "SushiSwap", Price: 2100, Liquidity: 1e6},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFlashLoanArbitrage(FlashLoanConfig{})
			analysis := s.Analyze(tt.snap)
			if analysis.Total != 0 {
				t.Fatalf("expected no opportunities, got %d", analysis.Total)
			}

			sig := s.GenerateSignal(analysis)
			if sig.Action != ActionHold || sig.Confidence != 0 {
				t.Fatalf("expected HOLD with zero confidence, got %s/%v", sig.Action, sig.Confidence)
			}
			if s.CalculatePositionSize(sig, 100000, RiskParams{}) != 0 {
				t.Fatalf("HOLD must size to zero")
			}
		})
	}
}

func TestFlashLoanOrderingAndDeterminism(t *testing.T) {
	s := NewFlashLoanArbitrage(FlashLoanConfig{})
	snap := market.Snapshot{
		GasPrice: 30,
		Exchanges: []market.Exchange{
			{Name: "Uniswap", Price: 2000, Liquidity: 500000},
			{Name: "SushiSwap", Price: 2050, Liquidity: 300000},
			{Name: "Curve", Price: 2080, Liquidity: 400000},
		},
	}

	first := s.Analyze(snap)
	for i := 0; i+1 < len(first.Opportunities); i++ {
		if first.Opportunities[i].Score() < first.Opportunities[i+1].Score() {
			t.Fatalf("opportunities not sorted descending at %d", i)
		}
	}

	second := s.Analyze(snap)
	if len(first.Opportunities) != len(second.Opportunities) {
		t.Fatalf("repeat analysis changed result count")
	}
	for i := range first.Opportunities {
		if first.Opportunities[i].Score() != second.Opportunities[i].Score() {
			t.Fatalf("repeat analysis changed score at %d", i)
		}
	}
}

func TestFlashLoanPositionSize(t *testing.T) {
	s := NewFlashLoanArbitrage(FlashLoanConfig{})
	sig := Signal{
		Action:         ActionExecuteArbitrage,
		ExpectedProfit: 0.025,
		Details:        FlashLoanOpportunity{AvailableLiquidity: 300000},
	}

	size := s.CalculatePositionSize(sig, 100000, RiskParams{})
	if math.Abs(size-0.125) > 1e-9 {
		t.Fatalf("size=%v, expected 0.125", size)
	}

	// Risk cap binds before profit scaling.
	size = s.CalculatePositionSize(sig, 100000, RiskParams{MaxPositionSize: 0.05})
	if math.Abs(size-0.05) > 1e-9 {
		t.Fatalf("size=%v, expected 0.05", size)
	}
}
