package strategy

import (
	"math"
	"testing"

	"defi-core/internal/market"
)

// correlatedPair builds 30 samples where B tracks A at half price, with the
// final spread pushed away from its mean.
func correlatedPair() market.Snapshot {
	histA := make([]float64, 30)
	histB := make([]float64, 30)
	for i := range histA {
		histA[i] = 100 + float64(i%5)
		histB[i] = histA[i] * 0.5
	}
	histB[29] -= 2 // spread outlier

	return market.Snapshot{
		AssetPairs:   []market.AssetPair{{AssetA: "stETH", AssetB: "rETH"}},
		PriceHistory: map[string][]float64{"stETH": histA, "rETH": histB},
	}
}

func TestPearsonCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10}
	if corr := pearsonCorrelation(a, b); math.Abs(corr-1) > 1e-9 {
		t.Fatalf("perfect positive pair: corr=%v", corr)
	}

	inverse := []float64{10, 8, 6, 4, 2}
	if corr := pearsonCorrelation(a, inverse); math.Abs(corr+1) > 1e-9 {
		t.Fatalf("perfect inverse pair: corr=%v", corr)
	}

	flat := []float64{3, 3, 3, 3, 3}
	if corr := pearsonCorrelation(a, flat); corr != 0 {
		t.Fatalf("flat series must correlate to zero, got %v", corr)
	}
}

func TestStatArbDetectsDivergedSpread(t *testing.T) {
	s := NewStatisticalArbitrage(StatArbConfig{})
	analysis := s.Analyze(correlatedPair())
	if analysis.Total != 1 {
		t.Fatalf("expected 1 pair, got %d", analysis.Total)
	}

	best := analysis.Best.(StatArbOpportunity)
	if math.Abs(best.Correlation) < 0.7 {
		t.Fatalf("corr=%v, expected near-perfect pair", best.Correlation)
	}
	if math.Abs(best.ZScore) < 2 {
		t.Fatalf("z=%v, expected |z| past threshold", best.ZScore)
	}
	// Spread widened above its mean, so short the rich leg.
	if best.Direction != SignalShortALongB {
		t.Fatalf("direction=%s, expected %s", best.Direction, SignalShortALongB)
	}
	if best.ExpectedProfit <= 0 || best.ExpectedProfit > 0.10 {
		t.Fatalf("expected profit=%v out of [0, 0.10]", best.ExpectedProfit)
	}
}

func TestStatArbGates(t *testing.T) {
	t.Run("short history", func(t *testing.T) {
		s := NewStatisticalArbitrage(StatArbConfig{})
		snap := correlatedPair()
		snap.PriceHistory["stETH"] = snap.PriceHistory["stETH"][:10]
		if got := s.Analyze(snap); got.Total != 0 {
			t.Fatalf("short history must be skipped")
		}
	})

	t.Run("uncorrelated pair", func(t *testing.T) {
		s := NewStatisticalArbitrage(StatArbConfig{})
		histA := make([]float64, 30)
		histB := make([]float64, 30)
		for i := range histA {
			histA[i] = 100 + float64(i%5)
			histB[i] = 50 + float64((i*7)%11) // unrelated wobble
		}
		snap := market.Snapshot{
			AssetPairs:   []market.AssetPair{{AssetA: "A", AssetB: "B"}},
			PriceHistory: map[string][]float64{"A": histA, "B": histB},
		}
		if got := s.Analyze(snap); got.Total != 0 {
			t.Fatalf("uncorrelated pair must be skipped")
		}
	})

	t.Run("converged spread", func(t *testing.T) {
		s := NewStatisticalArbitrage(StatArbConfig{})
		snap := correlatedPair()
		snap.PriceHistory["rETH"][29] += 2 // undo the outlier
		if got := s.Analyze(snap); got.Total != 0 {
			t.Fatalf("converged spread must not trigger")
		}
	})

	t.Run("empty snapshot holds", func(t *testing.T) {
		s := NewStatisticalArbitrage(StatArbConfig{})
		sig := s.GenerateSignal(s.Analyze(market.Snapshot{}))
		if sig.Action != ActionHold || sig.Confidence != 0 {
			t.Fatalf("expected HOLD/0, got %s/%v", sig.Action, sig.Confidence)
		}
	})
}

func TestStatArbPositionSizeBounds(t *testing.T) {
	s := NewStatisticalArbitrage(StatArbConfig{})
	sig := Signal{
		Action:         ActionExecuteStatArb,
		ExpectedProfit: 0.06,
		Details:        StatArbOpportunity{ZScore: 3, Correlation: 0.95},
	}

	size := s.CalculatePositionSize(sig, 100000, RiskParams{})
	if size < 0.02 || size > 0.2 {
		t.Fatalf("size=%v out of [0.02, 0.2]", size)
	}
}
