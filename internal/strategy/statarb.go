package strategy

import (
	"fmt"
	"math"

	"defi-core/internal/market"
)

// StatArbConfig tunes the pairs scorer.
type StatArbConfig struct {
	ZScoreThreshold float64
	MinCorrelation  float64
	LookbackPeriods int
}

// Trade directions for a diverged pair.
const (
	SignalLongAShortB = "LONG_A_SHORT_B"
	SignalShortALongB = "SHORT_A_LONG_B"
)

// StatArbOpportunity is a correlated pair whose spread has diverged past
// the z-score threshold.
type StatArbOpportunity struct {
	AssetA         string  `json:"asset_a"`
	AssetB         string  `json:"asset_b"`
	Correlation    float64 `json:"correlation"`
	ZScore         float64 `json:"z_score"`
	CurrentSpread  float64 `json:"current_spread"`
	MeanSpread     float64 `json:"mean_spread"`
	Direction      string  `json:"direction"`
	ExpectedProfit float64 `json:"expected_profit"`
	ReversionScore float64 `json:"mean_reversion_score"`
}

// Score implements Opportunity.
func (o StatArbOpportunity) Score() float64 { return o.ReversionScore }

// StatisticalArbitrage trades spread reversion between historically
// correlated pairs.
type StatisticalArbitrage struct {
	*Tracker

	zScoreThreshold float64
	minCorrelation  float64
	lookbackPeriods int
}

// NewStatisticalArbitrage creates the strategy with the given thresholds.
func NewStatisticalArbitrage(cfg StatArbConfig) *StatisticalArbitrage {
	if cfg.ZScoreThreshold <= 0 {
		cfg.ZScoreThreshold = 2.0
	}
	if cfg.MinCorrelation <= 0 {
		cfg.MinCorrelation = 0.7
	}
	if cfg.LookbackPeriods <= 0 {
		cfg.LookbackPeriods = 30
	}
	return &StatisticalArbitrage{
		Tracker:         NewTracker("Statistical Arbitrage", "Pairs trading on spread mean reversion", TypeMeanReversion),
		zScoreThreshold: cfg.ZScoreThreshold,
		minCorrelation:  cfg.MinCorrelation,
		lookbackPeriods: cfg.LookbackPeriods,
	}
}

// Analyze evaluates every configured asset pair against its price history.
func (s *StatisticalArbitrage) Analyze(snap market.Snapshot) Analysis {
	if len(snap.AssetPairs) == 0 {
		return Analysis{}
	}

	var opportunities []Opportunity
	for _, pair := range snap.AssetPairs {
		s.addCounter("pairs_evaluated", 1)

		historyA := snap.PriceHistory[pair.AssetA]
		historyB := snap.PriceHistory[pair.AssetB]
		n := len(historyA)
		if len(historyB) < n {
			n = len(historyB)
		}
		if n < s.lookbackPeriods {
			continue
		}
		historyA = historyA[len(historyA)-n:]
		historyB = historyB[len(historyB)-n:]

		corr := pearsonCorrelation(historyA, historyB)
		if math.Abs(corr) < s.minCorrelation {
			continue
		}

		spreads := make([]float64, n)
		for i := range spreads {
			spreads[i] = historyA[i] - historyB[i]
		}

		mean, variance := meanVariance(spreads)
		stddev := math.Sqrt(variance)
		if stddev == 0 {
			continue
		}

		current := spreads[n-1]
		z := (current - mean) / stddev
		if math.Abs(z) < s.zScoreThreshold {
			continue
		}

		direction := SignalShortALongB
		if z < 0 {
			direction = SignalLongAShortB
		}

		opportunities = append(opportunities, StatArbOpportunity{
			AssetA:         pair.AssetA,
			AssetB:         pair.AssetB,
			Correlation:    corr,
			ZScore:         z,
			CurrentSpread:  current,
			MeanSpread:     mean,
			Direction:      direction,
			ExpectedProfit: math.Min(math.Abs(z)*0.02, 0.10),
			ReversionScore: reversionScore(z, corr),
		})
	}

	sortByScore(opportunities)
	return analysisOf(opportunities)
}

func meanVariance(xs []float64) (mean, variance float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= n
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= n
	return mean, variance
}

// pearsonCorrelation over two equal-length series. Returns 0 when either
// series is flat.
func pearsonCorrelation(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	meanA, _ := meanVariance(a)
	meanB, _ := meanVariance(b)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// reversionScore weights divergence depth and pair quality.
func reversionScore(z, corr float64) float64 {
	divergence := math.Min(math.Abs(z)/3, 1.0)
	return divergence*60 + math.Abs(corr)*40
}

// GenerateSignal turns the widest divergence into a pairs trade.
func (s *StatisticalArbitrage) GenerateSignal(analysis Analysis) Signal {
	best, ok := analysis.Best.(StatArbOpportunity)
	if !ok {
		return Hold("no diverged pairs found")
	}

	return Signal{
		Action:         ActionExecuteStatArb,
		Confidence:     math.Min(best.ReversionScore/100, 1.0),
		Reason:         fmt.Sprintf("%s/%s spread at %.2f sigma", best.AssetA, best.AssetB, best.ZScore),
		ExpectedProfit: best.ExpectedProfit,
		Details:        best,
	}
}

// CalculatePositionSize scales with divergence depth and correlation
// strength.
func (s *StatisticalArbitrage) CalculatePositionSize(sig Signal, portfolioValue float64, params RiskParams) float64 {
	if sig.Action == ActionHold || portfolioValue <= 0 {
		return 0
	}

	maxPosition := params.MaxPositionSize
	if maxPosition <= 0 {
		maxPosition = 0.2
	}

	var optimal float64
	if best, ok := sig.Details.(StatArbOpportunity); ok {
		depth := math.Min(math.Abs(best.ZScore)/3, 1.0)
		optimal = depth * math.Abs(best.Correlation) * 0.3
	}

	return math.Max(math.Min(optimal, maxPosition), 0.02)
}
