package market

import (
	"math"
	"sync"
)

// historyCap bounds the rolling price/volume history.
const historyCap = 1000

// QuickOpportunity is a coarse condition tag used by the optimizer's
// strategy-type scorer, not a tradable opportunity.
type QuickOpportunity struct {
	Type            string  `json:"type"` // arbitrage, mean_reversion, momentum
	ProfitPotential float64 `json:"profit_potential"`
}

// Analysis is the condition summary the optimizer consumes.
type Analysis struct {
	Price          float64            `json:"price"`
	Volume         float64            `json:"volume"`
	Liquidity      float64            `json:"liquidity"`
	Trend          float64            `json:"trend"`
	TrendStrength  float64            `json:"trend_strength"`
	Volatility     float64            `json:"volatility"`
	Momentum       float64            `json:"momentum"`
	PriceDeviation float64            `json:"price_deviation"`
	Opportunities  []QuickOpportunity `json:"opportunities"`
}

// Analyzer keeps a rolling price history and derives trend, volatility,
// momentum and deviation figures from it.
type Analyzer struct {
	mu     sync.Mutex
	prices []float64
	volume []float64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze summarises the snapshot against the rolling history and appends
// the snapshot's price/volume to it.
func (a *Analyzer) Analyze(snap Snapshot) Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()

	an := Analysis{
		Price:          snap.Price,
		Volume:         snap.Volume,
		Liquidity:      snap.Liquidity,
		Trend:          a.trend(),
		TrendStrength:  a.trendStrength(),
		Volatility:     a.volatility(),
		Momentum:       a.momentum(),
		PriceDeviation: a.priceDeviation(snap.Price),
	}
	an.Opportunities = a.quickOpportunities(snap, an)

	a.prices = append(a.prices, snap.Price)
	a.volume = append(a.volume, snap.Volume)
	if len(a.prices) > historyCap {
		a.prices = a.prices[len(a.prices)-historyCap:]
		a.volume = a.volume[len(a.volume)-historyCap:]
	}

	return an
}

func (a *Analyzer) recent(n int) []float64 {
	if len(a.prices) <= n {
		return a.prices
	}
	return a.prices[len(a.prices)-n:]
}

func (a *Analyzer) trend() float64 {
	recent := a.recent(20)
	if len(recent) < 2 || recent[0] == 0 {
		return 0
	}
	return (recent[len(recent)-1] - recent[0]) / recent[0]
}

func (a *Analyzer) trendStrength() float64 {
	if len(a.prices) < 5 {
		return 0
	}
	recent := a.recent(10)
	avg, variance := meanVariance(recent)
	if avg <= 0 {
		return 0
	}
	return math.Min(variance/(avg*avg)*100, 1.0)
}

func (a *Analyzer) volatility() float64 {
	recent := a.recent(20)
	if len(recent) < 2 {
		return 0
	}
	avg, variance := meanVariance(recent)
	if avg <= 0 {
		return 0
	}
	return math.Sqrt(variance) / avg
}

func (a *Analyzer) momentum() float64 {
	if len(a.prices) < 5 {
		return 0
	}
	recent := a.recent(5)
	if recent[0] <= 0 {
		return 0
	}
	return (recent[len(recent)-1] - recent[0]) / recent[0]
}

func (a *Analyzer) priceDeviation(current float64) float64 {
	if len(a.prices) < 10 {
		return 0
	}
	recent := a.recent(20)
	avg, variance := meanVariance(recent)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	if current == 0 {
		current = avg
	}
	return (current - avg) / std
}

func (a *Analyzer) quickOpportunities(snap Snapshot, an Analysis) []QuickOpportunity {
	var ops []QuickOpportunity

	if len(snap.Exchanges) > 1 {
		minPrice, maxPrice := snap.Exchanges[0].Price, snap.Exchanges[0].Price
		for _, ex := range snap.Exchanges[1:] {
			minPrice = math.Min(minPrice, ex.Price)
			maxPrice = math.Max(maxPrice, ex.Price)
		}
		if minPrice > 0 && (maxPrice-minPrice)/minPrice > 0.01 {
			ops = append(ops, QuickOpportunity{
				Type:            "arbitrage",
				ProfitPotential: (maxPrice - minPrice) / minPrice,
			})
		}
	}

	if math.Abs(an.PriceDeviation) > 2.0 {
		ops = append(ops, QuickOpportunity{
			Type:            "mean_reversion",
			ProfitPotential: math.Abs(an.PriceDeviation) * 0.1,
		})
	}

	if math.Abs(an.Momentum) > 0.05 {
		ops = append(ops, QuickOpportunity{
			Type:            "momentum",
			ProfitPotential: math.Abs(an.Momentum),
		})
	}

	return ops
}

func meanVariance(xs []float64) (mean, variance float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, variance
}
