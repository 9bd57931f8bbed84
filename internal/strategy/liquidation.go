package strategy

import (
	"math"

	"defi-core/internal/market"
)

// Liquidation calls run roughly 300k gas.
const liquidationGasUnits = 300000

// LiquidationConfig tunes the liquidation hunter.
type LiquidationConfig struct {
	MinHealthFactor      float64
	MinLiquidationProfit float64
	MaxGasPrice          float64
}

// LiquidationOpportunity is a scored underwater lending position.
type LiquidationOpportunity struct {
	PositionID        string  `json:"position_id"`
	Protocol          string  `json:"protocol"`
	CollateralAsset   string  `json:"collateral_asset"`
	DebtAsset         string  `json:"debt_asset"`
	CollateralAmount  float64 `json:"collateral_amount"`
	DebtAmount        float64 `json:"debt_amount"`
	HealthFactor      float64 `json:"health_factor"`
	LiquidationProfit float64 `json:"liquidation_profit"`
	LiquidationBonus  float64 `json:"liquidation_bonus"`
	UrgencyScore      float64 `json:"urgency_score"`
}

// Score implements Opportunity; urgency multiplies profit so positions
// already under water outrank marginally better-paying ones.
func (o LiquidationOpportunity) Score() float64 {
	return o.LiquidationProfit * o.UrgencyScore
}

// LiquidationHunter monitors lending positions for profitable liquidations.
type LiquidationHunter struct {
	*Tracker

	minHealthFactor      float64
	minLiquidationProfit float64
	maxGasPrice          float64
}

// NewLiquidationHunter creates the strategy with the given thresholds.
func NewLiquidationHunter(cfg LiquidationConfig) *LiquidationHunter {
	if cfg.MinHealthFactor <= 0 {
		cfg.MinHealthFactor = 1.05
	}
	if cfg.MinLiquidationProfit <= 0 {
		cfg.MinLiquidationProfit = 0.02
	}
	if cfg.MaxGasPrice <= 0 {
		cfg.MaxGasPrice = 300
	}
	return &LiquidationHunter{
		Tracker:              NewTracker("Liquidation Hunter", "Lending protocol liquidation hunting", TypeArbitrage),
		minHealthFactor:      cfg.MinHealthFactor,
		minLiquidationProfit: cfg.MinLiquidationProfit,
		maxGasPrice:          cfg.MaxGasPrice,
	}
}

// Analyze flags positions below the health-factor watermark whose
// liquidation clears the profit gate after gas.
func (s *LiquidationHunter) Analyze(snap market.Snapshot) Analysis {
	if len(snap.LendingPositions) == 0 {
		return Analysis{}
	}

	gasPrice := snap.GasPrice
	if gasPrice == 0 {
		gasPrice = 50
	}

	s.addCounter("positions_monitored", float64(len(snap.LendingPositions)))

	var opportunities []Opportunity
	for _, pos := range snap.LendingPositions {
		health := healthFactor(pos, snap.AssetPrices)
		if health >= s.minHealthFactor {
			continue // position is healthy
		}

		profit := liquidationProfit(pos, snap.AssetPrices, gasPrice)
		if profit < s.minLiquidationProfit {
			continue
		}

		bonus := pos.LiquidationBonus
		if bonus == 0 {
			bonus = 0.05
		}

		opportunities = append(opportunities, LiquidationOpportunity{
			PositionID:        pos.ID,
			Protocol:          pos.Protocol,
			CollateralAsset:   pos.CollateralAsset,
			DebtAsset:         pos.DebtAsset,
			CollateralAmount:  pos.CollateralAmount,
			DebtAmount:        pos.DebtAmount,
			HealthFactor:      health,
			LiquidationProfit: profit,
			LiquidationBonus:  bonus,
			UrgencyScore:      urgencyScore(health),
		})
	}

	sortByScore(opportunities)

	return analysisOf(opportunities)
}

// healthFactor = collateral value x liquidation threshold / debt value.
// Below 1.0 the position is liquidatable on-chain.
func healthFactor(pos market.LendingPosition, prices map[string]float64) float64 {
	threshold := pos.LiquidationThreshold
	if threshold == 0 {
		threshold = 0.8
	}

	debtPrice := prices[pos.DebtAsset]
	if debtPrice == 0 || pos.DebtAmount == 0 {
		return math.Inf(1)
	}

	collateralValue := pos.CollateralAmount * prices[pos.CollateralAsset]
	debtValue := pos.DebtAmount * debtPrice

	return collateralValue * threshold / debtValue
}

// liquidationProfit returns expected net profit as a fraction of the
// capital required to repay the liquidatable debt.
func liquidationProfit(pos market.LendingPosition, prices map[string]float64, gasPrice float64) float64 {
	bonus := pos.LiquidationBonus
	if bonus == 0 {
		bonus = 0.05
	}
	maxPct := pos.MaxLiquidationPct
	if maxPct == 0 {
		maxPct = 0.5
	}

	collateralPrice := prices[pos.CollateralAsset]
	debtPrice := prices[pos.DebtAsset]
	if collateralPrice == 0 || debtPrice == 0 {
		return 0
	}

	liquidatableDebt := pos.DebtAmount * maxPct
	liquidationValue := liquidatableDebt * debtPrice

	collateralReceived := liquidatableDebt * debtPrice / collateralPrice * (1 + bonus)
	collateralValue := collateralReceived * collateralPrice

	netProfit := collateralValue - liquidationValue - estimateGasCost(gasPrice, liquidationGasUnits)

	if liquidationValue <= 0 {
		return 0
	}
	return netProfit / liquidationValue
}

// urgencyScore rises as the health factor falls toward liquidation.
func urgencyScore(health float64) float64 {
	switch {
	case health < 1.0:
		return 10 // liquidatable now
	case health < 1.01:
		return 8
	case health < 1.02:
		return 5
	case health < 1.03:
		return 3
	default:
		return 1
	}
}

// GenerateSignal derives the execute/hold decision from the best position.
func (s *LiquidationHunter) GenerateSignal(analysis Analysis) Signal {
	best, ok := analysis.Best.(LiquidationOpportunity)
	if !ok {
		return Hold("no liquidation opportunities found")
	}

	confidence := math.Min(best.LiquidationProfit*10+best.UrgencyScore/10, 1.0)

	return Signal{
		Action:         ActionExecuteLiquidation,
		Confidence:     confidence,
		ExpectedProfit: best.LiquidationProfit,
		Details:        best,
	}
}

// CalculatePositionSize scales with profit and urgency.
func (s *LiquidationHunter) CalculatePositionSize(sig Signal, portfolioValue float64, params RiskParams) float64 {
	if sig.Action == ActionHold || portfolioValue <= 0 {
		return 0
	}

	urgency := 1.0
	if best, ok := sig.Details.(LiquidationOpportunity); ok {
		urgency = best.UrgencyScore
	}

	maxPosition := params.MaxPositionSize
	if maxPosition <= 0 {
		maxPosition = 0.25
	}

	optimal := math.Min(maxPosition, sig.ExpectedProfit*2*(urgency/10))

	return math.Max(optimal, 0.03)
}
