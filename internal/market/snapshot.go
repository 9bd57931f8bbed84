// Package market defines the immutable per-cycle view of the world consumed
// by strategies, plus the rolling analyzer that feeds the optimizer.
package market

// Exchange is one venue quote used by flash-loan arbitrage.
type Exchange struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Liquidity float64 `json:"liquidity"`
}

// ChainQuote is the price and liquidity of an asset on one network.
type ChainQuote struct {
	Price     float64 `json:"price"`
	Liquidity float64 `json:"liquidity"`
}

// LendingPosition is a borrow position on a lending protocol.
type LendingPosition struct {
	ID                   string  `json:"id"`
	Protocol             string  `json:"protocol"`
	CollateralAsset      string  `json:"collateral_asset"`
	DebtAsset            string  `json:"debt_asset"`
	CollateralAmount     float64 `json:"collateral_amount"`
	DebtAmount           float64 `json:"debt_amount"`
	LiquidationThreshold float64 `json:"liquidation_threshold"`
	LiquidationBonus     float64 `json:"liquidation_bonus"`
	MaxLiquidationPct    float64 `json:"max_liquidation_pct"`
}

// PendingTx is a mempool transaction candidate for sandwiching.
type PendingTx struct {
	Hash     string  `json:"hash"`
	Type     string  `json:"type"` // "swap" or "trade" are sandwich targets
	Value    float64 `json:"value"`
	GasPrice float64 `json:"gas_price"`
	Pool     string  `json:"pool"`
	TokenIn  string  `json:"token_in"`
	TokenOut string  `json:"token_out"`
}

// Pool holds constant-product AMM reserves.
type Pool struct {
	ReserveIn  float64 `json:"reserve_in"`
	ReserveOut float64 `json:"reserve_out"`
}

// AssetPair names two assets traded as a statistical-arbitrage pair.
type AssetPair struct {
	AssetA string `json:"asset_a"`
	AssetB string `json:"asset_b"`
}

// YieldProtocol is one farming venue quote.
type YieldProtocol struct {
	Name      string  `json:"name"`
	APY       float64 `json:"apy"`
	TVL       float64 `json:"tvl"`
	RiskScore float64 `json:"risk_score"`
}

// Snapshot is the algorithm-specific view of the market passed into a single
// analysis call. Strategies read only the slice of it they understand; the
// zero value of every field is a valid "no data" input.
type Snapshot struct {
	// Scalar conditions shared by the risk manager and analyzer.
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Liquidity  float64 `json:"liquidity"`
	Volatility float64 `json:"volatility"`
	GasPrice   float64 `json:"gas_price"` // gwei

	// Flash-loan arbitrage.
	Exchanges []Exchange `json:"exchanges,omitempty"`

	// Cross-chain arbitrage.
	Chains map[string]ChainQuote `json:"chains,omitempty"`

	// Liquidation hunting.
	LendingPositions []LendingPosition  `json:"lending_positions,omitempty"`
	AssetPrices      map[string]float64 `json:"asset_prices,omitempty"`

	// MEV sandwiching.
	Mempool []PendingTx     `json:"pending_transactions,omitempty"`
	Pools   map[string]Pool `json:"liquidity_pools,omitempty"`

	// Statistical arbitrage.
	AssetPairs   []AssetPair          `json:"asset_pairs,omitempty"`
	PriceHistory map[string][]float64 `json:"price_history,omitempty"`

	// Yield optimization.
	YieldProtocols    []YieldProtocol    `json:"yield_protocols,omitempty"`
	CurrentAllocation map[string]float64 `json:"current_allocation,omitempty"`
}

// Conditions is the volatility/liquidity view the risk manager assesses.
type Conditions struct {
	Volatility    float64 `json:"volatility"`
	Liquidity     float64 `json:"liquidity"`
	TrendStrength float64 `json:"trend_strength"`
}
