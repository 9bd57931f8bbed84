package market

import (
	"math/rand"
)

// MockFeed generates synthetic snapshots for local development. Randomness
// lives here, outside the decision path, which stays deterministic per
// snapshot.
type MockFeed struct {
	rng   *rand.Rand
	price float64
}

// NewMockFeed seeds a feed with a deterministic generator so demo runs are
// reproducible.
func NewMockFeed(seed int64, startPrice float64) *MockFeed {
	if startPrice <= 0 {
		startPrice = 2000
	}
	return &MockFeed{rng: rand.New(rand.NewSource(seed)), price: startPrice}
}

// Next produces one synthetic snapshot via a random walk around the current
// price, with occasional venue spreads wide enough to qualify as arbitrage.
func (m *MockFeed) Next() Snapshot {
	m.price *= 1 + (m.rng.Float64()*2-1)*0.01

	spread := m.rng.Float64() * 0.03
	snap := Snapshot{
		Price:      m.price,
		Volume:     500000 + m.rng.Float64()*1500000,
		Liquidity:  200000 + m.rng.Float64()*2000000,
		Volatility: 0.01 + m.rng.Float64()*0.12,
		GasPrice:   20 + m.rng.Float64()*80,
		Exchanges: []Exchange{
			{Name: "Uniswap", Price: m.price, Liquidity: 100000 + m.rng.Float64()*400000},
			{Name: "SushiSwap", Price: m.price * (1 + spread), Liquidity: 100000 + m.rng.Float64()*400000},
			{Name: "Curve", Price: m.price * (1 - spread/2), Liquidity: 50000 + m.rng.Float64()*200000},
		},
		Chains: map[string]ChainQuote{
			"Ethereum": {Price: m.price, Liquidity: 500000},
			"Arbitrum": {Price: m.price * (1 + m.rng.Float64()*0.05), Liquidity: 300000},
			"Polygon":  {Price: m.price * (1 - m.rng.Float64()*0.02), Liquidity: 250000},
		},
		YieldProtocols: []YieldProtocol{
			{Name: "Aave", APY: 0.04 + m.rng.Float64()*0.1, TVL: 5e9, RiskScore: 0.1},
			{Name: "Compound", APY: 0.03 + m.rng.Float64()*0.1, TVL: 2e9, RiskScore: 0.15},
			{Name: "DegenFarm", APY: 0.5 + m.rng.Float64()*2, TVL: 2e6, RiskScore: 0.85},
		},
	}

	if m.rng.Float64() < 0.4 {
		snap.Mempool = []PendingTx{{
			Hash:     "0xabc123",
			Type:     "swap",
			Value:    20000 + m.rng.Float64()*80000,
			GasPrice: snap.GasPrice,
			Pool:     "ETH-USDC",
			TokenIn:  "USDC",
			TokenOut: "ETH",
		}}
		snap.Pools = map[string]Pool{
			"ETH-USDC": {ReserveIn: 5e6 + m.rng.Float64()*5e6, ReserveOut: 2500 + m.rng.Float64()*2500},
		}
	}

	if m.rng.Float64() < 0.3 {
		snap.LendingPositions = []LendingPosition{{
			ID:                   "pos-1",
			Protocol:             "Aave",
			CollateralAsset:      "ETH",
			DebtAsset:            "USDC",
			CollateralAmount:     100,
			DebtAmount:           150000 + m.rng.Float64()*50000,
			LiquidationThreshold: 0.8,
			LiquidationBonus:     0.05,
			MaxLiquidationPct:    0.5,
		}}
		snap.AssetPrices = map[string]float64{"ETH": m.price, "USDC": 1}
	}

	if m.rng.Float64() < 0.25 {
		base := m.price
		histA := make([]float64, 40)
		histB := make([]float64, 40)
		for i := range histA {
			step := (m.rng.Float64()*2 - 1) * 0.01
			base *= 1 + step
			histA[i] = base
			histB[i] = base * 0.5 * (1 + (m.rng.Float64()*2-1)*0.002)
		}
		snap.AssetPairs = []AssetPair{{AssetA: "stETH", AssetB: "rETH"}}
		snap.PriceHistory = map[string][]float64{"stETH": histA, "rETH": histB}
	}

	return snap
}
