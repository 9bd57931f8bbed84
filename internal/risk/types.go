package risk

import "time"

// Level buckets a market snapshot by how hostile it is.
type Level string

const (
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
	LevelExtreme Level = "EXTREME"
)

// Assessment is the full risk verdict for one proposed trade.
type Assessment struct {
	Level           Level   `json:"risk_level"`
	Score           int     `json:"risk_score"`
	PositionSize    float64 `json:"position_size"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	MaxLoss         float64 `json:"max_loss"`
	RiskReward      float64 `json:"risk_reward"`
	Approved        bool    `json:"approved"`
	CurrentExposure float64 `json:"current_exposure"`
}

// Position is one open allocation charged against the portfolio.
type Position struct {
	ID         string    `json:"id"`
	Strategy   string    `json:"strategy"`
	Size       float64   `json:"size"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	OpenedAt   time.Time `json:"opened_at"`
}

// PortfolioStatus is the registry-facing exposure snapshot.
type PortfolioStatus struct {
	PortfolioValue float64    `json:"portfolio_value"`
	TotalExposure  float64    `json:"total_exposure"`
	OpenPositions  []Position `json:"open_positions"`
	CapacityLeft   float64    `json:"capacity_left"`
}
