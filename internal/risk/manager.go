package risk

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"defi-core/internal/strategy"
)

// Exposure above this share of the portfolio blocks any new trade.
const maxTotalExposure = 0.8

// Manager sizes trades, sets protective levels and tracks open exposure.
type Manager struct {
	mu sync.Mutex

	maxPortfolioRisk float64
	maxPositionSize  float64
	portfolioValue   float64
	totalExposure    float64
	positions        map[string]Position

	log zerolog.Logger
}

// NewManager creates a manager for the given portfolio.
func NewManager(portfolioValue, maxPortfolioRisk, maxPositionSize float64, log zerolog.Logger) *Manager {
	if maxPortfolioRisk <= 0 {
		maxPortfolioRisk = 0.02
	}
	if maxPositionSize <= 0 {
		maxPositionSize = 0.1
	}
	return &Manager{
		maxPortfolioRisk: maxPortfolioRisk,
		maxPositionSize:  maxPositionSize,
		portfolioValue:   portfolioValue,
		positions:        make(map[string]Position),
		log:              log.With().Str("component", "risk").Logger(),
	}
}

// AssessRisk scores the market, sizes the trade and decides approval.
func (m *Manager) AssessRisk(volatility, liquidity float64, strategyType strategy.Type) Assessment {
	m.mu.Lock()
	defer m.mu.Unlock()

	score := riskScore(volatility, liquidity)
	level := riskLevel(score)
	size := m.positionSize(level, volatility)
	stopLoss := stopLoss(volatility, strategyType)
	takeProfit := math.Min(stopLoss*2.5, 0.25)

	riskReward := 0.0
	if stopLoss > 0 {
		riskReward = takeProfit / stopLoss
	}

	a := Assessment{
		Level:           level,
		Score:           score,
		PositionSize:    size,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		MaxLoss:         size * stopLoss,
		RiskReward:      riskReward,
		Approved:        m.approve(level, size),
		CurrentExposure: m.totalExposure,
	}

	m.log.Debug().
		Str("level", string(a.Level)).
		Float64("size", a.PositionSize).
		Bool("approved", a.Approved).
		Msg("risk assessed")

	return a
}

// riskScore adds volatility and liquidity penalties.
func riskScore(volatility, liquidity float64) int {
	score := 0
	switch {
	case volatility > 0.1:
		score += 3
	case volatility > 0.05:
		score += 2
	case volatility > 0.02:
		score += 1
	}
	switch {
	case liquidity < 1e5:
		score += 2
	case liquidity < 1e6:
		score += 1
	}
	return score
}

func riskLevel(score int) Level {
	switch {
	case score >= 4:
		return LevelExtreme
	case score >= 3:
		return LevelHigh
	case score >= 2:
		return LevelMedium
	default:
		return LevelLow
	}
}

// positionSize scales the cap by risk tier and remaining capacity.
// Callers hold the lock.
func (m *Manager) positionSize(level Level, volatility float64) float64 {
	multiplier := 1.0
	switch level {
	case LevelExtreme:
		multiplier = 0.25
	case LevelHigh:
		multiplier = 0.5
	case LevelMedium:
		multiplier = 0.75
	}

	size := m.maxPositionSize * multiplier
	if volatility > 0.1 {
		size *= 0.5
	}

	remaining := 1 - m.totalExposure
	if size > remaining {
		size = remaining
	}
	return math.Max(size, 0)
}

// stopLoss widens with volatility, scaled per strategy style, capped at 10%.
func stopLoss(volatility float64, strategyType strategy.Type) float64 {
	base := 0.02 + math.Min(volatility*2, 0.05)

	multiplier := 1.0
	switch strategyType {
	case strategy.TypeArbitrage:
		multiplier = 0.5
	case strategy.TypeTrendFollowing:
		multiplier = 1.5
	case strategy.TypeMomentum:
		multiplier = 1.2
	case strategy.TypeLiquidityProvision:
		multiplier = 0.8
	}

	return math.Min(base*multiplier, 0.10)
}

// approve enforces the minimum tradable size and the exposure ceilings.
// Callers hold the lock.
func (m *Manager) approve(level Level, size float64) bool {
	if size < 0.001 {
		return false
	}
	if level == LevelExtreme && m.totalExposure > 0.5 {
		return false
	}
	return m.totalExposure+size <= maxTotalExposure
}

// OpenPosition charges the size against exposure and returns the position id.
func (m *Manager) OpenPosition(strategyName string, size, entryPrice, stopLoss, takeProfit float64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := Position{
		ID:         uuid.NewString(),
		Strategy:   strategyName,
		Size:       size,
		EntryPrice: entryPrice,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		OpenedAt:   time.Now().UTC(),
	}
	m.positions[p.ID] = p
	m.totalExposure += size

	m.log.Info().
		Str("position", p.ID).
		Str("strategy", strategyName).
		Float64("size", size).
		Msg("position opened")

	return p.ID
}

// ClosePosition releases the position's exposure. Unknown ids are a no-op.
func (m *Manager) ClosePosition(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[id]
	if !ok {
		return
	}
	delete(m.positions, id)
	m.totalExposure = math.Max(m.totalExposure-p.Size, 0)

	m.log.Info().Str("position", id).Float64("size", p.Size).Msg("position closed")
}

// UpdatePortfolio replaces the tracked portfolio value.
func (m *Manager) UpdatePortfolio(value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolioValue = value
}

// Status snapshots exposure and open positions.
func (m *Manager) Status() PortfolioStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	open := make([]Position, 0, len(m.positions))
	for _, p := range m.positions {
		open = append(open, p)
	}

	return PortfolioStatus{
		PortfolioValue: m.portfolioValue,
		TotalExposure:  m.totalExposure,
		OpenPositions:  open,
		CapacityLeft:   math.Max(maxTotalExposure-m.totalExposure, 0),
	}
}
