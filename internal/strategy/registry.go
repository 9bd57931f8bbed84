package strategy

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Registry holds every strategy and maintains the global ranking order.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	rankings   []RankingEntry
	log        zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		log:        log.With().Str("component", "registry").Logger(),
	}
}

// Register adds or replaces a strategy and re-ranks.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[s.Name()] = s
	r.resort()
	r.log.Info().Str("strategy", s.Name()).Str("type", string(s.Type())).Msg("strategy registered")
}

// Unregister removes a strategy by name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.strategies[name]; !ok {
		return
	}
	delete(r.strategies, name)
	r.resort()
	r.log.Info().Str("strategy", name).Msg("strategy unregistered")
}

// Get returns the strategy by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// All returns every registered strategy in ranking order.
func (r *Registry) All() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, 0, len(r.rankings))
	for _, e := range r.rankings {
		out = append(out, r.strategies[e.Strategy])
	}
	return out
}

// UpdateGlobalRankings re-sorts after performance mutations.
func (r *Registry) UpdateGlobalRankings() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resort()
}

// resort rebuilds the ranking slice. Callers hold the write lock.
// Ties break on win rate, then profit factor, then name, so repeated
// sorts of an unchanged registry always produce the same leaderboard.
func (r *Registry) resort() {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]RankingEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, r.strategies[name].Ranking())
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].WinRate != entries[j].WinRate {
			return entries[i].WinRate > entries[j].WinRate
		}
		if entries[i].ProfitFactor != entries[j].ProfitFactor {
			return entries[i].ProfitFactor > entries[j].ProfitFactor
		}
		return entries[i].Strategy < entries[j].Strategy
	})

	for i := range entries {
		entries[i].GlobalPosition = i + 1
	}
	r.rankings = entries
}

// GlobalRankings returns a copy of the current leaderboard.
func (r *Registry) GlobalRankings() []RankingEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RankingEntry, len(r.rankings))
	copy(out, r.rankings)
	return out
}

// TopStrategies re-ranks and returns the best n entries.
func (r *Registry) TopStrategies(n int) []RankingEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resort()

	if n > len(r.rankings) {
		n = len(r.rankings)
	}
	if n < 0 {
		n = 0
	}
	out := make([]RankingEntry, n)
	copy(out, r.rankings[:n])
	return out
}

// SelectBestStrategy re-ranks and returns the highest-ranked
// production-ready strategy, or nil when none qualifies.
func (r *Registry) SelectBestStrategy() Strategy {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resort()

	for _, e := range r.rankings {
		s := r.strategies[e.Strategy]
		if s.ProductionReady() {
			return s
		}
	}
	return nil
}

// ProductionReadyStrategies returns every strategy that passes the
// production gates, in ranking order.
func (r *Registry) ProductionReadyStrategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Strategy
	for _, e := range r.rankings {
		s := r.strategies[e.Strategy]
		if s.ProductionReady() {
			out = append(out, s)
		}
	}
	return out
}

// EliteStrategies returns strategies holding the top tier.
func (r *Registry) EliteStrategies() []Strategy {
	return r.StrategiesByRank(RankElite)
}

// StrategiesByRank filters by tier, in ranking order.
func (r *Registry) StrategiesByRank(rank Rank) []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Strategy
	for _, e := range r.rankings {
		s := r.strategies[e.Strategy]
		if s.Rank() == rank {
			out = append(out, s)
		}
	}
	return out
}

// Report aggregates registry-wide performance.
type Report struct {
	TotalStrategies  int                    `json:"total_strategies"`
	ProductionReady  int                    `json:"production_ready"`
	TotalTrades      int                    `json:"total_trades"`
	TotalProfit      float64                `json:"total_profit"`
	OverallWinRate   float64                `json:"overall_win_rate"`
	Rankings         []RankingEntry         `json:"rankings"`
	Performances     map[string]Performance `json:"performances"`
	TierDistribution map[Rank]int           `json:"tier_distribution"`
}

// PerformanceReport builds the aggregate view across every strategy.
func (r *Registry) PerformanceReport() Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := Report{
		Rankings:         make([]RankingEntry, len(r.rankings)),
		Performances:     make(map[string]Performance, len(r.strategies)),
		TierDistribution: make(map[Rank]int),
	}
	copy(report.Rankings, r.rankings)

	var wins int
	for name, s := range r.strategies {
		p := s.Performance()
		report.Performances[name] = p
		report.TotalStrategies++
		report.TotalTrades += p.TotalTrades
		report.TotalProfit += p.TotalProfit - p.TotalLoss
		wins += p.WinningTrades
		report.TierDistribution[s.Rank()]++
		if s.ProductionReady() {
			report.ProductionReady++
		}
	}
	if report.TotalTrades > 0 {
		report.OverallWinRate = float64(wins) / float64(report.TotalTrades)
	}
	return report
}
