package report

import (
	"strings"
	"testing"

	"defi-core/internal/risk"
	"defi-core/internal/strategy"
)

func sampleReport() strategy.Report {
	return strategy.Report{
		TotalStrategies: 2,
		ProductionReady: 1,
		TotalTrades:     30,
		TotalProfit:     450,
		OverallWinRate:  0.6,
		Rankings: []strategy.RankingEntry{
			{Strategy: "Flash Loan Arbitrage", Rank: strategy.RankElite, Score: 91.2, WinRate: 0.7, ProfitFactor: 3.1, TotalTrades: 20, GlobalPosition: 1},
			{Strategy: "Yield Optimizer", Rank: strategy.RankStandard, Score: 42.0, WinRate: 0.4, ProfitFactor: 0.8, TotalTrades: 10, GlobalPosition: 2},
		},
		TierDistribution: map[strategy.Rank]int{
			strategy.RankElite:    1,
			strategy.RankStandard: 1,
		},
	}
}

func TestWriteSummary(t *testing.T) {
	var sb strings.Builder
	WriteSummary(&sb, sampleReport(), risk.PortfolioStatus{
		TotalExposure: 0.25,
		CapacityLeft:  0.55,
	})
	out := sb.String()

	for _, want := range []string{
		"strategies: 2 (1 production ready)",
		"trades: 30, win rate 60.0%",
		"exposure: 25.0% of portfolio (55.0% capacity left)",
		"Flash Loan Arbitrage",
		"Yield Optimizer",
		"91.2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// The leaderboard must come out in ranking order.
	if strings.Index(out, "Flash Loan Arbitrage") > strings.Index(out, "Yield Optimizer") {
		t.Error("rankings rendered out of order")
	}
}

func TestWriteRankingsEmpty(t *testing.T) {
	var sb strings.Builder
	WriteRankings(&sb, nil)
	if !strings.Contains(sb.String(), "no strategies registered") {
		t.Errorf("unexpected output: %q", sb.String())
	}
}
