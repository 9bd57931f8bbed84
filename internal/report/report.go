// Package report renders the leaderboard and performance summary for the
// console and the /api/report endpoint.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"defi-core/internal/risk"
	"defi-core/internal/strategy"
)

// WriteRankings renders the global leaderboard as a table.
func WriteRankings(w io.Writer, rankings []strategy.RankingEntry) {
	if len(rankings) == 0 {
		fmt.Fprintln(w, "no strategies registered")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Strategy", "Tier", "Score", "Win rate", "Profit factor", "Trades")

	for _, e := range rankings {
		table.Append(
			fmt.Sprintf("%d", e.GlobalPosition),
			e.Strategy,
			string(e.Rank),
			fmt.Sprintf("%.1f", e.Score),
			fmt.Sprintf("%.1f%%", e.WinRate*100),
			fmt.Sprintf("%.2f", e.ProfitFactor),
			fmt.Sprintf("%d", e.TotalTrades),
		)
	}

	table.Render()
}

// WriteSummary renders the registry aggregate plus portfolio exposure.
func WriteSummary(w io.Writer, rep strategy.Report, status risk.PortfolioStatus) {
	fmt.Fprintf(w, "strategies: %d (%d production ready)\n", rep.TotalStrategies, rep.ProductionReady)
	fmt.Fprintf(w, "trades: %d, win rate %.1f%%, net profit %.4f\n",
		rep.TotalTrades, rep.OverallWinRate*100, rep.TotalProfit)
	fmt.Fprintf(w, "exposure: %.1f%% of portfolio (%.1f%% capacity left)\n",
		status.TotalExposure*100, status.CapacityLeft*100)

	if len(rep.TierDistribution) > 0 {
		var parts []string
		for _, tier := range []strategy.Rank{
			strategy.RankElite,
			strategy.RankAdvanced,
			strategy.RankProfessional,
			strategy.RankStandard,
			strategy.RankExperimental,
		} {
			if n := rep.TierDistribution[tier]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s:%d", tier, n))
			}
		}
		fmt.Fprintf(w, "tiers: %s\n", strings.Join(parts, " "))
	}

	WriteRankings(w, rep.Rankings)
}

// Text renders the full report to a string for API responses.
func Text(rep strategy.Report, status risk.PortfolioStatus) string {
	var sb strings.Builder
	WriteSummary(&sb, rep, status)
	return sb.String()
}
