package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-core/internal/events"
	"defi-core/internal/market"
	"defi-core/internal/optimizer"
	"defi-core/internal/paper"
	"defi-core/internal/risk"
	"defi-core/internal/strategy"
)

func testEngine() (*Engine, *strategy.Registry, *paper.Account, *paper.Ledger) {
	log := zerolog.Nop()
	registry := strategy.NewRegistry(log)
	registry.Register(strategy.NewFlashLoanArbitrage(strategy.FlashLoanConfig{}))
	registry.Register(strategy.NewCrossChainArbitrage(strategy.CrossChainConfig{}))

	account := paper.NewAccount(100000)
	ledger := paper.NewLedger(16)

	eng := New(Config{
		Registry:  registry,
		Analyzer:  market.NewAnalyzer(),
		Risk:      risk.NewManager(100000, 0.02, 0.1, log),
		Optimizer: optimizer.New(log),
		Account:   account,
		Ledger:    ledger,
		Bus:       events.NewBus(),
		Feed:      market.NewMockFeed(1, 2000),
		CycleRate: 10,
		Log:       log,
	})
	return eng, registry, account, ledger
}

func arbitrageSnapshot() market.Snapshot {
	return market.Snapshot{
		Price:    2000,
		GasPrice: 50,
		Exchanges: []market.Exchange{
			{Name: "Uniswap", Price: 2000, Liquidity: 500000},
			{Name: "SushiSwap", Price: 2050, Liquidity: 300000},
		},
	}
}

func TestProcessSnapshotExecutesAndSettles(t *testing.T) {
	eng, registry, account, ledger := testEngine()

	result := eng.ProcessSnapshot(arbitrageSnapshot())
	require.Len(t, result.Decisions, 2)

	var executed *Decision
	for i := range result.Decisions {
		if result.Decisions[i].Executed {
			executed = &result.Decisions[i]
		}
	}
	require.NotNil(t, executed, "the venue spread must execute")
	assert.Equal(t, strategy.ActionExecuteArbitrage, executed.Signal.Action)
	assert.Greater(t, executed.PositionSize, 0.0)

	// Profitable fill settled into the account and the ledger.
	assert.Greater(t, account.Equity(), 100000.0)
	assert.Len(t, ledger.Snapshot(), 1)

	// The trade reached the strategy's performance ledger.
	flash, ok := registry.Get("Flash Loan Arbitrage")
	require.True(t, ok)
	assert.Equal(t, 1, flash.Performance().TotalTrades)

	// Simulated fills release their exposure within the cycle.
	assert.Equal(t, 0.0, eng.risk.Status().TotalExposure)
}

func TestProcessSnapshotHoldsOnEmptyMarket(t *testing.T) {
	eng, _, account, ledger := testEngine()

	result := eng.ProcessSnapshot(market.Snapshot{Price: 2000})
	for _, d := range result.Decisions {
		assert.Equal(t, strategy.ActionHold, d.Signal.Action)
		assert.False(t, d.Executed)
	}
	assert.InDelta(t, 100000, account.Equity(), 1e-9)
	assert.Empty(t, ledger.Snapshot())
}

func TestProcessSnapshotSkipsDisabledStrategies(t *testing.T) {
	eng, registry, _, _ := testEngine()
	for _, s := range registry.All() {
		s.SetEnabled(false)
	}

	result := eng.ProcessSnapshot(arbitrageSnapshot())
	assert.Empty(t, result.Decisions)
}

func TestCycleStreamsOverBus(t *testing.T) {
	eng, _, _, _ := testEngine()
	ch, unsub := eng.bus.Subscribe(events.EventCycleComplete, 4)
	defer unsub()

	eng.ProcessSnapshot(arbitrageSnapshot())

	select {
	case msg := <-ch:
		result, ok := msg.(CycleResult)
		require.True(t, ok)
		assert.Len(t, result.Decisions, 2)
	default:
		t.Fatalf("cycle completion must be published")
	}
}
