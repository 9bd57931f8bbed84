package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"defi-core/internal/api"
	"defi-core/internal/engine"
	"defi-core/internal/events"
	"defi-core/internal/market"
	"defi-core/internal/optimizer"
	"defi-core/internal/paper"
	"defi-core/internal/risk"
	"defi-core/internal/strategy"
	"defi-core/internal/util"
	"defi-core/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := util.NewLogger(cfg.LogLevel)
	log.Info().Str("port", cfg.Port).Float64("portfolio", cfg.PortfolioValue).Msg("starting decision core")

	bus := events.NewBus()
	defer bus.Close()

	registry := strategy.NewRegistry(log)
	for _, s := range buildStrategies(cfg) {
		registry.Register(s)
	}

	riskMgr := risk.NewManager(cfg.PortfolioValue, cfg.MaxPortfolioRisk, cfg.MaxPositionSize, log)
	opt := optimizer.New(log)
	account := paper.NewAccount(cfg.PortfolioValue)
	ledger := paper.NewLedger(1024)

	eng := engine.New(engine.Config{
		Registry:  registry,
		Analyzer:  market.NewAnalyzer(),
		Risk:      riskMgr,
		Optimizer: opt,
		Account:   account,
		Ledger:    ledger,
		Bus:       bus,
		Feed:      market.NewMockFeed(time.Now().UnixNano(), 2000),
		CycleRate: cfg.CycleRate,
		Log:       log,
	})

	server := api.NewServer(registry, riskMgr, opt, account, bus, cfg.JWTSecret, log)

	// Bootstrap token for the control endpoints, printed once at startup.
	if token, err := api.GenerateToken("bootstrap", cfg.JWTSecret, time.Now().Add(72*time.Hour)); err == nil {
		log.Info().Str("token", token).Msg("operator token")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: ":" + cfg.Port, Handler: server.Router}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	if cfg.UseMockFeed {
		go func() {
			if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("engine stopped")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

// buildStrategies constructs the six scorers from config, leaving zero
// values to each scorer's defaults.
func buildStrategies(cfg *config.Config) []strategy.Strategy {
	sc := cfg.Strategies
	return []strategy.Strategy{
		strategy.NewFlashLoanArbitrage(strategy.FlashLoanConfig{
			MinProfitThreshold: sc.FlashLoan.MinProfitThreshold,
			MaxGasCost:         sc.FlashLoan.MaxGasCost,
			MinLiquidity:       sc.FlashLoan.MinLiquidity,
		}),
		strategy.NewCrossChainArbitrage(strategy.CrossChainConfig{
			MinProfitAfterFees: sc.CrossChain.MinProfitAfterFees,
			MaxBridgeTime:      sc.CrossChain.MaxBridgeTime,
			SupportedChains:    sc.CrossChain.SupportedChains,
		}),
		strategy.NewLiquidationHunter(strategy.LiquidationConfig{
			MinHealthFactor:      sc.Liquidation.MinHealthFactor,
			MinLiquidationProfit: sc.Liquidation.MinLiquidationProfit,
			MaxGasPrice:          sc.Liquidation.MaxGasPrice,
		}),
		strategy.NewMEVSandwich(strategy.MEVConfig{
			MinTransactionSize: sc.MEV.MinTransactionSize,
			MinExpectedProfit:  sc.MEV.MinExpectedProfit,
			MaxSlippageImpact:  sc.MEV.MaxSlippageImpact,
		}),
		strategy.NewStatisticalArbitrage(strategy.StatArbConfig{
			ZScoreThreshold: sc.StatArb.ZScoreThreshold,
			MinCorrelation:  sc.StatArb.CorrelationThreshold,
			LookbackPeriods: sc.StatArb.LookbackPeriod,
		}),
		strategy.NewYieldOptimizer(strategy.YieldConfig{
			MinAPY:             sc.Yield.MinAPY,
			MaxRiskScore:       sc.Yield.MaxProtocolRisk,
			RebalanceThreshold: sc.Yield.RebalanceThreshold,
		}),
	}
}
