// Package api exposes the rankings, portfolio and control endpoints over
// HTTP plus a websocket event stream.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"defi-core/internal/events"
	"defi-core/internal/optimizer"
	"defi-core/internal/paper"
	"defi-core/internal/report"
	"defi-core/internal/risk"
	"defi-core/internal/strategy"
)

// Server wires HTTP endpoints around the registry and the event bus.
type Server struct {
	Router    *gin.Engine
	Registry  *strategy.Registry
	RiskMgr   *risk.Manager
	Optimizer *optimizer.Optimizer
	Account   *paper.Account
	Bus       *events.Bus
	JWTSecret string
	Log       zerolog.Logger
}

// NewServer builds the router with the standard middleware stack.
func NewServer(registry *strategy.Registry, riskMgr *risk.Manager, opt *optimizer.Optimizer, account *paper.Account, bus *events.Bus, jwtSecret string, log zerolog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(log))
	r.Use(RateLimitMiddleware())
	r.Use(CORSMiddleware())

	s := &Server{
		Router:    r,
		Registry:  registry,
		RiskMgr:   riskMgr,
		Optimizer: opt,
		Account:   account,
		Bus:       bus,
		JWTSecret: jwtSecret,
		Log:       log.With().Str("component", "api").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.Router.Group("/api")
	{
		api.GET("/rankings", s.getRankings)
		api.GET("/strategies", s.getStrategies)
		api.GET("/strategies/:name", s.getStrategy)
		api.GET("/portfolio", s.getPortfolio)
		api.GET("/optimizer", s.getOptimizerReport)
		api.GET("/report", s.getReport)

		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.POST("/strategies/:name/enable", s.enableStrategy)
			protected.POST("/strategies/:name/disable", s.disableStrategy)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getRankings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rankings": s.Registry.GlobalRankings()})
}

func (s *Server) getStrategies(c *gin.Context) {
	rep := s.Registry.PerformanceReport()
	c.JSON(http.StatusOK, gin.H{
		"total":            rep.TotalStrategies,
		"production_ready": rep.ProductionReady,
		"performances":     rep.Performances,
	})
}

func (s *Server) getStrategy(c *gin.Context) {
	st, ok := s.Registry.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":  "UNKNOWN_STRATEGY",
			"error": "strategy not found",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"performance":      st.Performance(),
		"ranking":          st.Ranking(),
		"enabled":          st.Enabled(),
		"production_ready": st.ProductionReady(),
	})
}

func (s *Server) getPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"risk":    s.RiskMgr.Status(),
		"account": s.Account.Snapshot(),
	})
}

func (s *Server) getOptimizerReport(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": s.Optimizer.PerformanceReport()})
}

func (s *Server) getReport(c *gin.Context) {
	c.String(http.StatusOK, report.Text(s.Registry.PerformanceReport(), s.RiskMgr.Status()))
}

func (s *Server) enableStrategy(c *gin.Context) {
	s.setEnabled(c, true)
}

func (s *Server) disableStrategy(c *gin.Context) {
	s.setEnabled(c, false)
}

func (s *Server) setEnabled(c *gin.Context, enabled bool) {
	name := c.Param("name")
	st, ok := s.Registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":  "UNKNOWN_STRATEGY",
			"error": "strategy not found",
		})
		return
	}
	st.SetEnabled(enabled)
	s.Log.Info().
		Str("strategy", name).
		Bool("enabled", enabled).
		Str("operator", c.GetString(operatorContextKey)).
		Msg("strategy toggled")
	c.JSON(http.StatusOK, gin.H{"strategy": name, "enabled": enabled})
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
