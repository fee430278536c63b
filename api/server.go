// Package api exposes the control-plane HTTP surface: read-only status
// and history endpoints plus the small set of operator actions (manual
// signal, cancel signal, circuit breaker reset) the engine does not
// decide for itself.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/synapsestrike/tradeengine/config"
	"github.com/synapsestrike/tradeengine/engine"
	"github.com/synapsestrike/tradeengine/metrics"
	"github.com/synapsestrike/tradeengine/risk"
	"github.com/synapsestrike/tradeengine/store"
)

// Server holds every dependency a handler needs to read the engine's
// state or act on it. There is no request-scoped state; every handler
// reads straight from the repositories the engine itself writes
// through.
type Server struct {
	cfg *config.Config
	eng *engine.Engine

	trades    *store.TradeRepo
	positions *store.PositionRepo
	signals   *store.SignalRepo
	riskState *store.RiskStateRepo
	auditRepo *store.AuditRepo
	riskMgr   *risk.Manager

	now func() time.Time
}

// New builds a Server. eng is used only for the action a read of the
// repositories cannot express: the circuit breaker reset.
func New(cfg *config.Config, eng *engine.Engine, trades *store.TradeRepo, positions *store.PositionRepo,
	signals *store.SignalRepo, riskState *store.RiskStateRepo, auditRepo *store.AuditRepo, riskMgr *risk.Manager) *Server {
	return &Server{
		cfg: cfg, eng: eng, trades: trades, positions: positions, signals: signals,
		riskState: riskState, auditRepo: auditRepo, riskMgr: riskMgr, now: time.Now,
	}
}

// Router builds the gin engine with every control-plane route
// registered. No auth middleware runs here except the TOTP check on the
// circuit breaker reset route itself; the rest of the surface is
// read-only or explicitly operator-triggered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	r.GET("/status", s.handleGetStatus)
	r.GET("/signals", s.handleGetActiveSignals)
	r.POST("/signals", s.handleCreateManualSignal)
	r.POST("/signals/:id/cancel", s.handleCancelSignal)
	r.GET("/trades", s.handleGetTrades)
	r.GET("/positions", s.handleGetPositions)
	r.GET("/audit", s.handleGetAudit)
	r.GET("/risk/config", s.handleGetRiskConfig)
	r.POST("/risk/circuit-breaker/reset", s.handleResetCircuitBreaker)

	return r
}
