package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/model"
)

// handleGetActiveSignals lists every ACTIVE signal that has not yet
// expired.
func (s *Server) handleGetActiveSignals(c *gin.Context) {
	active, err := s.signals.Active(s.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load signals: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": active})
}

// handleCreateManualSignal lets an operator inject a signal as though a
// strategy had emitted it. It is validated and persisted as an ACTIVE
// signal the same way as any other. The engine's tick sends only the
// signals its strategies emit during that tick through the risk chain;
// it does not load persisted ACTIVE signals, so a manual signal is not
// submitted by the engine.
func (s *Server) handleCreateManualSignal(c *gin.Context) {
	var req struct {
		Symbol     string   `json:"symbol" binding:"required"`
		Direction  string   `json:"direction" binding:"required"`
		Strength   float64  `json:"strength"`
		EntryPrice float64  `json:"entryPrice" binding:"required"`
		StopLoss   float64  `json:"stopLoss" binding:"required"`
		TakeProfit *float64 `json:"takeProfit"`
		Timeframe  string   `json:"timeframe"`
		Reasons    []string `json:"reasons"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	now := s.now()
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = s.cfg.Timeframe
	}
	strength := req.Strength
	if strength <= 0 {
		strength = 1.0
	}

	sig := model.Signal{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		AssetClass: broker.Route(req.Symbol),
		Timeframe:  timeframe,
		Direction:  model.Direction(req.Direction),
		Strength:   strength,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Source:     model.SourceManual,
		Reasons:    req.Reasons,
		Status:     model.SignalActive,
		Timestamp:  now,
		ExpiresAt:  now.Add(s.cfg.Signal.SignalTTL),
	}
	if err := sig.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.signals.Create(sig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist signal: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sig.ID, "message": "signal created"})
}

// handleCancelSignal marks an active signal CANCELLED.
func (s *Server) handleCancelSignal(c *gin.Context) {
	id := c.Param("id")
	sig, err := s.signals.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "signal not found"})
		return
	}
	if sig.Status != model.SignalActive {
		c.JSON(http.StatusConflict, gin.H{"error": "signal is not active"})
		return
	}
	if err := s.signals.UpdateStatus(id, model.SignalCancelled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel signal: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signal cancelled"})
}
