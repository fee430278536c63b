package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleGetStatus reports the current risk state: equity, drawdown,
// position count, and circuit breaker status.
func (s *Server) handleGetStatus(c *gin.Context) {
	now := s.now()
	state, err := s.riskState.Get(s.cfg.StartingEquity, tradingDayFor(now), now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load risk state: " + err.Error()})
		return
	}

	positions, err := s.positions.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load positions: " + err.Error()})
		return
	}

	resp := gin.H{
		"env":                     s.cfg.Env,
		"positionCount":           len(positions),
		"currentEquity":           state.CurrentEquity,
		"startOfDayEquity":        state.StartOfDayEquity,
		"startOfWeekEquity":       state.StartOfWeekEquity,
		"peakEquity":              state.PeakEquity,
		"dailyPnl":                state.DailyPnl,
		"dailyPnlPercent":         state.DailyPnlPercent,
		"weeklyPnl":               state.WeeklyPnl,
		"weeklyPnlPercent":        state.WeeklyPnlPercent,
		"maxDrawdownPercent":      state.MaxDrawdownPercent,
		"consecutiveLosses":       state.ConsecutiveLosses,
		"consecutiveWins":         state.ConsecutiveWins,
		"todayTradeCount":         state.TodayTradeCount,
		"dayTradesUsed":           state.DayTradesUsed,
		"dayTradesRemaining":      state.DayTradesRemaining,
		"tradingDay":              state.TradingDay,
		"circuitBreakerTriggered": state.CircuitBreakerTriggered,
		"lastUpdated":             state.LastUpdated,
	}
	if state.CircuitBreakerUntil != nil {
		resp["circuitBreakerUntil"] = *state.CircuitBreakerUntil
	}
	if state.CircuitBreakerReason != nil {
		resp["circuitBreakerReason"] = string(*state.CircuitBreakerReason)
	}
	c.JSON(http.StatusOK, resp)
}

// handleResetCircuitBreaker clears a triggered breaker after verifying
// the supplied TOTP code against the configured operator secret. A
// blank TOTPSecret disables the endpoint entirely rather than accepting
// an unauthenticated reset.
func (s *Server) handleResetCircuitBreaker(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if s.cfg.TOTPSecret == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "circuit breaker reset is not configured"})
		return
	}
	if !validateTOTP(s.cfg.TOTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid TOTP code"})
		return
	}

	if err := s.eng.ResetCircuitBreaker(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset circuit breaker: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "circuit breaker reset"})
}

func tradingDayFor(now time.Time) string { return now.UTC().Format("2006-01-02") }

// handleGetRiskConfig exposes the risk manager's active thresholds, so
// an operator dashboard can render limits alongside the live state from
// handleGetStatus without needing a copy of the engine's config file.
func (s *Server) handleGetRiskConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"config": s.riskMgr.Config})
}
