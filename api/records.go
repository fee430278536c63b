package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/synapsestrike/tradeengine/model"
)

const defaultRecordLimit = 50

// handleGetTrades returns recent orders for the requested symbol.
func (s *Server) handleGetTrades(c *gin.Context) {
	symbol := c.Query("symbol")
	limit := queryLimit(c, defaultRecordLimit)
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol query parameter is required"})
		return
	}
	trades, err := s.trades.BySymbol(symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trades: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// handleGetPositions returns every open position.
func (s *Server) handleGetPositions(c *gin.Context) {
	positions, err := s.positions.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load positions: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// handleGetAudit returns recent audit entries, optionally filtered to
// one category.
func (s *Server) handleGetAudit(c *gin.Context) {
	limit := queryLimit(c, defaultRecordLimit)
	var category *model.AuditCategory
	if raw := c.Query("category"); raw != "" {
		cat := model.AuditCategory(raw)
		category = &cat
	}
	entries, err := s.auditRepo.Recent(category, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit log: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func queryLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
