package risk

import (
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// ApplyFill records one fill's outcome on the risk state: the day's
// trade count always advances; win/loss streaks only move on a realized
// (closing) result, so an entry fill with no realized PnL leaves them
// untouched.
func ApplyFill(state *model.RiskState, realizedPnl float64, now time.Time) {
	state.TodayTradeCount++
	switch {
	case realizedPnl > 0:
		state.ConsecutiveWins++
		state.ConsecutiveLosses = 0
	case realizedPnl < 0:
		state.ConsecutiveLosses++
		state.ConsecutiveWins = 0
	}
	state.LastUpdated = now
}
