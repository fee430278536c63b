package indicator

// RSI computes Wilder-smoothed Relative Strength Index over the given
// period (default 14 by convention of the caller). Fails when
// len(prices) < period+1. If the average loss is zero, returns 100.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period+1 {
		return 0, ErrInsufficientData
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// RSIProjection maps the latest RSI reading onto a direction/strength
// opinion using the 30/70 oversold/overbought thresholds.
func RSIProjection(rsi float64) Projection {
	switch {
	case rsi <= 30:
		strength := (30 - rsi) / 30
		if strength > 1 {
			strength = 1
		}
		return Projection{Direction: Long, Strength: 0.5 + 0.5*strength}
	case rsi >= 70:
		strength := (rsi - 70) / 30
		if strength > 1 {
			strength = 1
		}
		return Projection{Direction: Short, Strength: 0.5 + 0.5*strength}
	default:
		return neutral()
	}
}
