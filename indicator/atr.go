package indicator

// ATR computes the Wilder-smoothed Average True Range over the given
// period.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	series, err := ATRSeries(highs, lows, closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// ATRSeries computes the full Wilder-smoothed ATR series, one value per bar
// starting from the (period+1)-th bar (true range needs a previous close).
func ATRSeries(highs, lows, closes []float64, period int) ([]float64, error) {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return nil, ErrInsufficientData
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := abs(highs[i] - closes[i-1])
		lc := abs(lows[i] - closes[i-1])
		tr[i] = max3(hl, hc, lc)
	}

	out := make([]float64, 0, n-period+1)
	var atr float64
	for i := 1; i <= period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)
	out = append(out, atr)

	for i := period + 1; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out = append(out, atr)
	}
	return out, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// ATRPercentile reports where the latest ATR sits within the historical ATR
// series, as a fraction in [0, 1] (used by the regime detector's
// volatility classification).
func ATRPercentile(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	last := series[len(series)-1]
	below := 0
	for _, v := range series {
		if v <= last {
			below++
		}
	}
	return float64(below) / float64(len(series))
}
