package indicator

// ADXResult is the Average Directional Index reading plus the two
// directional indicators it is derived from.
type ADXResult struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX computes the Average Directional Index from true directional
// movement (+DM/-DM) and true range, Wilder-smoothed over period.
// +DM/-DM/TR are derived directly from highs/lows/closes per Wilder's
// definition.
func ADX(highs, lows, closes []float64, period int) (ADXResult, error) {
	n := len(closes)
	if period <= 0 || n < 2*period+1 || len(highs) != n || len(lows) != n {
		return ADXResult{}, ErrInsufficientData
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]

	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}

		hl := highs[i] - lows[i]
		hc := abs(highs[i] - closes[i-1])
		lc := abs(lows[i] - closes[i-1])
		tr[i] = max3(hl, hc, lc)
	}

	smooth := func(series []float64) []float64 {
		out := make([]float64, len(series))
		var acc float64
		for i := 1; i <= period; i++ {
			acc += series[i]
		}
		out[period] = acc
		for i := period + 1; i < len(series); i++ {
			out[i] = out[i-1] - out[i-1]/float64(period) + series[i]
		}
		return out
	}

	smoothedTR := smooth(tr)
	smoothedPlusDM := smooth(plusDM)
	smoothedMinusDM := smooth(minusDM)

	dx := make([]float64, n)
	for i := period; i < n; i++ {
		if smoothedTR[i] == 0 {
			dx[i] = 0
			continue
		}
		plusDI := 100 * smoothedPlusDM[i] / smoothedTR[i]
		minusDI := 100 * smoothedMinusDM[i] / smoothedTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * abs(plusDI-minusDI) / sum
	}

	// Wilder-smooth DX into ADX starting at 2*period.
	var adx float64
	for i := period; i < 2*period; i++ {
		adx += dx[i]
	}
	adx /= float64(period)
	for i := 2 * period; i < n; i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
	}

	last := n - 1
	plusDI := 0.0
	minusDI := 0.0
	if smoothedTR[last] != 0 {
		plusDI = 100 * smoothedPlusDM[last] / smoothedTR[last]
		minusDI = 100 * smoothedMinusDM[last] / smoothedTR[last]
	}

	return ADXResult{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}, nil
}

// ADXProjection maps ADX magnitude onto strength: >=40 strength 0.8, >=25
// strength 0.5, else neutral. Direction follows DI dominance.
func ADXProjection(r ADXResult) Projection {
	var dir Direction
	switch {
	case r.PlusDI > r.MinusDI:
		dir = Long
	case r.MinusDI > r.PlusDI:
		dir = Short
	default:
		return neutral()
	}
	switch {
	case r.ADX >= 40:
		return Projection{Direction: dir, Strength: 0.8}
	case r.ADX >= 25:
		return Projection{Direction: dir, Strength: 0.5}
	default:
		return neutral()
	}
}
