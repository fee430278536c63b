package indicator

import "math"

// BollingerBand is a single bar's Bollinger Bands reading.
type BollingerBand struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Bandwidth float64
	Squeeze   bool
}

// BollingerBands computes the full band series over the given period and k
// (standard deviation multiplier). Squeeze marks bars whose bandwidth is
// below 50% of the mean bandwidth across the computed series.
func BollingerBands(prices []float64, period int, k float64) ([]BollingerBand, error) {
	if period <= 0 || len(prices) < period {
		return nil, ErrInsufficientData
	}

	out := make([]BollingerBand, len(prices)-period+1)
	var bandwidthSum float64
	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		var variance float64
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		variance /= float64(period)
		sigma := math.Sqrt(variance)

		upper := mean + k*sigma
		lower := mean - k*sigma
		bandwidth := 0.0
		if mean != 0 {
			bandwidth = 2 * k * sigma / mean
		}
		out[i-period+1] = BollingerBand{Upper: upper, Middle: mean, Lower: lower, Bandwidth: bandwidth}
		bandwidthSum += bandwidth
	}

	meanBandwidth := bandwidthSum / float64(len(out))
	for i := range out {
		out[i].Squeeze = out[i].Bandwidth < 0.5*meanBandwidth
	}
	return out, nil
}

// BandPercentile reports where price sits within [lower, upper] as a
// fraction in [0, 1]; 0 means at/below the lower band, 1 means at/above
// the upper band. Returns 0.5 (mid-band) if the bands have collapsed.
func BandPercentile(price float64, band BollingerBand) float64 {
	width := band.Upper - band.Lower
	if width <= 0 {
		return 0.5
	}
	pct := (price - band.Lower) / width
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

// BollingerProjection maps band-extremity into a direction/strength
// opinion: at-or-beyond-band strength is 0.8.
func BollingerProjection(price float64, band BollingerBand) Projection {
	pct := BandPercentile(price, band)
	switch {
	case pct <= 0.05:
		return Projection{Direction: Long, Strength: 0.8}
	case pct >= 0.95:
		return Projection{Direction: Short, Strength: 0.8}
	default:
		return neutral()
	}
}
