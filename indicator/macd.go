package indicator

// MACDResult holds the MACD line, its signal line, and the histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes macd = EMA(fast) - EMA(slow), signal = EMA(macd, signalPeriod),
// histogram = macd - signal. Conventional defaults are fast=12, slow=26,
// signalPeriod=9.
func MACD(prices []float64, fast, slow, signalPeriod int) (MACDResult, error) {
	if len(prices) < slow+signalPeriod {
		return MACDResult{}, ErrInsufficientData
	}

	fastSeries, err := EMASeries(prices, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowSeries, err := EMASeries(prices, slow)
	if err != nil {
		return MACDResult{}, err
	}

	macdSeries := make([]float64, len(prices))
	for i := range prices {
		macdSeries[i] = fastSeries[i] - slowSeries[i]
	}
	// Only the tail of macdSeries starting once the slow EMA has real
	// warmup is meaningful; feed the whole series into the signal EMA so
	// the smoothing matches a conventional MACD implementation.
	signalSeries, err := EMASeries(macdSeries, signalPeriod)
	if err != nil {
		return MACDResult{}, err
	}

	last := len(prices) - 1
	macd := macdSeries[last]
	signal := signalSeries[last]
	return MACDResult{MACD: macd, Signal: signal, Histogram: macd - signal}, nil
}

// MACDSeries returns the full histogram series, needed to detect a
// sign-change between consecutive bars.
func MACDSeries(prices []float64, fast, slow, signalPeriod int) ([]float64, error) {
	if len(prices) < slow+signalPeriod {
		return nil, ErrInsufficientData
	}
	fastSeries, err := EMASeries(prices, fast)
	if err != nil {
		return nil, err
	}
	slowSeries, err := EMASeries(prices, slow)
	if err != nil {
		return nil, err
	}
	macdSeries := make([]float64, len(prices))
	for i := range prices {
		macdSeries[i] = fastSeries[i] - slowSeries[i]
	}
	signalSeries, err := EMASeries(macdSeries, signalPeriod)
	if err != nil {
		return nil, err
	}
	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = macdSeries[i] - signalSeries[i]
	}
	return hist, nil
}

// MACDProjection maps the histogram's latest behavior onto a direction and
// strength: a sign-change versus the prior bar yields strength 0.7, a
// same-sign continuing trend yields strength 0.5.
func MACDProjection(histogram []float64) Projection {
	n := len(histogram)
	if n == 0 {
		return neutral()
	}
	last := histogram[n-1]
	if last == 0 {
		return neutral()
	}
	dir := Long
	if last < 0 {
		dir = Short
	}
	if n < 2 {
		return Projection{Direction: dir, Strength: 0.5}
	}
	prev := histogram[n-2]
	signChanged := (prev <= 0 && last > 0) || (prev >= 0 && last < 0)
	if signChanged {
		return Projection{Direction: dir, Strength: 0.7}
	}
	return Projection{Direction: dir, Strength: 0.5}
}
