package indicator

// VolumeResult reports the current volume versus its trailing average.
type VolumeResult struct {
	Current float64
	SMA     float64
	RVOL    float64 // relative volume: current / sma
}

// Volume computes the current volume reading against an SMA over period.
func Volume(volumes []float64, period int) (VolumeResult, error) {
	sma, err := SMA(volumes, period)
	if err != nil {
		return VolumeResult{}, err
	}
	current := volumes[len(volumes)-1]
	rvol := 0.0
	if sma != 0 {
		rvol = current / sma
	}
	return VolumeResult{Current: current, SMA: sma, RVOL: rvol}, nil
}
