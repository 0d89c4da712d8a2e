package analysis

// Autocorrelation returns the normalized autocorrelation function
// ρ(k) for k = 0..maxLag. ρ(0) = 1 unless the series is constant.
func Autocorrelation(series []float64, maxLag int) []float64 {
	n := len(series)
	if n == 0 {
		return nil
	}
	if maxLag >= n {
		maxLag = n - 1
	}

	mean := Mean(series)
	c0 := 0.0
	for _, v := range series {
		d := v - mean
		c0 += d * d
	}

	rho := make([]float64, maxLag+1)
	if c0 == 0 {
		return rho
	}
	for k := 0; k <= maxLag; k++ {
		ck := 0.0
		for i := 0; i+k < n; i++ {
			ck += (series[i] - mean) * (series[i+k] - mean)
		}
		rho[k] = ck / c0
	}
	return rho
}

// IntegratedAutocorrelationTime estimates τ = 1/2 + Σ ρ(k), truncating the
// sum at the first non-positive ρ(k).
func IntegratedAutocorrelationTime(series []float64, maxLag int) float64 {
	rho := Autocorrelation(series, maxLag)
	if len(rho) == 0 {
		return 0
	}
	tau := 0.5
	for k := 1; k < len(rho); k++ {
		if rho[k] <= 0 {
			break
		}
		tau += rho[k]
	}
	return tau
}
