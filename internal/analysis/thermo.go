package analysis

import "math"

func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// Variance is the population variance <x²> - <x>².
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean := Mean(data)
	sum := 0.0
	for _, v := range data {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(data))
}

// SpecificHeat returns c = Var(E) / (N kB T²) per site from samples of the
// total energy taken at a single temperature.
func SpecificHeat(energies []float64, temperature float64, sites int, kB float64) float64 {
	if sites == 0 || temperature <= 0 || kB <= 0 {
		return 0
	}
	return Variance(energies) / (float64(sites) * kB * temperature * temperature)
}

// Susceptibility returns χ = N Var(|m|) / (kB T) from samples of the
// mean spin m taken at a single temperature.
func Susceptibility(mags []float64, temperature float64, sites int, kB float64) float64 {
	if temperature <= 0 || kB <= 0 {
		return 0
	}
	abs := make([]float64, len(mags))
	for i, m := range mags {
		abs[i] = math.Abs(m)
	}
	return float64(sites) * Variance(abs) / (kB * temperature)
}

// BinderCumulant returns U = 1 - <m⁴> / (3 <m²>²).
func BinderCumulant(mags []float64) float64 {
	if len(mags) == 0 {
		return 0
	}
	m2, m4 := 0.0, 0.0
	for _, m := range mags {
		sq := m * m
		m2 += sq
		m4 += sq * sq
	}
	n := float64(len(mags))
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	return 1 - m4/(3*m2*m2)
}
