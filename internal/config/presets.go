package config

// Presets are named measurement schedules. Critical temperature of the
// square-lattice model with J = kB = 1 is 2/ln(1+√2) ≈ 2.269.
var Presets = map[string]*Config{
	"cooling": {
		Size: 64, Coupling: 1, SetupSweeps: 20, SweepsPerMeasure: 50,
		Temperatures: linspace(4.0, 0.5, 36), Fields: []float64{0},
		Outputs: Outputs{Energy: true, Magnetization: true},
	},
	"heating": {
		Size: 64, Coupling: 1, SetupSweeps: 20, SweepsPerMeasure: 50,
		Temperatures: linspace(0.5, 4.0, 36), Fields: []float64{0},
		Outputs: Outputs{Energy: true, Magnetization: true},
	},
	"hysteresis": {
		Size: 32, Coupling: 1, SetupSweeps: 20, SweepsPerMeasure: 20,
		Temperatures: []float64{1.5},
		Fields:       append(linspace(-1, 1, 21), linspace(0.9, -1, 20)...),
		Outputs:      Outputs{Energy: true, Magnetization: true},
	},
	"critical": {
		Size: 128, Coupling: 1, SetupSweeps: 20, SweepsPerMeasure: 10,
		Temperatures: linspace(2.1, 2.45, 15), Fields: []float64{0},
		Outputs: Outputs{Spins: true, Energy: true, Magnetization: true},
	},
}

func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Boltzmann = DefaultBoltzmann
	cfg.MagneticMoment = DefaultMagneticMoment
	cfg.Temperatures = append([]float64(nil), p.Temperatures...)
	cfg.Fields = append([]float64(nil), p.Fields...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

func linspace(from, to float64, n int) []float64 {
	if n == 1 {
		return []float64{from}
	}
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}
