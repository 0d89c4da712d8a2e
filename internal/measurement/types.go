package measurement

import (
	"fmt"

	"github.com/san-kum/isingsim/internal/ising"
)

// Metric accumulates a scalar over every recorded configuration.
type Metric interface {
	Name() string
	Observe(l *ising.Lattice)
	Value() float64
	Reset()
}

// Observer is notified after every recorded measurement.
type Observer interface {
	OnMeasure(p Point, l *ising.Lattice)
}

// Point is one recorded measurement.
type Point struct {
	Step          int     `json:"step"`
	Sweeps        int     `json:"sweeps"`
	Temperature   float64 `json:"temperature"`
	Field         float64 `json:"field"`
	Energy        float64 `json:"energy"`
	Magnetization float64 `json:"magnetization"`
	Acceptance    float64 `json:"acceptance"`
}

// Result is everything a schedule run produced.
type Result struct {
	Size    int                `json:"size"`
	Points  []Point            `json:"points"`
	Spins   [][]bool           `json:"-"`
	Metrics map[string]float64 `json:"metrics"`
}

func (r *Result) Energies() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Energy
	}
	return out
}

func (r *Result) Magnetizations() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Magnetization
	}
	return out
}

func (r *Result) Temperatures() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Temperature
	}
	return out
}

// StepError attaches the schedule step to a failure.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("measurement %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
