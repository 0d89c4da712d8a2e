package metrics

import (
	"github.com/san-kum/isingsim/internal/ising"
)

// Energy averages the energy per site over observed configurations.
type Energy struct {
	name    string
	total   float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(l *ising.Lattice) {
	e.total += l.Energy() / float64(l.Sites())
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyFluctuation tracks the variance of the energy per site, which
// scales into the specific heat once the temperature is known.
type EnergyFluctuation struct {
	name    string
	sum     float64
	sumSq   float64
	samples int
}

func NewEnergyFluctuation() *EnergyFluctuation {
	return &EnergyFluctuation{name: "energy_variance"}
}

func (e *EnergyFluctuation) Name() string { return e.name }

func (e *EnergyFluctuation) Observe(l *ising.Lattice) {
	v := l.Energy() / float64(l.Sites())
	e.sum += v
	e.sumSq += v * v
	e.samples++
}

func (e *EnergyFluctuation) Value() float64 {
	if e.samples < 2 {
		return 0
	}
	n := float64(e.samples)
	mean := e.sum / n
	return max(e.sumSq/n-mean*mean, 0)
}

func (e *EnergyFluctuation) Reset() {
	e.sum = 0
	e.sumSq = 0
	e.samples = 0
}
