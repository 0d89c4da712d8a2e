package measurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/ising"
	"github.com/san-kum/isingsim/internal/mcmc"
)

var ErrNotSetup = errors.New("measurement: Setup must run before Run")

// Measurement drives an engine through a (temperature, field) schedule and
// records observables after each batch of sweeps.
type Measurement struct {
	engine    *mcmc.Engine
	cfg       *config.Config
	metrics   []Metric
	observers []Observer
	result    *Result
	sweeps    int

	tempExhausted  bool
	fieldExhausted bool
}

func New(engine *mcmc.Engine, cfg *config.Config) *Measurement {
	return &Measurement{
		engine:    engine,
		cfg:       cfg,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

// NewFromConfig builds the lattice and engine described by cfg. Lattice
// initialization and the engine share one random stream.
func NewFromConfig(cfg *config.Config) (*Measurement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := mcmc.NewSource(cfg.Seed)
	l, err := ising.New(cfg.Size, cfg.Coupling, rng)
	if err != nil {
		return nil, err
	}
	temp, _ := cfg.TemperatureAt(0)
	e, err := mcmc.New(l, temp,
		mcmc.WithSource(rng),
		mcmc.WithBoltzmann(cfg.Boltzmann),
		mcmc.WithMagneticMoment(cfg.MagneticMoment),
	)
	if err != nil {
		return nil, err
	}
	return New(e, cfg), nil
}

func (m *Measurement) AddMetric(mt Metric)     { m.metrics = append(m.metrics, mt) }
func (m *Measurement) AddObserver(o Observer) { m.observers = append(m.observers, o) }

func (m *Measurement) Engine() *mcmc.Engine { return m.engine }

// Setup applies the first schedule entry, thermalizes with the configured
// number of setup sweeps and records measurement 0.
func (m *Measurement) Setup(ctx context.Context) error {
	m.result = &Result{
		Size:    m.engine.Lattice().Size(),
		Points:  make([]Point, 0, m.cfg.Measurements()),
		Metrics: make(map[string]float64),
	}
	m.sweeps = 0
	m.tempExhausted, m.fieldExhausted = false, false
	for _, mt := range m.metrics {
		mt.Reset()
	}

	if err := m.apply(0); err != nil {
		return &StepError{Step: 0, Wrapped: err}
	}
	if err := m.sweep(ctx, m.cfg.SetupSweeps); err != nil {
		return &StepError{Step: 0, Wrapped: err}
	}
	m.record(0)
	return nil
}

// Run records measurements 1..count-1. The partial result is returned
// alongside any error.
func (m *Measurement) Run(ctx context.Context) (*Result, error) {
	if m.result == nil {
		return nil, ErrNotSetup
	}
	per := m.cfg.SweepsPerMeasurement()

	for i := 1; i < m.cfg.Measurements(); i++ {
		if err := m.apply(i); err != nil {
			return m.finish(), &StepError{Step: i, Wrapped: err}
		}
		if err := m.sweep(ctx, per); err != nil {
			return m.finish(), &StepError{Step: i, Wrapped: err}
		}
		m.record(i)
	}
	return m.finish(), nil
}

// Execute is Setup followed by Run.
func (m *Measurement) Execute(ctx context.Context) (*Result, error) {
	if err := m.Setup(ctx); err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

// apply sets the schedule values for step i. Once a list runs out its
// default is applied a single time and then left in place.
func (m *Measurement) apply(i int) error {
	if !m.fieldExhausted {
		h, ok := m.cfg.FieldAt(i)
		m.fieldExhausted = !ok
		m.engine.SetExternalField(h)
	}
	if !m.tempExhausted {
		t, ok := m.cfg.TemperatureAt(i)
		m.tempExhausted = !ok
		if err := m.engine.SetTemperature(t); err != nil {
			return fmt.Errorf("temp[%d]: %w", i, err)
		}
	}
	return nil
}

func (m *Measurement) sweep(ctx context.Context, n int) error {
	m.engine.ResetStats()
	if err := m.engine.Run(ctx, n); err != nil {
		return err
	}
	m.sweeps += n
	return nil
}

func (m *Measurement) record(step int) {
	l := m.engine.Lattice()
	p := Point{
		Step:          step,
		Sweeps:        m.sweeps,
		Temperature:   m.engine.Temperature(),
		Field:         m.engine.ExternalField(),
		Energy:        l.Energy(),
		Magnetization: l.Magnetization(),
		Acceptance:    m.engine.Stats().AcceptanceRate(),
	}
	m.result.Points = append(m.result.Points, p)
	if m.cfg.Outputs.Spins {
		m.result.Spins = append(m.result.Spins, l.Spins())
	}

	for _, mt := range m.metrics {
		mt.Observe(l)
	}
	for _, obs := range m.observers {
		obs.OnMeasure(p, l)
	}
}

func (m *Measurement) finish() *Result {
	for _, mt := range m.metrics {
		m.result.Metrics[mt.Name()] = mt.Value()
	}
	return m.result
}
