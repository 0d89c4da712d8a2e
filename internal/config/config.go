package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSize           = 64
	DefaultCoupling       = 1.0
	DefaultSetupSweeps    = 20
	DefaultSweepsPerMeas  = 1
	DefaultTemperature    = 1.0
	DefaultField          = 0.0
	DefaultBoltzmann      = 1.0
	DefaultMagneticMoment = 1.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config describes a lattice, its engine constants and a measurement schedule.
type Config struct {
	Size             int       `yaml:"size" json:"size"`
	Coupling         float64   `yaml:"coupling" json:"coupling"`
	Seed             int64     `yaml:"seed" json:"seed"`
	Boltzmann        float64   `yaml:"boltzmann" json:"boltzmann"`
	MagneticMoment   float64   `yaml:"magnetic_moment" json:"magnetic_moment"`
	SetupSweeps      int       `yaml:"setup_sweeps" json:"setup_sweeps"`
	SweepsPerMeasure int       `yaml:"sweep_per_measure" json:"sweep_per_measure"`
	MeasurementCount int       `yaml:"measurement_count" json:"measurement_count"`
	Temperatures     []float64 `yaml:"temp" json:"temp"`
	Fields           []float64 `yaml:"field" json:"field"`
	Outputs          Outputs   `yaml:",inline" json:"outputs"`
}

// Outputs selects which observables are recorded.
type Outputs struct {
	Spins         bool `yaml:"spins" json:"spins"`
	Energy        bool `yaml:"energy" json:"energy"`
	Magnetization bool `yaml:"magnetization" json:"magnetization"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:             DefaultSize,
		Coupling:         DefaultCoupling,
		Boltzmann:        DefaultBoltzmann,
		MagneticMoment:   DefaultMagneticMoment,
		SetupSweeps:      DefaultSetupSweeps,
		SweepsPerMeasure: DefaultSweepsPerMeas,
		Temperatures:     []float64{DefaultTemperature},
		Fields:           []float64{DefaultField},
		Outputs:          Outputs{Energy: true, Magnetization: true},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the lattice and schedule parameters.
func (c *Config) Validate() error {
	if c.Size < 2 {
		return fmt.Errorf("%w: size must be at least 2, got %d", ErrInvalidConfig, c.Size)
	}
	if !(c.Boltzmann > 0) || math.IsInf(c.Boltzmann, 0) {
		return fmt.Errorf("%w: boltzmann must be positive, got %g", ErrInvalidConfig, c.Boltzmann)
	}
	if c.SetupSweeps < 0 || c.SweepsPerMeasure < 0 || c.MeasurementCount < 0 {
		return fmt.Errorf("%w: sweep and measurement counts must not be negative", ErrInvalidConfig)
	}
	for i, t := range c.Temperatures {
		if !(t > 0) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: temp[%d] must be positive, got %g", ErrInvalidConfig, i, t)
		}
	}
	for i, h := range c.Fields {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return fmt.Errorf("%w: field[%d] must be finite", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Measurements is the number of recorded points, including the one taken
// after setup. Zero falls back to the longer of the two schedules.
func (c *Config) Measurements() int {
	if c.MeasurementCount > 0 {
		return c.MeasurementCount
	}
	return max(len(c.Temperatures), len(c.Fields))
}

// SweepsPerMeasurement never returns less than one.
func (c *Config) SweepsPerMeasurement() int {
	if c.SweepsPerMeasure < 1 {
		return 1
	}
	return c.SweepsPerMeasure
}

// TemperatureAt returns temp[i], or DefaultTemperature past the end.
func (c *Config) TemperatureAt(i int) (float64, bool) {
	if i < len(c.Temperatures) {
		return c.Temperatures[i], true
	}
	return DefaultTemperature, false
}

// FieldAt returns field[i], or DefaultField past the end.
func (c *Config) FieldAt(i int) (float64, bool) {
	if i < len(c.Fields) {
		return c.Fields[i], true
	}
	return DefaultField, false
}
