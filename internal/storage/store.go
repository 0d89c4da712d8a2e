package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/measurement"
)

const (
	metadataFile      = "metadata.json"
	statesFile        = "states.csv"
	SpinsFile         = "spins.dat"
	EnergiesFile      = "energies.dat"
	MagnetizationFile = "magnetization.dat"
)

var ErrNoSpins = errors.New("storage: run has no spin snapshots")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Timestamp        time.Time          `json:"timestamp"`
	Size             int                `json:"size"`
	Coupling         float64            `json:"coupling"`
	Seed             int64              `json:"seed"`
	Boltzmann        float64            `json:"boltzmann"`
	MagneticMoment   float64            `json:"magnetic_moment"`
	SetupSweeps      int                `json:"setup_sweeps"`
	SweepsPerMeasure int                `json:"sweep_per_measure"`
	Measurements     int                `json:"measurements"`
	Temperatures     []float64          `json:"temp"`
	Fields           []float64          `json:"field"`
	Outputs          config.Outputs     `json:"outputs"`
	Metrics          map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding metadata, the per-step CSV and one
// file per selected observable.
func (s *Store) Save(cfg *config.Config, result *measurement.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("ising%d_%d", result.Size, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:               runID,
		Timestamp:        now,
		Size:             result.Size,
		Coupling:         cfg.Coupling,
		Seed:             cfg.Seed,
		Boltzmann:        cfg.Boltzmann,
		MagneticMoment:   cfg.MagneticMoment,
		SetupSweeps:      cfg.SetupSweeps,
		SweepsPerMeasure: cfg.SweepsPerMeasurement(),
		Measurements:     len(result.Points),
		Temperatures:     cfg.Temperatures,
		Fields:           cfg.Fields,
		Outputs:          cfg.Outputs,
		Metrics:          result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result.Points); err != nil {
		return "", err
	}

	if cfg.Outputs.Spins {
		if err := writeSpins(filepath.Join(runDir, SpinsFile), result.Spins); err != nil {
			return "", err
		}
	}
	if cfg.Outputs.Energy {
		if err := writeSeries(filepath.Join(runDir, EnergiesFile), result.Energies()); err != nil {
			return "", err
		}
	}
	if cfg.Outputs.Magnetization {
		if err := writeSeries(filepath.Join(runDir, MagnetizationFile), result.Magnetizations()); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var statesHeader = []string{"step", "sweeps", "temperature", "field", "energy", "magnetization", "acceptance"}

func writeStates(path string, points []measurement.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(statesHeader); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.Itoa(p.Step),
			strconv.Itoa(p.Sweeps),
			formatFloat(p.Temperature),
			formatFloat(p.Field),
			formatFloat(p.Energy),
			formatFloat(p.Magnetization),
			formatFloat(p.Acceptance),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeSpins stores one byte per site, 0 for down and 1 for up, with
// measurements concatenated.
func writeSpins(path string, frames [][]bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, frame := range frames {
		for _, up := range frame {
			b := byte(0)
			if up {
				b = 1
			}
			if err := w.WriteByte(b); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// writeSeries stores newline-separated decimals.
func writeSeries(path string, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, v := range values {
		if _, err := w.WriteString(formatFloat(v) + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadPoints reads the per-step CSV back.
func (s *Store) LoadPoints(runID string) ([]measurement.Point, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []measurement.Point{}, nil
	}

	points := make([]measurement.Point, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(statesHeader) {
			return nil, fmt.Errorf("%s line %d: expected %d fields, got %d", statesFile, i+2, len(statesHeader), len(rec))
		}
		var p measurement.Point
		var errs []error
		p.Step, err = strconv.Atoi(rec[0])
		errs = append(errs, err)
		p.Sweeps, err = strconv.Atoi(rec[1])
		errs = append(errs, err)
		floats := []*float64{&p.Temperature, &p.Field, &p.Energy, &p.Magnetization, &p.Acceptance}
		for j, dst := range floats {
			*dst, err = strconv.ParseFloat(rec[j+2], 64)
			errs = append(errs, err)
		}
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", statesFile, i+2, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// LoadSeries reads a newline-separated observable file such as EnergiesFile.
func (s *Store) LoadSeries(runID, name string) ([]float64, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, i+1, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// LoadSpins splits spins.dat into frames of size² sites.
func (s *Store) LoadSpins(runID string) ([][]bool, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, SpinsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSpins
		}
		return nil, err
	}

	sites := meta.Size * meta.Size
	if sites == 0 || len(data)%sites != 0 {
		return nil, fmt.Errorf("%s: %d bytes is not a multiple of %d sites", SpinsFile, len(data), sites)
	}

	frames := make([][]bool, 0, len(data)/sites)
	for off := 0; off < len(data); off += sites {
		frame := make([]bool, sites)
		for i, b := range data[off : off+sites] {
			frame[i] = b == 1
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
