package measurement

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/isingsim/internal/config"
)

// Ensemble runs independent chains of one schedule with consecutive seeds.
// Every chain owns its own lattice and engine.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	metrics   func() []Metric
}

func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{cfg: cfg, numRuns: numRuns, seedStart: seedStart}
}

// WithMetrics sets a factory producing fresh metrics for each chain.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfgCopy := *e.cfg
			cfgCopy.Seed = e.seedStart + int64(i)

			m, err := NewFromConfig(&cfgCopy)
			if err != nil {
				return err
			}
			if e.metrics != nil {
				for _, mt := range e.metrics() {
					m.AddMetric(mt)
				}
			}

			results[i], err = m.Execute(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
