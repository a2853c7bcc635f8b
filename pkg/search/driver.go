// Package search runs an exhaustive grid search: every configuration of a
// grid is evaluated exactly once, in grid order, and the lowest score wins.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
	"github.com/ishanwen-byte/gridsearch-go/pkg/evaluator"
	"github.com/ishanwen-byte/gridsearch-go/pkg/grid"
)

// Reporter receives every completed evaluation in grid order
type Reporter interface {
	Report(ctx context.Context, result types.EvaluationResult) error
	Close() error
}

// RunStarter is implemented by reporters that need the grid shape before the
// first result arrives
type RunStarter interface {
	Start(ctx context.Context, parameters []string, gridSize int) error
}

// EvaluationError wraps the error returned by the evaluator for one configuration.
// Unwrap yields the evaluator's error unchanged.
type EvaluationError struct {
	Index         int
	Configuration types.Configuration
	Err           error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation %d %s failed: %v", e.Index, e.Configuration, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger replaces the default logger
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithReporter adds a reporter. Reporters are called in the order they were added.
func WithReporter(r Reporter) Option {
	return func(d *Driver) {
		if r != nil {
			d.reporters = append(d.reporters, r)
		}
	}
}

// WithWorkers sets how many evaluations may run at once. Values above one
// evaluate concurrently but still record and report in grid order.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.workers = n
		}
	}
}

// Driver evaluates grids and keeps every result plus the best one
type Driver struct {
	logger    *logrus.Logger
	reporters []Reporter
	workers   int

	mu      sync.RWMutex
	results []types.EvaluationResult
	best    *types.EvaluationResult
}

// New creates a new Driver
func New(opts ...Option) *Driver {
	d := &Driver{
		logger:  logrus.New(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Search evaluates every configuration of g and returns the best result:
// the lowest score, ties going to the earliest configuration. The first
// evaluator or reporter error aborts the search. Each call starts from a
// clean state.
func (d *Driver) Search(ctx context.Context, eval evaluator.Evaluator, g *grid.Grid) (*types.EvaluationResult, error) {
	d.reset(g.Len())

	d.logger.WithFields(logrus.Fields{
		"parameters": g.Names(),
		"grid_size":  g.Len(),
		"workers":    d.workers,
	}).Info("Starting grid search")

	for _, r := range d.reporters {
		if starter, ok := r.(RunStarter); ok {
			if err := starter.Start(ctx, g.Names(), g.Len()); err != nil {
				return nil, fmt.Errorf("failed to start reporter: %w", err)
			}
		}
	}

	startTime := time.Now()

	var err error
	if d.workers > 1 {
		err = d.searchParallel(ctx, eval, g)
	} else {
		err = d.searchSequential(ctx, eval, g)
	}
	if err != nil {
		d.logger.WithError(err).WithField("completed", d.completed()).Error("Grid search aborted")
		return nil, err
	}

	best := d.Best()
	if best == nil {
		return nil, fmt.Errorf("grid is empty")
	}

	d.logger.WithFields(logrus.Fields{
		"evaluations": d.completed(),
		"best_score":  best.Score,
		"best_index":  best.Index,
		"best":        best.Configuration.String(),
		"duration":    time.Since(startTime),
	}).Info("Grid search completed")

	return best, nil
}

func (d *Driver) searchSequential(ctx context.Context, eval evaluator.Evaluator, g *grid.Grid) error {
	for k, cfg := range g.All() {
		if err := ctx.Err(); err != nil {
			return err
		}

		started := time.Now()
		score, err := eval.Evaluate(ctx, cfg)
		if err != nil {
			return &EvaluationError{Index: k, Configuration: cfg, Err: err}
		}

		result := types.EvaluationResult{
			Index:         k,
			Configuration: cfg,
			Score:         score,
			Duration:      time.Since(started),
		}
		if err := d.record(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// record appends a result, updates the running best and notifies reporters
func (d *Driver) record(ctx context.Context, result types.EvaluationResult) error {
	d.mu.Lock()
	d.results = append(d.results, result)
	improved := types.Improves(result.Score, d.best)
	if improved {
		best := result
		d.best = &best
	}
	d.mu.Unlock()

	entry := d.logger.WithFields(logrus.Fields{
		"index":    result.Index,
		"score":    result.Score,
		"config":   result.Configuration.String(),
		"duration": result.Duration,
	})
	if improved {
		entry.Info("New best configuration found")
	} else {
		entry.Debug("Evaluation completed")
	}

	for _, r := range d.reporters {
		if err := r.Report(ctx, result); err != nil {
			return fmt.Errorf("failed to report result %d: %w", result.Index, err)
		}
	}
	return nil
}

func (d *Driver) reset(size int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if size > 1<<16 {
		size = 1 << 16
	}
	d.results = make([]types.EvaluationResult, 0, size)
	d.best = nil
}

// Results returns every result of the last search in grid order
func (d *Driver) Results() []types.EvaluationResult {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]types.EvaluationResult, len(d.results))
	copy(out, d.results)
	return out
}

// completed returns how many results the last search recorded
func (d *Driver) completed() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.results)
}

// Best returns the best result of the last search, or nil before any result
func (d *Driver) Best() *types.EvaluationResult {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.best == nil {
		return nil
	}
	best := *d.best
	return &best
}

// Close closes every reporter and returns the first error
func (d *Driver) Close() error {
	var first error
	for _, r := range d.reporters {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
