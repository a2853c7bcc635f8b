package search

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
	"github.com/ishanwen-byte/gridsearch-go/pkg/evaluator"
	"github.com/ishanwen-byte/gridsearch-go/pkg/grid"
)

// slot holds one in-flight evaluation; done is closed once it has finished
type slot struct {
	index    int
	cfg      types.Configuration
	score    float64
	duration time.Duration
	err      error
	done     chan struct{}
}

// searchParallel runs up to d.workers evaluations at once. Slots are handed
// to the collector in grid order, so recording and reporting stay ordered.
func (d *Driver) searchParallel(ctx context.Context, eval evaluator.Evaluator, g *grid.Grid) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.SetLimit(d.workers)

	pending := make(chan *slot, d.workers)
	go func() {
		defer close(pending)
		for k, cfg := range g.All() {
			s := &slot{index: k, cfg: cfg, done: make(chan struct{})}
			select {
			case pending <- s:
			case <-groupCtx.Done():
				return
			}
			group.Go(func() error {
				defer close(s.done)
				started := time.Now()
				s.score, s.err = eval.Evaluate(groupCtx, s.cfg)
				s.duration = time.Since(started)
				if s.err != nil {
					return &EvaluationError{Index: s.index, Configuration: s.cfg, Err: s.err}
				}
				return nil
			})
		}
	}()

	// firstErr is the failure with the lowest grid index, which is what a
	// sequential run would have stopped at
	var firstErr error
	stopped := false
	for s := range pending {
		<-s.done
		if firstErr != nil {
			continue
		}
		if s.err != nil {
			if errors.Is(s.err, context.Canceled) && ctx.Err() == nil {
				// cut short by a failure further along the grid
				stopped = true
				continue
			}
			firstErr = &EvaluationError{Index: s.index, Configuration: s.cfg, Err: s.err}
			cancel()
			continue
		}
		if stopped {
			continue
		}
		result := types.EvaluationResult{
			Index:         s.index,
			Configuration: s.cfg,
			Score:         s.score,
			Duration:      s.duration,
		}
		if err := d.record(ctx, result); err != nil {
			firstErr = err
			cancel()
		}
	}

	evalErr := group.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if firstErr != nil {
		return firstErr
	}
	return evalErr
}
