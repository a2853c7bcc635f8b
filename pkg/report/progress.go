package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

// Progress renders a progress bar over the grid with the best score so far
type Progress struct {
	out    io.Writer
	logger *logrus.Logger

	// logOut is the logger output to restore once the bar is gone
	logOut io.Writer

	mu   sync.Mutex
	p    *mpb.Progress
	bar  *mpb.Bar
	best *types.EvaluationResult
}

// NewProgress draws to out, usually os.Stderr. While the bar is running,
// entries from logger are printed above it instead of through it. logger may
// be nil.
func NewProgress(out io.Writer, logger *logrus.Logger) *Progress {
	return &Progress{out: out, logger: logger}
}

// Start adds a bar sized to the grid
func (r *Progress) Start(_ context.Context, _ []string, gridSize int) error {
	r.mu.Lock()
	r.best = nil
	r.mu.Unlock()

	// bestDecor takes r.mu, so the bar is built without holding it
	p := mpb.New(mpb.WithWidth(80), mpb.WithOutput(r.out))
	bar := p.AddBar(int64(gridSize),
		mpb.PrependDecorators(
			decor.Name("Evaluating: "),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Any(r.bestDecor, decor.WCSyncSpace),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done!"),
		),
	)

	r.mu.Lock()
	r.p, r.bar = p, bar
	if r.logger != nil {
		r.logOut = r.logger.Out
		r.logger.SetOutput(p)
	}
	r.mu.Unlock()
	return nil
}

func (r *Progress) bestDecor(decor.Statistics) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.best == nil {
		return "best: -"
	}
	return fmt.Sprintf("best: %g", r.best.Score)
}

// Report advances the bar by one configuration
func (r *Progress) Report(_ context.Context, result types.EvaluationResult) error {
	r.mu.Lock()
	if types.Improves(result.Score, r.best) {
		best := result
		r.best = &best
	}
	bar := r.bar
	r.mu.Unlock()

	if bar != nil {
		bar.Increment()
	}
	return nil
}

// Best returns the best result seen by the bar, or nil
func (r *Progress) Best() *types.EvaluationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.best == nil {
		return nil
	}
	best := *r.best
	return &best
}

// Close waits for the final render. A bar left short by an aborted search is
// stopped where it is.
func (r *Progress) Close() error {
	r.mu.Lock()
	p, bar, logOut := r.p, r.bar, r.logOut
	r.p, r.bar, r.logOut = nil, nil, nil
	r.mu.Unlock()

	if p == nil {
		return nil
	}
	if !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()
	if r.logger != nil && logOut != nil {
		r.logger.SetOutput(logOut)
	}
	return nil
}
