package report

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

func TestProgressTracksBest(t *testing.T) {
	r := NewProgress(io.Discard, nil)
	ctx := context.Background()

	require.NoError(t, r.Start(ctx, []string{"x"}, 4))
	assert.Nil(t, r.Best())

	for k, score := range []float64{3, 1, 2, 1} {
		require.NoError(t, r.Report(ctx, types.EvaluationResult{Index: k, Score: score}))
	}

	best := r.Best()
	require.NotNil(t, best)
	assert.Equal(t, 1, best.Index)
	assert.Equal(t, 1.0, best.Score)
	assert.Equal(t, "best: 1", r.bestDecor(decor.Statistics{}))

	require.NoError(t, r.Close())
}

func TestProgressCloseAfterAbort(t *testing.T) {
	r := NewProgress(io.Discard, nil)
	ctx := context.Background()

	require.NoError(t, r.Start(ctx, []string{"x"}, 10))
	require.NoError(t, r.Report(ctx, types.EvaluationResult{Index: 0, Score: 1}))

	// a search that stopped early must not block Close
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestProgressWithoutStart(t *testing.T) {
	r := NewProgress(io.Discard, nil)
	require.NoError(t, r.Report(context.Background(), types.EvaluationResult{Score: 1}))
	assert.NoError(t, r.Close())
}

func TestProgressRoutesLogsAboveBar(t *testing.T) {
	logOut := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(logOut)

	r := NewProgress(io.Discard, logger)
	ctx := context.Background()

	require.NoError(t, r.Start(ctx, []string{"x"}, 2))
	assert.NotSame(t, logOut, logger.Out)

	logger.Info("while running")
	require.NoError(t, r.Report(ctx, types.EvaluationResult{Index: 0, Score: 1}))
	require.NoError(t, r.Close())
	assert.NotContains(t, logOut.String(), "while running")

	// the original output is back once the bar is closed
	assert.Same(t, logOut, logger.Out)
	logger.Info("after close")
	assert.Contains(t, logOut.String(), "after close")
}
