package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/gridsearch-go/internal/constants"
	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

// JSONStore writes each run to <dir>/<run-id>.json and mirrors it to latest.json.
// The files are rewritten every flushEvery results and on Close.
type JSONStore struct {
	mu         sync.Mutex
	dir        string
	run        types.Run
	flushEvery int
	pending    int
	logger     *logrus.Logger
}

// NewJSONStore creates the output directory and a fresh run
func NewJSONStore(dir string, flushEvery int, logger *logrus.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	if flushEvery <= 0 {
		flushEvery = 1
	}

	return &JSONStore{
		dir:        dir,
		run:        newRun(),
		flushEvery: flushEvery,
		logger:     logger,
	}, nil
}

func newRun() types.Run {
	now := time.Now()
	return types.Run{
		ID:         uuid.New().String(),
		Version:    constants.RunFileVersion,
		StartTime:  now,
		LastUpdate: now,
	}
}

// RunID returns the identifier of the run being written
func (s *JSONStore) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run.ID
}

// Path returns the file the run is written to
func (s *JSONStore) Path() string {
	return filepath.Join(s.dir, s.RunID()+".json")
}

// Start records the grid shape and writes the empty run
func (s *JSONStore) Start(_ context.Context, parameters []string, gridSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run.Parameters = append([]string(nil), parameters...)
	s.run.GridSize = gridSize
	return s.flushLocked()
}

// Report appends a result and keeps the best one current
func (s *JSONStore) Report(_ context.Context, result types.EvaluationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run.Results = append(s.run.Results, result)
	if types.Improves(result.Score, s.run.Best) {
		best := result
		s.run.Best = &best
	}
	s.run.LastUpdate = time.Now()

	s.pending++
	if s.pending >= s.flushEvery {
		return s.flushLocked()
	}
	return nil
}

// Close writes any pending results
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"run":     s.run.ID,
		"results": len(s.run.Results),
		"dir":     s.dir,
	}).Info("Saved search results")
	return nil
}

func (s *JSONStore) flushLocked() error {
	data, err := json.MarshalIndent(s.run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	runFile := filepath.Join(s.dir, s.run.ID+".json")
	if err := writeFileAtomic(runFile, data); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}

	latestFile := filepath.Join(s.dir, constants.LatestRunFile)
	if err := writeFileAtomic(latestFile, data); err != nil {
		return fmt.Errorf("failed to write latest run: %w", err)
	}

	s.pending = 0
	return nil
}

// LoadJSON reads a run file written by JSONStore
func LoadJSON(path string) (*types.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run types.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
