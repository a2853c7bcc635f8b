// Package store persists search runs so that they can be inspected after the
// search has finished. Both stores act as search reporters.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

var metaBucket = []byte("meta")

// ErrRunNotFound is returned by Load for an unknown run ID
var ErrRunNotFound = errors.New("run not found")

// BoltStore keeps every run in a single bbolt database. Each run gets its own
// bucket of results keyed by grid index. Run metadata, including the best
// result, lives in the shared meta bucket under the run ID.
type BoltStore struct {
	mu     sync.Mutex
	db     *bbolt.DB
	run    types.Run
	logger *logrus.Logger
}

// NewBoltStore opens (or creates) the database at path and starts a fresh run
func NewBoltStore(path string, logger *logrus.Logger) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &BoltStore{db: db, run: newRun(), logger: logger}, nil
}

// RunID returns the identifier of the run being written
func (s *BoltStore) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run.ID
}

// Start creates the run bucket and stores the grid shape
func (s *BoltStore) Start(_ context.Context, parameters []string, gridSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run.Parameters = append([]string(nil), parameters...)
	s.run.GridSize = gridSize

	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(s.run.ID)); err != nil {
			return fmt.Errorf("failed to create run bucket: %w", err)
		}
		return putMeta(tx, s.run)
	})
}

// Report stores one result and updates the best one in the same transaction
func (s *BoltStore) Report(_ context.Context, result types.EvaluationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// the in-memory run only changes once the transaction has committed
	next := s.run
	if types.Improves(result.Score, s.run.Best) {
		best := result
		next.Best = &best
	}
	next.LastUpdate = time.Now()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(next.ID))
		if err != nil {
			return fmt.Errorf("failed to create run bucket: %w", err)
		}
		if err := b.Put(indexKey(result.Index), data); err != nil {
			return err
		}
		return putMeta(tx, next)
	})
	if err != nil {
		return fmt.Errorf("failed to store result %d: %w", result.Index, err)
	}

	s.run = next
	return nil
}

// putMeta writes the run without its results, which live in the run bucket
func putMeta(tx *bbolt.Tx, run types.Run) error {
	meta := run
	meta.Results = nil

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}
	return tx.Bucket(metaBucket).Put([]byte(meta.ID), data)
}

// Close closes the underlying database
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"run":  s.run.ID,
		"path": s.db.Path(),
	}).Debug("Closing run database")
	return s.db.Close()
}

// Runs lists the IDs of every run stored in the database
func (s *BoltStore) Runs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Load reads a run back with its results in grid order
func (s *BoltStore) Load(runID string) (*types.Run, error) {
	var run types.Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(metaBucket).Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if err := json.Unmarshal(data, &run); err != nil {
			return fmt.Errorf("failed to unmarshal run metadata: %w", err)
		}

		b := tx.Bucket([]byte(runID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var result types.EvaluationResult
			if err := json.Unmarshal(v, &result); err != nil {
				return fmt.Errorf("failed to unmarshal result: %w", err)
			}
			run.Results = append(run.Results, result)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// indexKey encodes big-endian so that bucket iteration follows grid order
func indexKey(index int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(index))
	return key
}
