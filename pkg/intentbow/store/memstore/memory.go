package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateRun implements store.Store.
func (s *Store) CreateRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrDuplicate, r.ID)
	}
	if r.Status == "" {
		r.Status = store.StatusRunning
	}
	r.Epochs = nil
	s.runs[r.ID] = copyRun(r)
	return nil
}

// AppendEpoch implements store.Store.
func (s *Store) AppendEpoch(ctx context.Context, runID string, e store.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	for i := range r.Epochs {
		if r.Epochs[i].Epoch == e.Epoch {
			r.Epochs[i] = e
			return nil
		}
	}
	r.Epochs = append(r.Epochs, e)
	sort.Slice(r.Epochs, func(i, j int) bool { return r.Epochs[i].Epoch < r.Epochs[j].Epoch })
	s.runs[runID] = r
	return nil
}

// FinishRun implements store.Store.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, status store.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	r.FinishedAt = finishedAt
	r.Status = status
	s.runs[runID] = r
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	return copyRun(r), nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		r = copyRun(r)
		r.Epochs = nil
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func copyRun(r store.Run) store.Run {
	r.Vocabulary = append([]string(nil), r.Vocabulary...)
	r.Labels = append([]string(nil), r.Labels...)
	r.Epochs = append([]store.Epoch(nil), r.Epochs...)
	return r
}
