package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store records training runs and their per-epoch history.
type Store interface {
	Close() error

	// CreateRun inserts a new run. A run with the same ID is ErrDuplicate.
	CreateRun(ctx context.Context, r Run) error
	// AppendEpoch adds one epoch to a run. Unknown runs are ErrNotFound.
	AppendEpoch(ctx context.Context, runID string, e Epoch) error
	// FinishRun sets the final status and finish time of a run.
	FinishRun(ctx context.Context, runID string, finishedAt time.Time, status Status) error
	// GetRun returns a run with all its epochs.
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns runs newest first, without epochs. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the training pipeline.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Status      Status
	IntentsPath string
	ArtifactDir string
	Vocabulary  []string
	Labels      []string
	Epochs      []Epoch
}

// Epoch is the training result after one pass over the data.
type Epoch struct {
	Epoch    int
	Loss     float64
	Accuracy float64
}

// IDGenerator creates lexically sortable run IDs.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator creates a new ULID generator
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns a fresh ID for time t. IDs from the same generator are
// strictly increasing.
func (g *IDGenerator) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
