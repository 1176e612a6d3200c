package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
	"github.com/cognicore/intentbow/pkg/intentbow/store"
)

var _ store.Store = (*Store)(nil)

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	run := store.Run{ID: "r1", StartedAt: time.Now(), Vocabulary: []string{"hallo"}, Labels: []string{"greet"}}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	// later epochs may arrive first
	s.AppendEpoch(ctx, "r1", store.Epoch{Epoch: 2, Loss: 0.5})
	s.AppendEpoch(ctx, "r1", store.Epoch{Epoch: 1, Loss: 0.9})
	s.AppendEpoch(ctx, "r1", store.Epoch{Epoch: 2, Loss: 0.4})

	if err := s.FinishRun(ctx, "r1", time.Now(), store.StatusFailed); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != store.StatusFailed {
		t.Errorf("Status = %q", got.Status)
	}
	if len(got.Epochs) != 2 || got.Epochs[0].Epoch != 1 || got.Epochs[1].Loss != 0.4 {
		t.Errorf("Epochs = %+v", got.Epochs)
	}

	// returned runs are copies
	got.Vocabulary[0] = "changed"
	again, _ := s.GetRun(ctx, "r1")
	if again.Vocabulary[0] != "hallo" {
		t.Error("GetRun should return a copy")
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetRun(ctx, "x"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetRun: %v", err)
	}
	if err := s.AppendEpoch(ctx, "x", store.Epoch{}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("AppendEpoch: %v", err)
	}
	if err := s.FinishRun(ctx, "x", time.Now(), store.StatusSucceeded); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("FinishRun: %v", err)
	}
	if err := s.CreateRun(ctx, store.Run{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("CreateRun without id: %v", err)
	}
	s.CreateRun(ctx, store.Run{ID: "a"})
	if err := s.CreateRun(ctx, store.Run{ID: "a"}); !errors.Is(err, internalerr.ErrDuplicate) {
		t.Errorf("CreateRun duplicate: %v", err)
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"b", "a", "c"} {
		s.CreateRun(ctx, store.Run{ID: id})
		s.AppendEpoch(ctx, id, store.Epoch{Epoch: 1})
	}

	runs, _ := s.ListRuns(ctx, 0)
	if len(runs) != 3 || runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("ListRuns order = %v", runs)
	}
	if len(runs[0].Epochs) != 0 {
		t.Error("ListRuns should not include epochs")
	}

	runs, _ = s.ListRuns(ctx, 1)
	if len(runs) != 1 || runs[0].ID != "c" {
		t.Errorf("ListRuns(1) = %v", runs)
	}
}
