package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BaSui01/insightflow/workflow"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func sampleCheckpoint(id string) *workflow.Checkpoint {
	state := workflow.NewState("调研量子计算行业并输出报告")
	state.ClarificationQuestions = []string{"时间范围？", "目标读者？", "输出语言？"}
	state.Plan = []workflow.PlanStep{
		{ID: 1, Description: "行业综述", SearchQuery: "quantum computing industry 2026", Status: workflow.PlanStepPending},
	}
	now := time.Now().UTC().Truncate(time.Second)
	return &workflow.Checkpoint{
		InstanceID:  id,
		Status:      workflow.StatusSuspended,
		PendingNode: workflow.NodeHumanResponse,
		State:       state,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// assertRoundTrip verifies Save/Load preserves state and pending node exactly.
func assertRoundTrip(t *testing.T, store workflow.CheckpointStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("SaveAndLoad", func(t *testing.T) {
		cp := sampleCheckpoint("inst-1")
		if err := store.Save(ctx, cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx, "inst-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.PendingNode != cp.PendingNode {
			t.Errorf("PendingNode mismatch: got %s, want %s", loaded.PendingNode, cp.PendingNode)
		}
		if loaded.Status != workflow.StatusSuspended {
			t.Errorf("Status mismatch: got %s", loaded.Status)
		}
		if loaded.State.OriginalTask != cp.State.OriginalTask {
			t.Errorf("OriginalTask mismatch: got %q", loaded.State.OriginalTask)
		}
		if len(loaded.State.ClarificationQuestions) != 3 {
			t.Errorf("Expected 3 questions, got %d", len(loaded.State.ClarificationQuestions))
		}
		if len(loaded.State.Plan) != 1 || loaded.State.Plan[0].SearchQuery == "" {
			t.Errorf("Plan not preserved: %+v", loaded.State.Plan)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		cp := sampleCheckpoint("inst-1")
		cp.Status = workflow.StatusCompleted
		cp.Outcome = workflow.OutcomeApproved
		cp.PendingNode = ""
		cp.Version = 2
		if err := store.Save(ctx, cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx, "inst-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Status != workflow.StatusCompleted || loaded.Outcome != workflow.OutcomeApproved {
			t.Errorf("Overwrite not applied: %+v", loaded)
		}
		if loaded.Version != 2 {
			t.Errorf("Version mismatch: got %d", loaded.Version)
		}
	})

	t.Run("Isolation", func(t *testing.T) {
		other := sampleCheckpoint("inst-2")
		if err := store.Save(ctx, other); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx, "inst-1")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.InstanceID != "inst-1" {
			t.Errorf("Cross-instance interference: got %s", loaded.InstanceID)
		}
	})

	t.Run("LoadMissing", func(t *testing.T) {
		if _, err := store.Load(ctx, "no-such-instance"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "inst-2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Load(ctx, "inst-2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		// Deleting a missing instance is not an error
		if err := store.Delete(ctx, "inst-2"); err != nil {
			t.Errorf("Second delete failed: %v", err)
		}
	})
}

func TestMemoryCheckpointStore(t *testing.T) {
	store := NewMemoryCheckpointStore()
	defer store.Close()
	assertRoundTrip(t, store)

	t.Run("Lease", func(t *testing.T) {
		ctx := context.Background()
		if err := store.Acquire(ctx, "leased", time.Minute); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := store.Acquire(ctx, "leased", time.Minute); !errors.Is(err, ErrLeaseHeld) {
			t.Errorf("Expected ErrLeaseHeld, got %v", err)
		}
		if err := store.Release(ctx, "leased"); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
		if err := store.Acquire(ctx, "leased", time.Minute); err != nil {
			t.Errorf("Re-acquire after release failed: %v", err)
		}
	})

	t.Run("SavedCheckpointIsDetached", func(t *testing.T) {
		ctx := context.Background()
		cp := sampleCheckpoint("detached")
		if err := store.Save(ctx, cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		cp.State.DraftReport = "mutated after save"
		loaded, err := store.Load(ctx, "detached")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.State.DraftReport != "" {
			t.Error("Store leaked a live reference to the saved state")
		}
	})
}

func TestFileCheckpointStore(t *testing.T) {
	config := DefaultStoreConfig()
	config.BaseDir = t.TempDir()
	store, err := NewFileCheckpointStore(config)
	if err != nil {
		t.Fatalf("NewFileCheckpointStore failed: %v", err)
	}
	defer store.Close()
	assertRoundTrip(t, store)

	t.Run("RejectsPathEscape", func(t *testing.T) {
		if _, err := store.Load(context.Background(), "../evil"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		ctx := context.Background()
		if err := store.Save(ctx, sampleCheckpoint("durable")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		reopened, err := NewFileCheckpointStore(config)
		if err != nil {
			t.Fatalf("Reopen failed: %v", err)
		}
		defer reopened.Close()
		loaded, err := reopened.Load(ctx, "durable")
		if err != nil {
			t.Fatalf("Load after reopen failed: %v", err)
		}
		if loaded.State.OriginalTask == "" {
			t.Error("State lost across reopen")
		}
	})
}

func TestSQLiteCheckpointStore(t *testing.T) {
	config := DefaultStoreConfig()
	config.SQLitePath = t.TempDir() + "/checkpoints.db"
	store, err := NewSQLiteCheckpointStore(config, nil)
	if err != nil {
		t.Fatalf("NewSQLiteCheckpointStore failed: %v", err)
	}
	defer store.Close()
	assertRoundTrip(t, store)
}

func TestRedisCheckpointStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisCheckpointStoreWithClient(client, "")
	defer store.Close()
	assertRoundTrip(t, store)

	t.Run("Lease", func(t *testing.T) {
		ctx := context.Background()
		if err := store.Acquire(ctx, "leased", time.Minute); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := store.Acquire(ctx, "leased", time.Minute); !errors.Is(err, ErrLeaseHeld) {
			t.Errorf("Expected ErrLeaseHeld, got %v", err)
		}
		if err := store.Release(ctx, "leased"); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
	})

	t.Run("LeaseExpires", func(t *testing.T) {
		ctx := context.Background()
		if err := store.Acquire(ctx, "expiring", time.Second); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		mr.FastForward(2 * time.Second)
		if err := store.Acquire(ctx, "expiring", time.Second); err != nil {
			t.Errorf("Acquire after TTL expiry failed: %v", err)
		}
	})
}

func TestFactory(t *testing.T) {
	config := DefaultStoreConfig()
	store, err := NewCheckpointStore(config, nil)
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if _, ok := store.(*MemoryCheckpointStore); !ok {
		t.Errorf("Expected memory store by default, got %T", store)
	}

	config.Type = "carrier-pigeon"
	if _, err := NewCheckpointStore(config, nil); err == nil {
		t.Error("Expected error for unknown store type")
	}
}
