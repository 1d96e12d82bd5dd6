package workflow

import (
	"context"
	"time"
)

// Status is the persisted lifecycle state of a workflow instance. Failures
// are never persisted as a status: a failed run surfaces its error to the
// caller and leaves the last good checkpoint untouched, so a stored instance
// is always either suspended or completed.
type Status string

const (
	// StatusSuspended 实例在中断点前挂起，等待外部输入后 resume
	StatusSuspended Status = "suspended"
	// StatusCompleted 实例已到达 end 节点，状态冻结
	StatusCompleted Status = "completed"
)

// Outcome distinguishes how a completed instance terminated.
type Outcome string

const (
	// OutcomeApproved 审核通过后的正常终止
	OutcomeApproved Outcome = "approved"
	// OutcomeCircuitBreaker 修订预算耗尽被熔断强制终止，审核并未通过
	OutcomeCircuitBreaker Outcome = "circuit_breaker_tripped"
)

// Checkpoint is the persisted snapshot of one workflow instance: the shared
// state plus the pending node, which together are sufficient to resume
// execution from the exact suspension point.
type Checkpoint struct {
	InstanceID  string    `json:"instance_id"`
	Status      Status    `json:"status"`
	PendingNode string    `json:"pending_node,omitempty"`
	State       *State    `json:"state"`
	Outcome     Outcome   `json:"outcome,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CheckpointStore is the abstract persistence collaborator the engine
// depends on. Implementations must keep distinct instance ids isolated and
// make Save/Load an exact round-trip of state and pending node.
type CheckpointStore interface {
	// Save persists a checkpoint, overwriting any previous version for the
	// same instance id.
	Save(ctx context.Context, cp *Checkpoint) error
	// Load returns the checkpoint for an instance id.
	Load(ctx context.Context, instanceID string) (*Checkpoint, error)
	// Delete removes an instance's checkpoint.
	Delete(ctx context.Context, instanceID string) error
}

// Locker is an optional CheckpointStore extension providing cross-process
// mutual exclusion per instance id. The engine always serializes in-process
// runs; stores that implement Locker extend the at-most-one-in-flight
// guarantee to concurrent processes sharing the store.
type Locker interface {
	// Acquire takes the instance lease, failing if another run holds it.
	Acquire(ctx context.Context, instanceID string, ttl time.Duration) error
	// Release frees the lease.
	Release(ctx context.Context, instanceID string) error
}
