package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/insightflow/internal/metrics"
	"github.com/BaSui01/insightflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxTransitions 单次工作流实例允许的最大节点转移次数。
// 正常图形态下熔断器已经保证终止；这是针对错误图或失控路由的最后防线。
const DefaultMaxTransitions = 256

// defaultLockTTL is the lease duration for stores implementing Locker.
const defaultLockTTL = 5 * time.Minute

// Engine 执行引擎：从入口节点同步推进游标，依次调用步骤和路由器，
// 合并状态更新，在中断点前挂起并持久化 {state, pending_node}，
// 供稍后 Resume 从同一位置继续。
//
// 每个实例内步骤严格串行；挂起是完全返回而非阻塞等待，人机交互
// 期间不占用任何引擎线程。不同实例可并发运行，引擎按实例 id 做
// 进程内互斥；存储实现了 Locker 时互斥范围扩展到跨进程。
type Engine struct {
	graph   *Graph
	store   CheckpointStore
	logger  *zap.Logger
	metrics *metrics.Collector

	maxTransitions int
	lockTTL        time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(c *metrics.Collector) EngineOption {
	return func(e *Engine) { e.metrics = c }
}

// WithMaxTransitions overrides the transition safety valve.
func WithMaxTransitions(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxTransitions = n
		}
	}
}

// NewEngine creates an execution engine over an immutable graph and a
// checkpoint store.
func NewEngine(graph *Graph, store CheckpointStore, opts ...EngineOption) (*Engine, error) {
	if graph == nil {
		return nil, types.NewError(types.ErrGraphInvalid, "graph is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	e := &Engine{
		graph:          graph,
		store:          store,
		logger:         zap.NewNop(),
		maxTransitions: DefaultMaxTransitions,
		lockTTL:        defaultLockTTL,
		inflight:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "engine"), zap.String("graph", graph.Name()))
	return e, nil
}

// Result is what a Start or Resume call hands back to the caller.
type Result struct {
	InstanceID string `json:"instance_id"`
	Status     Status `json:"status"`
	// PendingNode is set when Status is suspended: the node execution will
	// enter on the next Resume.
	PendingNode string `json:"pending_node,omitempty"`
	// Outcome is set when Status is completed.
	Outcome Outcome `json:"outcome,omitempty"`
	// State is a snapshot; mutating it does not affect the instance.
	State *State `json:"state"`
}

// Suspended reports whether the instance is waiting for external input.
func (r *Result) Suspended() bool { return r.Status == StatusSuspended }

// Start creates a new workflow instance for the task and runs it until the
// first interrupt point or a terminal node.
func (e *Engine) Start(ctx context.Context, task string) (*Result, error) {
	if task == "" {
		return nil, fmt.Errorf("original task must not be empty")
	}
	id := uuid.NewString()
	if err := e.acquire(ctx, id); err != nil {
		return nil, err
	}
	defer e.release(ctx, id)

	e.logger.Info("starting workflow instance",
		zap.String("instance_id", id), zap.String("entry", e.graph.Entry()))

	return e.run(ctx, id, NewState(task), e.graph.Entry(), 0, time.Now())
}

// Resume continues a suspended instance. The caller-supplied input is merged
// into the checkpointed state before execution enters the pending node;
// callers may only inject input fields this way, never cursor data.
func (e *Engine) Resume(ctx context.Context, instanceID string, input Update) (*Result, error) {
	if err := e.acquire(ctx, instanceID); err != nil {
		return nil, err
	}
	defer e.release(ctx, instanceID)

	cp, err := e.store.Load(ctx, instanceID)
	if err != nil {
		return nil, types.Errorf(types.ErrInstanceNotFound,
			"no checkpoint for instance %s", instanceID).WithCause(err)
	}
	if cp.Status != StatusSuspended {
		return nil, types.Errorf(types.ErrInstanceNotPaused,
			"instance %s is %s, not suspended", instanceID, cp.Status)
	}
	// The persisted successor must still be a node this graph knows; a
	// mismatch means the checkpoint belongs to a different topology.
	if cp.PendingNode == "" || cp.PendingNode == End || !e.graph.HasNode(cp.PendingNode) {
		return nil, types.Errorf(types.ErrCheckpointCorrupt,
			"pending node %q not in graph %s", cp.PendingNode, e.graph.Name())
	}
	if cp.State == nil {
		return nil, types.Errorf(types.ErrCheckpointCorrupt,
			"checkpoint for %s has no state", instanceID)
	}

	state := cp.State.Clone()
	if err := state.Merge(input); err != nil {
		// Rejected update: the stored checkpoint stays intact.
		return nil, err
	}

	e.logger.Info("resuming workflow instance",
		zap.String("instance_id", instanceID),
		zap.String("pending_node", cp.PendingNode))

	createdAt := cp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return e.run(ctx, instanceID, state, cp.PendingNode, cp.Version, createdAt)
}

// Inspect returns a snapshot of the instance's current state and cursor.
func (e *Engine) Inspect(ctx context.Context, instanceID string) (*Checkpoint, error) {
	cp, err := e.store.Load(ctx, instanceID)
	if err != nil {
		return nil, types.Errorf(types.ErrInstanceNotFound,
			"no checkpoint for instance %s", instanceID).WithCause(err)
	}
	snapshot := *cp
	if cp.State != nil {
		snapshot.State = cp.State.Clone()
	}
	return &snapshot, nil
}

// Cancel discards an instance and its checkpoint.
func (e *Engine) Cancel(ctx context.Context, instanceID string) error {
	if err := e.acquire(ctx, instanceID); err != nil {
		return err
	}
	defer e.release(ctx, instanceID)
	return e.store.Delete(ctx, instanceID)
}

// run drives the cursor until a terminal node, an interrupt, or a failure.
// createdAt is the instance's birth time, carried unchanged across every save.
func (e *Engine) run(ctx context.Context, id string, state *State, node string, version int, createdAt time.Time) (*Result, error) {
	for transitions := 0; ; transitions++ {
		if node == End {
			return e.finalize(ctx, id, state, version, createdAt)
		}
		if transitions >= e.maxTransitions {
			return nil, e.fail(id, node, types.Errorf(types.ErrStepFailure,
				"transition budget exhausted after %d steps", transitions).WithNode(node))
		}
		select {
		case <-ctx.Done():
			return nil, e.fail(id, node, types.NewError(types.ErrStepFailure,
				"context cancelled").WithNode(node).WithCause(ctx.Err()))
		default:
		}

		step, ok := e.graph.Step(node)
		if !ok {
			return nil, e.fail(id, node, types.Errorf(types.ErrRoutingError,
				"cursor at unknown node %q", node).WithNode(node))
		}

		start := time.Now()
		update, err := step.Apply(ctx, state)
		if IsNeedsInput(err) {
			// Expected outcome: the step itself asked for external input.
			e.metrics.ObserveStep(node, "needs_input", time.Since(start))
			return e.suspend(ctx, id, state, node, version, createdAt)
		}
		if err != nil {
			e.metrics.ObserveStep(node, "error", time.Since(start))
			return nil, e.fail(id, node, types.NewError(types.ErrStepFailure,
				"step failed").WithNode(node).WithCause(err))
		}
		if err := state.Merge(update); err != nil {
			// Invariant violation: reject the update, keep the prior
			// checkpoint, surface to the caller.
			e.metrics.ObserveStep(node, "invalid_update", time.Since(start))
			return nil, e.fail(id, node, err)
		}
		e.metrics.ObserveStep(node, "ok", time.Since(start))
		e.logger.Debug("step applied",
			zap.String("instance_id", id),
			zap.String("node", node),
			zap.Uint64("state_version", state.Version))

		next, err := e.graph.Next(ctx, node, state)
		if err != nil {
			return nil, e.fail(id, node, err)
		}
		if next != End && e.graph.InterruptBefore(next) {
			return e.suspend(ctx, id, state, next, version, createdAt)
		}
		node = next
	}
}

// suspend persists {state, pending node} and returns control to the caller.
func (e *Engine) suspend(ctx context.Context, id string, state *State, pending string, version int, createdAt time.Time) (*Result, error) {
	cp := &Checkpoint{
		InstanceID:  id,
		Status:      StatusSuspended,
		PendingNode: pending,
		State:       state.Clone(),
		Version:     version + 1,
		CreatedAt:   createdAt,
		UpdatedAt:   time.Now(),
	}
	if err := e.store.Save(ctx, cp); err != nil {
		return nil, e.fail(id, pending, types.NewError(types.ErrStepFailure,
			"checkpoint save failed").WithNode(pending).WithCause(err))
	}
	e.metrics.RecordSuspension(pending)
	e.logger.Info("workflow instance suspended",
		zap.String("instance_id", id),
		zap.String("pending_node", pending),
		zap.Int("checkpoint_version", cp.Version))
	return &Result{
		InstanceID:  id,
		Status:      StatusSuspended,
		PendingNode: pending,
		State:       state.Clone(),
	}, nil
}

// finalize freezes the instance at End and records the terminal outcome.
// Approval and a tripped circuit breaker must stay distinguishable.
func (e *Engine) finalize(ctx context.Context, id string, state *State, version int, createdAt time.Time) (*Result, error) {
	outcome := OutcomeCircuitBreaker
	if state.ReviewStatus == ReviewApprove {
		outcome = OutcomeApproved
	}
	cp := &Checkpoint{
		InstanceID: id,
		Status:     StatusCompleted,
		State:      state.Clone(),
		Outcome:    outcome,
		Version:    version + 1,
		CreatedAt:  createdAt,
		UpdatedAt:  time.Now(),
	}
	if err := e.store.Save(ctx, cp); err != nil {
		return nil, e.fail(id, End, types.NewError(types.ErrStepFailure,
			"terminal checkpoint save failed").WithCause(err))
	}
	e.metrics.RecordOutcome(string(outcome))
	e.logger.Info("workflow instance completed",
		zap.String("instance_id", id),
		zap.String("outcome", string(outcome)),
		zap.Int("revisions", state.RevisionCount))
	return &Result{
		InstanceID: id,
		Status:     StatusCompleted,
		Outcome:    outcome,
		State:      state.Clone(),
	}, nil
}

// fail surfaces a fatal error. The last successfully persisted checkpoint is
// deliberately left untouched so the caller can resume with corrected input
// or abandon the instance; the engine never auto-retries.
func (e *Engine) fail(id, node string, err error) error {
	e.metrics.RecordFailure(string(types.GetErrorCode(err)))
	e.logger.Error("workflow instance failed",
		zap.String("instance_id", id),
		zap.String("node", node),
		zap.Error(err))
	return err
}

// acquire takes the per-instance in-flight guard, and the store lease when
// the store supports one. Concurrent runs on the same id are rejected, never
// interleaved.
func (e *Engine) acquire(ctx context.Context, id string) error {
	e.mu.Lock()
	if _, busy := e.inflight[id]; busy {
		e.mu.Unlock()
		return types.Errorf(types.ErrInstanceBusy,
			"instance %s already has an in-flight run", id)
	}
	e.inflight[id] = struct{}{}
	e.mu.Unlock()

	if locker, ok := e.store.(Locker); ok {
		if err := locker.Acquire(ctx, id, e.lockTTL); err != nil {
			e.mu.Lock()
			delete(e.inflight, id)
			e.mu.Unlock()
			return types.Errorf(types.ErrInstanceBusy,
				"instance %s is locked by another process", id).WithCause(err)
		}
	}
	return nil
}

func (e *Engine) release(ctx context.Context, id string) {
	if locker, ok := e.store.(Locker); ok {
		if err := locker.Release(ctx, id); err != nil {
			e.logger.Warn("lease release failed",
				zap.String("instance_id", id), zap.Error(err))
		}
	}
	e.mu.Lock()
	delete(e.inflight, id)
	e.mu.Unlock()
}
