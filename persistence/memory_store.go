package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/BaSui01/insightflow/workflow"
)

// MemoryCheckpointStore 是基于内存的检查点存储，用于开发与测试。
// 通过 JSON 序列化做深拷贝，保证存入后外部持有的引用无法再修改检查点。
type MemoryCheckpointStore struct {
	checkpoints map[string][]byte
	leases      map[string]time.Time
	mu          sync.RWMutex
	closed      bool
}

// NewMemoryCheckpointStore 创建内存检查点存储。
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string][]byte),
		leases:      make(map[string]time.Time),
	}
}

func (s *MemoryCheckpointStore) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	if cp == nil || cp.InstanceID == "" {
		return ErrInvalidInput
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.checkpoints[cp.InstanceID] = data
	return nil
}

func (s *MemoryCheckpointStore) Load(ctx context.Context, instanceID string) (*workflow.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	data, ok := s.checkpoints[instanceID]
	if !ok {
		return nil, ErrNotFound
	}
	var cp workflow.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *MemoryCheckpointStore) Delete(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.checkpoints, instanceID)
	delete(s.leases, instanceID)
	return nil
}

// Acquire implements workflow.Locker with an expiring in-process lease.
func (s *MemoryCheckpointStore) Acquire(ctx context.Context, instanceID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if deadline, held := s.leases[instanceID]; held && time.Now().Before(deadline) {
		return ErrLeaseHeld
	}
	s.leases[instanceID] = time.Now().Add(ttl)
	return nil
}

// Release implements workflow.Locker.
func (s *MemoryCheckpointStore) Release(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, instanceID)
	return nil
}

// Close closes the store and releases resources.
func (s *MemoryCheckpointStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.checkpoints = nil
	s.leases = nil
	return nil
}
