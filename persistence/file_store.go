package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BaSui01/insightflow/workflow"
)

// FileCheckpointStore 是基于文件的检查点存储，适合单节点生产部署。
// 每个实例一个 JSON 文件，先写临时文件再 rename，避免写一半的检查点。
type FileCheckpointStore struct {
	baseDir string
	mu      sync.RWMutex
	closed  bool
}

// NewFileCheckpointStore 创建文件检查点存储。
func NewFileCheckpointStore(config StoreConfig) (*FileCheckpointStore, error) {
	baseDir := filepath.Join(config.BaseDir, "checkpoints")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{baseDir: baseDir}, nil
}

// path maps an instance id onto a file name. Instance ids are uuids, but
// reject separators defensively so a crafted id cannot escape baseDir.
func (s *FileCheckpointStore) path(instanceID string) (string, error) {
	if instanceID == "" || strings.ContainsAny(instanceID, `/\`) {
		return "", ErrInvalidInput
	}
	return filepath.Join(s.baseDir, instanceID+".json"), nil
}

func (s *FileCheckpointStore) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	if cp == nil {
		return ErrInvalidInput
	}
	path, err := s.path(cp.InstanceID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileCheckpointStore) Load(ctx context.Context, instanceID string) (*workflow.Checkpoint, error) {
	path, err := s.path(instanceID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cp workflow.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint file %s: %w", path, err)
	}
	return &cp, nil
}

func (s *FileCheckpointStore) Delete(ctx context.Context, instanceID string) error {
	path, err := s.path(instanceID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close closes the store.
func (s *FileCheckpointStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
