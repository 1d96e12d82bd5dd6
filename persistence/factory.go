package persistence

import (
	"fmt"

	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
)

// NewCheckpointStore 根据配置创建对应后端的检查点存储。
func NewCheckpointStore(config StoreConfig, logger *zap.Logger) (workflow.CheckpointStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemoryCheckpointStore(), nil
	case StoreTypeFile:
		return NewFileCheckpointStore(config)
	case StoreTypeSQLite:
		return NewSQLiteCheckpointStore(config, logger)
	case StoreTypeRedis:
		return NewRedisCheckpointStore(config)
	default:
		return nil, fmt.Errorf("unknown checkpoint store type: %s", config.Type)
	}
}
