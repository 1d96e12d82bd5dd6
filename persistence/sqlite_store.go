package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BaSui01/insightflow/workflow"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// checkpointRecord is the relational shape of a checkpoint. The shared state
// is stored as a JSON column: the engine only ever loads whole checkpoints,
// so there is nothing to gain from normalizing the state fields.
type checkpointRecord struct {
	InstanceID  string `gorm:"primaryKey;column:instance_id"`
	Status      string `gorm:"column:status;index"`
	PendingNode string `gorm:"column:pending_node"`
	Outcome     string `gorm:"column:outcome"`
	Version     int    `gorm:"column:version"`
	State       []byte `gorm:"column:state"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (checkpointRecord) TableName() string { return "checkpoints" }

// SQLiteCheckpointStore 是内嵌 SQLite 的检查点存储，单节点部署下跨进程
// 重启仍然可恢复挂起的实例。
type SQLiteCheckpointStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteCheckpointStore 创建 SQLite 检查点存储并自动建表。
func NewSQLiteCheckpointStore(config StoreConfig, logger *zap.Logger) (*SQLiteCheckpointStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := config.SQLitePath
	if path == "" {
		path = DefaultStoreConfig().SQLitePath
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&checkpointRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate checkpoints table: %w", err)
	}
	return &SQLiteCheckpointStore{
		db:     db,
		logger: logger.With(zap.String("component", "sqlite_checkpoint_store")),
	}, nil
}

func (s *SQLiteCheckpointStore) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	if cp == nil || cp.InstanceID == "" {
		return ErrInvalidInput
	}
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	rec := checkpointRecord{
		InstanceID:  cp.InstanceID,
		Status:      string(cp.Status),
		PendingNode: cp.PendingNode,
		Outcome:     string(cp.Outcome),
		Version:     cp.Version,
		State:       stateJSON,
		CreatedAt:   cp.CreatedAt,
		UpdatedAt:   cp.UpdatedAt,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}},
			UpdateAll: true,
		}).
		Create(&rec).Error
}

func (s *SQLiteCheckpointStore) Load(ctx context.Context, instanceID string) (*workflow.Checkpoint, error) {
	var rec checkpointRecord
	err := s.db.WithContext(ctx).First(&rec, "instance_id = ?", instanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var state workflow.State
	if err := json.Unmarshal(rec.State, &state); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint for %s: %w", instanceID, err)
	}
	return &workflow.Checkpoint{
		InstanceID:  rec.InstanceID,
		Status:      workflow.Status(rec.Status),
		PendingNode: rec.PendingNode,
		Outcome:     workflow.Outcome(rec.Outcome),
		Version:     rec.Version,
		State:       &state,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}

func (s *SQLiteCheckpointStore) Delete(ctx context.Context, instanceID string) error {
	return s.db.WithContext(ctx).
		Delete(&checkpointRecord{}, "instance_id = ?", instanceID).Error
}

// Close closes the underlying database handle.
func (s *SQLiteCheckpointStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
