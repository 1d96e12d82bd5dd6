package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/insightflow/workflow"
	"github.com/redis/go-redis/v9"
)

// RedisCheckpointStore 是基于 Redis 的检查点存储，适合分布式生产部署。
// 检查点按实例 id 单 key 存取；实例租约用 SET NX + TTL 实现，为同一
// 实例的并发 resume 提供跨进程互斥。
type RedisCheckpointStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCheckpointStore 创建 Redis 检查点存储。
func NewRedisCheckpointStore(config StoreConfig) (*RedisCheckpointStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
		PoolSize: config.Redis.PoolSize,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	keyPrefix := config.Redis.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "insightflow:"
	}

	return &RedisCheckpointStore{
		client:    client,
		keyPrefix: keyPrefix + "checkpoint:",
	}, nil
}

// NewRedisCheckpointStoreWithClient wires an existing client, e.g. miniredis
// in tests.
func NewRedisCheckpointStoreWithClient(client *redis.Client, keyPrefix string) *RedisCheckpointStore {
	if keyPrefix == "" {
		keyPrefix = "insightflow:"
	}
	return &RedisCheckpointStore{client: client, keyPrefix: keyPrefix + "checkpoint:"}
}

func (s *RedisCheckpointStore) dataKey(instanceID string) string {
	return s.keyPrefix + "data:" + instanceID
}

func (s *RedisCheckpointStore) leaseKey(instanceID string) string {
	return s.keyPrefix + "lease:" + instanceID
}

func (s *RedisCheckpointStore) Save(ctx context.Context, cp *workflow.Checkpoint) error {
	if cp == nil || cp.InstanceID == "" {
		return ErrInvalidInput
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	return s.client.Set(ctx, s.dataKey(cp.InstanceID), data, 0).Err()
}

func (s *RedisCheckpointStore) Load(ctx context.Context, instanceID string) (*workflow.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.dataKey(instanceID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cp workflow.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint for %s: %w", instanceID, err)
	}
	return &cp, nil
}

func (s *RedisCheckpointStore) Delete(ctx context.Context, instanceID string) error {
	return s.client.Del(ctx, s.dataKey(instanceID), s.leaseKey(instanceID)).Err()
}

// Acquire implements workflow.Locker via SET NX with a TTL lease.
func (s *RedisCheckpointStore) Acquire(ctx context.Context, instanceID string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.leaseKey(instanceID), "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLeaseHeld
	}
	return nil
}

// Release implements workflow.Locker.
func (s *RedisCheckpointStore) Release(ctx context.Context, instanceID string) error {
	return s.client.Del(ctx, s.leaseKey(instanceID)).Err()
}

// Ping checks if the store is healthy.
func (s *RedisCheckpointStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the store.
func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}
