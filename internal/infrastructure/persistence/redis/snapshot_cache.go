package redis

import (
	"context"
	"strings"
	"time"

	"novel-planner/internal/domain/entity"
	"novel-planner/internal/domain/repository"
)

const snapshotKeyPrefix = "market:snapshot:"

var _ repository.SnapshotCache = (*SnapshotCache)(nil)

// SnapshotCache 按题材缓存最近一次实时获取的市场快照
type SnapshotCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewSnapshotCache 创建快照缓存，ttl 为 0 时不过期
func NewSnapshotCache(cache *Cache, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{cache: cache, ttl: ttl}
}

// SnapshotKey 快照缓存键
func SnapshotKey(genre string) string {
	return snapshotKeyPrefix + strings.ToLower(strings.TrimSpace(genre))
}

// GetSnapshot 读取快照，未命中返回 nil, nil
func (s *SnapshotCache) GetSnapshot(ctx context.Context, genre string) (*entity.MarketSnapshot, error) {
	var snapshot entity.MarketSnapshot
	ok, err := s.cache.GetJSON(ctx, SnapshotKey(genre), &snapshot)
	if err != nil || !ok {
		return nil, err
	}
	return &snapshot, nil
}

// SetSnapshot 写入快照
func (s *SnapshotCache) SetSnapshot(ctx context.Context, genre string, snapshot *entity.MarketSnapshot) error {
	return s.cache.SetJSON(ctx, SnapshotKey(genre), snapshot, s.ttl)
}
