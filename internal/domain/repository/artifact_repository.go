package repository

import (
	"context"

	"novel-planner/internal/domain/entity"
)

// ArtifactStore 产物存储，按项目与产物键保存可往返的 JSON 记录
type ArtifactStore interface {
	// Save 序列化并保存产物，同键覆盖且版本号递增
	Save(ctx context.Context, projectID, key string, kind entity.ArtifactKind, v any) error
	// Load 读取产物到 out，不存在时返回 false
	Load(ctx context.Context, projectID, key string, out any) (bool, error)
	// List 按类型列出项目的产物记录，按键升序
	List(ctx context.Context, projectID string, kind entity.ArtifactKind) ([]*entity.Artifact, error)
	// ListProjects 分页列出项目记录
	ListProjects(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Artifact], error)
	// Ping 健康检查
	Ping(ctx context.Context) error
	Close() error
}

// SnapshotCache 市场快照缓存，未命中时 GetSnapshot 返回 nil, nil
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, genre string) (*entity.MarketSnapshot, error)
	SetSnapshot(ctx context.Context, genre string, snapshot *entity.MarketSnapshot) error
}
