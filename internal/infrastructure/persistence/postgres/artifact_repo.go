package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"novel-planner/internal/domain/entity"
	"novel-planner/internal/domain/repository"
)

var _ repository.ArtifactStore = (*ArtifactRepository)(nil)

// ArtifactRepository 产物表访问
type ArtifactRepository struct {
	client *Client
}

// NewArtifactRepository 创建产物存储
func NewArtifactRepository(client *Client) *ArtifactRepository {
	return &ArtifactRepository{client: client}
}

// Save 同键覆盖内容并递增版本号
func (r *ArtifactRepository) Save(ctx context.Context, projectID, key string, kind entity.ArtifactKind, v any) error {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.Save")
	defer span.End()

	art, err := entity.NewArtifact(projectID, key, kind, v)
	if err != nil {
		return err
	}

	err = getDB(ctx, r.client.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"kind":       art.Kind,
			"content":    art.Content,
			"version":    gorm.Expr("artifacts.version + 1"),
			"updated_at": entity.Now(),
		}),
	}).Create(art).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save %s artifact: %w", kind, err)
	}
	return nil
}

// Load 读取产物内容
func (r *ArtifactRepository) Load(ctx context.Context, projectID, key string, out any) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.Load")
	defer span.End()

	var art entity.Artifact
	err := getDB(ctx, r.client.db).First(&art, "project_id = ? AND key = ?", projectID, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to load artifact %s: %w", key, err)
	}
	return true, art.Decode(out)
}

// List 按类型列出项目产物
func (r *ArtifactRepository) List(ctx context.Context, projectID string, kind entity.ArtifactKind) ([]*entity.Artifact, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.List")
	defer span.End()

	var arts []*entity.Artifact
	if err := getDB(ctx, r.client.db).
		Where("project_id = ? AND kind = ?", projectID, kind).
		Order("key ASC").
		Find(&arts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list %s artifacts: %w", kind, err)
	}
	return arts, nil
}

// ListProjects 按创建时间倒序分页列出项目
func (r *ArtifactRepository) ListProjects(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Artifact], error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtifactRepository.ListProjects")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&entity.Artifact{}).Where("kind = ?", entity.ArtifactProject)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var arts []*entity.Artifact
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&arts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return repository.NewPagedResult(arts, total, pagination), nil
}

// Ping 健康检查
func (r *ArtifactRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// Close 关闭连接
func (r *ArtifactRepository) Close() error {
	return r.client.Close()
}
