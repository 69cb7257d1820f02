package repository

import (
	"cmp"
	"context"
	"slices"

	"novel-planner/internal/domain/entity"
)

// Artifacts 在 ArtifactStore 之上提供按类型的读写
type Artifacts struct {
	store ArtifactStore
}

// NewArtifacts 创建类型化产物访问器
func NewArtifacts(store ArtifactStore) *Artifacts {
	return &Artifacts{store: store}
}

// Store 返回底层存储
func (a *Artifacts) Store() ArtifactStore {
	return a.store
}

func (a *Artifacts) SaveProject(ctx context.Context, p *entity.Project) error {
	return a.store.Save(ctx, p.ID, string(entity.ArtifactProject), entity.ArtifactProject, p)
}

func (a *Artifacts) LoadProject(ctx context.Context, projectID string) (*entity.Project, bool, error) {
	return load[entity.Project](ctx, a.store, projectID, string(entity.ArtifactProject))
}

func (a *Artifacts) SaveReport(ctx context.Context, r *entity.FeasibilityReport) error {
	return a.store.Save(ctx, r.ProjectID, string(entity.ArtifactFeasibility), entity.ArtifactFeasibility, r)
}

func (a *Artifacts) LoadReport(ctx context.Context, projectID string) (*entity.FeasibilityReport, bool, error) {
	return load[entity.FeasibilityReport](ctx, a.store, projectID, string(entity.ArtifactFeasibility))
}

func (a *Artifacts) SaveOutline(ctx context.Context, o *entity.Outline) error {
	return a.store.Save(ctx, o.ProjectID, string(entity.ArtifactOutline), entity.ArtifactOutline, o)
}

func (a *Artifacts) LoadOutline(ctx context.Context, projectID string) (*entity.Outline, bool, error) {
	return load[entity.Outline](ctx, a.store, projectID, string(entity.ArtifactOutline))
}

func (a *Artifacts) SavePlan(ctx context.Context, p *entity.ChapterPlan) error {
	return a.store.Save(ctx, p.ProjectID, string(entity.ArtifactChapterPlan), entity.ArtifactChapterPlan, p)
}

func (a *Artifacts) LoadPlan(ctx context.Context, projectID string) (*entity.ChapterPlan, bool, error) {
	return load[entity.ChapterPlan](ctx, a.store, projectID, string(entity.ArtifactChapterPlan))
}

func (a *Artifacts) SaveChapter(ctx context.Context, c *entity.GeneratedChapter) error {
	return a.store.Save(ctx, c.ProjectID, entity.ChapterKey(c.Number), entity.ArtifactChapter, c)
}

func (a *Artifacts) LoadChapter(ctx context.Context, projectID string, number uint32) (*entity.GeneratedChapter, bool, error) {
	return load[entity.GeneratedChapter](ctx, a.store, projectID, entity.ChapterKey(number))
}

// ListChapters 按章节号升序返回已生成的章节
func (a *Artifacts) ListChapters(ctx context.Context, projectID string) ([]*entity.GeneratedChapter, error) {
	records, err := a.store.List(ctx, projectID, entity.ArtifactChapter)
	if err != nil {
		return nil, err
	}
	chapters := make([]*entity.GeneratedChapter, 0, len(records))
	for _, r := range records {
		var c entity.GeneratedChapter
		if err := r.Decode(&c); err != nil {
			return nil, err
		}
		chapters = append(chapters, &c)
	}
	slices.SortFunc(chapters, func(x, y *entity.GeneratedChapter) int {
		return cmp.Compare(x.Number, y.Number)
	})
	return chapters, nil
}

// ListProjects 分页列出项目
func (a *Artifacts) ListProjects(ctx context.Context, pagination Pagination) (*PagedResult[*entity.Project], error) {
	page, err := a.store.ListProjects(ctx, pagination)
	if err != nil {
		return nil, err
	}
	projects := make([]*entity.Project, 0, len(page.Items))
	for _, r := range page.Items {
		var p entity.Project
		if err := r.Decode(&p); err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	return NewPagedResult(projects, page.Total, pagination), nil
}

func load[T any](ctx context.Context, store ArtifactStore, projectID, key string) (*T, bool, error) {
	var v T
	ok, err := store.Load(ctx, projectID, key, &v)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &v, true, nil
}
