// Package pipeline 编排规划流水线：市场分析、大纲生成与审核、章节规划、正文生成
package pipeline

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"novel-planner/internal/application/feasibility"
	"novel-planner/internal/application/market"
	"novel-planner/internal/application/outline"
	"novel-planner/internal/application/planning"
	"novel-planner/internal/application/validation"
	"novel-planner/internal/domain/entity"
	"novel-planner/internal/domain/repository"
	apperrors "novel-planner/pkg/errors"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
	"novel-planner/pkg/tracer"
)

// 流水线阶段名
const (
	StageAnalyze  = "analyze"
	StageOutline  = "outline"
	StageValidate = "validate"
	StagePlan     = "plan"
	StageGenerate = "generate"
	StageEnqueue  = "enqueue"
)

// Config 流水线配置
type Config struct {
	ContextChapters int
	ContextMaxRunes int
}

// Deps 流水线依赖。Transactor、Content、Generator、Publisher 可为空
type Deps struct {
	Artifacts   *repository.Artifacts
	Transactor  repository.Transactor
	Acquirer    *market.Acquirer
	Scorer      *feasibility.Scorer
	Synthesizer *outline.Synthesizer
	Gate        *validation.Gate
	Projects    *validation.ProjectValidator
	Planner     *planning.Planner
	Content     *validation.ContentFilter
	Generator   TextGenerator
	Publisher   JobPublisher
}

// Service 规划流水线服务
type Service struct {
	Deps
	cfg      Config
	analyzes singleflight.Group
}

// NewService 创建流水线服务
func NewService(deps Deps, cfg Config) *Service {
	if cfg.ContextChapters < 0 {
		cfg.ContextChapters = 0
	}
	return &Service{Deps: deps, cfg: cfg}
}

// CreateProject 校验输入并保存新项目，返回校验提示
func (s *Service) CreateProject(ctx context.Context, in *validation.ProjectInput) (*entity.Project, *validation.ProjectResult, error) {
	result := s.Projects.Validate(in)
	if err := result.Err(); err != nil {
		return nil, result, err
	}

	p := entity.NewProject(in.Name, in.Genre, in.Summary, in.Theme, in.TargetWordCount)
	if err := s.Artifacts.SaveProject(ctx, p); err != nil {
		return nil, result, err
	}
	logger.Info(ctx, "project created", "project_id", p.ID, "genre", p.Genre)
	return p, result, nil
}

// GetProject 读取项目
func (s *Service) GetProject(ctx context.Context, projectID string) (*entity.Project, error) {
	p, ok, err := s.Artifacts.LoadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrProjectNotFound.WithDetail(projectID)
	}
	return p, nil
}

// ListProjects 分页列出项目
func (s *Service) ListProjects(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return s.Artifacts.ListProjects(ctx, pagination)
}

// Analyze 获取市场快照并评分，保存可行性报告。同一项目的并发请求合并为一次，
// 合并后的分析不随任一调用方取消，调用方取消时只是不再等待
func (s *Service) Analyze(ctx context.Context, projectID string) (*entity.FeasibilityReport, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.analyzes.DoChan(projectID, func() (any, error) {
		return s.analyze(shared, projectID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entity.FeasibilityReport), nil
	}
}

func (s *Service) analyze(ctx context.Context, projectID string) (*entity.FeasibilityReport, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var report *entity.FeasibilityReport
	err = s.stage(ctx, StageAnalyze, p, func(ctx context.Context) error {
		snapshot, provenance := s.Acquirer.Acquire(ctx, p.Genre)
		report = s.Scorer.Score(ctx, p.ID, p.Genre, snapshot, provenance)
		if err := s.Artifacts.SaveReport(ctx, report); err != nil {
			return err
		}
		return s.advance(ctx, p, entity.ProjectStatusAnalyzed)
	})
	return report, err
}

// GetReport 读取可行性报告
func (s *Service) GetReport(ctx context.Context, projectID string) (*entity.FeasibilityReport, error) {
	r, ok, err := s.Artifacts.LoadReport(ctx, projectID)
	return found(r, ok, err, entity.ArtifactFeasibility)
}

// CreateOutline 按项目题材与目标字数生成草稿大纲。premise、theme 为空时沿用项目简介与主题
func (s *Service) CreateOutline(ctx context.Context, projectID, premise, theme string) (*entity.Outline, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var o *entity.Outline
	err = s.stage(ctx, StageOutline, p, func(ctx context.Context) error {
		existing, ok, err := s.Artifacts.LoadOutline(ctx, projectID)
		if err != nil {
			return err
		}
		if ok {
			if err := existing.EnsureEditable(); err != nil {
				return err
			}
		}

		o, err = s.Synthesizer.Synthesize(ctx, outline.Request{
			ProjectID:       p.ID,
			Genre:           p.Genre,
			Premise:         firstNonEmpty(premise, p.Summary),
			Theme:           firstNonEmpty(theme, p.Theme),
			TargetWordCount: p.TargetWordCount,
		})
		if err != nil {
			return err
		}
		if err := s.Artifacts.SaveOutline(ctx, o); err != nil {
			return err
		}
		return s.advance(ctx, p, entity.ProjectStatusOutlined)
	})
	return o, err
}

// OutlineRevision 大纲的结构性修改，字段为空表示不修改
type OutlineRevision struct {
	Arcs        []entity.PlotArc
	Protagonist *entity.CharacterArc
	Supporting  []entity.CharacterArc
}

// ReviseOutline 修改大纲的情节弧或角色，修改后大纲回到草稿状态
func (s *Service) ReviseOutline(ctx context.Context, projectID string, rev OutlineRevision) (*entity.Outline, error) {
	o, err := s.GetOutline(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if rev.Arcs != nil {
		if err := o.ReplaceArcs(rev.Arcs); err != nil {
			return nil, err
		}
	}
	if rev.Protagonist != nil || rev.Supporting != nil {
		protagonist, supporting := o.Protagonist, o.Supporting
		if rev.Protagonist != nil {
			protagonist = *rev.Protagonist
		}
		if rev.Supporting != nil {
			supporting = rev.Supporting
		}
		if err := o.ReplaceCharacters(protagonist, supporting); err != nil {
			return nil, err
		}
	}
	if err := s.Artifacts.SaveOutline(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOutline 读取大纲
func (s *Service) GetOutline(ctx context.Context, projectID string) (*entity.Outline, error) {
	o, ok, err := s.Artifacts.LoadOutline(ctx, projectID)
	return found(o, ok, err, entity.ArtifactOutline)
}

// ValidateOutline 审核大纲，通过后保存为已批准。未通过时同时返回审核结果与 ErrValidationFailed
func (s *Service) ValidateOutline(ctx context.Context, projectID string) (*entity.Outline, *entity.OutlineValidation, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	o, err := s.GetOutline(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	var result *entity.OutlineValidation
	err = s.stage(ctx, StageValidate, p, func(ctx context.Context) error {
		var err error
		result, err = s.Gate.Approve(ctx, o)
		if err != nil {
			return err
		}
		if err := s.Artifacts.SaveOutline(ctx, o); err != nil {
			return err
		}
		return s.advance(ctx, p, entity.ProjectStatusApproved)
	})
	return o, result, err
}

// PlanChapters 基于已批准的大纲生成章节规划，锁定大纲并在同一事务中保存
func (s *Service) PlanChapters(ctx context.Context, projectID string) (*entity.ChapterPlan, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	o, err := s.GetOutline(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var plan *entity.ChapterPlan
	err = s.stage(ctx, StagePlan, p, func(ctx context.Context) error {
		var err error
		plan, err = s.Planner.Plan(ctx, projectID, o)
		if err != nil {
			return err
		}
		return s.inTx(ctx, func(ctx context.Context) error {
			if err := s.Artifacts.SaveOutline(ctx, o); err != nil {
				return err
			}
			if err := s.Artifacts.SavePlan(ctx, plan); err != nil {
				return err
			}
			return s.advance(ctx, p, entity.ProjectStatusPlanned)
		})
	})
	return plan, err
}

// GetPlan 读取章节规划
func (s *Service) GetPlan(ctx context.Context, projectID string) (*entity.ChapterPlan, error) {
	plan, ok, err := s.Artifacts.LoadPlan(ctx, projectID)
	return found(plan, ok, err, entity.ArtifactChapterPlan)
}

// UpdateChapterSummary 修改单章概要
func (s *Service) UpdateChapterSummary(ctx context.Context, projectID string, number uint32, summary entity.ChapterSummary) (*entity.ChapterPlan, error) {
	plan, err := s.GetPlan(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := planning.UpdateChapter(plan, number, summary); err != nil {
		return nil, err
	}
	if err := s.Artifacts.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// stage 为阶段开启 Span、注入日志字段并记录耗时
func (s *Service) stage(ctx context.Context, name string, p *entity.Project, fn func(ctx context.Context) error) error {
	ctx, span := tracer.StartStage(ctx, name, p.ID, p.Genre)
	defer span.End()
	ctx = logger.WithStage(ctx, name)
	ctx = logger.WithContext(ctx, logger.ProjectIDKey, p.ID)
	ctx = logger.WithContext(ctx, logger.GenreKey, p.Genre)

	start := time.Now()
	err := fn(ctx)
	metrics.PipelineStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		tracer.RecordError(span, err)
		if !isCallerError(err) {
			logger.Error(ctx, "pipeline stage failed", err)
		}
	}
	return err
}

// advance 项目状态只前进不后退
func (s *Service) advance(ctx context.Context, p *entity.Project, status entity.ProjectStatus) error {
	if statusRank[status] <= statusRank[p.Status] {
		return nil
	}
	p.Advance(status)
	return s.Artifacts.SaveProject(ctx, p)
}

var statusRank = map[entity.ProjectStatus]int{
	entity.ProjectStatusDraft:    0,
	entity.ProjectStatusAnalyzed: 1,
	entity.ProjectStatusOutlined: 2,
	entity.ProjectStatusApproved: 3,
	entity.ProjectStatusPlanned:  4,
	entity.ProjectStatusWriting:  5,
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Transactor == nil {
		return fn(ctx)
	}
	return s.Transactor.WithTransaction(ctx, fn)
}

func found[T any](v *T, ok bool, err error, kind entity.ArtifactKind) (*T, error) {
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrArtifactNotFound.WithDetail(string(kind))
	}
	return v, nil
}

// isCallerError 前置条件与校验失败属于调用方问题，不按错误级别记录
func isCallerError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return apperrors.IsAppError(err) && apperrors.AsAppError(err).HTTPStatus < 500
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
