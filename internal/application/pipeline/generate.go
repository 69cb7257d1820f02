package pipeline

import (
	"context"
	"fmt"
	"strings"

	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
	"novel-planner/pkg/tracer"
)

// GenerateChapter 以章节概要和前文为输入调用正文生成端口，保存生成结果
func (s *Service) GenerateChapter(ctx context.Context, projectID string, number uint32) (*entity.GeneratedChapter, error) {
	if s.Generator == nil {
		return nil, apperrors.ErrServiceUnavailable.WithDetail("text generator not configured")
	}
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	summary, err := s.chapterSummary(ctx, projectID, number)
	if err != nil {
		return nil, err
	}

	var chapter *entity.GeneratedChapter
	err = s.stage(ctx, StageGenerate, p, func(ctx context.Context) error {
		previous, err := s.Artifacts.ListChapters(ctx, projectID)
		if err != nil {
			return err
		}
		prior := PriorContext(previous, number, s.cfg.ContextChapters, s.cfg.ContextMaxRunes)

		content, err := s.Generator.Generate(ctx, prior, ChapterPrompt(summary))
		if err != nil {
			return apperrors.ErrLLMCallFailed.WithError(err)
		}

		chapter = entity.NewGeneratedChapter(projectID, number, summary.Title, content, s.Generator.ModelName())
		s.checkContent(ctx, chapter)
		if err := s.Artifacts.SaveChapter(ctx, chapter); err != nil {
			return err
		}
		logger.Info(ctx, "chapter generated",
			"chapter", number,
			"word_count", chapter.WordCount,
			"context_runes", len([]rune(prior)),
		)
		return s.advance(ctx, p, entity.ProjectStatusWriting)
	})
	return chapter, err
}

// EnqueueGeneration 发布异步章节生成任务
func (s *Service) EnqueueGeneration(ctx context.Context, projectID string, number uint32) (*entity.GenerationJob, error) {
	if s.Publisher == nil {
		return nil, apperrors.ErrServiceUnavailable.WithDetail("job queue not configured")
	}
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.chapterSummary(ctx, projectID, number); err != nil {
		return nil, err
	}
	return s.publish(ctx, p, entity.NewGenerationJob(projectID, number))
}

// EnqueueRange 发布连续多章的生成任务。整个区间由一个任务按顺序生成，后面的章节能读到前面的正文
func (s *Service) EnqueueRange(ctx context.Context, projectID string, from, to uint32) (*entity.GenerationJob, error) {
	if s.Publisher == nil {
		return nil, apperrors.ErrServiceUnavailable.WithDetail("job queue not configured")
	}
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRange(ctx, projectID, from, to); err != nil {
		return nil, err
	}
	return s.publish(ctx, p, entity.NewRangeGenerationJob(projectID, from, to))
}

func (s *Service) publish(ctx context.Context, p *entity.Project, job *entity.GenerationJob) (*entity.GenerationJob, error) {
	job.RequestID = logger.StringFromContext(ctx, logger.RequestIDKey)
	job.TraceID = tracer.TraceID(ctx)

	from, to := job.Range()
	err := s.stage(ctx, StageEnqueue, p, func(ctx context.Context) error {
		streamID, err := s.Publisher.PublishChapterJob(ctx, job)
		if err != nil {
			return err
		}
		logger.Info(ctx, "chapter job enqueued", "job_id", job.ID, "stream_id", streamID, "from", from, "to", to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GenerateRange 按章节顺序生成 [from, to]，已生成的章节跳过。
// 遇到错误立即停止，返回此前新生成的章节与错误
func (s *Service) GenerateRange(ctx context.Context, projectID string, from, to uint32) ([]*entity.GeneratedChapter, error) {
	if err := s.checkRange(ctx, projectID, from, to); err != nil {
		return nil, err
	}

	var generated []*entity.GeneratedChapter
	for n := from; n <= to; n++ {
		_, exists, err := s.Artifacts.LoadChapter(ctx, projectID, n)
		if err != nil {
			return generated, err
		}
		if exists {
			logger.Debug(ctx, "chapter already generated, skipping", "project_id", projectID, "chapter", n)
			continue
		}
		c, err := s.GenerateChapter(ctx, projectID, n)
		if err != nil {
			return generated, err
		}
		generated = append(generated, c)
	}
	return generated, nil
}

// checkRange 章节号从 1 开始，区间首尾有序且不超出章节规划
func (s *Service) checkRange(ctx context.Context, projectID string, from, to uint32) error {
	if from == 0 || to < from {
		return apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("invalid chapter range %d-%d", from, to))
	}
	plan, err := s.GetPlan(ctx, projectID)
	if err != nil {
		return err
	}
	if to > plan.TotalChapters {
		return apperrors.ErrNotFound.WithDetail(fmt.Sprintf("chapter %d not in plan of %d chapters", to, plan.TotalChapters))
	}
	return nil
}

// checkContent 敏感词检查只标记章节待审核，不阻止保存
func (s *Service) checkContent(ctx context.Context, chapter *entity.GeneratedChapter) {
	if s.Content == nil {
		return
	}
	check := s.Content.Check(chapter.Content)
	chapter.ApplyCheck(check)
	if check.Passed {
		metrics.ValidationTotal.WithLabelValues("content", "passed").Inc()
		return
	}
	metrics.ValidationTotal.WithLabelValues("content", "failed").Inc()
	logger.Warn(ctx, "generated chapter needs review", "chapter", chapter.Number, "issues", len(check.Issues))
}

// GetChapter 读取生成的章节
func (s *Service) GetChapter(ctx context.Context, projectID string, number uint32) (*entity.GeneratedChapter, error) {
	c, ok, err := s.Artifacts.LoadChapter(ctx, projectID, number)
	return found(c, ok, err, entity.ArtifactChapter)
}

// ListChapters 列出已生成的章节
func (s *Service) ListChapters(ctx context.Context, projectID string) ([]*entity.GeneratedChapter, error) {
	return s.Artifacts.ListChapters(ctx, projectID)
}

func (s *Service) chapterSummary(ctx context.Context, projectID string, number uint32) (*entity.ChapterSummary, error) {
	plan, err := s.GetPlan(ctx, projectID)
	if err != nil {
		return nil, err
	}
	summary, ok := plan.Chapter(number)
	if !ok {
		return nil, apperrors.ErrNotFound.WithDetail(fmt.Sprintf("chapter %d not in plan of %d chapters", number, plan.TotalChapters))
	}
	return summary, nil
}

// PriorContext 取 number 之前最近的 limit 章正文拼接为上下文，超出 maxRunes 时保留末尾
func PriorContext(chapters []*entity.GeneratedChapter, number uint32, limit, maxRunes int) string {
	if limit <= 0 {
		return ""
	}
	prior := make([]*entity.GeneratedChapter, 0, limit)
	for _, c := range chapters {
		if c.Number < number {
			prior = append(prior, c)
		}
	}
	if len(prior) > limit {
		prior = prior[len(prior)-limit:]
	}

	var b strings.Builder
	for i, c := range prior {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Title)
		b.WriteByte('\n')
		b.WriteString(c.Content)
	}
	text := b.String()
	if maxRunes > 0 {
		if r := []rune(text); len(r) > maxRunes {
			text = string(r[len(r)-maxRunes:])
		}
	}
	return text
}

// ChapterPrompt 将章节概要整理为生成提示
func ChapterPrompt(c *entity.ChapterSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请撰写%s。\n", c.Title)
	fmt.Fprintf(&b, "概要：%s\n", c.Summary)
	if len(c.KeyEvents) > 0 {
		fmt.Fprintf(&b, "关键事件：%s\n", strings.Join(c.KeyEvents, "；"))
	}
	if c.ProtagonistDevelopment != "" {
		fmt.Fprintf(&b, "主角发展：%s\n", c.ProtagonistDevelopment)
	}
	if c.IsPlotTwist && c.PlotTwistDescription != nil {
		fmt.Fprintf(&b, "本章为情节转折：%s\n", *c.PlotTwistDescription)
	}
	fmt.Fprintf(&b, "篇幅约%d字。", c.WordCountEstimate)
	return b.String()
}
