// Package planning 将已批准的大纲展开为逐章规划
package planning

import (
	"context"
	"fmt"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
)

// Planner 章节规划器
type Planner struct {
	catalog *catalog.Catalog
}

// NewPlanner 创建章节规划器
func NewPlanner(cat *catalog.Catalog) *Planner {
	return &Planner{catalog: cat}
}

// Plan 为已批准或已锁定的大纲生成章节规划，成功后大纲进入锁定状态。
// 草稿大纲返回 ErrUnapprovedOutline。
func (p *Planner) Plan(ctx context.Context, projectID string, o *entity.Outline) (*entity.ChapterPlan, error) {
	if o.Status == entity.OutlineStatusDraft {
		return nil, apperrors.ErrUnapprovedOutline
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	total := o.TotalChapters()
	chapters := make([]entity.ChapterSummary, 0, total)
	for i := uint32(1); i <= total; i++ {
		chapters = append(chapters, p.summarize(o, i))
	}

	plan, err := entity.NewChapterPlan(projectID, total, chapters)
	if err != nil {
		return nil, err
	}
	if err := o.Lock(); err != nil {
		return nil, err
	}

	metrics.PlannedChapters.Observe(float64(total))
	logger.Info(ctx, "chapter plan created",
		"total_chapters", total,
		"plot_twists", len(plan.PlotTwistPositions),
	)
	return plan, nil
}

func (p *Planner) summarize(o *entity.Outline, i uint32) entity.ChapterSummary {
	var title, summary, event string
	arc, ok := o.ArcFor(i)
	switch {
	case !ok:
		title, summary, event = fmt.Sprintf("第%d章", i), "过渡章节", fmt.Sprintf("章节%d事件", i)
	case i == arc.StartChapter:
		title, summary = fmt.Sprintf("第%d章 %s", i, arc.Name), arc.Summary
		if len(arc.KeyEvents) > 0 {
			event = arc.KeyEvents[0]
		}
	case i == arc.EndChapter:
		title, summary, event = fmt.Sprintf("第%d章 转折", i), arc.Name+"的高潮", arc.Climax
	default:
		title, summary, event = fmt.Sprintf("第%d章", i), "继续"+arc.Name, fmt.Sprintf("第%d章的事件", i)
	}

	c := entity.ChapterSummary{
		Number:                 i,
		Title:                  title,
		Summary:                summary,
		KeyEvents:              []string{event},
		ProtagonistDevelopment: o.Protagonist.Name + "的成长",
		WordCountEstimate:      entity.WordsPerChapter,
	}
	if entity.IsPlotTwistChapter(i) {
		twist := p.catalog.PlotTwist(i)
		c.IsPlotTwist = true
		c.PlotTwistDescription = &twist
	}
	return c
}

// UpdateChapter 替换单章概要。转折标记由章节号决定，转折章未提供描述时沿用原描述
func UpdateChapter(plan *entity.ChapterPlan, number uint32, s entity.ChapterSummary) error {
	current, ok := plan.Chapter(number)
	if !ok {
		return apperrors.ErrNotFound.WithDetail(fmt.Sprintf("chapter %d not in plan", number))
	}

	s.Number = number
	s.IsPlotTwist = entity.IsPlotTwistChapter(number)
	switch {
	case !s.IsPlotTwist:
		s.PlotTwistDescription = nil
	case s.PlotTwistDescription == nil:
		s.PlotTwistDescription = current.PlotTwistDescription
	}
	if s.KeyEvents == nil {
		s.KeyEvents = []string{}
	}

	prev := *current
	*current = s
	if err := plan.Validate(); err != nil {
		*current = prev
		return err
	}
	return nil
}
