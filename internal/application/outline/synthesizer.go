// Package outline 按题材模板确定性地生成三段式大纲
package outline

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
	"novel-planner/pkg/logger"
)

// MinChapters 三段式结构要求每段至少一章
const MinChapters = 3

// Synthesizer 大纲生成器
type Synthesizer struct {
	catalog *catalog.Catalog
}

// NewSynthesizer 创建大纲生成器
func NewSynthesizer(cat *catalog.Catalog) *Synthesizer {
	return &Synthesizer{catalog: cat}
}

// Request 大纲生成参数
type Request struct {
	ProjectID       string
	Genre           string
	Premise         string
	Theme           string
	TargetWordCount uint64
}

// Synthesize 生成草稿状态的大纲；章节数不足三章时返回 ErrDegenerateTarget
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*entity.Outline, error) {
	total := entity.TotalChapters(req.TargetWordCount)
	if total < MinChapters {
		return nil, apperrors.ErrDegenerateTarget.WithDetail(fmt.Sprintf(
			"target_word_count=%d yields %d chapters, need at least %d",
			req.TargetWordCount, total, MinChapters))
	}

	tpl := s.catalog.Template(req.Genre)
	o := &entity.Outline{
		ID:              uuid.NewString(),
		ProjectID:       req.ProjectID,
		Genre:           req.Genre,
		Premise:         req.Premise,
		Theme:           req.Theme,
		TargetWordCount: req.TargetWordCount,
		Arcs:            buildArcs(tpl.Arcs, total),
		Protagonist:     s.protagonist(tpl.Protagonist),
		Supporting:      s.supporting(),
		World:           buildWorld(tpl.World, req.Genre),
		Status:          entity.OutlineStatusDraft,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	logger.Info(ctx, "outline synthesized",
		"total_chapters", total,
		"protagonist", o.Protagonist.Name,
		"world", o.World.Name,
	)
	return o, nil
}

// ArcBounds 将 [1,total] 按三等分切分，最后一段吸收余数
func ArcBounds(total uint32) [3][2]uint32 {
	third := total / 3
	return [3][2]uint32{
		{1, third},
		{third + 1, 2 * total / 3},
		{2*total/3 + 1, total},
	}
}

func buildArcs(templates []catalog.ArcTemplate, total uint32) []entity.PlotArc {
	bounds := ArcBounds(total)
	arcs := make([]entity.PlotArc, 0, len(bounds))
	for i, b := range bounds {
		t := templates[i]
		arcs = append(arcs, entity.PlotArc{
			ID:           uuid.NewString(),
			Name:         t.Name,
			Stage:        entity.ArcStages[i],
			StartChapter: b[0],
			EndChapter:   b[1],
			Summary:      t.Summary,
			KeyEvents:    slices.Clone(t.KeyEvents),
			Climax:       t.Climax,
		})
	}
	return arcs
}

func (s *Synthesizer) protagonist(t catalog.CharacterTemplate) entity.CharacterArc {
	a := s.catalog.Archetypes.Protagonist
	return entity.CharacterArc{
		ID:             uuid.NewString(),
		Name:           t.Name,
		Role:           entity.RoleProtagonist,
		Description:    a.Description,
		Traits:         slices.Clone(t.Traits),
		ArcDescription: a.ArcDescription,
		KeyMoments: []entity.CharacterMoment{
			{Chapter: 1, Description: "故事开始", Development: "展现潜力"},
		},
	}
}

func (s *Synthesizer) supporting() []entity.CharacterArc {
	return []entity.CharacterArc{
		archetype(s.catalog.Archetypes.Mentor, entity.RoleSupporting),
		archetype(s.catalog.Archetypes.Antagonist, entity.RoleAntagonist),
	}
}

func archetype(a catalog.Archetype, role entity.CharacterRole) entity.CharacterArc {
	return entity.CharacterArc{
		ID:             uuid.NewString(),
		Name:           a.Name,
		Role:           role,
		Description:    a.Description,
		Traits:         slices.Clone(a.Traits),
		ArcDescription: a.ArcDescription,
		KeyMoments:     []entity.CharacterMoment{},
	}
}

func buildWorld(t catalog.WorldTemplate, genre string) entity.WorldSettings {
	locations := make([]entity.Location, 0, len(t.Locations))
	for _, l := range t.Locations {
		locations = append(locations, entity.Location{
			Name:        l.Name,
			Description: l.Description,
			Importance:  entity.LocationImportance(l.Importance),
		})
	}
	rules := slices.Clone(t.Rules)
	if rules == nil {
		rules = []string{}
	}
	return entity.WorldSettings{
		Name:        t.Name,
		Type:        entity.WorldType(t.Type),
		Description: catalog.ExpandGenre(t.Description, genre),
		Rules:       rules,
		Locations:   locations,
	}
}
