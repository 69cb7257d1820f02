// Package validation 提供大纲的题材一致性、角色名版权校验以及项目输入校验
package validation

import (
	"fmt"
	"strings"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
)

// 一致性评分参数
const (
	keywordSaturation = 10
	antonymPenalty    = 0.3
	consistencyFloor  = 0.3
	maxAntonymHits    = 2
	minKeywordMatches = 3
)

// ConsistencyValidator 题材一致性校验，纯函数，不做任何 I/O
type ConsistencyValidator struct {
	catalog *catalog.Catalog
}

// NewConsistencyValidator 创建一致性校验器
func NewConsistencyValidator(cat *catalog.Catalog) *ConsistencyValidator {
	return &ConsistencyValidator{catalog: cat}
}

// Check 统计大纲与前提中命中的题材关键词和反义词并打分
func (v *ConsistencyValidator) Check(genre, outlineText, premise string) entity.ValidationVerdict {
	text := outlineText + " " + premise

	matched := make([]string, 0)
	for _, kw := range v.catalog.KeywordsFor(genre) {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}

	mismatched := make([]string, 0)
	for _, ant := range v.catalog.AntonymsFor(genre) {
		if strings.Contains(text, ant) {
			mismatched = append(mismatched, fmt.Sprintf("Genre '%s' should not contain '%s'", genre, ant))
		}
	}

	score := min(1, float64(len(matched))/keywordSaturation) - antonymPenalty*float64(len(mismatched))
	score = max(0, min(1, score))

	warnings := make([]string, 0, 1)
	switch {
	case len(matched) == 0:
		warnings = append(warnings, fmt.Sprintf(
			"No genre-specific keywords found. The outline may not match the genre '%s'.", genre))
	case len(matched) < minKeywordMatches:
		warnings = append(warnings, fmt.Sprintf(
			"Only %d genre-specific keywords found. Consider adding more genre elements.", len(matched)))
	}

	return entity.ValidationVerdict{
		IsConsistent:       score >= consistencyFloor && len(mismatched) < maxAntonymHits,
		Score:              score,
		MatchedKeywords:    matched,
		MismatchedElements: mismatched,
		Warnings:           warnings,
	}
}

// Keywords 返回题材关键词
func (v *ConsistencyValidator) Keywords(genre string) []string {
	return v.catalog.KeywordsFor(genre)
}

// OutlineText 将大纲中的叙事文本拼接为一段供校验使用
func OutlineText(o *entity.Outline) string {
	var b strings.Builder
	write := func(parts ...string) {
		for _, p := range parts {
			if p == "" {
				continue
			}
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}

	write(o.Theme)
	for _, a := range o.Arcs {
		write(a.Name, a.Summary, a.Climax)
		write(a.KeyEvents...)
	}
	for _, c := range o.Characters() {
		write(c.Name, c.Description, c.ArcDescription)
		write(c.Traits...)
		for _, m := range c.KeyMoments {
			write(m.Description, m.Development)
		}
	}
	write(o.World.Name, o.World.Description)
	write(o.World.Rules...)
	for _, l := range o.World.Locations {
		write(l.Name, l.Description)
	}
	return b.String()
}
