// Package feasibility 将市场快照转换为可行性评分与建议
package feasibility

import (
	"context"

	"github.com/google/uuid"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
)

// 评分常量
const (
	defaultTrendScore  = 0.3
	defaultWorkRating  = 4.5
	estimatedGenreSize = 10000
	neutralScore       = 50

	unavailableGap   = "数据获取失败，使用估算值"
	retryAngleFormat = "建议稍后重新分析" + catalog.GenrePlaceholder + "类型"
)

// Scorer 可行性评分器
type Scorer struct {
	catalog *catalog.Catalog
}

// NewScorer 创建评分器
func NewScorer(cat *catalog.Catalog) *Scorer {
	return &Scorer{catalog: cat}
}

// Score 生成可行性报告。snapshot 为 nil 时输出中性估算值，并以 provenance 区分
func (s *Scorer) Score(ctx context.Context, projectID, genre string, snapshot *entity.MarketSnapshot, provenance entity.DataProvenance) *entity.FeasibilityReport {
	report := &entity.FeasibilityReport{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Genre:       genre,
		Provenance:  provenance,
		TrendScore:  defaultTrendScore,
		TopWorks:    []entity.CompetitiveWork{},
		GeneratedAt: entity.Now(),
	}

	if snapshot != nil {
		s.scoreSnapshot(report, genre, snapshot)
	} else {
		// 没有数据时不伪造快照
		report.Provenance = entity.ProvenanceSynthetic
		report.TotalItemsInGenre = estimatedGenreSize
		report.Scores = entity.FeasibilityScores{
			MarketViability: neutralScore,
			Competition:     entity.CompetitionMedium,
			Differentiation: neutralScore,
		}
		report.MarketGaps = []string{unavailableGap}
		report.SuggestedAngles = []string{catalog.ExpandGenre(retryAngleFormat, genre)}
	}

	report.CalculateRecommendation()
	metrics.FeasibilityRecommendationTotal.WithLabelValues(genre, string(report.Recommendation)).Inc()
	logger.Info(ctx, "feasibility scored",
		"provenance", report.Provenance,
		"market_viability", report.Scores.MarketViability,
		"recommendation", report.Recommendation,
	)
	return report
}

func (s *Scorer) scoreSnapshot(report *entity.FeasibilityReport, genre string, snapshot *entity.MarketSnapshot) {
	report.Snapshot = snapshot
	report.TotalItemsInGenre = snapshot.TotalItems

	var views, favorites uint64
	for _, w := range snapshot.HotItems {
		views = entity.SaturatingAdd(views, w.WordCount)
		favorites = entity.SaturatingAdd(favorites, w.Likes)
	}
	n := uint64(max(len(snapshot.HotItems), 1))
	report.AvgTopViews = views / n
	report.AvgTopFavorites = favorites / n

	for _, w := range snapshot.HotItems {
		rating := defaultWorkRating
		if w.Rating != nil {
			rating = *w.Rating
		}
		report.TopWorks = append(report.TopWorks, entity.CompetitiveWork{
			Title:          w.Title,
			Author:         w.Author,
			Views:          w.WordCount,
			Favorites:      w.Likes,
			Rating:         rating,
			UniqueElements: []string{},
			Tags:           append([]string{}, snapshot.Tags...),
		})
	}

	report.Scores = entity.FeasibilityScores{
		MarketViability: MarketViability(report.AvgTopViews, report.AvgTopFavorites),
		Competition:     Competition(report.AvgTopViews),
		Differentiation: Differentiation(len(report.TopWorks)),
	}
	report.MarketGaps = s.marketGaps(snapshot.Tags)
	report.SuggestedAngles = s.suggestedAngles(genre, snapshot)
}

// MarketViability 浏览量得分与收藏量得分之和，上限 100
func MarketViability(avgViews, avgFavorites uint64) uint32 {
	var viewScore uint32
	switch {
	case avgViews > 1_000_000:
		viewScore = 80
	case avgViews > 500_000:
		viewScore = 60
	default:
		viewScore = 40
	}

	var favoriteScore uint32
	switch {
	case avgFavorites > 50_000:
		favoriteScore = 20
	case avgFavorites > 20_000:
		favoriteScore = 15
	default:
		favoriteScore = 10
	}
	return min(viewScore+favoriteScore, 100)
}

// Competition 按头部作品平均浏览量判断竞争程度
func Competition(avgViews uint64) entity.CompetitionLevel {
	switch {
	case avgViews > 1_500_000:
		return entity.CompetitionHigh
	case avgViews > 800_000:
		return entity.CompetitionMedium
	default:
		return entity.CompetitionLow
	}
}

// Differentiation 头部作品越少，差异化空间越大
func Differentiation(topWorks int) uint32 {
	switch {
	case topWorks < 5:
		return 80
	case topWorks < 10:
		return 60
	default:
		return 40
	}
}

// marketGaps 取前三个非饱和标签，没有时返回通用占位
func (s *Scorer) marketGaps(tags []string) []string {
	gaps := make([]string, 0, 3)
	for _, t := range tags {
		if s.catalog.IsSaturated(t) {
			continue
		}
		gaps = append(gaps, t)
		if len(gaps) == 3 {
			break
		}
	}
	if len(gaps) == 0 {
		return append(gaps, s.catalog.Market.FallbackGaps...)
	}
	return gaps
}

func (s *Scorer) suggestedAngles(genre string, snapshot *entity.MarketSnapshot) []string {
	rules := s.catalog.Market
	angles := make([]string, 0, len(rules.BaseAngles)+len(rules.TagAngles))
	for _, a := range rules.BaseAngles {
		angles = append(angles, catalog.ExpandGenre(a, genre))
	}
	for _, ta := range rules.TagAngles {
		if snapshot.HasTag(ta.Tag) {
			angles = append(angles, catalog.ExpandGenre(ta.Angle, genre))
		}
	}
	return angles
}
