package entity

import "time"

// CompetitionLevel 竞争程度
type CompetitionLevel string

const (
	CompetitionLow    CompetitionLevel = "low"
	CompetitionMedium CompetitionLevel = "medium"
	CompetitionHigh   CompetitionLevel = "high"
)

// Recommendation 可行性建议
type Recommendation string

const (
	RecommendationProceed Recommendation = "proceed"
	RecommendationRevise  Recommendation = "revise"
	RecommendationReject  Recommendation = "reject"
)

// 建议阈值
const (
	ProceedThreshold uint32 = 70
	ReviseThreshold  uint32 = 50
)

// CompetitiveWork 竞品作品
type CompetitiveWork struct {
	Title          string   `json:"title"`
	Author         string   `json:"author"`
	Views          uint64   `json:"views"`
	Favorites      uint64   `json:"favorites"`
	Rating         float64  `json:"rating"`
	UniqueElements []string `json:"unique_elements"`
	Tags           []string `json:"tags"`
}

// FeasibilityScores 可行性评分
type FeasibilityScores struct {
	MarketViability uint32           `json:"market_viability"`
	Competition     CompetitionLevel `json:"competition"`
	Differentiation uint32           `json:"differentiation"`
}

// FeasibilityReport 题材可行性报告
type FeasibilityReport struct {
	ID                string            `json:"id"`
	ProjectID         string            `json:"project_id"`
	Genre             string            `json:"genre"`
	Snapshot          *MarketSnapshot   `json:"snapshot"`
	Provenance        DataProvenance    `json:"provenance"`
	TotalItemsInGenre uint32            `json:"total_items_in_genre"`
	AvgTopViews       uint64            `json:"avg_top_views"`
	AvgTopFavorites   uint64            `json:"avg_top_favorites"`
	TrendScore        float64           `json:"trend_score"`
	TopWorks          []CompetitiveWork `json:"top_works"`
	MarketGaps        []string          `json:"market_gaps"`
	Scores            FeasibilityScores `json:"scores"`
	Recommendation    Recommendation    `json:"recommendation"`
	SuggestedAngles   []string          `json:"suggested_angles"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// RecommendationFor 按市场可行性得分给出建议
func RecommendationFor(marketViability uint32) Recommendation {
	switch {
	case marketViability >= ProceedThreshold:
		return RecommendationProceed
	case marketViability >= ReviseThreshold:
		return RecommendationRevise
	default:
		return RecommendationReject
	}
}

// CalculateRecommendation 由评分推导建议，对未变更的报告重复调用结果相同
func (r *FeasibilityReport) CalculateRecommendation() Recommendation {
	r.Recommendation = RecommendationFor(r.Scores.MarketViability)
	return r.Recommendation
}

// IsEstimate 报告是否基于估算值
func (r *FeasibilityReport) IsEstimate() bool {
	return r.Provenance == ProvenanceSynthetic
}
