package feasibility

import (
	"context"
	"math"
	"reflect"
	"testing"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
)

func TestMarketViability(t *testing.T) {
	tests := []struct {
		views, favorites uint64
		want             uint32
	}{
		{1_000_001, 50_001, 100},
		{1_000_000, 50_000, 75},
		{500_001, 20_001, 75},
		{500_000, 20_000, 50},
		{0, 0, 50},
		{2_000_000, 0, 90},
	}
	for _, tt := range tests {
		if got := MarketViability(tt.views, tt.favorites); got != tt.want {
			t.Errorf("MarketViability(%d, %d) = %d, want %d", tt.views, tt.favorites, got, tt.want)
		}
	}
}

func TestCompetition(t *testing.T) {
	tests := []struct {
		views uint64
		want  entity.CompetitionLevel
	}{
		{1_500_001, entity.CompetitionHigh},
		{1_500_000, entity.CompetitionMedium},
		{800_001, entity.CompetitionMedium},
		{800_000, entity.CompetitionLow},
	}
	for _, tt := range tests {
		if got := Competition(tt.views); got != tt.want {
			t.Errorf("Competition(%d) = %s, want %s", tt.views, got, tt.want)
		}
	}
}

func TestDifferentiation(t *testing.T) {
	tests := []struct {
		works int
		want  uint32
	}{
		{0, 80}, {4, 80}, {5, 60}, {9, 60}, {10, 40}, {100, 40},
	}
	for _, tt := range tests {
		if got := Differentiation(tt.works); got != tt.want {
			t.Errorf("Differentiation(%d) = %d, want %d", tt.works, got, tt.want)
		}
	}
}

func TestScore_WithSnapshot(t *testing.T) {
	rating := 4.9
	snap := entity.NewMarketSnapshot(5000, []entity.RankedWork{
		{Title: "甲", Author: "A", WordCount: 2_000_000, Likes: 100_000, Rating: &rating},
		{Title: "乙", Author: "B", WordCount: 1_000_000, Likes: 40_000},
	}, []string{"系统", "穿越", "甜宠", "都市", "赛博"})

	s := NewScorer(catalog.Default())
	r := s.Score(context.Background(), "p1", "urban", snap, entity.ProvenanceLive)

	if r.Provenance != entity.ProvenanceLive || r.Snapshot != snap {
		t.Errorf("provenance/snapshot not carried: %s", r.Provenance)
	}
	if r.AvgTopViews != 1_500_000 || r.AvgTopFavorites != 70_000 {
		t.Errorf("averages = %d/%d", r.AvgTopViews, r.AvgTopFavorites)
	}
	if r.TotalItemsInGenre != 5000 {
		t.Errorf("total items = %d", r.TotalItemsInGenre)
	}
	wantScores := entity.FeasibilityScores{
		MarketViability: 100,
		Competition:     entity.CompetitionMedium,
		Differentiation: 80,
	}
	if r.Scores != wantScores {
		t.Errorf("scores = %+v, want %+v", r.Scores, wantScores)
	}
	if r.Recommendation != entity.RecommendationProceed {
		t.Errorf("recommendation = %s", r.Recommendation)
	}
	if r.TopWorks[0].Rating != 4.9 || r.TopWorks[1].Rating != defaultWorkRating {
		t.Errorf("ratings = %v, %v", r.TopWorks[0].Rating, r.TopWorks[1].Rating)
	}
	if want := []string{"甜宠", "赛博"}; !reflect.DeepEqual(r.MarketGaps, want) {
		t.Errorf("gaps = %v, want %v", r.MarketGaps, want)
	}
	wantAngles := []string{"创新urban流派", "融合urban与热门元素", "在urban中加入系统元素", "尝试urban魂穿设定"}
	if !reflect.DeepEqual(r.SuggestedAngles, wantAngles) {
		t.Errorf("angles = %v, want %v", r.SuggestedAngles, wantAngles)
	}
	if r.TrendScore != defaultTrendScore {
		t.Errorf("trend score = %v", r.TrendScore)
	}
}

func TestScore_HugeCountsDoNotWrap(t *testing.T) {
	snap := entity.NewMarketSnapshot(10, []entity.RankedWork{
		{Title: "甲", WordCount: 1 << 63, Likes: 1 << 63},
		{Title: "乙", WordCount: 1 << 63, Likes: 1 << 63},
	}, nil)

	r := NewScorer(catalog.Default()).Score(context.Background(), "p1", "urban", snap, entity.ProvenanceLive)
	if r.AvgTopViews != math.MaxUint64/2 || r.AvgTopFavorites != math.MaxUint64/2 {
		t.Errorf("averages = %d/%d", r.AvgTopViews, r.AvgTopFavorites)
	}
	if r.Scores.Competition != entity.CompetitionHigh {
		t.Errorf("competition = %s, want high", r.Scores.Competition)
	}
	if r.Scores.MarketViability != 100 {
		t.Errorf("viability = %d, want 100", r.Scores.MarketViability)
	}
}

func TestScore_GapsFallBackWhenAllTagsSaturated(t *testing.T) {
	snap := entity.NewMarketSnapshot(0, []entity.RankedWork{
		{Title: "甲", Author: "A", WordCount: 100, Likes: 10},
	}, []string{"穿越", "重生", "修仙", "玄幻", "都市", "系统"})

	r := NewScorer(catalog.Default()).Score(context.Background(), "p1", "fantasy", snap, entity.ProvenanceCached)
	if want := []string{"创新元素", "细分题材"}; !reflect.DeepEqual(r.MarketGaps, want) {
		t.Errorf("gaps = %v, want %v", r.MarketGaps, want)
	}
	if r.Scores.MarketViability != 50 || r.Recommendation != entity.RecommendationRevise {
		t.Errorf("viability %d recommendation %s", r.Scores.MarketViability, r.Recommendation)
	}
}

func TestScore_SyntheticPath(t *testing.T) {
	r := NewScorer(catalog.Default()).Score(context.Background(), "p1", "scifi", nil, entity.ProvenanceSynthetic)

	if r.Snapshot != nil {
		t.Error("synthetic report must not carry a snapshot")
	}
	if !r.IsEstimate() {
		t.Error("synthetic report must be flagged as estimate")
	}
	want := entity.FeasibilityScores{MarketViability: 50, Competition: entity.CompetitionMedium, Differentiation: 50}
	if r.Scores != want {
		t.Errorf("scores = %+v", r.Scores)
	}
	if r.TotalItemsInGenre != estimatedGenreSize {
		t.Errorf("total = %d", r.TotalItemsInGenre)
	}
	if !reflect.DeepEqual(r.MarketGaps, []string{unavailableGap}) {
		t.Errorf("gaps = %v", r.MarketGaps)
	}
	if !reflect.DeepEqual(r.SuggestedAngles, []string{"建议稍后重新分析scifi类型"}) {
		t.Errorf("angles = %v", r.SuggestedAngles)
	}
	if r.Recommendation != entity.RecommendationRevise {
		t.Errorf("recommendation = %s", r.Recommendation)
	}
}

func TestScore_NilSnapshotIsAlwaysSynthetic(t *testing.T) {
	r := NewScorer(catalog.Default()).Score(context.Background(), "p1", "game", nil, entity.ProvenanceLive)
	if r.Provenance != entity.ProvenanceSynthetic {
		t.Errorf("provenance = %s, want synthetic", r.Provenance)
	}
}
