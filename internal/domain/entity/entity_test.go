package entity

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	apperrors "novel-planner/pkg/errors"
)

func TestPlotTwistPositions(t *testing.T) {
	tests := []struct {
		total uint32
		want  []uint32
	}{
		{0, []uint32{}},
		{9, []uint32{}},
		{10, []uint32{10}},
		{19, []uint32{10}},
		{50, []uint32{10, 20, 30, 40, 50}},
		{55, []uint32{10, 20, 30, 40, 50}},
	}
	for _, tt := range tests {
		got := PlotTwistPositions(tt.total)
		if got == nil || !slices.Equal(got, tt.want) {
			t.Errorf("PlotTwistPositions(%d) = %#v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestRecommendationFor(t *testing.T) {
	tests := []struct {
		score uint32
		want  Recommendation
	}{
		{100, RecommendationProceed},
		{80, RecommendationProceed},
		{70, RecommendationProceed},
		{69, RecommendationRevise},
		{60, RecommendationRevise},
		{50, RecommendationRevise},
		{49, RecommendationReject},
		{40, RecommendationReject},
		{0, RecommendationReject},
	}
	for _, tt := range tests {
		r := &FeasibilityReport{Scores: FeasibilityScores{MarketViability: tt.score}}
		first := r.CalculateRecommendation()
		second := r.CalculateRecommendation()
		if first != tt.want || second != first || r.Recommendation != tt.want {
			t.Errorf("score %d: got %s then %s, want %s", tt.score, first, second, tt.want)
		}
	}
}

func TestRecommendationFor_Monotonic(t *testing.T) {
	rank := map[Recommendation]int{RecommendationReject: 0, RecommendationRevise: 1, RecommendationProceed: 2}
	prev := rank[RecommendationFor(0)]
	for s := uint32(1); s <= 100; s++ {
		cur := rank[RecommendationFor(s)]
		if cur < prev {
			t.Fatalf("recommendation decreased at score %d", s)
		}
		prev = cur
	}
}

func TestNewMarketSnapshot(t *testing.T) {
	s := NewMarketSnapshot(1, []RankedWork{
		{Title: "a", WordCount: 100},
		{Title: "b", WordCount: 301},
	}, []string{"系统", "", "穿越", "系统"})

	if s.TotalItems != 2 {
		t.Errorf("total = %d, want at least the number of works", s.TotalItems)
	}
	if s.AverageWordCount != 200 {
		t.Errorf("average = %d", s.AverageWordCount)
	}
	if !slices.Equal(s.Tags, []string{"系统", "穿越"}) {
		t.Errorf("tags = %v", s.Tags)
	}
	if !s.HasTag("穿越") || s.HasTag("都市") {
		t.Error("HasTag mismatch")
	}

	var nilSnap *MarketSnapshot
	if !nilSnap.IsEmpty() || !NewMarketSnapshot(0, nil, nil).IsEmpty() {
		t.Error("nil and work-less snapshots are empty")
	}
}

func TestNewMarketSnapshot_SaturatesHugeCounts(t *testing.T) {
	s := NewMarketSnapshot(0, []RankedWork{
		{Title: "a", WordCount: 1 << 63},
		{Title: "b", WordCount: 1 << 63},
	}, nil)
	if s.AverageWordCount != math.MaxUint64/2 {
		t.Errorf("average = %d, want saturated sum / 2", s.AverageWordCount)
	}
}

func TestSaturatingAdd(t *testing.T) {
	tests := []struct {
		a, b, want uint64
	}{
		{1, 2, 3},
		{math.MaxUint64, 0, math.MaxUint64},
		{math.MaxUint64, 1, math.MaxUint64},
		{1 << 63, 1 << 63, math.MaxUint64},
	}
	for _, tt := range tests {
		if got := SaturatingAdd(tt.a, tt.b); got != tt.want {
			t.Errorf("SaturatingAdd(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func validOutline() *Outline {
	return &Outline{
		ID:              "o1",
		ProjectID:       "p1",
		Genre:           "xianxia",
		Premise:         "废灵根少年修仙",
		Theme:           "逆天改命",
		TargetWordCount: 300_000,
		Arcs: []PlotArc{
			{ID: "a1", Name: "起", Stage: ArcStageOrigin, StartChapter: 1, EndChapter: 10, KeyEvents: []string{"入门"}},
			{ID: "a2", Name: "承", Stage: ArcStageRising, StartChapter: 11, EndChapter: 20, KeyEvents: []string{}},
			{ID: "a3", Name: "合", Stage: ArcStageClimax, StartChapter: 21, EndChapter: 30, Climax: "飞升"},
		},
		Protagonist: CharacterArc{ID: "c1", Name: "楚青云", Role: RoleProtagonist, Traits: []string{"坚韧"},
			KeyMoments: []CharacterMoment{{Chapter: 1, Description: "故事开始", Development: "展现潜力"}}},
		Supporting: []CharacterArc{
			{ID: "c2", Name: "导师", Role: RoleSupporting},
			{ID: "c3", Name: "魔尊", Role: RoleAntagonist},
		},
		World: WorldSettings{
			Name: "修仙界", Type: WorldXianxia, Rules: []string{"灵气修炼"},
			Locations: []Location{{Name: "青云宗", Importance: LocationMajor}},
		},
		Status: OutlineStatusDraft,
	}
}

func TestOutline_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Outline)
		want   error
	}{
		{"valid", func(*Outline) {}, nil},
		{"zero chapters", func(o *Outline) { o.TargetWordCount = 9_999 }, apperrors.ErrDegenerateTarget},
		{"no arcs", func(o *Outline) { o.Arcs = nil }, apperrors.ErrInvalidStructure},
		{"gap", func(o *Outline) { o.Arcs[1].StartChapter = 12 }, apperrors.ErrInvalidStructure},
		{"overlap", func(o *Outline) { o.Arcs[1].StartChapter = 10 }, apperrors.ErrInvalidStructure},
		{"not starting at one", func(o *Outline) { o.Arcs[0].StartChapter = 2 }, apperrors.ErrInvalidStructure},
		{"inverted arc", func(o *Outline) { o.Arcs[1].EndChapter = 9 }, apperrors.ErrInvalidStructure},
		{"short coverage", func(o *Outline) { o.Arcs[2].EndChapter = 29 }, apperrors.ErrInvalidStructure},
		{"two protagonists", func(o *Outline) { o.Supporting[0].Role = RoleProtagonist }, apperrors.ErrInvalidStructure},
		{"protagonist role missing", func(o *Outline) { o.Protagonist.Role = RoleSupporting }, apperrors.ErrInvalidStructure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOutline()
			tt.mutate(o)
			err := o.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOutline_Transitions(t *testing.T) {
	o := validOutline()

	if err := o.Lock(); !errors.Is(err, apperrors.ErrUnapprovedOutline) {
		t.Fatalf("locking a draft: %v", err)
	}
	if err := o.Approve(); err != nil || o.Status != OutlineStatusApproved {
		t.Fatalf("Approve: %v (%s)", err, o.Status)
	}
	if err := o.Approve(); err != nil {
		t.Fatalf("re-approve should be a no-op: %v", err)
	}

	arcs := slices.Clone(o.Arcs)
	arcs[0].Name = "新起"
	if err := o.ReplaceArcs(arcs); err != nil {
		t.Fatalf("ReplaceArcs: %v", err)
	}
	if o.Status != OutlineStatusDraft {
		t.Errorf("edit should return outline to draft, got %s", o.Status)
	}

	if err := o.Approve(); err != nil {
		t.Fatal(err)
	}
	if err := o.Lock(); err != nil || o.Status != OutlineStatusLocked {
		t.Fatalf("Lock: %v (%s)", err, o.Status)
	}
	if err := o.Lock(); err != nil {
		t.Errorf("re-lock should be a no-op: %v", err)
	}
	if err := o.Approve(); !errors.Is(err, apperrors.ErrOutlineLocked) {
		t.Errorf("approve locked: %v", err)
	}
	if err := o.ReplaceArcs(arcs); !errors.Is(err, apperrors.ErrOutlineLocked) {
		t.Errorf("edit locked: %v", err)
	}
	if err := o.ReplaceCharacters(o.Protagonist, nil); !errors.Is(err, apperrors.ErrOutlineLocked) {
		t.Errorf("edit locked characters: %v", err)
	}
}

func TestOutline_ReplaceArcsRollsBack(t *testing.T) {
	o := validOutline()
	before := slices.Clone(o.Arcs)

	bad := slices.Clone(o.Arcs)
	bad[2].EndChapter = 40
	if err := o.ReplaceArcs(bad); !errors.Is(err, apperrors.ErrInvalidStructure) {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(o.Arcs, before) {
		t.Error("arcs should be restored after a failed edit")
	}
}

func TestOutline_ArcFor(t *testing.T) {
	o := validOutline()
	for ch, want := range map[uint32]string{1: "起", 10: "起", 11: "承", 30: "合"} {
		arc, ok := o.ArcFor(ch)
		if !ok || arc.Name != want {
			t.Errorf("ArcFor(%d) = %v, %t", ch, arc, ok)
		}
	}
	if _, ok := o.ArcFor(31); ok {
		t.Error("chapter 31 is outside every arc")
	}
}

func planChapters(total uint32) []ChapterSummary {
	out := make([]ChapterSummary, 0, total)
	for i := uint32(1); i <= total; i++ {
		c := ChapterSummary{Number: i, Title: "章", KeyEvents: []string{"事件"}, WordCountEstimate: WordsPerChapter}
		if IsPlotTwistChapter(i) {
			d := "转折"
			c.IsPlotTwist = true
			c.PlotTwistDescription = &d
		}
		out = append(out, c)
	}
	return out
}

func TestNewChapterPlan(t *testing.T) {
	plan, err := NewChapterPlan("p1", 25, planChapters(25))
	if err != nil {
		t.Fatalf("NewChapterPlan: %v", err)
	}
	if !slices.Equal(plan.PlotTwistPositions, []uint32{10, 20}) {
		t.Errorf("positions = %v", plan.PlotTwistPositions)
	}
	if c, ok := plan.Chapter(25); !ok || c.Number != 25 {
		t.Errorf("Chapter(25) = %v, %t", c, ok)
	}
	if _, ok := plan.Chapter(0); ok {
		t.Error("chapter 0 does not exist")
	}

	tests := []struct {
		name   string
		mutate func([]ChapterSummary) []ChapterSummary
	}{
		{"missing chapter", func(c []ChapterSummary) []ChapterSummary { return c[:24] }},
		{"out of order", func(c []ChapterSummary) []ChapterSummary { c[3].Number, c[4].Number = 5, 4; return c }},
		{"twist flag off schedule", func(c []ChapterSummary) []ChapterSummary {
			d := "x"
			c[4].IsPlotTwist, c[4].PlotTwistDescription = true, &d
			return c
		}},
		{"twist without description", func(c []ChapterSummary) []ChapterSummary { c[9].PlotTwistDescription = nil; return c }},
		{"description without twist", func(c []ChapterSummary) []ChapterSummary {
			d := "x"
			c[2].PlotTwistDescription = &d
			return c
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewChapterPlan("p1", 25, tt.mutate(planChapters(25))); !errors.Is(err, apperrors.ErrInvalidStructure) {
				t.Errorf("err = %v, want ErrInvalidStructure", err)
			}
		})
	}
}

func roundTrip[T any](t *testing.T, in *T) {
	t.Helper()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch\n in: %+v\nout: %+v", in, out)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rating := 4.8
	generated := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

	t.Run("feasibility report", func(t *testing.T) {
		roundTrip(t, &FeasibilityReport{
			ID: "r1", ProjectID: "p1", Genre: "urban",
			Snapshot: NewMarketSnapshot(100, []RankedWork{
				{Title: "甲", Author: "A", WordCount: 1_000_000, Likes: 20, Rating: &rating},
				{Title: "乙", Author: "B", WordCount: 10, Likes: 5},
			}, []string{"都市"}),
			Provenance: ProvenanceLive, TotalItemsInGenre: 100,
			AvgTopViews: 500_005, AvgTopFavorites: 12, TrendScore: 0.3,
			TopWorks:       []CompetitiveWork{{Title: "甲", Rating: 4.5, UniqueElements: []string{}, Tags: []string{"都市"}}},
			MarketGaps:     []string{"创新元素"},
			Scores:         FeasibilityScores{MarketViability: 70, Competition: CompetitionLow, Differentiation: 80},
			Recommendation: RecommendationProceed, SuggestedAngles: []string{"创新urban流派"},
			GeneratedAt: generated,
		})
	})
	t.Run("synthetic report", func(t *testing.T) {
		roundTrip(t, &FeasibilityReport{
			ID: "r2", Provenance: ProvenanceSynthetic, TopWorks: []CompetitiveWork{},
			Scores:      FeasibilityScores{MarketViability: 50, Competition: CompetitionMedium, Differentiation: 50},
			GeneratedAt: generated,
		})
	})
	t.Run("outline", func(t *testing.T) {
		roundTrip(t, validOutline())
	})
	t.Run("chapter plan", func(t *testing.T) {
		plan, err := NewChapterPlan("p1", 12, planChapters(12))
		if err != nil {
			t.Fatal(err)
		}
		roundTrip(t, plan)
	})
	t.Run("empty chapter plan positions", func(t *testing.T) {
		plan, err := NewChapterPlan("p1", 3, planChapters(3))
		if err != nil {
			t.Fatal(err)
		}
		roundTrip(t, plan)
	})
}

func TestArtifact(t *testing.T) {
	if ChapterKey(7) != "chapter:7" {
		t.Errorf("ChapterKey = %s", ChapterKey(7))
	}
	if _, err := NewArtifact("p1", "x", ArtifactKind("volume"), 1); err == nil {
		t.Error("unknown kind should be rejected")
	}

	o := validOutline()
	a, err := NewArtifact("p1", string(ArtifactOutline), ArtifactOutline, o)
	if err != nil {
		t.Fatal(err)
	}
	var got Outline
	if err := a.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(&got, o) {
		t.Error("decoded outline differs")
	}
}

func TestNewGeneratedChapter_CountsRunes(t *testing.T) {
	c := NewGeneratedChapter("p1", 3, "第3章", "山高水长。", "gpt")
	if c.WordCount != 5 || c.Status != ChapterStatusDraft {
		t.Errorf("chapter = %+v", c)
	}
	if c.CreatedAt.Location() != time.UTC {
		t.Errorf("created_at should be UTC")
	}
}

func TestGeneratedChapter_ApplyCheck(t *testing.T) {
	tests := []struct {
		name  string
		check ContentCheck
		want  ChapterStatus
	}{
		{"passed stays draft", ContentCheck{Passed: true}, ChapterStatusDraft},
		{"failed needs review", ContentCheck{Issues: []SensitiveContentIssue{{Category: SensitiveViolence, Keyword: "血腥", Severity: RiskMedium}}}, ChapterStatusReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewGeneratedChapter("p1", 1, "第1章", "正文", "gpt")
			c.ApplyCheck(tt.check)
			if c.Status != tt.want {
				t.Errorf("status = %s, want %s", c.Status, tt.want)
			}
			if c.Check == nil || c.Check.Passed != tt.check.Passed {
				t.Errorf("check = %+v", c.Check)
			}
		})
	}
}
