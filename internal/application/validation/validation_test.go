package validation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"novel-planner/internal/application/outline"
	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
)

func TestConsistency_ModernTermsInXianxia(t *testing.T) {
	v := NewConsistencyValidator(catalog.Default())
	got := v.Check("xianxia", "主角用手机修仙", "现代都市修仙")

	if len(got.MismatchedElements) == 0 {
		t.Fatal("expected a mismatch for 手机 in xianxia")
	}
	if !strings.Contains(got.MismatchedElements[0], "手机") {
		t.Errorf("mismatch should name the term: %q", got.MismatchedElements[0])
	}
	if got.Score >= consistencyFloor || got.IsConsistent {
		t.Errorf("score = %v consistent = %t, want below threshold", got.Score, got.IsConsistent)
	}
	if !slices.Equal(got.MatchedKeywords, []string{"修仙"}) {
		t.Errorf("matched = %v", got.MatchedKeywords)
	}
}

func TestConsistency_Scoring(t *testing.T) {
	v := NewConsistencyValidator(catalog.Default())
	tests := []struct {
		name       string
		genre      string
		text       string
		score      float64
		consistent bool
		warnings   int
	}{
		{"fantasy rich", "fantasy", "主角拥有变异斗气，开始修炼之路，成为炼药师", 0.3, true, 0},
		{"no keywords", "romance", "一个平凡的故事", 0, false, 1},
		{"few keywords", "urban", "都市里的总裁", 0.2, false, 1},
		{"unknown genre", "western", "牛仔与荒野", 0, false, 1},
		{
			"saturated",
			"scifi",
			"太空 飞船 星球 外星人 人工智能 机器人 基因 克隆 未来 末世 机甲",
			1, true, 0,
		},
		{"two antonyms", "historical", "古代 朝廷 皇帝 太子 王爷 大臣 科举 江湖 武林 侠客 电脑 手机", 0.4, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Check(tt.genre, tt.text, "")
			if diff := got.Score - tt.score; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("score = %v, want %v", got.Score, tt.score)
			}
			if got.IsConsistent != tt.consistent {
				t.Errorf("consistent = %t, want %t", got.IsConsistent, tt.consistent)
			}
			if len(got.Warnings) != tt.warnings {
				t.Errorf("warnings = %v", got.Warnings)
			}
		})
	}
}

func TestConsistency_GenreIsCaseInsensitive(t *testing.T) {
	v := NewConsistencyValidator(catalog.Default())
	if got := v.Check("XianXia", "筑基 金丹 元婴", ""); len(got.MatchedKeywords) != 3 {
		t.Errorf("matched = %v", got.MatchedKeywords)
	}
	if len(v.Keywords("Fantasy")) == 0 {
		t.Error("keywords lookup should ignore case")
	}
}

func TestCopyright_Check(t *testing.T) {
	v := NewCopyrightValidator(catalog.Default())
	tests := []struct {
		name      string
		risk      entity.RiskLevel
		duplicate bool
		source    string
	}{
		{"萧炎", entity.RiskHigh, true, "斗破苍穹"},
		{"韩立", entity.RiskHigh, true, "凡人修仙传"},
		{"张三", entity.RiskLow, false, ""},
		{"张小凡子", entity.RiskMedium, true, "诛仙"},
		{"何以笙", entity.RiskMedium, true, "何以笙箫默"},
		{"萧云", entity.RiskLow, false, ""},
		{"楚青云", entity.RiskLow, false, ""},
		{"萧炎哥", entity.RiskMedium, true, "斗破苍穹"},
		{"小萧炎", entity.RiskMedium, true, "斗破苍穹"},
		{"唐三少", entity.RiskMedium, true, "斗罗大陆"},
		{"叶凡尘", entity.RiskMedium, true, "都市全能高手"},
		{"张小", entity.RiskMedium, true, "诛仙"},
		{"萧", entity.RiskLow, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Check(tt.name, nil)
			if got.Risk != tt.risk || got.IsPotentialDuplicate != tt.duplicate {
				t.Fatalf("got risk %s duplicate %t", got.Risk, got.IsPotentialDuplicate)
			}
			if tt.source == "" {
				if got.SourceWork != nil {
					t.Errorf("unexpected source %q", *got.SourceWork)
				}
				return
			}
			if got.SourceWork == nil || *got.SourceWork != tt.source {
				t.Errorf("source = %v, want %s", got.SourceWork, tt.source)
			}
			if len(got.SuggestedAlternatives) == 0 {
				t.Error("risky names should carry alternatives")
			}
		})
	}
}

func TestCopyright_MatchesAcrossGenres(t *testing.T) {
	v := NewCopyrightValidator(catalog.Default())
	genre := "romance"
	if got := v.Check("唐三", &genre); got.Risk != entity.RiskHigh {
		t.Errorf("risk = %s, want high regardless of genre", got.Risk)
	}
	names := []string{"牧尘", "小明"}
	got := v.CheckMany(names, nil)
	if len(got) != 2 || got[0].Risk != entity.RiskHigh || got[1].Risk != entity.RiskLow {
		t.Errorf("CheckMany = %+v", got)
	}
	if !v.IsCommonName("lucy") {
		t.Error("common names are case-insensitive")
	}
}

func synthesizedOutline(t *testing.T, genre string) *entity.Outline {
	t.Helper()
	o, err := outline.NewSynthesizer(catalog.Default()).Synthesize(context.Background(), outline.Request{
		ProjectID:       "p1",
		Genre:           genre,
		Premise:         "逆境中成长",
		TargetWordCount: 500_000,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return o
}

func newGate() *Gate {
	cat := catalog.Default()
	return NewGate(NewConsistencyValidator(cat), NewCopyrightValidator(cat))
}

func TestGate_ApprovesSynthesizedOutlines(t *testing.T) {
	for _, genre := range catalog.Default().Genres() {
		t.Run(genre, func(t *testing.T) {
			o := synthesizedOutline(t, genre)
			result, err := newGate().Approve(context.Background(), o)
			if err != nil {
				t.Fatalf("Approve: %v (warnings %v)", err, result)
			}
			if o.Status != entity.OutlineStatusApproved {
				t.Errorf("status = %s", o.Status)
			}
			if len(result.Characters) != 3 {
				t.Errorf("characters = %d", len(result.Characters))
			}
		})
	}
}

func TestGate_RejectsKnownProtagonist(t *testing.T) {
	o := synthesizedOutline(t, "fantasy")
	p := o.Protagonist
	p.Name = "萧炎"
	if err := o.ReplaceCharacters(p, o.Supporting); err != nil {
		t.Fatalf("ReplaceCharacters: %v", err)
	}

	result, err := newGate().Approve(context.Background(), o)
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if o.Status != entity.OutlineStatusDraft {
		t.Errorf("status = %s, want draft", o.Status)
	}
	if result.Characters[0].Risk != entity.RiskHigh {
		t.Errorf("protagonist verdict = %+v", result.Characters[0])
	}
	if !strings.Contains(err.Error(), "萧炎") {
		t.Errorf("error should carry warnings: %v", err)
	}
}

func TestGate_CommonNamesAreSkipped(t *testing.T) {
	o := synthesizedOutline(t, "urban")
	p := o.Protagonist
	p.Name = "赵云"
	if err := o.ReplaceCharacters(p, o.Supporting); err != nil {
		t.Fatal(err)
	}
	result, err := newGate().Evaluate(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	if c := result.Characters[0]; c.CharacterName != "赵云" || c.Risk != entity.RiskLow {
		t.Errorf("verdict = %+v", c)
	}
}

func TestGate_LockedOutline(t *testing.T) {
	o := synthesizedOutline(t, "game")
	o.Status = entity.OutlineStatusLocked
	if _, err := newGate().Approve(context.Background(), o); !errors.Is(err, apperrors.ErrOutlineLocked) {
		t.Errorf("err = %v, want ErrOutlineLocked", err)
	}
}

func TestGate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newGate().Evaluate(ctx, synthesizedOutline(t, "horror")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestProjectValidator(t *testing.T) {
	pv := NewProjectValidator(catalog.Default())
	valid := func() *ProjectInput {
		return &ProjectInput{
			Name:            "星海远航",
			Summary:         "一个关于星际探索与人性抉择的故事",
			Genre:           "SciFi",
			TargetWordCount: 300_000,
		}
	}

	tests := []struct {
		name     string
		mutate   func(*ProjectInput)
		field    string
		warnings int
	}{
		{"valid", func(*ProjectInput) {}, "", 0},
		{"blank name", func(in *ProjectInput) { in.Name = "   " }, "name", 0},
		{"long name", func(in *ProjectInput) { in.Name = strings.Repeat("名", 101) }, "name", 0},
		{"short summary", func(in *ProjectInput) { in.Summary = "太短" }, "summary", 0},
		{"unknown genre", func(in *ProjectInput) { in.Genre = "western" }, "genre", 0},
		{"zero target", func(in *ProjectInput) { in.TargetWordCount = 0 }, "target_word_count", 1},
		{"huge target", func(in *ProjectInput) { in.TargetWordCount = 10_000_001 }, "target_word_count", 1},
		{"low target warns", func(in *ProjectInput) { in.TargetWordCount = 5_000 }, "", 1},
		{"below three chapters warns", func(in *ProjectInput) { in.TargetWordCount = 29_999 }, "", 1},
		{"three chapters is enough", func(in *ProjectInput) { in.TargetWordCount = 30_000 }, "", 0},
		{"large target warns", func(in *ProjectInput) { in.TargetWordCount = 6_000_000 }, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(in)
			r := pv.Validate(in)

			if tt.field == "" {
				if !r.Valid || r.Err() != nil {
					t.Fatalf("unexpected errors: %+v", r.Errors)
				}
			} else {
				if r.Valid || len(r.Errors) != 1 || r.Errors[0].Field != tt.field {
					t.Fatalf("errors = %+v, want one on %s", r.Errors, tt.field)
				}
				if !errors.Is(r.Err(), apperrors.ErrInvalidParam) {
					t.Errorf("Err() = %v", r.Err())
				}
			}
			if len(r.Warnings) != tt.warnings {
				t.Errorf("warnings = %+v", r.Warnings)
			}
		})
	}
}

func TestProjectValidator_NormalizesGenre(t *testing.T) {
	in := &ProjectInput{Name: "n", Summary: "足够长的一段简介内容", Genre: " Horror ", TargetWordCount: 100_000}
	if r := NewProjectValidator(catalog.Default()).Validate(in); !r.Valid {
		t.Fatalf("errors = %+v", r.Errors)
	}
	if in.Genre != "horror" {
		t.Errorf("genre = %q", in.Genre)
	}
}

func TestContentFilter_Check(t *testing.T) {
	f := NewContentFilter(catalog.Default())
	tests := []struct {
		name     string
		content  string
		passed   bool
		keywords []string
	}{
		{"clean", "少年在山门前拜师", true, nil},
		{"violence", "一场血腥的杀戮", false, []string{"血腥", "杀戮"}},
		{"political", "政府派人来查", false, []string{"政府"}},
		{"empty", "", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Check(tt.content)
			if got.Passed != tt.passed {
				t.Errorf("Passed = %v, want %v", got.Passed, tt.passed)
			}
			var keywords []string
			for _, issue := range got.Issues {
				keywords = append(keywords, issue.Keyword)
			}
			if !slices.Equal(keywords, tt.keywords) {
				t.Errorf("keywords = %v, want %v", keywords, tt.keywords)
			}
		})
	}
}

func TestContentFilter_LowSeverityPasses(t *testing.T) {
	f := NewContentFilter(&catalog.Catalog{SensitiveTerms: []catalog.SensitiveTerms{{
		Category:   entity.SensitiveViolence,
		Severity:   entity.RiskLow,
		Keywords:   []string{"打斗"},
		Suggestion: "注意描写尺度",
	}}})

	got := f.Check("两人打斗了一整夜")
	if !got.Passed || len(got.Issues) != 1 {
		t.Fatalf("check = %+v", got)
	}
	if got.Issues[0].Severity != entity.RiskLow || got.Issues[0].Suggestion != "注意描写尺度" {
		t.Errorf("issue = %+v", got.Issues[0])
	}
}
