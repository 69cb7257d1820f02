package outline

import (
	"context"
	"errors"
	"testing"

	"novel-planner/internal/catalog"
	"novel-planner/internal/domain/entity"
	apperrors "novel-planner/pkg/errors"
)

func synthesize(t *testing.T, genre string, target uint64) *entity.Outline {
	t.Helper()
	s := NewSynthesizer(catalog.Default())
	o, err := s.Synthesize(context.Background(), Request{
		ProjectID:       "p1",
		Genre:           genre,
		Premise:         "少年逆袭",
		Theme:           "成长",
		TargetWordCount: target,
	})
	if err != nil {
		t.Fatalf("Synthesize(%s, %d): %v", genre, target, err)
	}
	return o
}

func TestSynthesize_ArcsAreContiguous(t *testing.T) {
	for _, target := range []uint64{30_000, 39_999, 40_000, 50_000, 110_000, 500_000, 1_000_000, 2_345_678} {
		o := synthesize(t, "fantasy", target)
		total := entity.TotalChapters(target)

		if len(o.Arcs) != 3 {
			t.Fatalf("target %d: %d arcs", target, len(o.Arcs))
		}
		if o.Arcs[0].StartChapter != 1 {
			t.Errorf("target %d: first arc starts at %d", target, o.Arcs[0].StartChapter)
		}
		for i := 1; i < len(o.Arcs); i++ {
			if o.Arcs[i].StartChapter != o.Arcs[i-1].EndChapter+1 {
				t.Errorf("target %d: gap or overlap between arc %d and %d", target, i-1, i)
			}
		}
		for i, a := range o.Arcs {
			if a.StartChapter > a.EndChapter {
				t.Errorf("target %d: arc %d is empty [%d,%d]", target, i, a.StartChapter, a.EndChapter)
			}
			if a.Stage != entity.ArcStages[i] {
				t.Errorf("target %d: arc %d stage %s", target, i, a.Stage)
			}
		}
		if last := o.Arcs[2].EndChapter; last != total {
			t.Errorf("target %d: last arc ends at %d, want %d", target, last, total)
		}
	}
}

func TestSynthesize_DegenerateTarget(t *testing.T) {
	s := NewSynthesizer(catalog.Default())
	for _, target := range []uint64{0, 9_999, 29_999} {
		_, err := s.Synthesize(context.Background(), Request{Genre: "urban", TargetWordCount: target})
		if !errors.Is(err, apperrors.ErrDegenerateTarget) {
			t.Errorf("target %d: err = %v, want ErrDegenerateTarget", target, err)
		}
	}
}

func TestSynthesize_UsesGenreTemplate(t *testing.T) {
	tests := []struct {
		genre       string
		protagonist string
		world       string
		worldType   entity.WorldType
	}{
		{"fantasy", "叶尘", "玄幻世界", entity.WorldFantasy},
		{"Xianxia", "楚青云", "修仙界", entity.WorldXianxia},
		{"urban", "林逸", "现代都市", entity.WorldModern},
		{"romance", "顾宁", "普通世界", entity.WorldModern},
		{"scifi", "主角", "未来世界", entity.WorldScifi},
		{"western", "主角", "普通世界", entity.WorldModern},
	}
	for _, tt := range tests {
		t.Run(tt.genre, func(t *testing.T) {
			o := synthesize(t, tt.genre, 300_000)
			if o.Protagonist.Name != tt.protagonist {
				t.Errorf("protagonist = %s, want %s", o.Protagonist.Name, tt.protagonist)
			}
			if o.World.Name != tt.world || o.World.Type != tt.worldType {
				t.Errorf("world = %s/%s", o.World.Name, o.World.Type)
			}
			if o.Status != entity.OutlineStatusDraft {
				t.Errorf("status = %s", o.Status)
			}
			if err := o.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestSynthesize_DefaultTemplateExpandsGenre(t *testing.T) {
	o := synthesize(t, "western", 100_000)
	if o.World.Description != "western类型的小说世界" {
		t.Errorf("description = %q", o.World.Description)
	}
	if o.Arcs[0].Name != "序章与起源" || o.Arcs[2].Climax != "终极对决与胜利" {
		t.Errorf("default arcs not used: %+v", o.Arcs)
	}
}

func TestSynthesize_FixedSupportingArchetypes(t *testing.T) {
	o := synthesize(t, "horror", 100_000)
	if len(o.Supporting) != 2 {
		t.Fatalf("supporting = %d", len(o.Supporting))
	}
	if o.Supporting[0].Role != entity.RoleSupporting || o.Supporting[0].Name != "导师/贵人" {
		t.Errorf("mentor = %+v", o.Supporting[0])
	}
	if o.Supporting[1].Role != entity.RoleAntagonist || o.Supporting[1].Name != "对手/敌人" {
		t.Errorf("antagonist = %+v", o.Supporting[1])
	}
}

func TestArcBounds(t *testing.T) {
	tests := []struct {
		total uint32
		want  [3][2]uint32
	}{
		{3, [3][2]uint32{{1, 1}, {2, 2}, {3, 3}}},
		{4, [3][2]uint32{{1, 1}, {2, 2}, {3, 4}}},
		{5, [3][2]uint32{{1, 1}, {2, 3}, {4, 5}}},
		{30, [3][2]uint32{{1, 10}, {11, 20}, {21, 30}}},
		{50, [3][2]uint32{{1, 16}, {17, 33}, {34, 50}}},
	}
	for _, tt := range tests {
		if got := ArcBounds(tt.total); got != tt.want {
			t.Errorf("ArcBounds(%d) = %v, want %v", tt.total, got, tt.want)
		}
	}
}
