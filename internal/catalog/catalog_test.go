package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	want := []string{"fantasy", "game", "historical", "horror", "romance", "scifi", "urban", "xianxia"}
	if got := c.Genres(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("genres = %v", got)
	}
	for _, g := range want {
		if len(c.Template(g).Arcs) != 3 {
			t.Errorf("%s template arcs = %d", g, len(c.Template(g).Arcs))
		}
	}
}

func TestGenreIDFor(t *testing.T) {
	c := Default()
	tests := []struct {
		genre string
		want  string
	}{
		{"fantasy", "fantasy"},
		{"Xianxia", "xianxia"},
		{"都市异能", "urban"},
		{"sci-fi", "scifi"},
		{"悬疑推理", "horror"},
		{"western", "fantasy"},
		{"", "fantasy"},
	}
	for _, tt := range tests {
		if got := c.GenreIDFor(tt.genre).Genre; got != tt.want {
			t.Errorf("GenreIDFor(%q) = %s, want %s", tt.genre, got, tt.want)
		}
	}
}

func TestTemplate_FallsBackToDefault(t *testing.T) {
	c := Default()
	if got := c.Template("western").Protagonist.Name; got != c.DefaultTemplate.Protagonist.Name {
		t.Errorf("protagonist = %s", got)
	}
	if got := c.Template("URBAN").Protagonist.Name; got != "林逸" {
		t.Errorf("template lookup should ignore case, got %s", got)
	}
}

func TestPlotTwist_Rotates(t *testing.T) {
	c := Default()
	n := uint32(len(c.PlotTwists))
	if c.PlotTwist(10) != c.PlotTwists[0] || c.PlotTwist(20) != c.PlotTwists[1] {
		t.Error("first twists out of order")
	}
	if c.PlotTwist(10*(n+1)) != c.PlotTwists[0] {
		t.Error("twist table should wrap around")
	}
}

func TestLookups(t *testing.T) {
	c := Default()
	if !c.IsCommonName("alex") || !c.IsCommonName("张三") || c.IsCommonName("萧炎") {
		t.Error("IsCommonName mismatch")
	}
	if !c.IsSaturated("穿越") || c.IsSaturated("赛博") {
		t.Error("IsSaturated mismatch")
	}
	if !c.IsKnownGenre("Horror") || c.IsKnownGenre("western") {
		t.Error("IsKnownGenre mismatch")
	}
	kw := c.KeywordsFor("xianxia")
	kw[0] = "changed"
	if c.KeywordsFor("xianxia")[0] == "changed" {
		t.Error("KeywordsFor must return a copy")
	}
	if ExpandGenre("{genre}-{genre}", "game") != "game-game" {
		t.Error("ExpandGenre should replace every placeholder")
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(string) string
		want string
	}{
		{"bad yaml", func(string) string { return "genre_ids: [" }, "parse"},
		{"no genre ids", func(s string) string {
			return strings.Replace(s, "genre_ids:", "unused_ids:", 1)
		}, "genre_ids"},
		{"bad world type", func(s string) string {
			return strings.Replace(s, "type: fantasy", "type: steampunk", 1)
		}, "world type"},
		{"bad sensitive severity", func(s string) string {
			return strings.Replace(s, "severity: medium", "severity: extreme", 1)
		}, "invalid severity"},
		{"empty sensitive keywords", func(s string) string {
			return strings.Replace(s, "keywords: [色情, 裸露, 性行为]", "keywords: []", 1)
		}, "need keywords"},
	}
	base := string(defaultData)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.edit(base)))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || c == nil {
		t.Fatalf("Load(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := strings.Replace(string(defaultData), "name: 叶尘", "name: 叶青", 1)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Template("fantasy").Protagonist.Name != "叶青" {
		t.Errorf("protagonist = %s", c.Template("fantasy").Protagonist.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
