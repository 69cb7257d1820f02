// Package catalog 提供题材参考数据：排行榜分类映射、题材关键词与反义词、
// 大纲模板、已知角色库与常见名字表。
//
// Catalog 构造后只读，可在多个组件与 goroutine 间共享。
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"novel-planner/internal/domain/entity"
)

//go:embed default.yaml
var defaultData []byte

// GenrePlaceholder 模板文本中的题材占位符
const GenrePlaceholder = "{genre}"

// GenreID 排行榜分类映射项
type GenreID struct {
	Genre  string   `yaml:"genre"`
	ID     string   `yaml:"id"`
	Tokens []string `yaml:"tokens"`
}

// ArcTemplate 情节弧模板
type ArcTemplate struct {
	Name      string   `yaml:"name"`
	Summary   string   `yaml:"summary"`
	KeyEvents []string `yaml:"key_events"`
	Climax    string   `yaml:"climax"`
}

// CharacterTemplate 主角模板
type CharacterTemplate struct {
	Name   string   `yaml:"name"`
	Traits []string `yaml:"traits"`
}

// LocationTemplate 地点模板
type LocationTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Importance  string `yaml:"importance"`
}

// WorldTemplate 世界观模板
type WorldTemplate struct {
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Description string             `yaml:"description"`
	Rules       []string           `yaml:"rules"`
	Locations   []LocationTemplate `yaml:"locations"`
}

// OutlineTemplate 单个题材的大纲模板，Arcs 依次对应起源、发展、高潮三个阶段
type OutlineTemplate struct {
	Arcs        []ArcTemplate     `yaml:"arcs"`
	Protagonist CharacterTemplate `yaml:"protagonist"`
	World       WorldTemplate     `yaml:"world"`
}

// Archetype 固定角色原型
type Archetype struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Traits         []string `yaml:"traits"`
	ArcDescription string   `yaml:"arc_description"`
}

// Archetypes 主角通用描述与配角原型
type Archetypes struct {
	Protagonist Archetype `yaml:"protagonist"`
	Mentor      Archetype `yaml:"mentor"`
	Antagonist  Archetype `yaml:"antagonist"`
}

// KnownCharacter 已知作品角色
type KnownCharacter struct {
	Genre        string   `yaml:"genre"`
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Alternatives []string `yaml:"alternatives"`
}

// TagAngle 标签触发的切入角度
type TagAngle struct {
	Tag   string `yaml:"tag"`
	Angle string `yaml:"angle"`
}

// MarketRules 可行性分析使用的市场规则
type MarketRules struct {
	SaturatedTropes []string   `yaml:"saturated_tropes"`
	FallbackGaps    []string   `yaml:"fallback_gaps"`
	BaseAngles      []string   `yaml:"base_angles"`
	TagAngles       []TagAngle `yaml:"tag_angles"`
}

// SensitiveTerms 一类敏感词及其风险等级
type SensitiveTerms struct {
	Category   entity.SensitiveCategory `yaml:"category"`
	Severity   entity.RiskLevel         `yaml:"severity"`
	Keywords   []string                 `yaml:"keywords"`
	Suggestion string                   `yaml:"suggestion"`
}

// Catalog 题材参考数据
type Catalog struct {
	GenreIDs        []GenreID                  `yaml:"genre_ids"`
	Keywords        map[string][]string        `yaml:"keywords"`
	Antonyms        map[string][]string        `yaml:"antonyms"`
	Archetypes      Archetypes                 `yaml:"archetypes"`
	DefaultTemplate OutlineTemplate            `yaml:"default_template"`
	Templates       map[string]OutlineTemplate `yaml:"templates"`
	KnownCharacters []KnownCharacter           `yaml:"known_characters"`
	CommonNames     []string                   `yaml:"common_names"`
	Market          MarketRules                `yaml:"market"`
	PlotTwists      []string                   `yaml:"plot_twists"`
	SensitiveTerms  []SensitiveTerms           `yaml:"sensitive_terms"`
}

// Default 返回内置参考数据
func Default() *Catalog {
	c, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load 从文件加载参考数据，path 为空时返回内置数据
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 yaml 参考数据并校验
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// normalize 将题材键统一为小写
func (c *Catalog) normalize() {
	c.Keywords = lowerKeys(c.Keywords)
	c.Antonyms = lowerKeys(c.Antonyms)
	if c.Templates != nil {
		m := make(map[string]OutlineTemplate, len(c.Templates))
		for k, v := range c.Templates {
			m[strings.ToLower(k)] = v
		}
		c.Templates = m
	}
}

func lowerKeys(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Validate 校验参考数据的完整性
func (c *Catalog) Validate() error {
	if len(c.GenreIDs) == 0 {
		return fmt.Errorf("catalog: genre_ids must not be empty")
	}
	if len(c.PlotTwists) == 0 {
		return fmt.Errorf("catalog: plot_twists must not be empty")
	}
	if err := validateTemplate("default", c.DefaultTemplate); err != nil {
		return err
	}
	for genre, t := range c.Templates {
		if err := validateTemplate(genre, t); err != nil {
			return err
		}
	}
	for _, kc := range c.KnownCharacters {
		if kc.Name == "" || kc.Source == "" {
			return fmt.Errorf("catalog: known character entries need name and source")
		}
	}
	for _, st := range c.SensitiveTerms {
		switch st.Severity {
		case entity.RiskLow, entity.RiskMedium, entity.RiskHigh:
		default:
			return fmt.Errorf("catalog: sensitive terms %q have invalid severity %q", st.Category, st.Severity)
		}
		if len(st.Keywords) == 0 {
			return fmt.Errorf("catalog: sensitive terms %q need keywords", st.Category)
		}
	}
	return nil
}

func validateTemplate(genre string, t OutlineTemplate) error {
	if len(t.Arcs) != 3 {
		return fmt.Errorf("catalog: template %q must define exactly 3 arcs, got %d", genre, len(t.Arcs))
	}
	if t.Protagonist.Name == "" {
		return fmt.Errorf("catalog: template %q has no protagonist name", genre)
	}
	if !entity.WorldType(t.World.Type).Valid() {
		return fmt.Errorf("catalog: template %q has unknown world type %q", genre, t.World.Type)
	}
	return nil
}

// GenreIDFor 按题材查找排行榜分类，大小写不敏感的子串匹配，未命中时返回第一项
func (c *Catalog) GenreIDFor(genre string) GenreID {
	g := strings.ToLower(genre)
	for _, entry := range c.GenreIDs {
		for _, token := range entry.Tokens {
			if token != "" && strings.Contains(g, strings.ToLower(token)) {
				return entry
			}
		}
	}
	return c.GenreIDs[0]
}

// Template 返回题材的大纲模板，未知题材返回默认模板
func (c *Catalog) Template(genre string) OutlineTemplate {
	if t, ok := c.Templates[strings.ToLower(genre)]; ok {
		return t
	}
	return c.DefaultTemplate
}

// KeywordsFor 返回题材关键词
func (c *Catalog) KeywordsFor(genre string) []string {
	return slices.Clone(c.Keywords[strings.ToLower(genre)])
}

// AntonymsFor 返回题材中不应出现的词
func (c *Catalog) AntonymsFor(genre string) []string {
	return slices.Clone(c.Antonyms[strings.ToLower(genre)])
}

// Genres 返回有关键词定义的题材，按字母序
func (c *Catalog) Genres() []string {
	genres := make([]string, 0, len(c.Keywords))
	for g := range c.Keywords {
		genres = append(genres, g)
	}
	slices.Sort(genres)
	return genres
}

// IsKnownGenre 判断题材是否有关键词定义
func (c *Catalog) IsKnownGenre(genre string) bool {
	_, ok := c.Keywords[strings.ToLower(genre)]
	return ok
}

// IsCommonName 判断是否为常见名字（大小写不敏感）
func (c *Catalog) IsCommonName(name string) bool {
	return slices.ContainsFunc(c.CommonNames, func(n string) bool {
		return strings.EqualFold(n, name)
	})
}

// IsSaturated 判断标签是否属于饱和套路
func (c *Catalog) IsSaturated(tag string) bool {
	return slices.Contains(c.Market.SaturatedTropes, tag)
}

// PlotTwist 按章节号确定性地选择转折描述，chapter 须为 10 的正整数倍
func (c *Catalog) PlotTwist(chapter uint32) string {
	idx := (int(chapter/10) - 1) % len(c.PlotTwists)
	if idx < 0 {
		idx += len(c.PlotTwists)
	}
	return c.PlotTwists[idx]
}

// ExpandGenre 替换模板中的题材占位符
func ExpandGenre(tpl, genre string) string {
	return strings.ReplaceAll(tpl, GenrePlaceholder, genre)
}
