package entity

import (
	"fmt"

	apperrors "novel-planner/pkg/errors"
)

// WordsPerChapter 每章目标字数
const WordsPerChapter = 10000

// TotalChapters 按目标字数计算章节数
func TotalChapters(targetWordCount uint64) uint32 {
	return uint32(targetWordCount / WordsPerChapter)
}

// OutlineStatus 大纲状态
type OutlineStatus string

const (
	OutlineStatusDraft    OutlineStatus = "draft"
	OutlineStatusApproved OutlineStatus = "approved"
	OutlineStatusLocked   OutlineStatus = "locked"
)

// ArcStage 情节弧叙事阶段
type ArcStage string

const (
	ArcStageOrigin ArcStage = "origin"
	ArcStageRising ArcStage = "rising"
	ArcStageClimax ArcStage = "climax"
)

// ArcStages 三段式结构的阶段顺序
var ArcStages = []ArcStage{ArcStageOrigin, ArcStageRising, ArcStageClimax}

// PlotArc 情节弧
type PlotArc struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Stage        ArcStage `json:"stage"`
	StartChapter uint32   `json:"start_chapter"`
	EndChapter   uint32   `json:"end_chapter"`
	Summary      string   `json:"summary"`
	KeyEvents    []string `json:"key_events"`
	Climax       string   `json:"climax"`
}

// Contains 判断章节是否落在该情节弧内
func (a *PlotArc) Contains(chapter uint32) bool {
	return chapter >= a.StartChapter && chapter <= a.EndChapter
}

// CharacterRole 角色定位
type CharacterRole string

const (
	RoleProtagonist CharacterRole = "protagonist"
	RoleSupporting  CharacterRole = "supporting"
	RoleAntagonist  CharacterRole = "antagonist"
)

// CharacterMoment 角色关键时刻
type CharacterMoment struct {
	Chapter     uint32 `json:"chapter"`
	Description string `json:"description"`
	Development string `json:"development"`
}

// CharacterArc 角色弧光
type CharacterArc struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Role           CharacterRole     `json:"role"`
	Description    string            `json:"description"`
	Traits         []string          `json:"traits"`
	ArcDescription string            `json:"arc_description"`
	KeyMoments     []CharacterMoment `json:"key_moments"`
}

// WorldType 世界类型
type WorldType string

const (
	WorldModern     WorldType = "modern"
	WorldFantasy    WorldType = "fantasy"
	WorldScifi      WorldType = "scifi"
	WorldHistorical WorldType = "historical"
	WorldXianxia    WorldType = "xianxia"
)

// Valid 判断世界类型是否合法
func (t WorldType) Valid() bool {
	switch t {
	case WorldModern, WorldFantasy, WorldScifi, WorldHistorical, WorldXianxia:
		return true
	}
	return false
}

// LocationImportance 地点重要程度
type LocationImportance string

const (
	LocationMajor LocationImportance = "major"
	LocationMinor LocationImportance = "minor"
)

// Location 地点
type Location struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Importance  LocationImportance `json:"importance"`
}

// WorldSettings 世界观设定
type WorldSettings struct {
	Name        string     `json:"name"`
	Type        WorldType  `json:"type"`
	Description string     `json:"description"`
	Rules       []string   `json:"rules"`
	Locations   []Location `json:"locations"`
}

// Outline 小说大纲
type Outline struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Genre           string         `json:"genre"`
	Premise         string         `json:"premise"`
	Theme           string         `json:"theme"`
	TargetWordCount uint64         `json:"target_word_count"`
	Arcs            []PlotArc      `json:"arcs"`
	Protagonist     CharacterArc   `json:"protagonist"`
	Supporting      []CharacterArc `json:"supporting"`
	World           WorldSettings  `json:"world"`
	Status          OutlineStatus  `json:"status"`
}

// TotalChapters 大纲覆盖的章节数
func (o *Outline) TotalChapters() uint32 {
	return TotalChapters(o.TargetWordCount)
}

// ArcFor 返回包含该章节的情节弧
func (o *Outline) ArcFor(chapter uint32) (*PlotArc, bool) {
	for i := range o.Arcs {
		if o.Arcs[i].Contains(chapter) {
			return &o.Arcs[i], true
		}
	}
	return nil, false
}

// Characters 返回主角与全部配角
func (o *Outline) Characters() []CharacterArc {
	out := make([]CharacterArc, 0, len(o.Supporting)+1)
	out = append(out, o.Protagonist)
	return append(out, o.Supporting...)
}

// Validate 校验大纲结构：情节弧从 1 开始连续覆盖全部章节且互不重叠，恰有一名主角
func (o *Outline) Validate() error {
	total := o.TotalChapters()
	if total == 0 {
		return apperrors.ErrDegenerateTarget.WithDetail(fmt.Sprintf("target_word_count=%d", o.TargetWordCount))
	}
	if len(o.Arcs) == 0 {
		return apperrors.ErrInvalidStructure.WithDetail("outline has no plot arcs")
	}

	next := uint32(1)
	for i, arc := range o.Arcs {
		if arc.StartChapter > arc.EndChapter {
			return apperrors.ErrInvalidStructure.WithDetail(
				fmt.Sprintf("arc %d starts at %d after its end %d", i, arc.StartChapter, arc.EndChapter))
		}
		if arc.StartChapter != next {
			return apperrors.ErrInvalidStructure.WithDetail(
				fmt.Sprintf("arc %d starts at %d, want %d", i, arc.StartChapter, next))
		}
		next = arc.EndChapter + 1
	}
	if last := o.Arcs[len(o.Arcs)-1].EndChapter; last != total {
		return apperrors.ErrInvalidStructure.WithDetail(
			fmt.Sprintf("arcs end at chapter %d, want %d", last, total))
	}

	protagonists := 0
	for _, c := range o.Characters() {
		if c.Role == RoleProtagonist {
			protagonists++
		}
	}
	if o.Protagonist.Role != RoleProtagonist || protagonists != 1 {
		return apperrors.ErrInvalidStructure.WithDetail(
			fmt.Sprintf("outline must have exactly one protagonist, got %d", protagonists))
	}
	return nil
}

// Approve 草稿通过校验后进入已批准状态；已批准时为空操作
func (o *Outline) Approve() error {
	switch o.Status {
	case OutlineStatusDraft:
		o.Status = OutlineStatusApproved
		return nil
	case OutlineStatusApproved:
		return nil
	default:
		return apperrors.ErrOutlineLocked
	}
}

// Lock 开始章节规划后锁定大纲；已锁定时为空操作
func (o *Outline) Lock() error {
	switch o.Status {
	case OutlineStatusApproved:
		o.Status = OutlineStatusLocked
		return nil
	case OutlineStatusLocked:
		return nil
	default:
		return apperrors.ErrUnapprovedOutline
	}
}

// EnsureEditable 锁定后拒绝结构性修改
func (o *Outline) EnsureEditable() error {
	if o.Status == OutlineStatusLocked {
		return apperrors.ErrOutlineLocked
	}
	return nil
}

// ReplaceArcs 替换情节弧；修改会使已批准的大纲回到草稿状态
func (o *Outline) ReplaceArcs(arcs []PlotArc) error {
	if err := o.EnsureEditable(); err != nil {
		return err
	}
	prev := o.Arcs
	o.Arcs = arcs
	if err := o.Validate(); err != nil {
		o.Arcs = prev
		return err
	}
	o.Status = OutlineStatusDraft
	return nil
}

// ReplaceCharacters 替换主角与配角；修改会使已批准的大纲回到草稿状态
func (o *Outline) ReplaceCharacters(protagonist CharacterArc, supporting []CharacterArc) error {
	if err := o.EnsureEditable(); err != nil {
		return err
	}
	prevP, prevS := o.Protagonist, o.Supporting
	o.Protagonist, o.Supporting = protagonist, supporting
	if err := o.Validate(); err != nil {
		o.Protagonist, o.Supporting = prevP, prevS
		return err
	}
	o.Status = OutlineStatusDraft
	return nil
}
