package entity

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "novel-planner/pkg/errors"
)

// PlotTwistInterval 情节转折间隔章节数
const PlotTwistInterval = 10

// PlotTwistPositions 返回 {10,20,30,...} 与 [1,total] 的交集
func PlotTwistPositions(total uint32) []uint32 {
	positions := make([]uint32, 0, total/PlotTwistInterval)
	for i := uint32(PlotTwistInterval); i <= total; i += PlotTwistInterval {
		positions = append(positions, i)
	}
	return positions
}

// IsPlotTwistChapter 判断章节是否为转折章
func IsPlotTwistChapter(number uint32) bool {
	return number > 0 && number%PlotTwistInterval == 0
}

// ChapterSummary 章节概要
type ChapterSummary struct {
	Number                 uint32   `json:"number"`
	Title                  string   `json:"title"`
	Summary                string   `json:"summary"`
	KeyEvents              []string `json:"key_events"`
	ProtagonistDevelopment string   `json:"protagonist_development"`
	WordCountEstimate      uint32   `json:"word_count_estimate"`
	IsPlotTwist            bool     `json:"is_plot_twist"`
	PlotTwistDescription   *string  `json:"plot_twist_description,omitempty"`
}

// ChapterPlan 章节规划
type ChapterPlan struct {
	ID                 string           `json:"id"`
	ProjectID          string           `json:"project_id"`
	TotalChapters      uint32           `json:"total_chapters"`
	Chapters           []ChapterSummary `json:"chapters"`
	PlotTwistPositions []uint32         `json:"plot_twist_positions"`
}

// NewChapterPlan 构造章节规划并校验结构
func NewChapterPlan(projectID string, total uint32, chapters []ChapterSummary) (*ChapterPlan, error) {
	plan := &ChapterPlan{
		ID:                 uuid.NewString(),
		ProjectID:          projectID,
		TotalChapters:      total,
		Chapters:           chapters,
		PlotTwistPositions: PlotTwistPositions(total),
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate 校验章节编号连续、转折标记与转折位置一致、转折描述与标记一致
func (p *ChapterPlan) Validate() error {
	if uint32(len(p.Chapters)) != p.TotalChapters {
		return apperrors.ErrInvalidStructure.WithDetail(
			fmt.Sprintf("plan has %d chapters, want %d", len(p.Chapters), p.TotalChapters))
	}
	want := PlotTwistPositions(p.TotalChapters)
	if len(want) != len(p.PlotTwistPositions) {
		return apperrors.ErrInvalidStructure.WithDetail("plot twist positions do not match chapter count")
	}
	twists := make(map[uint32]struct{}, len(want))
	for i, pos := range want {
		if p.PlotTwistPositions[i] != pos {
			return apperrors.ErrInvalidStructure.WithDetail("plot twist positions do not match chapter count")
		}
		twists[pos] = struct{}{}
	}
	for i, c := range p.Chapters {
		if c.Number != uint32(i+1) {
			return apperrors.ErrInvalidStructure.WithDetail(
				fmt.Sprintf("chapter at index %d has number %d", i, c.Number))
		}
		if err := checkTwist(c, twists); err != nil {
			return err
		}
	}
	return nil
}

func checkTwist(c ChapterSummary, twists map[uint32]struct{}) error {
	_, scheduled := twists[c.Number]
	if c.IsPlotTwist != scheduled {
		return apperrors.ErrInvalidStructure.WithDetail(
			fmt.Sprintf("chapter %d plot twist flag is %t, want %t", c.Number, c.IsPlotTwist, scheduled))
	}
	if (c.PlotTwistDescription != nil) != c.IsPlotTwist {
		return apperrors.ErrInvalidStructure.WithDetail(
			fmt.Sprintf("chapter %d plot twist description does not match its flag", c.Number))
	}
	return nil
}

// Chapter 按章节号查找概要
func (p *ChapterPlan) Chapter(number uint32) (*ChapterSummary, bool) {
	if number == 0 || number > uint32(len(p.Chapters)) {
		return nil, false
	}
	return &p.Chapters[number-1], true
}

// ChapterStatus 生成章节状态
type ChapterStatus string

const (
	ChapterStatusDraft     ChapterStatus = "draft"
	ChapterStatusReview    ChapterStatus = "review"
	ChapterStatusApproved  ChapterStatus = "approved"
	ChapterStatusPublished ChapterStatus = "published"
)

// GeneratedChapter 生成的章节正文
type GeneratedChapter struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	Number    uint32        `json:"number"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	WordCount uint32        `json:"word_count"`
	Model     string        `json:"model,omitempty"`
	Status    ChapterStatus `json:"status"`
	Check     *ContentCheck `json:"content_check,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ApplyCheck 记录敏感内容检查结果，未通过的章节转为待审核
func (c *GeneratedChapter) ApplyCheck(check ContentCheck) {
	c.Check = &check
	if !check.Passed {
		c.Status = ChapterStatusReview
	}
}

// NewGeneratedChapter 创建章节正文，字数按字符数计
func NewGeneratedChapter(projectID string, number uint32, title, content, model string) *GeneratedChapter {
	return &GeneratedChapter{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Number:    number,
		Title:     title,
		Content:   content,
		WordCount: uint32(utf8.RuneCountInString(content)),
		Model:     model,
		Status:    ChapterStatusDraft,
		CreatedAt: Now(),
	}
}

// Now 返回去除单调时钟的 UTC 时间，保证 JSON 往返后相等
func Now() time.Time {
	return time.Now().UTC().Round(0)
}
