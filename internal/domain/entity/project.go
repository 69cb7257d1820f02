package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus 项目所处的规划阶段
type ProjectStatus string

const (
	ProjectStatusDraft    ProjectStatus = "draft"
	ProjectStatusAnalyzed ProjectStatus = "analyzed"
	ProjectStatusOutlined ProjectStatus = "outlined"
	ProjectStatusApproved ProjectStatus = "approved"
	ProjectStatusPlanned  ProjectStatus = "planned"
	ProjectStatusWriting  ProjectStatus = "writing"
)

// Project 小说项目
type Project struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Genre           string        `json:"genre"`
	Summary         string        `json:"summary"`
	Theme           string        `json:"theme,omitempty"`
	TargetWordCount uint64        `json:"target_word_count"`
	Status          ProjectStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewProject 创建新项目
func NewProject(name, genre, summary, theme string, targetWordCount uint64) *Project {
	now := Now()
	return &Project{
		ID:              uuid.NewString(),
		Name:            name,
		Genre:           genre,
		Summary:         summary,
		Theme:           theme,
		TargetWordCount: targetWordCount,
		Status:          ProjectStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Advance 推进项目状态
func (p *Project) Advance(status ProjectStatus) {
	p.Status = status
	p.UpdatedAt = Now()
}

// TotalChapters 项目目标章节数
func (p *Project) TotalChapters() uint32 {
	return TotalChapters(p.TargetWordCount)
}
