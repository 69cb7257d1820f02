package dto

import (
	"novel-planner/internal/application/validation"
	"novel-planner/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求，字段规则由项目校验器检查
type CreateProjectRequest struct {
	Name            string `json:"name"`
	Summary         string `json:"summary"`
	Genre           string `json:"genre"`
	Theme           string `json:"theme,omitempty"`
	TargetWordCount uint64 `json:"target_word_count"`
}

// ToInput 转换为校验输入
func (r *CreateProjectRequest) ToInput() *validation.ProjectInput {
	return &validation.ProjectInput{
		Name:            r.Name,
		Summary:         r.Summary,
		Genre:           r.Genre,
		Theme:           r.Theme,
		TargetWordCount: r.TargetWordCount,
	}
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	*entity.Project
	TotalChapters uint32   `json:"total_chapters"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ToProjectResponse 附带目标章节数
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	return &ProjectResponse{Project: p, TotalChapters: p.TotalChapters()}
}

// ToProjectListResponse 转换项目列表
func ToProjectListResponse(projects []*entity.Project) []*ProjectResponse {
	out := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectResponse(p))
	}
	return out
}
