package dto

import (
	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/domain/entity"
)

// CreateOutlineRequest 生成大纲请求，字段为空时沿用项目信息
type CreateOutlineRequest struct {
	Premise string `json:"premise,omitempty"`
	Theme   string `json:"theme,omitempty"`
}

// ReviseOutlineRequest 修改大纲请求
type ReviseOutlineRequest struct {
	Arcs        []entity.PlotArc      `json:"arcs,omitempty"`
	Protagonist *entity.CharacterArc  `json:"protagonist,omitempty"`
	Supporting  []entity.CharacterArc `json:"supporting,omitempty"`
}

// Empty 没有任何修改
func (r *ReviseOutlineRequest) Empty() bool {
	return r.Arcs == nil && r.Protagonist == nil && r.Supporting == nil
}

// ToRevision 转换为流水线修改
func (r *ReviseOutlineRequest) ToRevision() pipeline.OutlineRevision {
	return pipeline.OutlineRevision{
		Arcs:        r.Arcs,
		Protagonist: r.Protagonist,
		Supporting:  r.Supporting,
	}
}

// OutlineValidationResponse 大纲审核响应
type OutlineValidationResponse struct {
	Outline    *entity.Outline           `json:"outline"`
	Validation *entity.OutlineValidation `json:"validation"`
	Passed     bool                      `json:"passed"`
	Warnings   []string                  `json:"warnings"`
}

// ToOutlineValidationResponse 汇总审核结果
func ToOutlineValidationResponse(o *entity.Outline, v *entity.OutlineValidation) *OutlineValidationResponse {
	return &OutlineValidationResponse{
		Outline:    o,
		Validation: v,
		Passed:     v.Passed(),
		Warnings:   v.Warnings(),
	}
}
