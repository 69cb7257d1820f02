package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/interfaces/http/dto"
)

// OutlineHandler 大纲处理器
type OutlineHandler struct {
	svc *pipeline.Service
}

// NewOutlineHandler 创建大纲处理器
func NewOutlineHandler(svc *pipeline.Service) *OutlineHandler {
	return &OutlineHandler{svc: svc}
}

// CreateOutline 生成草稿大纲，请求体可省略
// @Router /api/v1/projects/{pid}/outline [post]
func (h *OutlineHandler) CreateOutline(c *gin.Context) {
	var req dto.CreateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	o, err := h.svc.CreateOutline(c.Request.Context(), dto.BindProjectID(c), req.Premise, req.Theme)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Created(c, o)
}

// GetOutline 获取大纲
// @Router /api/v1/projects/{pid}/outline [get]
func (h *OutlineHandler) GetOutline(c *gin.Context) {
	o, err := h.svc.GetOutline(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, o)
}

// ReviseOutline 修改情节弧或角色
// @Router /api/v1/projects/{pid}/outline [put]
func (h *OutlineHandler) ReviseOutline(c *gin.Context) {
	var req dto.ReviseOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Empty() {
		dto.BadRequest(c, "nothing to revise")
		return
	}

	o, err := h.svc.ReviseOutline(c.Request.Context(), dto.BindProjectID(c), req.ToRevision())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, o)
}

// ValidateOutline 审核大纲，未通过时以 422 返回审核结果
// @Router /api/v1/projects/{pid}/outline/validate [post]
func (h *OutlineHandler) ValidateOutline(c *gin.Context) {
	o, result, err := h.svc.ValidateOutline(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		var detail any
		if result != nil {
			detail = dto.ToOutlineValidationResponse(o, result)
		}
		respondError(c, err, detail)
		return
	}
	dto.Success(c, dto.ToOutlineValidationResponse(o, result))
}
