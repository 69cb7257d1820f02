package handler

import (
	"github.com/gin-gonic/gin"

	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/domain/repository"
	"novel-planner/internal/interfaces/http/dto"
)

// ProjectHandler 项目与市场分析处理器
type ProjectHandler struct {
	svc *pipeline.Service
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(svc *pipeline.Service) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// ListProjects 获取项目列表
// @Router /api/v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	pageReq := dto.BindPage(c)
	result, err := h.svc.ListProjects(c.Request.Context(), repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.SuccessWithPage(c, dto.ToProjectListResponse(result.Items),
		dto.NewPageMeta(pageReq.Page, pageReq.PageSize, result.Total))
}

// CreateProject 创建项目，校验失败时在详情中返回逐字段错误
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	project, result, err := h.svc.CreateProject(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err, result)
		return
	}
	resp := dto.ToProjectResponse(project)
	resp.Warnings = result.Warnings
	dto.Created(c, resp)
}

// GetProject 获取项目详情
// @Router /api/v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.svc.GetProject(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, dto.ToProjectResponse(project))
}

// Analyze 执行市场分析并生成可行性报告
// @Router /api/v1/projects/{pid}/analyze [post]
func (h *ProjectHandler) Analyze(c *gin.Context) {
	report, err := h.svc.Analyze(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, report)
}

// GetReport 获取最近一次可行性报告
// @Router /api/v1/projects/{pid}/feasibility [get]
func (h *ProjectHandler) GetReport(c *gin.Context) {
	report, err := h.svc.GetReport(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, report)
}
