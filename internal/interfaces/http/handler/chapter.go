package handler

import (
	"github.com/gin-gonic/gin"

	"novel-planner/internal/application/pipeline"
	"novel-planner/internal/interfaces/http/dto"
)

// ChapterHandler 章节规划与正文生成处理器
type ChapterHandler struct {
	svc *pipeline.Service
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(svc *pipeline.Service) *ChapterHandler {
	return &ChapterHandler{svc: svc}
}

// PlanChapters 基于已批准的大纲生成章节规划
// @Router /api/v1/projects/{pid}/plan [post]
func (h *ChapterHandler) PlanChapters(c *gin.Context) {
	plan, err := h.svc.PlanChapters(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Created(c, plan)
}

// GetPlan 获取章节规划
// @Router /api/v1/projects/{pid}/plan [get]
func (h *ChapterHandler) GetPlan(c *gin.Context) {
	plan, err := h.svc.GetPlan(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, plan)
}

// UpdateChapter 修改单章概要
// @Router /api/v1/projects/{pid}/plan/chapters/{num} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	number, ok := chapterNumber(c)
	if !ok {
		return
	}
	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	plan, err := h.svc.UpdateChapterSummary(c.Request.Context(), dto.BindProjectID(c), number, req.ToSummary())
	if err != nil {
		respondError(c, err, nil)
		return
	}
	summary, _ := plan.Chapter(number)
	dto.Success(c, summary)
}

// ListChapters 列出已生成的章节
// @Router /api/v1/projects/{pid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	chapters, err := h.svc.ListChapters(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, dto.ToChapterList(chapters))
}

// GetChapter 获取章节正文
// @Router /api/v1/projects/{pid}/chapters/{num} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	number, ok := chapterNumber(c)
	if !ok {
		return
	}
	chapter, err := h.svc.GetChapter(c.Request.Context(), dto.BindProjectID(c), number)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Success(c, chapter)
}

// GenerateChapter 同步生成章节正文
// @Router /api/v1/projects/{pid}/chapters/{num}/generate [post]
func (h *ChapterHandler) GenerateChapter(c *gin.Context) {
	number, ok := chapterNumber(c)
	if !ok {
		return
	}
	chapter, err := h.svc.GenerateChapter(c.Request.Context(), dto.BindProjectID(c), number)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Created(c, chapter)
}

// EnqueueChapter 投递异步章节生成任务
// @Router /api/v1/projects/{pid}/chapters/{num}/jobs [post]
func (h *ChapterHandler) EnqueueChapter(c *gin.Context) {
	number, ok := chapterNumber(c)
	if !ok {
		return
	}
	job, err := h.svc.EnqueueGeneration(c.Request.Context(), dto.BindProjectID(c), number)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Accepted(c, dto.ToJobResponse(job))
}

// EnqueueRange 投递连续多章的生成任务
// @Router /api/v1/projects/{pid}/chapters/jobs [post]
func (h *ChapterHandler) EnqueueRange(c *gin.Context) {
	var req dto.EnqueueRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	job, err := h.svc.EnqueueRange(c.Request.Context(), dto.BindProjectID(c), req.From, req.To)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	dto.Accepted(c, dto.ToJobResponse(job))
}
