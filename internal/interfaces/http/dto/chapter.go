package dto

import "novel-planner/internal/domain/entity"

// UpdateChapterRequest 修改章节概要请求
type UpdateChapterRequest struct {
	Title                  string   `json:"title" binding:"required,max=200"`
	Summary                string   `json:"summary" binding:"max=5000"`
	KeyEvents              []string `json:"key_events"`
	ProtagonistDevelopment string   `json:"protagonist_development"`
	WordCountEstimate      uint32   `json:"word_count_estimate"`
	PlotTwistDescription   *string  `json:"plot_twist_description,omitempty"`
}

// ToSummary 转换为章节概要，章节号与转折标记由规划器决定
func (r *UpdateChapterRequest) ToSummary() entity.ChapterSummary {
	return entity.ChapterSummary{
		Title:                  r.Title,
		Summary:                r.Summary,
		KeyEvents:              r.KeyEvents,
		ProtagonistDevelopment: r.ProtagonistDevelopment,
		WordCountEstimate:      r.WordCountEstimate,
		PlotTwistDescription:   r.PlotTwistDescription,
	}
}

// ChapterListItem 章节列表项，不含正文
type ChapterListItem struct {
	Number    uint32               `json:"number"`
	Title     string               `json:"title"`
	WordCount uint32               `json:"word_count"`
	Model     string               `json:"model,omitempty"`
	Status    entity.ChapterStatus `json:"status"`
}

// ToChapterList 转换章节列表
func ToChapterList(chapters []*entity.GeneratedChapter) []ChapterListItem {
	out := make([]ChapterListItem, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, ChapterListItem{
			Number:    c.Number,
			Title:     c.Title,
			WordCount: c.WordCount,
			Model:     c.Model,
			Status:    c.Status,
		})
	}
	return out
}

// EnqueueRangeRequest 连续多章生成请求
type EnqueueRangeRequest struct {
	From uint32 `json:"from" binding:"required,min=1"`
	To   uint32 `json:"to" binding:"required,gtefield=From"`
}

// JobResponse 异步任务响应
type JobResponse struct {
	JobID          string `json:"job_id"`
	ChapterNumber  uint32 `json:"chapter_number"`
	EndChapter     uint32 `json:"end_chapter,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ToJobResponse 转换任务
func ToJobResponse(job *entity.GenerationJob) *JobResponse {
	return &JobResponse{
		JobID:          job.ID,
		ChapterNumber:  job.ChapterNumber,
		EndChapter:     job.EndChapter,
		IdempotencyKey: job.IdempotencyKey,
	}
}
