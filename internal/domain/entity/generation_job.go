package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobTypeChapterGen 章节正文生成任务
const JobTypeChapterGen = "chapter_gen"

// GenerationJob 异步章节生成任务。EndChapter 非零时任务按顺序生成 [ChapterNumber, EndChapter]
type GenerationJob struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	ChapterNumber  uint32    `json:"chapter_number"`
	EndChapter     uint32    `json:"end_chapter,omitempty"`
	IdempotencyKey string    `json:"idempotency_key"`
	RequestID      string    `json:"request_id,omitempty"`
	TraceID        string    `json:"trace_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewGenerationJob 创建章节生成任务，同一项目同一章节的幂等键相同
func NewGenerationJob(projectID string, number uint32) *GenerationJob {
	return &GenerationJob{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		ChapterNumber:  number,
		IdempotencyKey: fmt.Sprintf("%s:%s", projectID, ChapterKey(number)),
		CreatedAt:      Now(),
	}
}

// NewRangeGenerationJob 创建连续多章的生成任务
func NewRangeGenerationJob(projectID string, from, to uint32) *GenerationJob {
	job := NewGenerationJob(projectID, from)
	if to > from {
		job.EndChapter = to
		job.IdempotencyKey = fmt.Sprintf("%s:%s-%d", projectID, ChapterKey(from), to)
	}
	return job
}

// Range 返回任务覆盖的章节区间
func (j *GenerationJob) Range() (from, to uint32) {
	if j.EndChapter < j.ChapterNumber {
		return j.ChapterNumber, j.ChapterNumber
	}
	return j.ChapterNumber, j.EndChapter
}
