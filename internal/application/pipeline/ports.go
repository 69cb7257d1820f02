package pipeline

import (
	"context"

	"novel-planner/internal/domain/entity"
)

// TextGenerator 正文生成端口：输入前文上下文与本章提示，返回任意文本
type TextGenerator interface {
	Generate(ctx context.Context, context, prompt string) (string, error)
	// ModelName 记录在生成章节上的模型名
	ModelName() string
}

// JobPublisher 章节生成任务发布端口
type JobPublisher interface {
	PublishChapterJob(ctx context.Context, job *entity.GenerationJob) (string, error)
}
