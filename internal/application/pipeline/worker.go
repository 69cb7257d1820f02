package pipeline

import (
	"context"

	"novel-planner/internal/domain/entity"
	"novel-planner/pkg/logger"
)

// HandleChapterJob 执行异步章节生成任务。已生成的章节跳过，重复投递或中断后重投都只补齐缺失章节
func (s *Service) HandleChapterJob(ctx context.Context, job *entity.GenerationJob) error {
	from, to := job.Range()
	generated, err := s.GenerateRange(ctx, job.ProjectID, from, to)
	if err != nil {
		return err
	}
	logger.Info(ctx, "chapter job finished",
		"job_id", job.ID,
		"idempotency_key", job.IdempotencyKey,
		"generated", len(generated),
	)
	return nil
}
