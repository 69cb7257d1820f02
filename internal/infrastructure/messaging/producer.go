package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-planner/internal/domain/entity"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishChapterJob 发布章节生成任务
func (p *Producer) PublishChapterJob(ctx context.Context, job *entity.GenerationJob) (string, error) {
	msg, err := ChapterJobMessage(job)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamChapterGen, msg)
}

// ChapterJobMessage 将章节生成任务封装为消息，追踪信息写入元数据
func ChapterJobMessage(job *entity.GenerationJob) (*Message, error) {
	msg, err := NewMessage(job.ID, entity.JobTypeChapterGen, job.ProjectID, job)
	if err != nil {
		return nil, err
	}
	msg.SetMetadata(MetaIdempotencyKey, job.IdempotencyKey)
	msg.SetMetadata(MetaRequestID, job.RequestID)
	msg.SetMetadata(MetaTraceID, job.TraceID)
	return msg, nil
}
