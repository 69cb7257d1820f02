package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"novel-planner/internal/config"
	"novel-planner/internal/domain/entity"
	"novel-planner/pkg/logger"
)

func TestCalculateBackoff(t *testing.T) {
	b := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{20, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := b.CalculateBackoff(tt.retry); got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestBackoffFromConfig(t *testing.T) {
	got := BackoffFromConfig(config.BackoffConfig{Initial: 2 * time.Second, Multiplier: 0.5})
	want := BackoffConfig{Initial: 2 * time.Second, Max: time.Minute, Multiplier: 2}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestConsumerGroup_WithPrefix(t *testing.T) {
	if got := ConsumerGroupChapterWorker.WithPrefix("np"); got != "np-chapter-worker" {
		t.Errorf("got %q", got)
	}
	if got := ConsumerGroupChapterWorker.WithPrefix(""); got != ConsumerGroupChapterWorker {
		t.Errorf("got %q", got)
	}
	if StreamChapterGen.DLQStream() != "dlq:stream:chapter:gen" {
		t.Errorf("dlq = %q", StreamChapterGen.DLQStream())
	}
}

func TestChapterJobMessage(t *testing.T) {
	job := entity.NewGenerationJob("p1", 7)
	job.RequestID = "req-1"

	msg, err := ChapterJobMessage(job)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != entity.JobTypeChapterGen || msg.ProjectID != "p1" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.GetMetadata(MetaIdempotencyKey) != "p1:chapter:7" || msg.GetMetadata(MetaRequestID) != "req-1" {
		t.Errorf("metadata = %v", msg.Metadata)
	}
	if _, ok := msg.Metadata[MetaTraceID]; ok {
		t.Error("empty trace id should not be stored")
	}

	var decoded entity.GenerationJob
	if err := msg.UnmarshalPayload(&decoded); err != nil || decoded.ChapterNumber != 7 {
		t.Errorf("payload = %+v, %v", decoded, err)
	}

	ctx := messageContext(context.Background(), msg)
	if logger.StringFromContext(ctx, logger.RequestIDKey) != "req-1" || logger.StringFromContext(ctx, logger.ProjectIDKey) != "p1" {
		t.Error("message context not restored")
	}
}

func TestDecode(t *testing.T) {
	if _, err := decode(redis.XMessage{ID: "1-0", Values: map[string]any{}}); err == nil {
		t.Error("expected error for missing data")
	}
	if _, err := decode(redis.XMessage{ID: "1-0", Values: map[string]any{"data": "{"}}); err == nil {
		t.Error("expected error for bad json")
	}
	msg, err := decode(redis.XMessage{ID: "1-0", Values: map[string]any{"data": `{"id":"j","type":"chapter_gen"}`}})
	if err != nil || msg.ID != "j" {
		t.Errorf("decode = %+v, %v", msg, err)
	}
}
