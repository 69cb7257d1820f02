package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"

	"novel-planner/pkg/metrics"
	"novel-planner/pkg/tracer"
)

// ErrEmptyCompletion 模型返回空正文
var ErrEmptyCompletion = errors.New("llm returned empty completion")

// Generator 以 ChatModel 实现章节正文生成
type Generator struct {
	model    model.BaseChatModel
	provider string
	name     string
}

// NewGenerator 从工厂取默认提供商的模型
func NewGenerator(ctx context.Context, f *EinoFactory) (*Generator, error) {
	provider, cfg, err := f.Provider("")
	if err != nil {
		return nil, err
	}
	m, err := f.Get(ctx, provider)
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithModel(m, provider, cfg.Model), nil
}

// NewGeneratorWithModel 直接使用给定的 ChatModel
func NewGeneratorWithModel(m model.BaseChatModel, provider, modelName string) *Generator {
	return &Generator{model: m, provider: provider, name: modelName}
}

// ModelName 模型名
func (g *Generator) ModelName() string {
	return g.name
}

// Generate 生成章节正文。prior 为空时不附带前文
func (g *Generator) Generate(ctx context.Context, prior, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.generate")
	defer span.End()

	msgs, err := Messages(ctx, prior, prompt)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := g.model.Generate(ctx, msgs)
	metrics.LLMCallDuration.WithLabelValues(g.provider).Observe(time.Since(start).Seconds())
	if err == nil && (resp == nil || strings.TrimSpace(resp.Content) == "") {
		err = ErrEmptyCompletion
	}
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.provider, "error").Inc()
		tracer.RecordError(span, err)
		return "", err
	}
	metrics.LLMCallTotal.WithLabelValues(g.provider, "success").Inc()

	return resp.Content, nil
}
