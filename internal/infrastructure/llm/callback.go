package llm

import (
	"context"
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"novel-planner/pkg/logger"
	"novel-planner/pkg/metrics"
)

var callbacksOnce sync.Once

// RegisterCallbacks 注册 Eino 全局 callbacks（进程级一次），统计 Token 消耗
func RegisterCallbacks() {
	callbacksOnce.Do(func() {
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler()).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
	})
}

func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnEnd: func(ctx context.Context, _ *einocallbacks.RunInfo, output *model.CallbackOutput) context.Context {
			recordTokenUsage(ctx, output)
			return ctx
		},
	}
}

func recordTokenUsage(ctx context.Context, output *model.CallbackOutput) {
	if output == nil || output.TokenUsage == nil {
		return
	}
	modelName := ""
	if output.Config != nil {
		modelName = output.Config.Model
	}
	usage := output.TokenUsage

	metrics.LLMTokensUsed.WithLabelValues(modelName, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(modelName, "completion").Add(float64(usage.CompletionTokens))

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("llm.prompt_tokens", usage.PromptTokens),
		attribute.Int("llm.completion_tokens", usage.CompletionTokens),
	)
	logger.Debug(ctx, "llm token usage",
		"model", modelName,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
	)
}
