package llm

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 提示模板标识
type PromptID string

const PromptChapterGenV1 PromptID = "chapter_gen_v1"

// 模板变量
const (
	varPriorContext  = "prior_context"
	varChapterPrompt = "chapter_prompt"
)

// Registry 从内嵌文件加载并缓存对话模板
type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry 创建模板注册表
func NewRegistry() *Registry {
	return &Registry{cache: make(map[PromptID]einoprompt.ChatTemplate)}
}

// ChatTemplate 返回模板：system、可选的前文消息、user
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	system, err := readEmbeddedText(fmt.Sprintf("templates/%s.system.txt", id))
	if err != nil {
		return nil, fmt.Errorf("unknown prompt id %s: %w", id, err)
	}
	user, err := readEmbeddedText(fmt.Sprintf("templates/%s.user.txt", id))
	if err != nil {
		return nil, fmt.Errorf("unknown prompt id %s: %w", id, err)
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.MessagesPlaceholder(varPriorContext, true),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

var defaultRegistry = NewRegistry()

// Messages 组装章节生成的对话消息，prior 为空时不附带前文
func Messages(ctx context.Context, prior, prompt string) ([]*schema.Message, error) {
	tpl, err := defaultRegistry.ChatTemplate(PromptChapterGenV1)
	if err != nil {
		return nil, err
	}
	var priorMsgs []*schema.Message
	if prior != "" {
		priorMsgs = append(priorMsgs, schema.UserMessage("前文：\n"+prior))
	}
	return tpl.Format(ctx, map[string]any{
		varPriorContext:  priorMsgs,
		varChapterPrompt: prompt,
	})
}
