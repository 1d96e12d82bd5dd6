package llm

import (
	"context"

	"go.uber.org/zap"
)

// Purpose 标识一次模型调用在报告流水线中的用途，路由据此选择模型与
// 采样参数：规划类调用要稳定（低温），撰写类调用要流畅（较高温）。
type Purpose string

const (
	PurposeClarifying    Purpose = "clarifying"
	PurposePlanning      Purpose = "planning"
	PurposeSummarization Purpose = "summarization"
	PurposeWriting       Purpose = "writing"
	PurposeReviewing     Purpose = "reviewing"
)

// purposeTemperatures 是每种用途的默认采样温度。
var purposeTemperatures = map[Purpose]float32{
	PurposeClarifying:    0.3,
	PurposePlanning:      0.2,
	PurposeSummarization: 0.3,
	PurposeWriting:       0.7,
	PurposeReviewing:     0.1,
}

// ModelRouter 把用途映射到具体模型并代理补全调用。
// 未配置的用途回落到默认模型，调用方因此永远拿得到一个可用的选择。
type ModelRouter struct {
	provider     Provider
	models       map[Purpose]string
	defaultModel string
	logger       *zap.Logger
}

// NewModelRouter creates a purpose-aware router over a single provider.
func NewModelRouter(provider Provider, models map[Purpose]string, defaultModel string, logger *zap.Logger) *ModelRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if models == nil {
		models = make(map[Purpose]string)
	}
	return &ModelRouter{
		provider:     provider,
		models:       models,
		defaultModel: defaultModel,
		logger:       logger.With(zap.String("component", "model_router")),
	}
}

// Model returns the model configured for a purpose, or the default.
func (r *ModelRouter) Model(purpose Purpose) string {
	if m, ok := r.models[purpose]; ok && m != "" {
		return m
	}
	return r.defaultModel
}

// Provider returns the underlying provider.
func (r *ModelRouter) Provider() Provider { return r.provider }

// Complete 以指定用途发起一次补全：选模型、定温度、透传消息。
func (r *ModelRouter) Complete(ctx context.Context, purpose Purpose, messages []Message, maxTokens int) (*ChatResponse, error) {
	model := r.Model(purpose)
	req := &ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: purposeTemperatures[purpose],
	}
	r.logger.Debug("dispatching completion",
		zap.String("purpose", string(purpose)),
		zap.String("model", model),
		zap.Int("messages", len(messages)))
	return r.provider.Completion(ctx, req)
}
