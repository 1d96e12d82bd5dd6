// Package insightflow provides a top-level convenience entry point for
// assembling the research-report pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/insightflow"
//
//	p, err := insightflow.New(cfg)
//	result, err := p.Start(ctx, "调研量子计算行业并输出报告")
//	if result.Suspended() {
//	    result, err = p.ResumeWithAnswers(ctx, result.InstanceID, "面向投资人，侧重硬件路线")
//	}
//
// 所有外部协作者（模型、搜索、笔记、检查点存储）都可以用 Option 替换，
// 默认实现按配置构建。
package insightflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/insightflow/config"
	"github.com/BaSui01/insightflow/internal/metrics"
	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/nodes"
	"github.com/BaSui01/insightflow/persistence"
	"github.com/BaSui01/insightflow/tools"
	"github.com/BaSui01/insightflow/workflow"
)

// Option overrides one of the pipeline's collaborators.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	provider llm.Provider
	search   tools.SearchProvider
	notes    tools.NoteStore
	store    workflow.CheckpointStore
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProvider sets a pre-built LLM provider, bypassing the config's
// OpenAI-compatible default.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithSearchProvider sets a pre-built search provider.
func WithSearchProvider(s tools.SearchProvider) Option {
	return func(o *options) { o.search = s }
}

// WithNoteStore sets a pre-built note store.
func WithNoteStore(n tools.NoteStore) Option {
	return func(o *options) { o.notes = n }
}

// WithCheckpointStore sets a pre-built checkpoint store.
func WithCheckpointStore(s workflow.CheckpointStore) Option {
	return func(o *options) { o.store = s }
}

// Pipeline 是装配完成的研究报告流水线。
type Pipeline struct {
	engine *workflow.Engine
	logger *zap.Logger
}

// New assembles a Pipeline from configuration plus optional overrides.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := o.provider
	if provider == nil {
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("llm api key is required: set llm.api_key or use WithProvider")
		}
		provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
			ProviderName: cfg.LLM.Provider,
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.DefaultModel,
			Timeout:      cfg.LLM.Timeout,
		}, logger)
	}

	models := make(map[llm.Purpose]string, len(cfg.LLM.Models))
	for purpose, model := range cfg.LLM.Models {
		models[llm.Purpose(purpose)] = model
	}
	router := llm.NewModelRouter(provider, models, cfg.LLM.DefaultModel, logger)

	search := o.search
	if search == nil {
		if cfg.Search.APIKey == "" {
			return nil, fmt.Errorf("search api key is required: set search.api_key or use WithSearchProvider")
		}
		search = tools.NewTavilyClient(tools.TavilyConfig{
			APIKey:        cfg.Search.APIKey,
			BaseURL:       cfg.Search.BaseURL,
			Timeout:       cfg.Search.Timeout,
			RatePerMinute: cfg.Search.RatePerMinute,
		}, logger)
	}

	noteStore := o.notes
	if noteStore == nil {
		var err error
		noteStore, err = buildNoteStore(cfg.Notes)
		if err != nil {
			return nil, err
		}
	}

	store := o.store
	if store == nil {
		var err error
		store, err = persistence.NewCheckpointStore(cfg.Checkpoint.StoreConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("build checkpoint store: %w", err)
		}
	}

	graph, err := nodes.DefaultGraph(nodes.Dependencies{
		Router: router,
		Search: search,
		Notes:  noteStore,
		Tokens: llm.NewTokenCounter(cfg.LLM.TokenEncoding),
		Logger: logger,
	}, cfg.Workflow.MaxRevisions)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	engineOpts := []workflow.EngineOption{
		workflow.WithLogger(logger),
		workflow.WithMaxTransitions(cfg.Workflow.MaxTransitions),
	}
	if cfg.Metrics.Enabled {
		engineOpts = append(engineOpts,
			workflow.WithMetrics(metrics.NewCollector(cfg.Metrics.Namespace, nil, logger)))
	}

	engine, err := workflow.NewEngine(graph, store, engineOpts...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{engine: engine, logger: logger}, nil
}

func buildNoteStore(cfg config.NotesConfig) (tools.NoteStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return tools.NewMemoryNoteStore(), nil
	case "file":
		return tools.NewFileNoteStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown notes backend %q", cfg.Backend)
	}
}

// Start 发起一次新的报告任务。
func (p *Pipeline) Start(ctx context.Context, task string) (*workflow.Result, error) {
	return p.engine.Start(ctx, task)
}

// ResumeWithAnswers 以用户的澄清回答恢复挂起的实例。
func (p *Pipeline) ResumeWithAnswers(ctx context.Context, instanceID, answers string) (*workflow.Result, error) {
	return p.engine.Resume(ctx, instanceID, workflow.Update{
		workflow.FieldClarificationAnswers: answers,
	})
}

// Resume 以任意状态更新恢复挂起的实例。
func (p *Pipeline) Resume(ctx context.Context, instanceID string, input workflow.Update) (*workflow.Result, error) {
	return p.engine.Resume(ctx, instanceID, input)
}

// Inspect 返回实例当前的检查点快照。
func (p *Pipeline) Inspect(ctx context.Context, instanceID string) (*workflow.Checkpoint, error) {
	return p.engine.Inspect(ctx, instanceID)
}

// Cancel 删除实例的检查点。
func (p *Pipeline) Cancel(ctx context.Context, instanceID string) error {
	return p.engine.Cancel(ctx, instanceID)
}
