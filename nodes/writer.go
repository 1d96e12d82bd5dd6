package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
)

// defaultContextBudget 是留给研究笔记上下文的 token 预算。
const defaultContextBudget = 6000

// Writer 撰写节点：整合全部已完成步骤的笔记内容，在 token 预算内
// 起草 Markdown 报告。素材超预算时按 tokenizer 截断，宁可少引用也
// 不让上下文爆掉。
type Writer struct {
	router  *llm.ModelRouter
	counter *llm.TokenCounter
	logger  *zap.Logger

	contextBudget int
}

// NewWriter creates the report drafting step.
func NewWriter(router *llm.ModelRouter, counter *llm.TokenCounter, logger *zap.Logger) *Writer {
	if counter == nil {
		counter = llm.NewTokenCounter("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		router:        router,
		counter:       counter,
		logger:        logger.With(zap.String("node", workflow.NodeWriter)),
		contextBudget: defaultContextBudget,
	}
}

func (w *Writer) Name() string { return workflow.NodeWriter }

func (w *Writer) Apply(ctx context.Context, state *workflow.State) (workflow.Update, error) {
	var sections []string
	for i, step := range state.Plan {
		if step.Status != workflow.PlanStepCompleted {
			continue
		}
		result := step.Result
		if result == "" {
			result = "No text result"
		}
		sections = append(sections, fmt.Sprintf("**Step %d: %s**\n- Result: %s", i+1, step.Description, result))
	}

	contextText := strings.Join(sections, "\n\n")
	if contextText == "" {
		contextText = "（暂无研究笔记：计划为空或所有步骤均未产出内容）"
	}
	if tokens := w.counter.Count(contextText); tokens > w.contextBudget {
		w.logger.Warn("research context over budget, truncating",
			zap.Int("tokens", tokens), zap.Int("budget", w.contextBudget))
		contextText = w.counter.Truncate(contextText, w.contextBudget)
	}

	resp, err := w.router.Complete(ctx, llm.PurposeWriting, []llm.Message{
		{Role: llm.RoleSystem, Content: writerSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(writerUserTemplate, state.TaskGoal(), contextText)},
	}, 4096)
	if err != nil {
		return nil, fmt.Errorf("writer completion: %w", err)
	}

	draft := stripThinkingTokens(resp.Text())
	if draft == "" {
		return nil, fmt.Errorf("writer returned an empty draft")
	}
	w.logger.Info("report drafted", zap.Int("length", len(draft)))

	return workflow.Update{
		workflow.FieldDraftReport: draft,
		workflow.FieldMessages:    []string{fmt.Sprintf("writer: 草稿完成（%d 字符）", len(draft))},
	}, nil
}
