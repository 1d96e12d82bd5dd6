package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
)

// Clarifier 澄清节点：模糊任务先问，拿到回答再定稿。
//
// 三种进入场景：
//  1. clarified_task 已存在：透传，不产生任何更新。
//  2. clarification_answers 已注入（resume 后）：结合原始任务与回答
//     重写出精确的研究目标。
//  3. 首次进入：生成 3 个澄清问题，随后路由把执行送进中断点等待用户。
type Clarifier struct {
	router *llm.ModelRouter
	logger *zap.Logger
}

// NewClarifier creates the clarification step.
func NewClarifier(router *llm.ModelRouter, logger *zap.Logger) *Clarifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clarifier{router: router, logger: logger.With(zap.String("node", workflow.NodeClarifier))}
}

func (c *Clarifier) Name() string { return workflow.NodeClarifier }

func (c *Clarifier) Apply(ctx context.Context, state *workflow.State) (workflow.Update, error) {
	if state.ClarifiedTask != "" {
		return nil, nil
	}

	if state.ClarificationAnswers != "" {
		c.logger.Info("finalizing task with user answers")
		resp, err := c.router.Complete(ctx, llm.PurposeClarifying, []llm.Message{
			{Role: llm.RoleSystem, Content: clarifierSystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf(clarifierFinalTemplate, state.OriginalTask, state.ClarificationAnswers)},
		}, 1024)
		if err != nil {
			return nil, fmt.Errorf("clarifier finalize: %w", err)
		}
		clarified := stripThinkingTokens(resp.Text())
		if clarified == "" {
			return nil, fmt.Errorf("clarifier returned empty task")
		}
		return workflow.Update{
			workflow.FieldClarifiedTask: clarified,
			workflow.FieldMessages:      []string{"clarifier: 任务已澄清"},
		}, nil
	}

	c.logger.Info("generating clarification questions")
	resp, err := c.router.Complete(ctx, llm.PurposeClarifying, []llm.Message{
		{Role: llm.RoleSystem, Content: clarifierSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(clarifierQuestionsTemplate, state.OriginalTask)},
	}, 512)
	if err != nil {
		return nil, fmt.Errorf("clarifier questions: %w", err)
	}

	var questions []string
	for _, line := range strings.Split(stripThinkingTokens(resp.Text()), "\n") {
		if q := strings.TrimSpace(line); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("clarifier produced no questions")
	}
	return workflow.Update{
		workflow.FieldClarificationQuestions: questions,
		workflow.FieldMessages:               []string{fmt.Sprintf("clarifier: 提出 %d 个澄清问题", len(questions))},
	}, nil
}

// HumanResponse 中断占位节点：状态注入发生在 Resume 的输入合并里，
// 节点本身不做任何事。
type HumanResponse struct{}

// NewHumanResponse creates the interrupt placeholder step.
func NewHumanResponse() *HumanResponse { return &HumanResponse{} }

func (h *HumanResponse) Name() string { return workflow.NodeHumanResponse }

func (h *HumanResponse) Apply(context.Context, *workflow.State) (workflow.Update, error) {
	return nil, nil
}
