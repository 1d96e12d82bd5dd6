package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
)

// Reviewer 审核节点：对照用户目标评估草稿，产出 approve/reject 裁决。
//
// 模型被要求输出 {"decision", "feedback"} JSON；推理模型经常把 JSON 包
// 在自然语言里，所以先做 JSON 提取，提取不到再按文本里是否出现
// "approve" 兜底。修订计数不归它管——打回后的加一发生在 Planner 的
// 重构路径上。
type Reviewer struct {
	router *llm.ModelRouter
	logger *zap.Logger
}

// NewReviewer creates the review step.
func NewReviewer(router *llm.ModelRouter, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{router: router, logger: logger.With(zap.String("node", workflow.NodeReviewer))}
}

func (r *Reviewer) Name() string { return workflow.NodeReviewer }

// reviewVerdict is the JSON structure the review model must produce.
type reviewVerdict struct {
	Decision string `json:"decision"`
	Feedback string `json:"feedback"`
}

func (r *Reviewer) Apply(ctx context.Context, state *workflow.State) (workflow.Update, error) {
	if state.DraftReport == "" {
		// An empty draft means the plan produced nothing reviewable; approve
		// to end the loop instead of rejecting forever.
		r.logger.Warn("empty draft report, approving to terminate")
		return workflow.Update{
			workflow.FieldReviewStatus:   workflow.ReviewApprove,
			workflow.FieldReviewCritique: "草稿为空，直接放行以结束流程。",
		}, nil
	}

	resp, err := r.router.Complete(ctx, llm.PurposeReviewing, []llm.Message{
		{Role: llm.RoleSystem, Content: reviewerSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(reviewerUserTemplate, state.TaskGoal(), state.DraftReport)},
	}, 1024)
	if err != nil {
		return nil, fmt.Errorf("reviewer completion: %w", err)
	}

	content := stripThinkingTokens(resp.Text())
	status, critique := parseVerdict(content)

	r.logger.Info("review decision",
		zap.String("decision", string(status)),
		zap.Int("revision", state.RevisionCount))

	return workflow.Update{
		workflow.FieldReviewStatus:   status,
		workflow.FieldReviewCritique: critique,
		workflow.FieldMessages:       []string{fmt.Sprintf("reviewer: %s", status)},
	}, nil
}

// parseVerdict 解析审核输出：优先 JSON，失败则按关键词兜底。
func parseVerdict(content string) (workflow.ReviewStatus, string) {
	if raw := extractJSON(content); raw != "" {
		var verdict reviewVerdict
		if err := json.Unmarshal([]byte(raw), &verdict); err == nil {
			if strings.EqualFold(strings.TrimSpace(verdict.Decision), "reject") {
				return workflow.ReviewReject, verdict.Feedback
			}
			return workflow.ReviewApprove, verdict.Feedback
		}
	}
	if strings.Contains(strings.ToLower(content), "approve") {
		return workflow.ReviewApprove, "Initial approval (JSON parsing failed)."
	}
	return workflow.ReviewReject, content
}
