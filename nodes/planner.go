package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/tools"
	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
)

// planSchema is the JSON structure the planning model must produce.
type planSchema struct {
	Steps []planStepSchema `json:"steps"`
}

type planStepSchema struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	SearchQuery string `json:"search_query"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// Planner 规划节点。
//
// 首次进入按澄清后的任务生成初始计划；审核打回后重新进入时按整改意见
// 重构计划。重构路径上它承担修订记账：revision_count 恰好加一，并把
// review_status 拨回 pending，使下一轮审核从干净的裁决状态开始。
// 每个计划步骤都在笔记库里有一条对应的"任务笔记"，沿用原 id 的步骤
// 复用旧笔记。
type Planner struct {
	router *llm.ModelRouter
	notes  tools.NoteStore
	logger *zap.Logger
}

// NewPlanner creates the planning step.
func NewPlanner(router *llm.ModelRouter, notes tools.NoteStore, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{router: router, notes: notes, logger: logger.With(zap.String("node", workflow.NodePlanner))}
}

func (p *Planner) Name() string { return workflow.NodePlanner }

func (p *Planner) Apply(ctx context.Context, state *workflow.State) (workflow.Update, error) {
	replanning := len(state.Plan) > 0 && state.ReviewStatus == workflow.ReviewReject

	var messages []llm.Message
	if replanning {
		planJSON, err := json.MarshalIndent(state.Plan, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("planner: marshal current plan: %w", err)
		}
		p.logger.Info("refactoring plan from review feedback",
			zap.Int("revision", state.RevisionCount+1))
		messages = []llm.Message{
			{Role: llm.RoleSystem, Content: plannerSystemPromptRefactor},
			{Role: llm.RoleUser, Content: fmt.Sprintf(plannerUserTemplateRefactor,
				state.TaskGoal(), string(planJSON), state.ReviewCritique)},
		}
	} else {
		p.logger.Info("generating initial plan")
		messages = []llm.Message{
			{Role: llm.RoleSystem, Content: plannerSystemPromptInitial},
			{Role: llm.RoleUser, Content: fmt.Sprintf(plannerUserTemplateInitial, state.TaskGoal())},
		}
	}

	resp, err := p.router.Complete(ctx, llm.PurposePlanning, messages, 2048)
	if err != nil {
		return nil, fmt.Errorf("planner completion: %w", err)
	}

	raw := extractJSON(stripThinkingTokens(resp.Text()))
	if raw == "" {
		return nil, fmt.Errorf("planner output contains no JSON plan")
	}
	var parsed planSchema
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("planner: parse plan JSON: %w", err)
	}
	if len(parsed.Steps) == 0 {
		return nil, fmt.Errorf("planner produced an empty plan")
	}

	// 沿用 id 的步骤复用旧笔记，新步骤建新笔记。
	oldNotes := make(map[int]string, len(state.Plan))
	for _, step := range state.Plan {
		if step.NoteID != "" {
			oldNotes[step.ID] = step.NoteID
		}
	}

	plan := make([]workflow.PlanStep, 0, len(parsed.Steps))
	for _, step := range parsed.Steps {
		noteID := oldNotes[step.ID]
		if noteID == "" && p.notes != nil {
			id, err := p.notes.Create(ctx, &tools.Note{
				Title:   fmt.Sprintf("Task %d: %s", step.ID, step.Description),
				Content: fmt.Sprintf("**Reasoning**: %s\n**Status**: Pending", step.Reasoning),
				Type:    "task_state",
				Tags:    []string{"plan", "pending"},
			})
			if err != nil {
				p.logger.Warn("note creation failed", zap.Int("step", step.ID), zap.Error(err))
			} else {
				noteID = id
			}
		}
		plan = append(plan, workflow.PlanStep{
			ID:          step.ID,
			Description: step.Description,
			SearchQuery: step.SearchQuery,
			Reasoning:   step.Reasoning,
			Status:      workflow.PlanStepPending,
			NoteID:      noteID,
		})
	}

	update := workflow.Update{
		workflow.FieldPlan:             plan,
		workflow.FieldCurrentStepIndex: 0,
		workflow.FieldMessages:         []string{fmt.Sprintf("planner: 生成 %d 步计划", len(plan))},
	}
	if replanning {
		update[workflow.FieldRevisionCount] = state.RevisionCount + 1
		update[workflow.FieldReviewStatus] = workflow.ReviewPending
	}
	return update, nil
}
