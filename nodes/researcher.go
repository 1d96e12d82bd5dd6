package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/tools"
	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// minFindingLength 过滤掉太短、基本没有信息量的搜索结果。
const minFindingLength = 50

// digestConcurrency caps the parallel per-source digest calls.
const digestConcurrency = 4

// Researcher 研究员节点：每次进入执行计划中第一个未完成步骤。
//
// 流程是一个小型 map-reduce：搜索拿到原始素材，errgroup 并行地把每条
// 素材消化成带数字的事实摘要（map），再用一次汇总调用写出这一步的
// 笔记正文（reduce）。步骤标记 completed、指针后移后由路由决定继续
// 自环还是进入撰写。
type Researcher struct {
	router *llm.ModelRouter
	search tools.SearchProvider
	notes  tools.NoteStore
	logger *zap.Logger

	maxResults int
}

// NewResearcher creates the research step.
func NewResearcher(router *llm.ModelRouter, search tools.SearchProvider, notes tools.NoteStore, logger *zap.Logger) *Researcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{
		router:     router,
		search:     search,
		notes:      notes,
		logger:     logger.With(zap.String("node", workflow.NodeResearcher)),
		maxResults: tools.DefaultSearchOptions().MaxResults,
	}
}

func (r *Researcher) Name() string { return workflow.NodeResearcher }

func (r *Researcher) Apply(ctx context.Context, state *workflow.State) (workflow.Update, error) {
	idx := state.PendingPlanStep()
	if idx < 0 {
		// Route guard already sends a finished plan to the writer; reaching
		// here without work is a no-op, not an error.
		return nil, nil
	}
	step := state.Plan[idx]
	r.logger.Info("executing research step",
		zap.Int("step", step.ID),
		zap.String("description", step.Description),
		zap.String("query", step.SearchQuery))

	results, err := r.search.Search(ctx, step.SearchQuery, tools.SearchOptions{MaxResults: r.maxResults})
	if err != nil {
		return nil, fmt.Errorf("researcher: search %q: %w", step.SearchQuery, err)
	}

	var findings []workflow.Finding
	for _, res := range results {
		if len(res.Content) < minFindingLength {
			continue
		}
		findings = append(findings, workflow.Finding{
			URL:     res.URL,
			Title:   res.Title,
			Content: res.Content,
			Score:   res.Score,
		})
	}

	summary, err := r.summarize(ctx, step.Description, findings)
	if err != nil {
		return nil, fmt.Errorf("researcher: summarize step %d: %w", step.ID, err)
	}

	plan := append([]workflow.PlanStep(nil), state.Plan...)
	plan[idx].Status = workflow.PlanStepCompleted
	plan[idx].Result = summary

	if step.NoteID != "" && r.notes != nil {
		if _, err := r.notes.Create(ctx, &tools.Note{
			ID:      step.NoteID,
			Title:   fmt.Sprintf("Task %d: %s", step.ID, step.Description),
			Content: summary,
			Type:    "task_state",
			Tags:    []string{"completed", "research"},
		}); err != nil {
			r.logger.Warn("note update failed", zap.String("note_id", step.NoteID), zap.Error(err))
		}
	}

	return workflow.Update{
		workflow.FieldPlan:             plan,
		workflow.FieldCurrentStepIndex: idx + 1,
		workflow.FieldResearchFindings: findings,
		workflow.FieldMessages: []string{
			fmt.Sprintf("researcher: 步骤 %d 完成，收集 %d 条素材", step.ID, len(findings)),
		},
	}, nil
}

// summarize runs the map-reduce digest over the findings of one step.
func (r *Researcher) summarize(ctx context.Context, description string, findings []workflow.Finding) (string, error) {
	if len(findings) == 0 {
		return fmt.Sprintf("未找到关于“%s”的有效搜索结果，此笔记暂无信息。", description), nil
	}

	digests := make([]string, len(findings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(digestConcurrency)
	for i, finding := range findings {
		g.Go(func() error {
			resp, err := r.router.Complete(gctx, llm.PurposeSummarization, []llm.Message{
				{Role: llm.RoleUser, Content: fmt.Sprintf(researcherDigestTemplate, description, finding.Content)},
			}, 512)
			if err != nil {
				return err
			}
			digests[i] = fmt.Sprintf("Source (%s - %s): %s", finding.Title, finding.URL, stripThinkingTokens(resp.Text()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	resp, err := r.router.Complete(ctx, llm.PurposeSummarization, []llm.Message{
		{Role: llm.RoleSystem, Content: researcherSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(researcherUserTemplate, description, strings.Join(digests, "\n\n"))},
	}, 2048)
	if err != nil {
		return "", err
	}
	summary := stripThinkingTokens(resp.Text())
	if summary == "" {
		return "", fmt.Errorf("summarizer returned empty note content")
	}
	return summary, nil
}
