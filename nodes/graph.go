package nodes

import (
	"github.com/BaSui01/insightflow/llm"
	"github.com/BaSui01/insightflow/tools"
	"github.com/BaSui01/insightflow/workflow"
	"go.uber.org/zap"
)

// Dependencies 注入全部节点共用的外部协作者。
type Dependencies struct {
	Router *llm.ModelRouter
	Search tools.SearchProvider
	Notes  tools.NoteStore
	Tokens *llm.TokenCounter
	Logger *zap.Logger
}

// DefaultGraph 构建标准的研究报告拓扑：
//
//	clarifier ─┬─(未澄清)→ human_response ──→ clarifier          [中断点]
//	           └─(已澄清)→ planner → researcher ─┬─(有未完成步骤)→ researcher
//	                                             └─(计划完成)──→ writer → reviewer ─┬─(reject 且未熔断)→ planner
//	                                                                                └─(approve 或熔断)─→ end
//
// maxRevisions <= 0 时使用 [workflow.DefaultMaxRevisions]。
func DefaultGraph(deps Dependencies, maxRevisions int) (*workflow.Graph, error) {
	if maxRevisions <= 0 {
		maxRevisions = workflow.DefaultMaxRevisions
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return workflow.NewGraphBuilder("research_report").
		WithLogger(logger).
		AddNode(NewClarifier(deps.Router, logger)).
		AddNode(NewHumanResponse()).
		AddNode(NewPlanner(deps.Router, deps.Notes, logger)).
		AddNode(NewResearcher(deps.Router, deps.Search, deps.Notes, logger)).
		AddNode(NewWriter(deps.Router, deps.Tokens, logger)).
		AddNode(NewReviewer(deps.Router, logger)).
		AddConditionalEdge(workflow.NodeClarifier, workflow.NewFuncRouter(workflow.RouteClarification),
			workflow.NodeHumanResponse, workflow.NodePlanner).
		AddEdge(workflow.NodeHumanResponse, workflow.NodeClarifier).
		AddEdge(workflow.NodePlanner, workflow.NodeResearcher).
		AddConditionalEdge(workflow.NodeResearcher, workflow.NewFuncRouter(workflow.RouteResearch),
			workflow.NodeResearcher, workflow.NodeWriter).
		AddEdge(workflow.NodeWriter, workflow.NodeReviewer).
		AddConditionalEdge(workflow.NodeReviewer, workflow.NewFuncRouter(workflow.RouteReview(maxRevisions)),
			workflow.NodePlanner, workflow.End).
		SetEntry(workflow.NodeClarifier).
		InterruptBefore(workflow.NodeHumanResponse).
		Build()
}
