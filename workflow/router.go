package workflow

import (
	"context"

	"github.com/BaSui01/insightflow/types"
)

// Router 路由器接口
// 在指定节点执行完成后，根据当前状态决定后继节点。Route 必须是
// 无副作用的全函数：对所有可达状态给出明确答案，无法归类的状态组合
// 返回 ROUTING_ERROR 而不是悄悄选一个默认分支。
type Router interface {
	// Route 路由决策，返回后继节点标识
	Route(ctx context.Context, state *State) (string, error)
}

// RouterFunc 路由函数类型
type RouterFunc func(ctx context.Context, state *State) (string, error)

// FuncRouter 函数路由器
type FuncRouter struct {
	fn RouterFunc
}

// NewFuncRouter 创建函数路由器
func NewFuncRouter(fn RouterFunc) *FuncRouter {
	return &FuncRouter{fn: fn}
}

func (r *FuncRouter) Route(ctx context.Context, state *State) (string, error) {
	return r.fn(ctx, state)
}

// DefaultMaxRevisions 是 reject→replan 循环的默认熔断上限。
const DefaultMaxRevisions = 3

// Canonical node identifiers of the research-report graph.
const (
	NodeClarifier     = "clarifier"
	NodeHumanResponse = "human_response"
	NodePlanner       = "planner"
	NodeResearcher    = "researcher"
	NodeWriter        = "writer"
	NodeReviewer      = "reviewer"
)

// RouteClarification 决定澄清后的去向：
//   - clarified_task 非空：澄清已完成（或用户已回答），进入 planner。
//   - clarified_task 为空：需等待用户回答，进入 human_response 中断点。
func RouteClarification(_ context.Context, state *State) (string, error) {
	if state.ClarifiedTask != "" {
		return NodePlanner, nil
	}
	return NodeHumanResponse, nil
}

// RouteReview 审核后的流转逻辑：
//   - 审核通过：end。
//   - 修订次数耗尽：除 approve 外一律强制 end（熔断先于状态分类，保证终止）。
//   - 不通过且修订次数未达上限：回滚给 planner 重新规划。
//
// pending 状态在熔断未触发时走到这里说明 reviewer 没有给出裁决，属于
// 不可归类的状态组合，返回 ROUTING_ERROR。
func RouteReview(maxRevisions int) RouterFunc {
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}
	return func(_ context.Context, state *State) (string, error) {
		if state.ReviewStatus != ReviewApprove && state.RevisionCount >= maxRevisions {
			return End, nil
		}
		switch state.ReviewStatus {
		case ReviewApprove:
			return End, nil
		case ReviewReject:
			return NodePlanner, nil
		default:
			return "", types.Errorf(types.ErrRoutingError,
				"review router cannot classify review_status=%q", state.ReviewStatus).
				WithNode(NodeReviewer)
		}
	}
}

// RouteResearch 决定搜索后的去向：只要计划中还有未完成步骤就继续循环
// researcher，全部完成后进入 writer。空计划同样交给 writer 兜底（写出
// "无法完成" 的说明由 writer 负责，而不是在路由层死循环）。
func RouteResearch(_ context.Context, state *State) (string, error) {
	if len(state.Plan) == 0 {
		return NodeWriter, nil
	}
	if state.PendingPlanStep() >= 0 {
		return NodeResearcher, nil
	}
	return NodeWriter, nil
}
