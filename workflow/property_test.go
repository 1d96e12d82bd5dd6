package workflow

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"
)

// TestRouteReviewTotality 审核路由器必须是全函数：对任意 (status, count)
// 组合要么给出声明集合内的后继，要么显式报 ROUTING_ERROR，绝不悄悄兜底。
func TestRouteReviewTotality(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	statuses := gen.OneConstOf(ReviewPending, ReviewApprove, ReviewReject)
	route := RouteReview(DefaultMaxRevisions)

	properties.Property("every verdict routes or errors explicitly", prop.ForAll(
		func(status ReviewStatus, revisions int) bool {
			state := NewState("task")
			state.ReviewStatus = status
			state.RevisionCount = revisions

			next, err := route(context.Background(), state)
			switch {
			case status == ReviewApprove:
				return err == nil && next == End
			case revisions >= DefaultMaxRevisions:
				// 熔断先于状态分类：除 approve 外一律终止。
				return err == nil && next == End
			case status == ReviewReject:
				return err == nil && next == NodePlanner
			default:
				return err != nil && next == ""
			}
		},
		statuses, gen.IntRange(0, 10),
	))

	properties.Property("reject never loops past the revision limit", prop.ForAll(
		func(revisions int) bool {
			state := NewState("task")
			state.ReviewStatus = ReviewReject
			state.RevisionCount = revisions
			next, err := route(context.Background(), state)
			if err != nil {
				return false
			}
			return next != NodePlanner || revisions < DefaultMaxRevisions
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// TestMergePreservesUntouchedFields 合并是 partial-and-additive 的：
// 更新未涉及的字段必须原样保留。
func TestMergePreservesUntouchedFields(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("draft update keeps clarification intact", prop.ForAll(
		func(task, clarified, draft string) bool {
			if task == "" {
				task = "t"
			}
			state := NewState(task)
			state.ClarifiedTask = clarified
			before := state.Clone()

			if err := state.Merge(Update{FieldDraftReport: draft}); err != nil {
				return false
			}
			return state.OriginalTask == before.OriginalTask &&
				state.ClarifiedTask == before.ClarifiedTask &&
				state.RevisionCount == before.RevisionCount &&
				state.DraftReport == draft &&
				state.Version == before.Version+1
		},
		gen.AlphaString(), gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("findings only ever grow", prop.ForAll(
		func(batches []string) bool {
			state := NewState("task")
			total := 0
			for _, content := range batches {
				err := state.Merge(Update{
					FieldResearchFindings: []Finding{{URL: "https://x.example", Content: content}},
				})
				if err != nil {
					return false
				}
				total++
				if len(state.ResearchFindings) != total {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestReviewMachineRapid 用随机操作序列检查审核状态机的不变量：
// approve 一旦达成即冻结，revision_count 单调不减，失败的合并不改版本。
func TestReviewMachineRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := NewState("task")
		approved := false

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			prevVersion := state.Version
			prevRevisions := state.RevisionCount

			var update Update
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				update = Update{FieldReviewStatus: ReviewApprove}
			case 1:
				update = Update{FieldReviewStatus: ReviewReject}
			case 2:
				update = Update{FieldReviewStatus: ReviewPending}
			default:
				update = Update{FieldRevisionCount: rapid.IntRange(0, 6).Draw(t, "count")}
			}

			err := state.Merge(update)
			if err != nil {
				if state.Version != prevVersion {
					t.Fatalf("failed merge bumped version %d -> %d", prevVersion, state.Version)
				}
				continue
			}
			if state.Version != prevVersion+1 {
				t.Fatalf("successful merge must bump version exactly once")
			}
			if state.RevisionCount < prevRevisions {
				t.Fatalf("revision_count decreased %d -> %d", prevRevisions, state.RevisionCount)
			}
			if approved && state.ReviewStatus != ReviewApprove {
				t.Fatalf("approve is terminal but status moved to %s", state.ReviewStatus)
			}
			if state.ReviewStatus == ReviewApprove {
				approved = true
			}
		}
	})
}
