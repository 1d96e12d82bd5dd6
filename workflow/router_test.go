package workflow

import (
	"context"
	"testing"

	"github.com/BaSui01/insightflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteClarification(t *testing.T) {
	state := NewState("写个报告")
	next, err := RouteClarification(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, NodeHumanResponse, next, "unclarified task waits for the user")

	state.ClarifiedTask = "关于 AI Agent 的技术报告"
	next, err = RouteClarification(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, NodePlanner, next)
}

func TestRouteReview(t *testing.T) {
	route := RouteReview(3)

	tests := []struct {
		name      string
		status    ReviewStatus
		revisions int
		want      string
		wantErr   bool
	}{
		{"approve ends", ReviewApprove, 0, End, false},
		{"approve ends regardless of revisions", ReviewApprove, 3, End, false},
		{"reject below limit replans", ReviewReject, 0, NodePlanner, false},
		{"reject at last allowed revision replans", ReviewReject, 2, NodePlanner, false},
		{"reject at limit trips the breaker", ReviewReject, 3, End, false},
		{"reject above limit trips the breaker", ReviewReject, 5, End, false},
		{"pending is unclassifiable", ReviewPending, 0, "", true},
		{"pending at limit still trips the breaker", ReviewPending, 3, End, false},
		{"pending above limit still trips the breaker", ReviewPending, 4, End, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState("task")
			state.ReviewStatus = tt.status
			state.RevisionCount = tt.revisions

			next, err := route(context.Background(), state)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.ErrRoutingError, types.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestRouteReviewDefaultsMaxRevisions(t *testing.T) {
	route := RouteReview(0)
	state := NewState("task")
	state.ReviewStatus = ReviewReject
	state.RevisionCount = DefaultMaxRevisions

	next, err := route(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, End, next)
}

func TestRouteResearch(t *testing.T) {
	state := NewState("task")
	next, err := RouteResearch(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, NodeWriter, next, "empty plan falls through to the writer")

	state.Plan = []PlanStep{
		{ID: 1, Status: PlanStepPending},
		{ID: 2, Status: PlanStepPending},
	}
	next, err = RouteResearch(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, NodeResearcher, next)

	state.Plan[0].Status = PlanStepCompleted
	next, err = RouteResearch(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, NodeResearcher, next, "loop continues while any step is unfinished")

	state.Plan[1].Status = PlanStepCompleted
	next, err = RouteResearch(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, NodeWriter, next)
}
