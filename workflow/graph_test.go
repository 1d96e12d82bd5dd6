package workflow

import (
	"context"
	"testing"

	"github.com/BaSui01/insightflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopStep(name string) Step {
	return NewFuncStep(name, func(ctx context.Context, state *State) (Update, error) {
		return nil, nil
	})
}

func TestGraphBuilderBuild(t *testing.T) {
	g, err := NewGraphBuilder("pipeline").
		AddNode(noopStep("a")).
		AddNode(noopStep("b")).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntry("a").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "pipeline", g.Name())
	assert.Equal(t, "a", g.Entry())
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
	assert.True(t, g.HasNode(End))
	assert.False(t, g.HasNode("c"))
}

func TestGraphBuilderValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Graph, error)
	}{
		{
			"no nodes",
			func() (*Graph, error) {
				return NewGraphBuilder("g").SetEntry("a").Build()
			},
		},
		{
			"entry not set",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).AddEdge("a", End).Build()
			},
		},
		{
			"entry does not exist",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).
					AddEdge("a", End).SetEntry("ghost").Build()
			},
		},
		{
			"edge to non-existent node",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).
					AddEdge("a", "ghost").SetEntry("a").Build()
			},
		},
		{
			"dead-end node",
			func() (*Graph, error) {
				return NewGraphBuilder("g").
					AddNode(noopStep("a")).AddNode(noopStep("b")).
					AddEdge("a", "b").SetEntry("a").Build()
			},
		},
		{
			"duplicate node",
			func() (*Graph, error) {
				return NewGraphBuilder("g").
					AddNode(noopStep("a")).AddNode(noopStep("a")).
					AddEdge("a", End).SetEntry("a").Build()
			},
		},
		{
			"second edge on same node",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).
					AddEdge("a", End).AddEdge("a", End).SetEntry("a").Build()
			},
		},
		{
			"conditional edge without router",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).
					AddConditionalEdge("a", nil, End).SetEntry("a").Build()
			},
		},
		{
			"conditional edge without targets",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).
					AddConditionalEdge("a", NewFuncRouter(RouteClarification)).
					SetEntry("a").Build()
			},
		},
		{
			"interrupt on non-existent node",
			func() (*Graph, error) {
				return NewGraphBuilder("g").AddNode(noopStep("a")).
					AddEdge("a", End).SetEntry("a").
					InterruptBefore("ghost").Build()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, g)
			assert.Equal(t, types.ErrGraphInvalid, types.GetErrorCode(err))
		})
	}
}

func TestGraphNextFixedEdge(t *testing.T) {
	g, err := NewGraphBuilder("g").
		AddNode(noopStep("a")).AddNode(noopStep("b")).
		AddEdge("a", "b").AddEdge("b", End).
		SetEntry("a").Build()
	require.NoError(t, err)

	next, err := g.Next(context.Background(), "a", NewState("t"))
	require.NoError(t, err)
	assert.Equal(t, "b", next)

	next, err = g.Next(context.Background(), "b", NewState("t"))
	require.NoError(t, err)
	assert.Equal(t, End, next)
}

func TestGraphNextConditionalEdge(t *testing.T) {
	g, err := NewGraphBuilder("g").
		AddNode(noopStep("split")).AddNode(noopStep("left")).AddNode(noopStep("right")).
		AddConditionalEdge("split", NewFuncRouter(func(ctx context.Context, s *State) (string, error) {
			if s.DraftReport != "" {
				return "right", nil
			}
			return "left", nil
		}), "left", "right").
		AddEdge("left", End).AddEdge("right", End).
		SetEntry("split").Build()
	require.NoError(t, err)

	state := NewState("t")
	next, err := g.Next(context.Background(), "split", state)
	require.NoError(t, err)
	assert.Equal(t, "left", next)

	state.DraftReport = "draft"
	next, err = g.Next(context.Background(), "split", state)
	require.NoError(t, err)
	assert.Equal(t, "right", next)
}

func TestGraphNextUndeclaredTarget(t *testing.T) {
	g, err := NewGraphBuilder("g").
		AddNode(noopStep("split")).AddNode(noopStep("left")).
		AddConditionalEdge("split", NewFuncRouter(func(ctx context.Context, s *State) (string, error) {
			// Routers may not invent edges outside the declared set.
			return End, nil
		}), "left").
		AddEdge("left", End).
		SetEntry("split").Build()
	require.NoError(t, err)

	_, err = g.Next(context.Background(), "split", NewState("t"))
	require.Error(t, err)
	assert.Equal(t, types.ErrRoutingError, types.GetErrorCode(err))
}

func TestGraphNextRouterError(t *testing.T) {
	g, err := NewGraphBuilder("g").
		AddNode(noopStep("split")).AddNode(noopStep("left")).
		AddConditionalEdge("split", NewFuncRouter(func(ctx context.Context, s *State) (string, error) {
			return "", types.NewError(types.ErrRoutingError, "unclassifiable state")
		}), "left").
		AddEdge("left", End).
		SetEntry("split").Build()
	require.NoError(t, err)

	_, err = g.Next(context.Background(), "split", NewState("t"))
	require.Error(t, err)
	assert.Equal(t, types.ErrRoutingError, types.GetErrorCode(err))
}

func TestGraphNextMissingEdge(t *testing.T) {
	g, err := NewGraphBuilder("g").
		AddNode(noopStep("a")).AddEdge("a", End).SetEntry("a").Build()
	require.NoError(t, err)

	_, err = g.Next(context.Background(), "ghost", NewState("t"))
	require.Error(t, err)
	assert.Equal(t, types.ErrRoutingError, types.GetErrorCode(err))
}

func TestGraphInterruptBefore(t *testing.T) {
	g, err := NewGraphBuilder("g").
		AddNode(noopStep("a")).AddNode(noopStep("gate")).
		AddEdge("a", "gate").AddEdge("gate", End).
		SetEntry("a").
		InterruptBefore("gate").Build()
	require.NoError(t, err)

	assert.True(t, g.InterruptBefore("gate"))
	assert.False(t, g.InterruptBefore("a"))
}
