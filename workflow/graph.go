package workflow

import (
	"context"
	"sort"

	"github.com/BaSui01/insightflow/types"
	"go.uber.org/zap"
)

// End is the designated terminal node identifier. Reaching it freezes the
// instance; the engine makes no further Apply or Route calls.
const End = "end"

// Edge is the successor declaration of a node: either a fixed successor or a
// router that picks one of the declared targets at runtime.
type Edge struct {
	// To is the fixed successor. Empty when Router is set.
	To string
	// Router picks the successor from Targets. Nil for fixed edges.
	Router Router
	// Targets enumerates the identifiers a conditional edge may route to.
	// Declared up front so Build can validate the whole topology statically.
	Targets []string
}

// Conditional reports whether the edge is router-governed.
func (e Edge) Conditional() bool { return e.Router != nil }

// Graph 是静态的、可能含环的有向图：节点是 Step，每个节点声明一条固定边
// 或一条路由边，另有一组 interrupt-before 节点。Build 之后不可变，可在
// 多个工作流实例间安全共享。
type Graph struct {
	name       string
	steps      map[string]Step
	edges      map[string]Edge
	entry      string
	interrupts map[string]bool
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Entry returns the entry node identifier.
func (g *Graph) Entry() string { return g.entry }

// Step returns the step registered under the given node identifier.
func (g *Graph) Step(node string) (Step, bool) {
	s, ok := g.steps[node]
	return s, ok
}

// HasNode reports whether the identifier names a node (or End).
func (g *Graph) HasNode(node string) bool {
	if node == End {
		return true
	}
	_, ok := g.steps[node]
	return ok
}

// InterruptBefore reports whether execution must suspend before entering the
// given node.
func (g *Graph) InterruptBefore(node string) bool {
	return g.interrupts[node]
}

// Nodes returns all node identifiers in deterministic order.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.steps))
	for id := range g.steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Next resolves the successor of a node, evaluating the bound router for
// conditional edges. A router answer outside the declared target set is a
// ROUTING_ERROR: the topology is static and routers may not invent edges.
func (g *Graph) Next(ctx context.Context, node string, state *State) (string, error) {
	edge, ok := g.edges[node]
	if !ok {
		return "", types.Errorf(types.ErrRoutingError,
			"node %q has no outgoing edge", node).WithNode(node)
	}
	if !edge.Conditional() {
		return edge.To, nil
	}
	next, err := edge.Router.Route(ctx, state)
	if err != nil {
		if types.GetErrorCode(err) == types.ErrRoutingError {
			return "", err
		}
		return "", types.NewError(types.ErrRoutingError, "router failed").
			WithNode(node).WithCause(err)
	}
	for _, target := range edge.Targets {
		if target == next {
			return next, nil
		}
	}
	return "", types.Errorf(types.ErrRoutingError,
		"router at %q returned undeclared target %q", node, next).WithNode(node)
}

// GraphBuilder provides a fluent API for constructing workflow graphs.
type GraphBuilder struct {
	graph  *Graph
	logger *zap.Logger
	errs   []error
}

// NewGraphBuilder creates a new graph builder with the given name.
func NewGraphBuilder(name string) *GraphBuilder {
	return &GraphBuilder{
		graph: &Graph{
			name:       name,
			steps:      make(map[string]Step),
			edges:      make(map[string]Edge),
			interrupts: make(map[string]bool),
		},
		logger: zap.NewNop(),
	}
}

// WithLogger sets a custom logger.
func (b *GraphBuilder) WithLogger(logger *zap.Logger) *GraphBuilder {
	if logger != nil {
		b.logger = logger.With(zap.String("component", "graph_builder"))
	}
	return b
}

// AddNode registers a step under its name.
func (b *GraphBuilder) AddNode(step Step) *GraphBuilder {
	if step == nil || step.Name() == "" {
		b.errs = append(b.errs, types.NewError(types.ErrGraphInvalid, "step has no name"))
		return b
	}
	if _, dup := b.graph.steps[step.Name()]; dup {
		b.errs = append(b.errs, types.Errorf(types.ErrGraphInvalid,
			"duplicate node %q", step.Name()))
		return b
	}
	b.graph.steps[step.Name()] = step
	return b
}

// AddEdge declares an unconditional successor.
func (b *GraphBuilder) AddEdge(from, to string) *GraphBuilder {
	if _, dup := b.graph.edges[from]; dup {
		b.errs = append(b.errs, types.Errorf(types.ErrGraphInvalid,
			"node %q already has an outgoing edge", from))
		return b
	}
	b.graph.edges[from] = Edge{To: to}
	return b
}

// AddConditionalEdge binds a router to a node with its declared target set.
func (b *GraphBuilder) AddConditionalEdge(from string, router Router, targets ...string) *GraphBuilder {
	if router == nil {
		b.errs = append(b.errs, types.Errorf(types.ErrGraphInvalid,
			"conditional edge at %q has no router", from))
		return b
	}
	if len(targets) == 0 {
		b.errs = append(b.errs, types.Errorf(types.ErrGraphInvalid,
			"conditional edge at %q declares no targets", from))
		return b
	}
	if _, dup := b.graph.edges[from]; dup {
		b.errs = append(b.errs, types.Errorf(types.ErrGraphInvalid,
			"node %q already has an outgoing edge", from))
		return b
	}
	b.graph.edges[from] = Edge{Router: router, Targets: append([]string(nil), targets...)}
	return b
}

// SetEntry sets the entry node.
func (b *GraphBuilder) SetEntry(node string) *GraphBuilder {
	b.graph.entry = node
	return b
}

// InterruptBefore marks nodes execution must not enter without first
// suspending and yielding control back to the caller.
func (b *GraphBuilder) InterruptBefore(nodes ...string) *GraphBuilder {
	for _, n := range nodes {
		b.graph.interrupts[n] = true
	}
	return b
}

// Build validates the topology and returns the immutable graph.
func (b *GraphBuilder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	b.logger.Info("workflow graph built",
		zap.String("name", b.graph.name),
		zap.Int("nodes", len(b.graph.steps)),
		zap.String("entry", b.graph.entry),
	)
	return b.graph, nil
}

func (b *GraphBuilder) validate() error {
	g := b.graph
	if len(g.steps) == 0 {
		return types.NewError(types.ErrGraphInvalid, "graph has no nodes")
	}
	if g.entry == "" {
		return types.NewError(types.ErrGraphInvalid, "entry node not set")
	}
	if _, ok := g.steps[g.entry]; !ok {
		return types.Errorf(types.ErrGraphInvalid, "entry node %q does not exist", g.entry)
	}
	for from, edge := range g.edges {
		if _, ok := g.steps[from]; !ok {
			return types.Errorf(types.ErrGraphInvalid,
				"edge from non-existent node %q", from)
		}
		targets := edge.Targets
		if !edge.Conditional() {
			targets = []string{edge.To}
		}
		for _, to := range targets {
			if !g.HasNode(to) {
				return types.Errorf(types.ErrGraphInvalid,
					"edge %q -> %q references non-existent node", from, to)
			}
		}
	}
	// Every node must declare a way out; dead-end nodes would strand the
	// cursor without ever reaching End.
	for id := range g.steps {
		if _, ok := g.edges[id]; !ok {
			return types.Errorf(types.ErrGraphInvalid,
				"node %q has no outgoing edge", id)
		}
	}
	for n := range g.interrupts {
		if _, ok := g.steps[n]; !ok {
			return types.Errorf(types.ErrGraphInvalid,
				"interrupt-before references non-existent node %q", n)
		}
	}
	return nil
}
