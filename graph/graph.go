package graph

import (
	"context"
	"sort"
	"sync"
)

// Graph holds the definition of a workflow: its node registry, unconditional
// edges, conditional edges and entry point.
//
// A Graph is built once with the builder methods and then handed to one or
// more Engine.Run calls. Builder methods never fail and never check that the
// names they are given exist; references are resolved lazily when a run
// reaches them.
//
// Every builder method has last-write-wins semantics: registering a second
// node, edge or router under the same key silently replaces the first.
//
// The maps are guarded so a stray builder call cannot corrupt a concurrent
// run, but callers should still treat a Graph as immutable while any run
// against it is in flight.
//
// Example:
//
//	g := graph.NewGraph[graph.State]()
//	g.AddSyncNode("extract", extract)
//	g.AddSyncNode("check", check)
//	g.SetEntryPoint("extract")
//	g.AddEdge("extract", "check")
//	g.AddConditionalEdge("check", qualityGate)
type Graph[S any] struct {
	mu sync.RWMutex

	// nodes maps node names to implementations
	nodes map[string]Node[S]

	// edges maps a source node to its unconditional successor
	edges map[string]string

	// routers maps a source node to its conditional router
	routers map[string]Router[S]

	// entry is the node at which runs begin
	entry string
}

// NewGraph creates an empty graph definition.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:   make(map[string]Node[S]),
		edges:   make(map[string]string),
		routers: make(map[string]Router[S]),
	}
}

// AddNode registers node under name, replacing any previous binding.
func (g *Graph[S]) AddNode(name string, node Node[S]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[name] = node
}

// AddNodeFunc registers a context-aware node function under name.
func (g *Graph[S]) AddNodeFunc(name string, fn func(ctx context.Context, state S) (S, error)) {
	g.AddNode(name, NodeFunc[S](fn))
}

// AddSyncNode registers a plain state transformation under name.
func (g *Graph[S]) AddSyncNode(name string, fn func(state S) S) {
	g.AddNode(name, SyncFunc[S](fn))
}

// SetEntryPoint records the node at which runs begin. The name is not
// checked against the registry.
func (g *Graph[S]) SetEntryPoint(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entry = name
}

// AddEdge sets the unconditional successor of from, replacing any previous
// one. The edge is ignored at run time if from also has a conditional edge.
func (g *Graph[S]) AddEdge(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[from] = to
}

// AddConditionalEdge sets the router consulted after from runs, replacing any
// previous router for from. A router takes priority over an unconditional
// edge on the same source.
func (g *Graph[S]) AddConditionalEdge(from string, router Router[S]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routers[from] = router
}

// EntryPoint returns the configured entry point, or End if none was set.
func (g *Graph[S]) EntryPoint() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entry
}

// Nodes returns the registered node names in sorted order.
func (g *Graph[S]) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns a copy of the unconditional edges.
func (g *Graph[S]) Edges() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]string, len(g.edges))
	for from, to := range g.edges {
		out[from] = to
	}
	return out
}

// HasConditionalEdge reports whether from has a router attached.
func (g *Graph[S]) HasConditionalEdge(from string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.routers[from]
	return ok
}

// node looks up the implementation bound to name.
func (g *Graph[S]) node(name string) (Node[S], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	return n, ok
}

// next resolves the successor of from given the state it produced.
// Conditional edges win over unconditional ones; no transition means End.
func (g *Graph[S]) next(from string, state S) string {
	g.mu.RLock()
	router, conditional := g.routers[from]
	to, unconditional := g.edges[from]
	g.mu.RUnlock()

	switch {
	case conditional:
		// Invoked outside the lock so a router may inspect the graph.
		return router(state)
	case unconditional:
		return to
	default:
		return End
	}
}
