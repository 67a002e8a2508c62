// Package codereview implements the code review workflow: extract functions
// from submitted code, score their complexity, report issues and suggest
// improvements, looping until the quality score clears the gate.
//
// The built-in graph is
//
//	extract_code -> check_complexity -> detect_issues -> suggest_improvements
//	                      ^                                      |
//	                      +------ quality_gate (score < 80) -----+
//
// With no prior scores it runs 13 steps and finishes with quality_score 80.
package codereview

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dshills/stepgraph/graph"
)

// Option configures the workflow's nodes.
type Option func(*nodes)

// WithSuggester sets the Suggester used by suggest_improvements. The default
// is HeuristicSuggester.
func WithSuggester(s Suggester) Option {
	return func(n *nodes) {
		if s != nil {
			n.suggester = s
		}
	}
}

// WithLogger sets the logger nodes report progress to.
func WithLogger(l *slog.Logger) Option {
	return func(n *nodes) {
		if l != nil {
			n.logger = l
		}
	}
}

func newNodes(opts []Option) *nodes {
	n := &nodes{
		logger:    slog.Default(),
		suggester: HeuristicSuggester{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// BuiltIn describes the built-in code review graph.
func BuiltIn() Definition {
	return Definition{
		Nodes: []string{NodeExtractCode, NodeCheckComplexity, NodeDetectIssues, NodeSuggestImprovements},
		Edges: map[string]string{
			NodeExtractCode:     NodeCheckComplexity,
			NodeCheckComplexity: NodeDetectIssues,
			NodeDetectIssues:    NodeSuggestImprovements,
		},
		ConditionalEdges: map[string]string{NodeSuggestImprovements: RouterQualityGate},
		EntryPoint:       NodeExtractCode,
	}
}

// NewGraph assembles the built-in code review graph.
func NewGraph(opts ...Option) *graph.Graph[graph.State] {
	c := NewCatalog(opts...)

	g := graph.NewGraph[graph.State]()
	for _, name := range []string{NodeExtractCode, NodeCheckComplexity, NodeDetectIssues, NodeSuggestImprovements} {
		g.AddNode(name, c.nodes[name])
	}
	g.SetEntryPoint(NodeExtractCode)
	g.AddEdge(NodeExtractCode, NodeCheckComplexity)
	g.AddEdge(NodeCheckComplexity, NodeDetectIssues)
	g.AddEdge(NodeDetectIssues, NodeSuggestImprovements)
	g.AddConditionalEdge(NodeSuggestImprovements, c.routers[RouterQualityGate])
	return g
}

// ErrUnknownName is returned by Catalog.Build when a definition names a node
// or router the catalog does not have.
var ErrUnknownName = errors.New("unknown name")

// Catalog maps names to node and router implementations so graphs can be
// described as data, for example in an HTTP request.
type Catalog struct {
	nodes   map[string]graph.Node[graph.State]
	routers map[string]graph.Router[graph.State]
}

// NewCatalog returns the catalog of the workflow's nodes and routers.
func NewCatalog(opts ...Option) *Catalog {
	n := newNodes(opts)
	return &Catalog{
		nodes: map[string]graph.Node[graph.State]{
			NodeExtractCode:         graph.SyncFunc[graph.State](n.extractCode),
			NodeCheckComplexity:     graph.SyncFunc[graph.State](n.checkComplexity),
			NodeDetectIssues:        graph.SyncFunc[graph.State](n.detectIssues),
			NodeSuggestImprovements: graph.NodeFunc[graph.State](n.suggestImprovements),
		},
		routers: map[string]graph.Router[graph.State]{
			RouterQualityGate: QualityGate,
		},
	}
}

// NodeNames returns the catalog's node names, sorted.
func (c *Catalog) NodeNames() []string {
	return sortedKeys(c.nodes)
}

// RouterNames returns the catalog's router names, sorted.
func (c *Catalog) RouterNames() []string {
	return sortedKeys(c.routers)
}

// Definition describes a graph by catalog names.
type Definition struct {
	Nodes []string

	// Edges maps a source node to its unconditional successor.
	Edges map[string]string

	// ConditionalEdges maps a source node to a router name.
	ConditionalEdges map[string]string

	// EntryPoint defaults to the first of Nodes.
	EntryPoint string
}

// Validate checks that every node and router name exists in the catalog.
// Edge targets and the entry point are not checked: a graph may name a node
// it never registers, and that is only an error if a run reaches it.
func (c *Catalog) Validate(def Definition) error {
	for _, name := range def.Nodes {
		if _, ok := c.nodes[name]; !ok {
			return fmt.Errorf("node %q: %w", name, ErrUnknownName)
		}
	}
	for from, router := range def.ConditionalEdges {
		if _, ok := c.routers[router]; !ok {
			return fmt.Errorf("router %q on %q: %w", router, from, ErrUnknownName)
		}
	}
	return nil
}

// Build validates def and assembles the graph it describes.
func (c *Catalog) Build(def Definition) (*graph.Graph[graph.State], error) {
	if err := c.Validate(def); err != nil {
		return nil, err
	}

	g := graph.NewGraph[graph.State]()
	for _, name := range def.Nodes {
		g.AddNode(name, c.nodes[name])
	}

	entry := def.EntryPoint
	if entry == "" && len(def.Nodes) > 0 {
		entry = def.Nodes[0]
	}
	if entry != "" {
		g.SetEntryPoint(entry)
	}

	for from, to := range def.Edges {
		g.AddEdge(from, to)
	}
	for from, router := range def.ConditionalEdges {
		g.AddConditionalEdge(from, c.routers[router])
	}
	return g, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
