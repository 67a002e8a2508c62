// Package graph provides the core graph execution engine for stepgraph.
package graph

// End is the terminal sentinel. A Router returns End to finish a run, and a
// node with no outgoing transition resolves to End implicitly.
const End = ""

// Router chooses the successor of a node by inspecting the state that node
// just produced.
//
// Routers are attached with Graph.AddConditionalEdge. They return either the
// name of the next node or End to terminate the run. The returned name is not
// checked until the engine tries to execute it.
//
// Routers should be pure functions of the state: the engine makes no attempt
// to replay or cache their decisions, and determinism of a run depends on them.
//
// Common patterns:
//   - Quality gate: loop back while a score is below threshold, else End.
//   - Branch: pick one of several handlers from a classification field.
//   - Retry loop: return to a node while an attempts counter is below a limit.
//
// Type parameter S is the state type to evaluate.
type Router[S any] func(state S) string

// Predicate reports whether a state satisfies a condition.
type Predicate[S any] func(state S) bool

// When builds a two-way Router from a predicate: it routes to then when the
// predicate holds and to otherwise when it does not. Either target may be End.
//
// Example:
//
//	g.AddConditionalEdge("suggest", graph.When(
//	    func(s graph.State) bool { return s.Int("quality_score") < 80 },
//	    "check", graph.End,
//	))
func When[S any](pred Predicate[S], then, otherwise string) Router[S] {
	return func(state S) string {
		if pred(state) {
			return then
		}
		return otherwise
	}
}
