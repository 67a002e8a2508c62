package codereview

import (
	"context"
	"log/slog"
	"maps"

	"github.com/dshills/stepgraph/graph"
)

// State keys read and written by the workflow.
const (
	KeyCode            = "code"
	KeyCodeFunctions   = "code_functions"
	KeyComplexityScore = "complexity_score"
	KeyIssues          = "issues"
	KeySuggestions     = "suggestions"
	KeyQualityScore    = "quality_score"
)

// Scoring constants for the review loop.
const (
	InitialComplexity   = 10
	ComplexityStep      = 2
	IssueThreshold      = 5
	QualityStep         = 20
	QualityThreshold    = 80
	TooComplexIssueText = "Line 10: Too complex"
)

// Node and router names.
const (
	NodeExtractCode         = "extract_code"
	NodeCheckComplexity     = "check_complexity"
	NodeDetectIssues        = "detect_issues"
	NodeSuggestImprovements = "suggest_improvements"
	RouterQualityGate       = "quality_gate"
)

// nodes holds the dependencies shared by the workflow's node functions.
type nodes struct {
	logger    *slog.Logger
	suggester Suggester
}

// next returns a shallow copy of state to modify, leaving the caller's map
// untouched.
func next(state graph.State) graph.State {
	if state == nil {
		return graph.State{}
	}
	return maps.Clone(state)
}

func (n *nodes) extractCode(state graph.State) graph.State {
	n.logger.Debug("extracting code")

	out := next(state)
	out[KeyCodeFunctions] = extractFunctions(state.String(KeyCode))
	return out
}

func (n *nodes) checkComplexity(state graph.State) graph.State {
	n.logger.Debug("checking complexity")

	out := next(state)
	if state.Has(KeyComplexityScore) {
		out[KeyComplexityScore] = state.Int(KeyComplexityScore) - ComplexityStep
	} else {
		out[KeyComplexityScore] = InitialComplexity
	}
	return out
}

func (n *nodes) detectIssues(state graph.State) graph.State {
	n.logger.Debug("detecting issues")

	out := next(state)
	if state.Int(KeyComplexityScore) > IssueThreshold {
		out[KeyIssues] = []string{TooComplexIssueText}
	} else {
		out[KeyIssues] = []string{}
	}
	return out
}

func (n *nodes) suggestImprovements(ctx context.Context, state graph.State) (graph.State, error) {
	n.logger.Debug("suggesting improvements")

	suggestion, err := n.suggester.Suggest(ctx, Review{
		Functions:  state.Strings(KeyCodeFunctions),
		Complexity: state.Int(KeyComplexityScore),
		Issues:     state.Strings(KeyIssues),
	})
	if err != nil {
		return nil, err
	}

	out := next(state)
	out[KeySuggestions] = suggestion
	out[KeyQualityScore] = state.Int(KeyQualityScore) + QualityStep
	return out, nil
}

// QualityGate ends the run once quality_score reaches QualityThreshold and
// otherwise loops back to check_complexity.
func QualityGate(state graph.State) string {
	if state.Int(KeyQualityScore) >= QualityThreshold {
		return graph.End
	}
	return NodeCheckComplexity
}
