package graph

import "fmt"

// Reason explains why a run stopped.
type Reason string

const (
	// ReasonCompleted means the run reached End, either because a router
	// returned it or because the last node had no outgoing transition.
	ReasonCompleted Reason = "completed"

	// ReasonBudgetExhausted means the step budget ran out while another
	// node was still scheduled. This is not an error.
	ReasonBudgetExhausted Reason = "budget_exhausted"
)

// LogEntry describes one executed step.
type LogEntry struct {
	// Step is the 1-indexed position of this step in the run.
	Step int `json:"step"`

	// Node is the name of the node that ran.
	Node string `json:"node"`
}

// String renders the entry the way the run log has always been printed.
func (e LogEntry) String() string {
	return fmt.Sprintf("Step %d: Running %s", e.Step, e.Node)
}

// Result is the outcome of a successful run.
type Result[S any] struct {
	// RunID identifies the run in emitted events.
	RunID string `json:"run_id"`

	// State is the state returned by the last node executed.
	State S `json:"final_state"`

	// Log lists the executed steps in order.
	Log []LogEntry `json:"logs"`

	// Steps is the number of nodes executed; always len(Log).
	Steps int `json:"steps"`

	// Reason tells a normal end apart from budget exhaustion.
	Reason Reason `json:"reason"`
}
