package emit

// Event represents an observability event emitted during workflow execution.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the 1-indexed step number the event belongs to.
	// Zero for run-level events emitted before the first step.
	Step int

	// NodeID identifies which node the event concerns.
	// Empty string for run-level events.
	NodeID string

	// Msg is one of the Msg* constants.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "latency_ms": Node execution duration in milliseconds
	//   - "error": Error message
	//   - "next": Node chosen to run next ("" for End)
	//   - "reason": Why the run stopped
	Meta map[string]interface{}
}
