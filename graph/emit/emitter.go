// Package emit provides event emission and observability for graph execution.
package emit

// Event messages emitted by the engine.
const (
	MsgRunStart  = "run_start"
	MsgNodeStart = "node_start"
	MsgNodeEnd   = "node_end"
	MsgNodeError = "node_error"
	MsgRunEnd    = "run_end"
	MsgRunError  = "run_error"
)

// Emitter receives and processes observability events from workflow execution.
//
// Implementations should be:
//   - Non-blocking: Avoid slowing down workflow execution
//   - Thread-safe: Concurrent runs share one emitter
//   - Resilient: Handle failures internally; Emit must not panic
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	Emit(event Event)
}

// MultiEmitter fans each event out to several emitters in order.
type MultiEmitter []Emitter

// NewMultiEmitter combines emitters, skipping nil entries.
func NewMultiEmitter(emitters ...Emitter) MultiEmitter {
	out := make(MultiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Emit forwards event to every wrapped emitter.
func (m MultiEmitter) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}
