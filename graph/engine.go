package graph

import (
	"context"
	"time"

	"github.com/dshills/stepgraph/graph/emit"
	"github.com/google/uuid"
)

// Engine drives runs over graph definitions.
//
// The Engine:
//   - Starts each run at the graph's entry point
//   - Executes one node at a time, replacing state with each node's output
//   - Resolves successors (router first, then unconditional edge, else End)
//   - Stops at End or when the step budget is spent
//   - Emits observability events and records metrics
//
// An Engine holds only configuration, so one Engine may run many graphs and
// many concurrent runs; each run owns its own state and log.
//
// Type parameter S is the state type shared across the workflow.
//
// Example:
//
//	engine := graph.New[graph.State](graph.WithMaxSteps(50))
//	result, err := engine.Run(ctx, g, graph.State{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Steps, result.Reason)
type Engine[S any] struct {
	opts Options
}

// New creates an Engine with the given options.
func New[S any](opts ...Option) *Engine[S] {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return NewWithOptions[S](o)
}

// NewWithOptions creates an Engine from an Options struct.
func NewWithOptions[S any](opts Options) *Engine[S] {
	return &Engine[S]{opts: opts}
}

// MaxSteps returns the effective step budget.
func (e *Engine[S]) MaxSteps() int {
	return e.opts.maxSteps()
}

// Run executes g from its entry point with a freshly generated run ID.
func (e *Engine[S]) Run(ctx context.Context, g *Graph[S], initial S) (Result[S], error) {
	return e.RunWithID(ctx, uuid.NewString(), g, initial)
}

// RunWithID executes g from its entry point, tagging events with runID.
//
// Execution:
//  1. Fails with ErrEntryPointNotSet if the graph has no entry point
//  2. Appends a log entry, then looks up the current node
//  3. Fails with ErrNodeNotFound if the node is not registered
//  4. Runs the node; its output replaces the state
//  5. Resolves the next node and repeats until End or the budget is spent
//
// A node error aborts the run and is returned unchanged. On any failure the
// zero Result is returned; the steps taken so far are only observable
// through the emitter.
//
// ctx is handed to every node. The engine itself does not stop between steps
// when ctx is cancelled; nodes that wait on ctx will fail instead.
func (e *Engine[S]) RunWithID(ctx context.Context, runID string, g *Graph[S], initial S) (Result[S], error) {
	entry := g.EntryPoint()
	if entry == End {
		err := &EngineError{
			Message: "entry point not set (call SetEntryPoint before Run)",
			Code:    CodeEntryPointNotSet,
			Err:     ErrEntryPointNotSet,
		}
		e.emit(emit.Event{RunID: runID, Msg: emit.MsgRunError, Meta: map[string]interface{}{"error": err.Error()}})
		e.opts.Metrics.recordRun(statusError)
		return Result[S]{}, err
	}

	budget := e.opts.maxSteps()
	e.emit(emit.Event{RunID: runID, NodeID: entry, Msg: emit.MsgRunStart, Meta: map[string]interface{}{"max_steps": budget}})
	e.opts.Metrics.runStarted()
	defer e.opts.Metrics.runFinished()

	state := initial
	current := entry
	steps := 0
	log := make([]LogEntry, 0, 8)

	for current != End && steps < budget {
		log = append(log, LogEntry{Step: steps + 1, Node: current})

		node, ok := g.node(current)
		if !ok {
			err := &EngineError{
				Message: "node not found during execution: " + current,
				Code:    CodeNodeNotFound,
				NodeID:  current,
				Err:     ErrNodeNotFound,
			}
			e.emit(emit.Event{RunID: runID, Step: steps + 1, NodeID: current, Msg: emit.MsgRunError, Meta: map[string]interface{}{"error": err.Error()}})
			e.opts.Metrics.recordRun(statusError)
			return Result[S]{}, err
		}

		e.emit(emit.Event{RunID: runID, Step: steps + 1, NodeID: current, Msg: emit.MsgNodeStart})

		out := invokeNode(ctx, node, state)
		if out.err != nil {
			e.emit(emit.Event{
				RunID:  runID,
				Step:   steps + 1,
				NodeID: current,
				Msg:    emit.MsgNodeError,
				Meta: map[string]interface{}{
					"error":      out.err.Error(),
					"latency_ms": durationMillis(out.duration),
				},
			})
			e.opts.Metrics.recordStep(current, statusError, out.duration)
			e.opts.Metrics.recordRun(statusError)
			return Result[S]{}, out.err
		}

		state = out.state
		steps++
		e.opts.Metrics.recordStep(current, statusSuccess, out.duration)

		next := g.next(current, state)
		e.emit(emit.Event{
			RunID:  runID,
			Step:   steps,
			NodeID: current,
			Msg:    emit.MsgNodeEnd,
			Meta: map[string]interface{}{
				"latency_ms": durationMillis(out.duration),
				"next":       next,
			},
		})
		current = next
	}

	reason := ReasonCompleted
	if current != End {
		reason = ReasonBudgetExhausted
	}

	e.emit(emit.Event{RunID: runID, Step: steps, Msg: emit.MsgRunEnd, Meta: map[string]interface{}{"reason": string(reason), "steps": steps}})
	e.opts.Metrics.recordRun(string(reason))

	return Result[S]{
		RunID:  runID,
		State:  state,
		Log:    log,
		Steps:  steps,
		Reason: reason,
	}, nil
}

func (e *Engine[S]) emit(event emit.Event) {
	if e.opts.Emitter != nil {
		e.opts.Emitter.Emit(event)
	}
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
