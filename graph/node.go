package graph

import (
	"context"
	"time"
)

// Node represents a processing unit in the workflow graph.
//
// Every node, whether it finishes immediately or has to wait on external work
// such as a network call, implements the same call shape. The engine calls Run
// and does not take its next action until Run returns, so any waiting the node
// does internally is invisible to the step sequence.
//
// Run receives the current state and returns the state that replaces it. The
// returned value is used as-is: there is no merge with the previous state. A
// non-nil error aborts the run and is returned to the caller of Engine.Run
// unchanged.
//
// Nodes must not retain the state they are given after Run returns; ownership
// of each state version passes from node to engine to the next node.
//
// Type parameter S is the state type shared across the workflow.
type Node[S any] interface {
	Run(ctx context.Context, state S) (S, error)
}

// NodeFunc is a function adapter that implements the Node interface for
// context-aware, fallible functions.
//
// Example:
//
//	fetch := NodeFunc[State](func(ctx context.Context, s State) (State, error) {
//	    body, err := client.Get(ctx, s.String("url"))
//	    if err != nil {
//	        return nil, err
//	    }
//	    s["body"] = body
//	    return s, nil
//	})
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) (S, error) {
	return f(ctx, state)
}

// SyncFunc adapts a plain blocking transformation that cannot fail.
//
// It is the common case for pure bookkeeping steps: the function runs to
// completion on the engine's goroutine and its result becomes the new state.
type SyncFunc[S any] func(state S) S

// Run implements the Node interface for SyncFunc.
func (f SyncFunc[S]) Run(_ context.Context, state S) (S, error) {
	return f(state), nil
}

// invocation is the outcome of running one node.
type invocation[S any] struct {
	state    S
	err      error
	duration time.Duration
}

// invokeNode runs node to completion and reports how long it took. It is the
// single suspension point of the engine loop.
func invokeNode[S any](ctx context.Context, node Node[S], state S) invocation[S] {
	start := time.Now()
	next, err := node.Run(ctx, state)
	return invocation[S]{
		state:    next,
		err:      err,
		duration: time.Since(start),
	}
}
