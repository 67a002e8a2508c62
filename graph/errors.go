package graph

import "errors"

// ErrEntryPointNotSet indicates that Run was called on a graph without an
// entry point.
var ErrEntryPointNotSet = errors.New("entry point not set")

// ErrNodeNotFound indicates that execution reached a node name that has no
// binding in the graph's registry.
var ErrNodeNotFound = errors.New("node not found")

// Error codes reported by ErrorCode.
const (
	CodeEntryPointNotSet = "ENTRY_POINT_NOT_SET"
	CodeNodeNotFound     = "NODE_NOT_FOUND"
	CodeNodeFailed       = "NODE_FAILED"
)

// EngineError represents a configuration or graph-integrity failure detected
// by the engine itself. Node failures are never wrapped in an EngineError.
type EngineError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies the node involved, if any.
	NodeID string

	// Err is the sentinel this error classifies as.
	Err error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the sentinel so errors.Is(err, ErrNodeNotFound) works.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// ErrorCode classifies an error returned by Engine.Run. Anything that is not
// an engine error is reported as a node failure; nil yields "".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEntryPointNotSet):
		return CodeEntryPointNotSet
	case errors.Is(err, ErrNodeNotFound):
		return CodeNodeNotFound
	default:
		return CodeNodeFailed
	}
}
