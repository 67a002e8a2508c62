// Package store provides registries for graph definitions and run results.
//
// Stores are collaborators of the engine, not part of it: the engine never
// reads from a store, so a restarted process cannot resume a run. They only
// record what happened so callers can look it up later by ID.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/stepgraph/graph"
)

// ErrNotFound is returned when a requested run ID or graph ID does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the outcome of a run as recorded in a store.
type RunStatus string

const (
	// StatusCompleted marks a run that returned normally, including runs
	// that exhausted their step budget.
	StatusCompleted RunStatus = "completed"

	// StatusFailed marks a run that returned an error.
	StatusFailed RunStatus = "failed"
)

// RunRecord is the stored outcome of one run.
type RunRecord struct {
	ID         string           `json:"run_id"`
	GraphID    string           `json:"graph_id,omitempty"`
	Status     RunStatus        `json:"status"`
	FinalState graph.State      `json:"final_state,omitempty"`
	Logs       []graph.LogEntry `json:"logs,omitempty"`
	Steps      int              `json:"steps"`
	Reason     graph.Reason     `json:"reason,omitempty"`
	Error      string           `json:"error,omitempty"`
	ErrorCode  string           `json:"error_code,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// GraphRecord is a stored graph definition. Node and router names refer to
// implementations in a catalog owned by the application.
type GraphRecord struct {
	ID   string `json:"graph_id"`
	Name string `json:"name,omitempty"`

	// Nodes lists the node names the graph registers.
	Nodes []string `json:"nodes"`

	// Edges maps a source node to its unconditional successor.
	Edges map[string]string `json:"edges"`

	// ConditionalEdges maps a source node to the name of its router.
	ConditionalEdges map[string]string `json:"conditional_edges,omitempty"`

	// EntryPoint is the first node to run. Empty means the first of Nodes.
	EntryPoint string `json:"entry_point,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RunStore records run outcomes.
type RunStore interface {
	// SaveRun inserts or replaces the record with rec.ID.
	SaveRun(ctx context.Context, rec RunRecord) error

	// GetRun returns the record for id, or ErrNotFound.
	GetRun(ctx context.Context, id string) (RunRecord, error)

	// ListRuns returns up to limit records, newest first. A limit of zero
	// or less means no limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// GraphStore records graph definitions.
type GraphStore interface {
	// SaveGraph inserts or replaces the definition with rec.ID.
	SaveGraph(ctx context.Context, rec GraphRecord) error

	// GetGraph returns the definition for id, or ErrNotFound.
	GetGraph(ctx context.Context, id string) (GraphRecord, error)
}

// Store combines both registries behind one backend.
type Store interface {
	RunStore
	GraphStore

	// Close releases the backend's resources.
	Close() error
}

// encode serializes a record. Every backend goes through JSON so a record
// reads back the same way regardless of where it was stored.
func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

func decode[T any](data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return out, nil
}
