package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dshills/stepgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behavior every Store backend shares.
func runStoreContract(t *testing.T, st Store) {
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	base := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("SaveRun and GetRun", func(t *testing.T) {
		rec := RunRecord{
			ID:         "run-" + suffix,
			GraphID:    "graph-" + suffix,
			Status:     StatusCompleted,
			FinalState: graph.State{"quality_score": 80, "code": "package main"},
			Logs: []graph.LogEntry{
				{Step: 1, Node: "extract_code"},
				{Step: 2, Node: "check_complexity"},
			},
			Steps:     2,
			Reason:    graph.ReasonCompleted,
			CreatedAt: base,
		}
		require.NoError(t, st.SaveRun(ctx, rec))

		got, err := st.GetRun(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.GraphID, got.GraphID)
		assert.Equal(t, StatusCompleted, got.Status)
		assert.Equal(t, rec.Logs, got.Logs)
		assert.Equal(t, 2, got.Steps)
		assert.Equal(t, graph.ReasonCompleted, got.Reason)
		assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

		assert.Equal(t, 80, got.FinalState.Int("quality_score"))
		assert.Equal(t, "package main", got.FinalState.String("code"))
	})

	t.Run("SaveRun replaces", func(t *testing.T) {
		id := "replace-" + suffix
		require.NoError(t, st.SaveRun(ctx, RunRecord{ID: id, Status: StatusCompleted, CreatedAt: base}))
		require.NoError(t, st.SaveRun(ctx, RunRecord{
			ID:        id,
			Status:    StatusFailed,
			Error:     "NODE_FAILED: boom",
			ErrorCode: graph.CodeNodeFailed,
			CreatedAt: base,
		}))

		got, err := st.GetRun(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, got.Status)
		assert.Equal(t, "NODE_FAILED: boom", got.Error)
		assert.Equal(t, graph.CodeNodeFailed, got.ErrorCode)
	})

	t.Run("GetRun missing", func(t *testing.T) {
		_, err := st.GetRun(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListRuns newest first", func(t *testing.T) {
		future := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
		older := RunRecord{ID: "older-" + suffix, Status: StatusCompleted, CreatedAt: future}
		newer := RunRecord{ID: "newer-" + suffix, Status: StatusCompleted, CreatedAt: future.Add(time.Second)}
		require.NoError(t, st.SaveRun(ctx, older))
		require.NoError(t, st.SaveRun(ctx, newer))

		runs, err := st.ListRuns(ctx, 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, newer.ID, runs[0].ID)
		assert.Equal(t, older.ID, runs[1].ID)

		all, err := st.ListRuns(ctx, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 4)
	})

	t.Run("SaveGraph and GetGraph", func(t *testing.T) {
		rec := GraphRecord{
			ID:    "graph-" + suffix,
			Name:  "code_review",
			Nodes: []string{"extract_code", "check_complexity"},
			Edges: map[string]string{"extract_code": "check_complexity"},
			ConditionalEdges: map[string]string{
				"check_complexity": "quality_gate",
			},
			EntryPoint: "extract_code",
			CreatedAt:  base,
		}
		require.NoError(t, st.SaveGraph(ctx, rec))

		got, err := st.GetGraph(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.Name, got.Name)
		assert.Equal(t, rec.Nodes, got.Nodes)
		assert.Equal(t, rec.Edges, got.Edges)
		assert.Equal(t, rec.ConditionalEdges, got.ConditionalEdges)
		assert.Equal(t, rec.EntryPoint, got.EntryPoint)
	})

	t.Run("GetGraph missing", func(t *testing.T) {
		_, err := st.GetGraph(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
