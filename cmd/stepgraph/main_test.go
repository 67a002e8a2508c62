package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/stepgraph/graph"
	"github.com/dshills/stepgraph/internal/logging"
	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRunCmd_JSON(t *testing.T) {
	out, _, err := execute(t, "run")
	require.NoError(t, err)

	var res graph.Result[graph.State]
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 13, res.Steps)
	assert.Equal(t, graph.ReasonCompleted, res.Reason)
	assert.Equal(t, 80, res.State.Int(codereview.KeyQualityScore))
	assert.Equal(t, 4, res.State.Int(codereview.KeyComplexityScore))
}

func TestRunCmd_TextWithState(t *testing.T) {
	out, _, err := execute(t, "run", "--format", "text", "--state", `{"quality_score": 60}`)
	require.NoError(t, err)

	want := strings.Join([]string{
		"Step 1: Running extract_code",
		"Step 2: Running check_complexity",
		"Step 3: Running detect_issues",
		"Step 4: Running suggest_improvements",
		"4 steps, completed",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRunCmd_MaxSteps(t *testing.T) {
	out, _, err := execute(t, "run", "--max-steps", "3")
	require.NoError(t, err)

	var res graph.Result[graph.State]
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, graph.ReasonBudgetExhausted, res.Reason)
}

func TestRunCmd_CodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.go")
	require.NoError(t, os.WriteFile(path, []byte("package review\n\nfunc a() {}\n\nfunc b() int { return 1 }\n"), 0o600))

	out, _, err := execute(t, "run", "--code-file", path)
	require.NoError(t, err)

	var res graph.Result[graph.State]
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"func a() {}", "func b() int { return 1 }"}, res.State.Strings(codereview.KeyCodeFunctions))
}

func TestRunCmd_Errors(t *testing.T) {
	_, _, err := execute(t, "run", "--state", "{oops")
	assert.ErrorContains(t, err, "invalid --state")

	_, _, err = execute(t, "run", "--code-file", filepath.Join(t.TempDir(), "missing.go"))
	assert.ErrorContains(t, err, "failed to read code file")

	_, _, err = execute(t, "run", "--log-level", "loud")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestRunCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_steps: 2\n"), 0o600))

	out, _, err := execute(t, "run", "--config", path)
	require.NoError(t, err)

	var res graph.Result[graph.State]
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Steps)

	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: cassandra\n"), 0o600))
	_, _, err = execute(t, "run", "--config", path)
	assert.ErrorContains(t, err, "unknown driver")
}

func TestRunCmd_ProviderWithoutKey(t *testing.T) {
	t.Setenv("STEPGRAPH_REVIEW_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, _, err := execute(t, "run")
	assert.ErrorContains(t, err, "OPENAI_API_KEY is not set")
}

func TestGraphCmd(t *testing.T) {
	out, _, err := execute(t, "graph")
	require.NoError(t, err)
	assert.Equal(t, codereview.BuiltIn().Mermaid(), out)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
}

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	tp := newTracerProvider(logging.New(slog.LevelDebug, logging.FormatText, &buf))

	_, span := tp.Tracer("test").Start(context.Background(), "node_error")
	span.SetStatus(codes.Error, "boom")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "span=node_error")
	assert.Contains(t, out, "status=error")
}
