package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestLogEmitter_StructuredOutput verifies events become slog records.
func TestLogEmitter_StructuredOutput(t *testing.T) {
	t.Run("json record carries all fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		emitter := NewLogEmitter(logger)

		emitter.Emit(Event{
			RunID:  "run-001",
			Step:   2,
			NodeID: "check_complexity",
			Msg:    MsgNodeEnd,
			Meta:   map[string]interface{}{"next": "detect_issues"},
		})

		var record map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
		}
		if record["msg"] != MsgNodeEnd {
			t.Errorf("msg = %v, want %q", record["msg"], MsgNodeEnd)
		}
		if record["run_id"] != "run-001" {
			t.Errorf("run_id = %v, want run-001", record["run_id"])
		}
		if record["step"] != float64(2) {
			t.Errorf("step = %v, want 2", record["step"])
		}
		if record["node_id"] != "check_complexity" {
			t.Errorf("node_id = %v", record["node_id"])
		}
		if record["next"] != "detect_issues" {
			t.Errorf("next = %v", record["next"])
		}
		if record["level"] != "INFO" {
			t.Errorf("level = %v, want INFO", record["level"])
		}
	})

	t.Run("errors log at error level", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(slog.New(slog.NewTextHandler(&buf, nil)))

		emitter.Emit(Event{RunID: "r", Msg: MsgNodeError, Meta: map[string]interface{}{"error": "boom"}})

		out := buf.String()
		if !strings.Contains(out, "level=ERROR") {
			t.Errorf("expected ERROR level, got: %s", out)
		}
		if !strings.Contains(out, "error=boom") {
			t.Errorf("expected error attribute, got: %s", out)
		}
	})

	t.Run("node_start is filtered below debug", func(t *testing.T) {
		var buf bytes.Buffer
		emitter := NewLogEmitter(slog.New(slog.NewTextHandler(&buf, nil)))

		emitter.Emit(Event{RunID: "r", Step: 1, NodeID: "a", Msg: MsgNodeStart})

		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got: %s", buf.String())
		}
	})
}

// TestBufferedEmitter verifies history capture and filtering.
func TestBufferedEmitter(t *testing.T) {
	t.Run("stores events per run in order", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{RunID: "a", Step: 1, NodeID: "x", Msg: MsgNodeStart})
		b.Emit(Event{RunID: "b", Step: 1, NodeID: "y", Msg: MsgNodeStart})
		b.Emit(Event{RunID: "a", Step: 1, NodeID: "x", Msg: MsgNodeEnd})

		history := b.GetHistory("a")
		if len(history) != 2 {
			t.Fatalf("expected 2 events, got %d", len(history))
		}
		if history[0].Msg != MsgNodeStart || history[1].Msg != MsgNodeEnd {
			t.Errorf("unexpected order: %+v", history)
		}
	})

	t.Run("unknown run yields empty slice", func(t *testing.T) {
		b := NewBufferedEmitter()
		if got := b.GetHistory("missing"); got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("filter by node, msg and step range", func(t *testing.T) {
		b := NewBufferedEmitter()
		for step := 1; step <= 5; step++ {
			b.Emit(Event{RunID: "r", Step: step, NodeID: "n", Msg: MsgNodeStart})
			b.Emit(Event{RunID: "r", Step: step, NodeID: "n", Msg: MsgNodeEnd})
		}
		b.Emit(Event{RunID: "r", Step: 6, NodeID: "other", Msg: MsgNodeStart})

		minStep, maxStep := 2, 4
		got := b.GetHistoryWithFilter("r", HistoryFilter{
			NodeID:  "n",
			Msg:     MsgNodeEnd,
			MinStep: &minStep,
			MaxStep: &maxStep,
		})
		if len(got) != 3 {
			t.Fatalf("expected 3 events, got %d", len(got))
		}
		for i, ev := range got {
			if ev.Step != i+2 {
				t.Errorf("event %d: step = %d, want %d", i, ev.Step, i+2)
			}
		}
	})

	t.Run("clear one run and all runs", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{RunID: "a"})
		b.Emit(Event{RunID: "b"})

		b.Clear("a")
		if len(b.GetHistory("a")) != 0 || len(b.GetHistory("b")) != 1 {
			t.Fatal("Clear(a) should only drop run a")
		}

		b.Clear("")
		if len(b.GetHistory("b")) != 0 {
			t.Fatal("Clear(\"\") should drop every run")
		}
	})

	t.Run("concurrent emits", func(t *testing.T) {
		b := NewBufferedEmitter()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					b.Emit(Event{RunID: "r", Msg: MsgNodeEnd})
				}
			}()
		}
		wg.Wait()

		if got := len(b.GetHistory("r")); got != 1000 {
			t.Errorf("expected 1000 events, got %d", got)
		}
	})
}

// TestMultiEmitter verifies fan-out and nil skipping.
func TestMultiEmitter(t *testing.T) {
	a := NewBufferedEmitter()
	b := NewBufferedEmitter()
	m := NewMultiEmitter(a, nil, b, NewNullEmitter())

	if len(m) != 3 {
		t.Fatalf("expected nil emitter to be skipped, got %d entries", len(m))
	}

	m.Emit(Event{RunID: "r", Msg: MsgRunEnd})

	if len(a.GetHistory("r")) != 1 || len(b.GetHistory("r")) != 1 {
		t.Error("expected every emitter to receive the event")
	}
}

// TestOTelEmitter_Emit verifies events become spans with attributes.
func TestOTelEmitter_Emit(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))

	emitter.Emit(Event{
		RunID:  "run-001",
		Step:   1,
		NodeID: "extract_code",
		Msg:    MsgNodeEnd,
		Meta: map[string]interface{}{
			"latency_ms": 1.5,
			"next":       "check_complexity",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != MsgNodeEnd {
		t.Errorf("span name = %q, want %q", span.Name, MsgNodeEnd)
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["stepgraph.run_id"]; got != "run-001" {
		t.Errorf("run_id = %v", got)
	}
	if got := attrs["stepgraph.step"]; got != int64(1) {
		t.Errorf("step = %v", got)
	}
	if got := attrs["stepgraph.node.latency_ms"]; got != 1.5 {
		t.Errorf("latency = %v", got)
	}
	if got := attrs["next"]; got != "check_complexity" {
		t.Errorf("next = %v", got)
	}
	if span.Status.Code == codes.Error {
		t.Error("expected non-error status")
	}
}

// TestOTelEmitter_ErrorStatus verifies error metadata sets span status.
func TestOTelEmitter_ErrorStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	NewOTelEmitter(tp.Tracer("test")).Emit(Event{
		RunID: "run-002",
		Msg:   MsgNodeError,
		Meta:  map[string]interface{}{"error": "node exploded"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "node exploded" {
		t.Errorf("description = %q", spans[0].Status.Description)
	}
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
