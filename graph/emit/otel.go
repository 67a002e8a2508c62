package emit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes an immediately-ended span with:
//   - Name: event.Msg
//   - Attributes: stepgraph.run_id, stepgraph.step, stepgraph.node_id and
//     every Meta field (latency_ms maps to stepgraph.node.latency_ms)
//   - Status: Error when Meta["error"] is set
//
// Usage:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	emitter := emit.NewOTelEmitter(otel.Tracer("stepgraph"))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter from a tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit records event as a span.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("stepgraph.run_id", event.RunID),
		attribute.Int("stepgraph.step", event.Step),
		attribute.String("stepgraph.node_id", event.NodeID),
	)
	span.SetAttributes(metaAttributes(event.Meta)...)

	if msg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, msg)
		span.RecordError(errors.New(msg))
	}
}

func metaAttributes(meta map[string]interface{}) []attribute.KeyValue {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrKey := key
		if key == "latency_ms" {
			attrKey = "stepgraph.node.latency_ms"
		}

		switch v := meta[key].(type) {
		case string:
			attrs = append(attrs, attribute.String(attrKey, v))
		case int:
			attrs = append(attrs, attribute.Int(attrKey, v))
		case int64:
			attrs = append(attrs, attribute.Int64(attrKey, v))
		case float64:
			attrs = append(attrs, attribute.Float64(attrKey, v))
		case bool:
			attrs = append(attrs, attribute.Bool(attrKey, v))
		case time.Duration:
			attrs = append(attrs, attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			attrs = append(attrs, attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
	return attrs
}
