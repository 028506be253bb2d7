package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "test", "tenderhub-api")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "bid submitted", "bid_id", "b1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != traceID.String() || rec["span_id"] != spanID.String() {
		t.Fatalf("missing trace ids: %v", rec)
	}
	if rec["service"] != "tenderhub-api" || rec["bid_id"] != "b1" {
		t.Fatalf("unexpected attrs: %v", rec)
	}
}

func TestLogger_NoSpanNoTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev", "tenderhub-worker")

	log.Debug("poll")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("unexpected trace_id without a span: %v", rec)
	}
}
