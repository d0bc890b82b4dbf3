package telemetry

import (
	"context"
	"testing"

	"github.com/thaiyyal/pipeline/pipeline"
)

func TestObserver_TracksRunAndNodeSpansAcrossEvents(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: "test", ServiceVersion: "1.0.0", EnableTracing: true, EnableMetrics: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	obs := NewObserver(provider)
	ctx := context.Background()

	obs.OnEvent(ctx, pipeline.Event{Type: pipeline.EventRunStart, PipelineName: "demo", RunID: "r1"})
	obs.OnEvent(ctx, pipeline.Event{Type: pipeline.EventNodeStart, RunID: "r1", Node: "a"})
	obs.OnEvent(ctx, pipeline.Event{Type: pipeline.EventNodeSuccess, RunID: "r1", Node: "a", Status: pipeline.StatusSuccess})
	obs.OnEvent(ctx, pipeline.Event{Type: pipeline.EventRunEnd, RunID: "r1", Status: pipeline.StatusSuccess})

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.runSpans) != 0 {
		t.Fatalf("run span for r1 should have ended and been removed, got %d remaining", len(obs.runSpans))
	}
	if len(obs.nodeSpans) != 0 {
		t.Fatalf("node span should have ended and been removed, got %d remaining", len(obs.nodeSpans))
	}
}
