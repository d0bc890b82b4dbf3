package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thaiyyal/pipeline/pipeline"
)

// Observer implements pipeline.Observer, recording an OTel span and metric
// set per run and per node. Safe for the single-threaded execution model
// Execute uses, but guards its span maps with a mutex since nothing prevents
// an embedder from running several pipelines concurrently against one
// shared Observer.
type Observer struct {
	provider *Provider

	mu        sync.Mutex
	runSpans  map[string]trace.Span
	runStarts map[string]time.Time
	nodeSpans map[string]trace.Span
}

// NewObserver builds an Observer recording against provider.
func NewObserver(provider *Provider) *Observer {
	return &Observer{
		provider:  provider,
		runSpans:  make(map[string]trace.Span),
		runStarts: make(map[string]time.Time),
		nodeSpans: make(map[string]trace.Span),
	}
}

func nodeSpanKey(runID, node string) string { return runID + "/" + node }

// OnEvent implements pipeline.Observer.
func (o *Observer) OnEvent(ctx context.Context, event pipeline.Event) {
	switch event.Type {
	case pipeline.EventRunStart:
		o.handleRunStart(ctx, event)
	case pipeline.EventRunEnd:
		o.handleRunEnd(ctx, event)
	case pipeline.EventNodeStart:
		o.handleNodeStart(ctx, event)
	case pipeline.EventNodeSuccess:
		o.handleNodeEnd(ctx, event, true)
	case pipeline.EventNodeFailure:
		o.handleNodeEnd(ctx, event, false)
	}
}

func (o *Observer) handleRunStart(ctx context.Context, event pipeline.Event) {
	tracer := o.provider.Tracer()
	if tracer == nil {
		return
	}
	_, span := tracer.Start(ctx, "pipeline.execute", trace.WithAttributes(
		attribute.String("pipeline.name", event.PipelineName),
		attribute.String("run.id", event.RunID),
	))

	o.mu.Lock()
	o.runSpans[event.RunID] = span
	o.runStarts[event.RunID] = event.Timestamp
	o.mu.Unlock()
}

func (o *Observer) handleRunEnd(ctx context.Context, event pipeline.Event) {
	o.mu.Lock()
	span := o.runSpans[event.RunID]
	start, hasStart := o.runStarts[event.RunID]
	delete(o.runSpans, event.RunID)
	delete(o.runStarts, event.RunID)
	o.mu.Unlock()

	duration := event.ElapsedTime
	if duration == 0 && hasStart {
		duration = time.Since(start)
	}
	o.provider.recordRun(ctx, event.PipelineName, duration, event.Status == pipeline.StatusSuccess)

	if span == nil {
		return
	}
	if event.Err != nil {
		span.RecordError(event.Err)
		span.SetStatus(codes.Error, event.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "run completed")
	}
	span.End()
}

func (o *Observer) handleNodeStart(ctx context.Context, event pipeline.Event) {
	tracer := o.provider.Tracer()
	if tracer == nil {
		return
	}

	o.mu.Lock()
	parent := o.runSpans[event.RunID]
	o.mu.Unlock()

	spanCtx := ctx
	if parent != nil {
		spanCtx = trace.ContextWithSpan(ctx, parent)
	}
	_, span := tracer.Start(spanCtx, "pipeline.node", trace.WithAttributes(
		attribute.String("node.name", event.Node),
		attribute.String("run.id", event.RunID),
	))

	o.mu.Lock()
	o.nodeSpans[nodeSpanKey(event.RunID, event.Node)] = span
	o.mu.Unlock()
}

func (o *Observer) handleNodeEnd(ctx context.Context, event pipeline.Event, success bool) {
	o.provider.recordNode(ctx, event.Node, event.ElapsedTime, success)

	key := nodeSpanKey(event.RunID, event.Node)
	o.mu.Lock()
	span := o.nodeSpans[key]
	delete(o.nodeSpans, key)
	o.mu.Unlock()
	if span == nil {
		return
	}
	if event.Err != nil {
		span.RecordError(event.Err)
		span.SetStatus(codes.Error, event.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "node completed")
	}
	span.End()
}
