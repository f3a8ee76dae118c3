package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by turning events into OpenTelemetry
// spans.
//
// Each event becomes one immediately-ended span:
//   - Span name: event.Msg
//   - Attributes: workflow.id, workflow.operation, plus every Meta
//     entry under a "workflow." prefix
//   - Status: Error when the event carries an "error" Meta entry
//
// Wire it to a configured tracer provider:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	emitter := emit.NewOTelEmitter(otel.Tracer("workflow"))
//	w, _ := workflow.New(4, workflow.WithEmitter(emitter))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an emitter recording spans on the given
// tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit records the event as a span.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("workflow.id", event.WorkflowID),
		attribute.String("workflow.operation", event.Operation),
	)

	for key, value := range event.Meta {
		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String("workflow."+key, v))
		case bool:
			span.SetAttributes(attribute.Bool("workflow."+key, v))
		case int:
			span.SetAttributes(attribute.Int("workflow."+key, v))
		case int64:
			span.SetAttributes(attribute.Int64("workflow."+key, v))
		case float64:
			span.SetAttributes(attribute.Float64("workflow."+key, v))
		default:
			span.SetAttributes(attribute.String("workflow."+key, fmt.Sprint(v)))
		}
	}

	if errText, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errText)
		span.RecordError(fmt.Errorf("%s", errText))
	}
}

// Flush is a no-op: span export is governed by the tracer provider's
// processors.
func (o *OTelEmitter) Flush(context.Context) error { return nil }
