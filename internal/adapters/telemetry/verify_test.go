package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/prov/internal/adapters/telemetry"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/prov/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
}

func TestOTelTracer_Start(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer(recorder)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	ctx, parent := tracer.Start(context.Background(), "sync.drain", ports.WithAttribute("project", "neuro"))
	_, child := tracer.Start(ctx, "sync.push")
	child.SetAttribute("attempt", 2)
	child.SetAttribute("forced", true)
	child.RecordError(errors.New("connection reset"))
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	push := spans[0]
	assert.Equal(t, "sync.push", push.Name())
	assert.Equal(t, codes.Error, push.Status().Code)
	assert.Equal(t, "connection reset", push.Status().Description)
	assert.Contains(t, push.Attributes(), attribute.Int("attempt", 2))
	assert.Contains(t, push.Attributes(), attribute.Bool("forced", true))
	assert.Equal(t, spans[1].SpanContext().SpanID(), push.Parent().SpanID())

	drain := spans[1]
	assert.Equal(t, codes.Unset, drain.Status().Code)
	assert.Contains(t, drain.Attributes(), attribute.String("project", "neuro"))
}

func TestOTelSpan_RecordNilError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer(recorder)

	_, span := tracer.Start(context.Background(), "noop")
	span.RecordError(nil)
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}

func TestLogBridge_OnEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	var messages []string
	log.EXPECT().Debug(gomock.Any()).Do(func(msg string) {
		messages = append(messages, msg)
	}).Times(2)

	tracer := telemetry.NewOTelTracer(telemetry.NewLogBridge(log))

	_, ok := tracer.Start(context.Background(), "reconcile", ports.WithAttribute("project", "neuro"))
	ok.End()

	_, failed := tracer.Start(context.Background(), "sync.push")
	failed.RecordError(errors.New("remote conflict"))
	failed.End()

	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "span reconcile took")
	assert.Contains(t, messages[0], "[project=neuro]")
	assert.Contains(t, messages[1], "span sync.push took")
	assert.Contains(t, messages[1], ": remote conflict")
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx := context.Background()
	got, span := tracer.Start(ctx, "test-span")
	assert.Equal(t, ctx, got)
	assert.NotNil(t, span)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}
