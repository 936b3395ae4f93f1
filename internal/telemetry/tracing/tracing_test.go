package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingSpan struct {
	noop.Span
	ended    bool
	recorded []error
	status   codes.Code
}

func (s *recordingSpan) End(...trace.SpanEndOption) {
	s.ended = true
}

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.recorded = append(s.recorded, err)
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) {
	s.status = code
}

func TestEndSpanWithErrCheck(t *testing.T) {
	span := &recordingSpan{}
	EndSpanWithErrCheck(span, nil)
	assert.True(t, span.ended)
	assert.Empty(t, span.recorded)
	assert.Equal(t, codes.Unset, span.status)

	span = &recordingSpan{}
	err := errors.New("boom")
	EndSpanWithErrCheck(span, err)
	assert.True(t, span.ended)
	assert.Equal(t, []error{err}, span.recorded)
	assert.Equal(t, codes.Error, span.status)
}

func TestGlobalTracer(t *testing.T) {
	_, span := GlobalTracer.Start(context.Background(), "test.span")
	assert.NotNil(t, span)
	span.End()
}
