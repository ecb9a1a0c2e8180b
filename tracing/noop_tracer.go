// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// noopTracer hands out non-recording spans carrying the span context of the
// parent found in ctx.
type noopTracer struct {
	tracer trace.Tracer
}

// NewNoopTracer returns the TraceHandle used when tracing is disabled.
func NewNoopTracer() TraceHandle {
	return &noopTracer{tracer: noop.NewTracerProvider().Tracer(name)}
}

func (n *noopTracer) StartSpan(ctx context.Context, traceName string) (context.Context, trace.Span) {
	return n.tracer.Start(ctx, traceName)
}

func (n *noopTracer) StartClientSpan(ctx context.Context, traceName string) (context.Context, trace.Span) {
	return n.tracer.Start(ctx, traceName, trace.WithSpanKind(trace.SpanKindClient))
}

func (*noopTracer) EndSpan(trace.Span) {}

func (*noopTracer) RecordError(trace.Span, error) {}

func (*noopTracer) SetChunkAttributes(trace.Span, int64, int64, bool) {}
