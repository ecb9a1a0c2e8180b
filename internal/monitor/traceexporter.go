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

package monitor

import (
	"context"
	"fmt"

	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/googlecloudplatform/gcsstream/common"
	"github.com/googlecloudplatform/gcsstream/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func initPropagators() {
	props := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(props)
}

// SetupTracing installs a tracer provider exporting to the configured
// exporter when tracing is enabled. It returns nil otherwise.
func SetupTracing(ctx context.Context, c *cfg.Config) common.ShutdownFn {
	if !c.Tracing.Enabled {
		return nil
	}
	exporter, err := newSpanExporter(&c.Tracing)
	if err != nil {
		logger.Errorf("error occurred while setting up tracing: %v", err)
		return nil
	}

	tp := sdktrace.NewTracerProvider(traceProviderOptions(ctx, exporter, c.Tracing.SamplingRatio)...)
	otel.SetTracerProvider(tp)
	initPropagators()
	return tp.Shutdown
}

func newSpanExporter(c *cfg.TracingConfig) (sdktrace.SpanExporter, error) {
	switch c.Exporter {
	case cfg.GCPTraceExporter:
		var opts []cloudtrace.Option
		if c.ProjectId != "" {
			opts = append(opts, cloudtrace.WithProjectID(c.ProjectId))
		}
		return cloudtrace.New(opts...)
	case cfg.StdoutTraceExporter, "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", c.Exporter)
	}
}

func traceProviderOptions(ctx context.Context, exporter sdktrace.SpanExporter, samplingRatio float64) []sdktrace.TracerProviderOption {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRatio))),
	}
	res, err := getResource(ctx)
	if err != nil {
		logger.Warnf("Tracing without resource attributes: %v", err)
	} else {
		opts = append(opts, sdktrace.WithResource(res))
	}
	return opts
}
