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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/googlecloudplatform/gcsstream"

// Tracer returns the tracer of the globally registered provider. It is
// resolved on every call so that a provider installed after package
// initialisation is picked up.
func Tracer() trace.Tracer {
	return otel.Tracer(name)
}

// NewTraceHandle returns an otel backed handle when enabled is set and a
// noop one otherwise.
func NewTraceHandle(enabled bool) TraceHandle {
	if enabled {
		return NewOTelTracer()
	}
	return NewNoopTracer()
}
