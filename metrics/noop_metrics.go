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

package metrics

import (
	"context"
	"time"
)

// NewNoopMetrics returns the handle used when no exporter is configured.
func NewNoopMetrics() MetricHandle {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) GcsRequestCount(int64, GcsMethod) {}

func (noopMetrics) GcsRequestLatencies(context.Context, time.Duration, GcsMethod) {}

func (noopMetrics) GcsUploadBytesCount(int64) {}

func (noopMetrics) UploadContinuationCount(int64) {}

func (noopMetrics) UploadObjectCount(int64, UploadStatus) {}
