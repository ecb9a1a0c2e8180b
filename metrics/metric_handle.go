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

// GcsMethod is the value of the gcs_method attribute.
type GcsMethod string

const (
	GcsMethodCreateUploadSessionAttr GcsMethod = "CreateUploadSession"
	GcsMethodFinalizeUploadAttr      GcsMethod = "FinalizeUpload"
	GcsMethodStatObjectAttr          GcsMethod = "StatObject"
	GcsMethodUploadChunkAttr         GcsMethod = "UploadChunk"
)

// UploadStatus is the value of the status attribute.
type UploadStatus string

const (
	UploadStatusFailedAttr    UploadStatus = "failed"
	UploadStatusSucceededAttr UploadStatus = "succeeded"
)

// MetricHandle provides an interface for recording the metrics of uploads.
// Implementations must be safe for concurrent use.
type MetricHandle interface {
	// GcsRequestCount - The cumulative number of GCS requests processed along with the GCS method.
	GcsRequestCount(inc int64, gcsMethod GcsMethod)

	// GcsRequestLatencies - The cumulative distribution of the GCS request latencies.
	GcsRequestLatencies(ctx context.Context, latency time.Duration, gcsMethod GcsMethod)

	// GcsUploadBytesCount - The cumulative number of bytes acknowledged by GCS.
	GcsUploadBytesCount(inc int64)

	// UploadContinuationCount - The cumulative number of 308 responses that
	// required resending part of a chunk.
	UploadContinuationCount(inc int64)

	// UploadObjectCount - The cumulative number of finished uploads along with their status.
	UploadObjectCount(inc int64, status UploadStatus)
}
