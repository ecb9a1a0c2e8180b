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
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/googlecloudplatform/gcsstream/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const logInterval = 5 * time.Minute

var (
	unrecognizedAttr atomic.Value

	gcsRequestCountGcsMethodCreateUploadSessionAttrSet     = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "CreateUploadSession")))
	gcsRequestCountGcsMethodFinalizeUploadAttrSet          = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "FinalizeUpload")))
	gcsRequestCountGcsMethodStatObjectAttrSet              = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "StatObject")))
	gcsRequestCountGcsMethodUploadChunkAttrSet             = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "UploadChunk")))
	gcsRequestLatenciesGcsMethodCreateUploadSessionAttrSet = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "CreateUploadSession")))
	gcsRequestLatenciesGcsMethodFinalizeUploadAttrSet      = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "FinalizeUpload")))
	gcsRequestLatenciesGcsMethodStatObjectAttrSet          = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "StatObject")))
	gcsRequestLatenciesGcsMethodUploadChunkAttrSet         = metric.WithAttributeSet(attribute.NewSet(attribute.String("gcs_method", "UploadChunk")))
	uploadObjectCountStatusFailedAttrSet                   = metric.WithAttributeSet(attribute.NewSet(attribute.String("status", "failed")))
	uploadObjectCountStatusSucceededAttrSet                = metric.WithAttributeSet(attribute.NewSet(attribute.String("status", "succeeded")))
)

type histogramRecord struct {
	ctx        context.Context
	instrument metric.Int64Histogram
	value      int64
	attributes metric.RecordOption
}

type otelMetrics struct {
	ch chan histogramRecord
	wg *sync.WaitGroup

	gcsRequestCountGcsMethodCreateUploadSessionAtomic *atomic.Int64
	gcsRequestCountGcsMethodFinalizeUploadAtomic      *atomic.Int64
	gcsRequestCountGcsMethodStatObjectAtomic          *atomic.Int64
	gcsRequestCountGcsMethodUploadChunkAtomic         *atomic.Int64
	gcsRequestLatencies                               metric.Int64Histogram
	gcsUploadBytesCountAtomic                         *atomic.Int64
	uploadContinuationCountAtomic                     *atomic.Int64
	uploadObjectCountStatusFailedAtomic               *atomic.Int64
	uploadObjectCountStatusSucceededAtomic            *atomic.Int64
}

func (o *otelMetrics) GcsRequestCount(
	inc int64, gcsMethod GcsMethod) {
	if inc < 0 {
		logger.Errorf("Counter metric gcs/request_count received a negative increment: %d", inc)
		return
	}
	switch gcsMethod {
	case GcsMethodCreateUploadSessionAttr:
		o.gcsRequestCountGcsMethodCreateUploadSessionAtomic.Add(inc)
	case GcsMethodFinalizeUploadAttr:
		o.gcsRequestCountGcsMethodFinalizeUploadAtomic.Add(inc)
	case GcsMethodStatObjectAttr:
		o.gcsRequestCountGcsMethodStatObjectAtomic.Add(inc)
	case GcsMethodUploadChunkAttr:
		o.gcsRequestCountGcsMethodUploadChunkAtomic.Add(inc)
	default:
		updateUnrecognizedAttribute(string(gcsMethod))
		return
	}
}

func (o *otelMetrics) GcsRequestLatencies(
	ctx context.Context, latency time.Duration, gcsMethod GcsMethod) {
	var record histogramRecord
	switch gcsMethod {
	case GcsMethodCreateUploadSessionAttr:
		record = histogramRecord{ctx: ctx, instrument: o.gcsRequestLatencies, value: latency.Milliseconds(), attributes: gcsRequestLatenciesGcsMethodCreateUploadSessionAttrSet}
	case GcsMethodFinalizeUploadAttr:
		record = histogramRecord{ctx: ctx, instrument: o.gcsRequestLatencies, value: latency.Milliseconds(), attributes: gcsRequestLatenciesGcsMethodFinalizeUploadAttrSet}
	case GcsMethodStatObjectAttr:
		record = histogramRecord{ctx: ctx, instrument: o.gcsRequestLatencies, value: latency.Milliseconds(), attributes: gcsRequestLatenciesGcsMethodStatObjectAttrSet}
	case GcsMethodUploadChunkAttr:
		record = histogramRecord{ctx: ctx, instrument: o.gcsRequestLatencies, value: latency.Milliseconds(), attributes: gcsRequestLatenciesGcsMethodUploadChunkAttrSet}
	default:
		updateUnrecognizedAttribute(string(gcsMethod))
		return
	}

	select {
	case o.ch <- record: // Do nothing
	default: // Unblock writes to channel if it's full.
	}
}

func (o *otelMetrics) GcsUploadBytesCount(
	inc int64) {
	if inc < 0 {
		logger.Errorf("Counter metric gcs/upload_bytes_count received a negative increment: %d", inc)
		return
	}
	o.gcsUploadBytesCountAtomic.Add(inc)
}

func (o *otelMetrics) UploadContinuationCount(
	inc int64) {
	if inc < 0 {
		logger.Errorf("Counter metric upload/continuation_count received a negative increment: %d", inc)
		return
	}
	o.uploadContinuationCountAtomic.Add(inc)
}

func (o *otelMetrics) UploadObjectCount(
	inc int64, status UploadStatus) {
	if inc < 0 {
		logger.Errorf("Counter metric upload/object_count received a negative increment: %d", inc)
		return
	}
	switch status {
	case UploadStatusFailedAttr:
		o.uploadObjectCountStatusFailedAtomic.Add(inc)
	case UploadStatusSucceededAttr:
		o.uploadObjectCountStatusSucceededAtomic.Add(inc)
	default:
		updateUnrecognizedAttribute(string(status))
		return
	}
}

// NewOTelMetrics registers the instruments with the global meter provider.
// Histogram records are handed to workers goroutines through a channel of
// bufferSize entries; records are dropped when it is full.
func NewOTelMetrics(ctx context.Context, workers int, bufferSize int) (*otelMetrics, error) {
	ch := make(chan histogramRecord, bufferSize)
	var wg sync.WaitGroup
	startSampledLogging(ctx)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range ch {
				if record.attributes != nil {
					record.instrument.Record(record.ctx, record.value, record.attributes)
				} else {
					record.instrument.Record(record.ctx, record.value)
				}
			}
		}()
	}
	meter := otel.Meter("gcsstream")
	var gcsRequestCountGcsMethodCreateUploadSessionAtomic,
		gcsRequestCountGcsMethodFinalizeUploadAtomic,
		gcsRequestCountGcsMethodStatObjectAtomic,
		gcsRequestCountGcsMethodUploadChunkAtomic atomic.Int64

	var gcsUploadBytesCountAtomic atomic.Int64

	var uploadContinuationCountAtomic atomic.Int64

	var uploadObjectCountStatusFailedAtomic,
		uploadObjectCountStatusSucceededAtomic atomic.Int64

	_, err0 := meter.Int64ObservableCounter("gcs/request_count",
		metric.WithDescription("The cumulative number of GCS requests processed along with the GCS method."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			conditionallyObserve(obsrv, &gcsRequestCountGcsMethodCreateUploadSessionAtomic, gcsRequestCountGcsMethodCreateUploadSessionAttrSet)
			conditionallyObserve(obsrv, &gcsRequestCountGcsMethodFinalizeUploadAtomic, gcsRequestCountGcsMethodFinalizeUploadAttrSet)
			conditionallyObserve(obsrv, &gcsRequestCountGcsMethodStatObjectAtomic, gcsRequestCountGcsMethodStatObjectAttrSet)
			conditionallyObserve(obsrv, &gcsRequestCountGcsMethodUploadChunkAtomic, gcsRequestCountGcsMethodUploadChunkAttrSet)
			return nil
		}))

	gcsRequestLatencies, err1 := meter.Int64Histogram("gcs/request_latencies",
		metric.WithDescription("The cumulative distribution of the GCS request latencies."),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(50, 100, 150, 200, 300, 400, 500, 700, 1000, 2000, 5000, 7000, 10000, 20000, 50000, 100000, 200000, 500000))

	_, err2 := meter.Int64ObservableCounter("gcs/upload_bytes_count",
		metric.WithDescription("The cumulative number of bytes acknowledged by GCS."),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			conditionallyObserve(obsrv, &gcsUploadBytesCountAtomic)
			return nil
		}))

	_, err3 := meter.Int64ObservableCounter("upload/continuation_count",
		metric.WithDescription("The cumulative number of 308 responses that required resending part of a chunk."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			conditionallyObserve(obsrv, &uploadContinuationCountAtomic)
			return nil
		}))

	_, err4 := meter.Int64ObservableCounter("upload/object_count",
		metric.WithDescription("The cumulative number of finished uploads along with their status."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			conditionallyObserve(obsrv, &uploadObjectCountStatusFailedAtomic, uploadObjectCountStatusFailedAttrSet)
			conditionallyObserve(obsrv, &uploadObjectCountStatusSucceededAtomic, uploadObjectCountStatusSucceededAttrSet)
			return nil
		}))

	errs := []error{err0, err1, err2, err3, err4}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &otelMetrics{
		ch: ch,
		wg: &wg,
		gcsRequestCountGcsMethodCreateUploadSessionAtomic: &gcsRequestCountGcsMethodCreateUploadSessionAtomic,
		gcsRequestCountGcsMethodFinalizeUploadAtomic:      &gcsRequestCountGcsMethodFinalizeUploadAtomic,
		gcsRequestCountGcsMethodStatObjectAtomic:          &gcsRequestCountGcsMethodStatObjectAtomic,
		gcsRequestCountGcsMethodUploadChunkAtomic:         &gcsRequestCountGcsMethodUploadChunkAtomic,
		gcsRequestLatencies:                               gcsRequestLatencies,
		gcsUploadBytesCountAtomic:                         &gcsUploadBytesCountAtomic,
		uploadContinuationCountAtomic:                     &uploadContinuationCountAtomic,
		uploadObjectCountStatusFailedAtomic:               &uploadObjectCountStatusFailedAtomic,
		uploadObjectCountStatusSucceededAtomic:            &uploadObjectCountStatusSucceededAtomic,
	}, nil
}

// Close stops the histogram workers after the pending records are recorded.
func (o *otelMetrics) Close() {
	close(o.ch)
	o.wg.Wait()
}

func conditionallyObserve(obsrv metric.Int64Observer, counter *atomic.Int64, obsrvOptions ...metric.ObserveOption) {
	if val := counter.Load(); val > 0 {
		obsrv.Observe(val, obsrvOptions...)
	}
}

func updateUnrecognizedAttribute(newValue string) {
	unrecognizedAttr.CompareAndSwap("", newValue)
}

// startSampledLogging starts a goroutine that logs unrecognized attributes periodically.
func startSampledLogging(ctx context.Context) {
	// Init the atomic.Value
	unrecognizedAttr.Store("")

	go func() {
		ticker := time.NewTicker(logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logUnrecognizedAttribute()
			}
		}
	}()
}

// logUnrecognizedAttribute retrieves and logs any unrecognized attributes.
func logUnrecognizedAttribute() {
	// Atomically load and reset the attribute name, then generate a log
	// if an unrecognized attribute was encountered.
	if currentAttr := unrecognizedAttr.Swap("").(string); currentAttr != "" {
		logger.Tracef("Attribute %s is not declared", currentAttr)
	}
}
