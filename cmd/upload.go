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

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/googlecloudplatform/gcsstream/common"
	"github.com/googlecloudplatform/gcsstream/internal/logger"
	"github.com/googlecloudplatform/gcsstream/internal/monitor"
	"github.com/googlecloudplatform/gcsstream/internal/ratelimit"
	"github.com/googlecloudplatform/gcsstream/internal/resumable"
	"github.com/googlecloudplatform/gcsstream/internal/storage"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	"github.com/googlecloudplatform/gcsstream/internal/storage/storageutil"
	"github.com/googlecloudplatform/gcsstream/internal/util"
	"github.com/googlecloudplatform/gcsstream/metrics"
	"github.com/googlecloudplatform/gcsstream/tracing"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"google.golang.org/api/option"
)

const (
	// Bytes of each source inspected by the content type detection.
	sniffLen = 3072

	histogramWorkers    = 3
	histogramBufferSize = 256

	// The bandwidth limit holds over windows of this length.
	throttleWindow = 30 * time.Second

	shutdownTimeout = 10 * time.Second
)

// stdin is the stream uploaded for the "-" source.
var stdin io.Reader = os.Stdin

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// uploader runs upload jobs with the collaborators shared by all of them.
type uploader struct {
	config        *cfg.Config
	client        *http.Client
	initiator     resumable.SessionInitiator
	storageHandle storage.StorageHandle
	sem           *semaphore.Weighted
	throttle      ratelimit.Throttle
	metricHandle  metrics.MetricHandle
	traceHandle   tracing.TraceHandle
}

func runUploads(c *cfg.Config, destination string, sources []string) (err error) {
	if err = logger.InitLogFile(c.Logging); err != nil {
		return fmt.Errorf("init log file: %w", err)
	}
	defer logger.Close()
	logger.Infof("Start gcsstream/%s for %s", common.GetVersion(), destination)
	if cfgStr, err := util.YAMLStringify(c); err == nil {
		logger.Debugf("gcsstream config: %s", cfgStr)
	}

	jobs, err := planUploads(destination, sources)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricHandle := metrics.NewNoopMetrics()
	var shutdownFns []common.ShutdownFn
	if c.Metrics.PrometheusPort > 0 || c.Metrics.CloudMetricsExportIntervalSecs > 0 {
		shutdownFns = append(shutdownFns, monitor.SetupOTelMetricExporters(ctx, c))
		mh, err := metrics.NewOTelMetrics(ctx, histogramWorkers, histogramBufferSize)
		if err != nil {
			return fmt.Errorf("create metric handle: %w", err)
		}
		defer mh.Close()
		metricHandle = mh
	}
	shutdownFns = append(shutdownFns, monitor.SetupTracing(ctx, c))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := common.JoinShutdownFunc(shutdownFns...)(shutdownCtx); err != nil {
			logger.Warnf("Telemetry shutdown: %v", err)
		}
	}()

	u, err := newUploader(ctx, c, metricHandle, tracing.NewTraceHandle(c.Tracing.Enabled))
	if err != nil {
		return err
	}
	defer u.close()

	return u.uploadAll(ctx, jobs)
}

func newUploader(ctx context.Context, c *cfg.Config, mh metrics.MetricHandle, th tracing.TraceHandle) (*uploader, error) {
	var customEndpoint *url.URL
	if c.GcsConnection.CustomEndpoint != "" {
		var err error
		if customEndpoint, err = url.Parse(c.GcsConnection.CustomEndpoint); err != nil {
			return nil, fmt.Errorf("parse custom endpoint: %w", err)
		}
	}

	client, err := storageutil.CreateHttpClient(&storageutil.StorageClientConfig{
		ClientProtocol:      c.GcsConnection.ClientProtocol,
		UserAgent:           common.GetUserAgent(c.AppName),
		CustomEndpoint:      customEndpoint,
		KeyFile:             string(c.GcsAuth.KeyFile),
		TokenUrl:            c.GcsAuth.TokenUrl,
		ReuseTokenFromUrl:   c.GcsAuth.ReuseTokenFromUrl,
		AnonymousAccess:     c.GcsAuth.AnonymousAccess,
		MaxRetrySleep:       c.GcsConnection.MaxRetrySleep,
		RetryMultiplier:     c.GcsConnection.RetryMultiplier,
		MaxConnsPerHost:     int(c.GcsConnection.MaxConnsPerHost),
		MaxIdleConnsPerHost: int(c.GcsConnection.MaxIdleConnsPerHost),
		HttpClientTimeout:   c.GcsConnection.HttpClientTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	endpoint := storage.ProdEndpoint
	if customEndpoint != nil {
		endpoint = customEndpoint.String()
	}
	initiator, err := storage.NewSessionInitiator(client, endpoint, c.GcsConnection.BillingProject)
	if err != nil {
		return nil, fmt.Errorf("create session initiator: %w", err)
	}

	u := &uploader{
		config:       c,
		client:       client,
		initiator:    initiator,
		sem:          semaphore.NewWeighted(c.Upload.MaxBufferedChunks),
		metricHandle: mh,
		traceHandle:  th,
	}

	if c.Upload.LimitBytesPerSec > 0 {
		capacity, err := ratelimit.ChooseLimiterCapacity(c.Upload.LimitBytesPerSec, throttleWindow)
		if err != nil {
			return nil, fmt.Errorf("choose limiter capacity: %w", err)
		}
		u.throttle = ratelimit.NewThrottle(c.Upload.LimitBytesPerSec, capacity)
	}

	if c.Upload.Verify {
		opts := []option.ClientOption{option.WithHTTPClient(client)}
		if customEndpoint != nil {
			opts = append(opts, option.WithEndpoint(customEndpoint.JoinPath("storage", "v1").String()+"/"))
		}
		u.storageHandle, err = storage.NewStorageHandle(ctx, storage.StorageClientConfig{
			MaxRetrySleep:   c.GcsConnection.MaxRetrySleep,
			RetryMultiplier: c.GcsConnection.RetryMultiplier,
			BillingProject:  c.GcsConnection.BillingProject,
			ClientOptions:   opts,
		})
		if err != nil {
			return nil, fmt.Errorf("create storage handle: %w", err)
		}
	}
	return u, nil
}

func (u *uploader) close() {
	if u.storageHandle != nil {
		if err := u.storageHandle.Close(); err != nil {
			logger.Warnf("Closing storage handle: %v", err)
		}
	}
	u.client.CloseIdleConnections()
}

// uploadAll runs jobs with at most max-parallel-uploads in flight. The first
// failure cancels the uploads still running.
func (u *uploader) uploadAll(ctx context.Context, jobs []uploadJob) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(int(u.config.Upload.MaxParallelUploads))
	for _, job := range jobs {
		g.Go(func() error {
			return u.upload(ctx, job)
		})
	}
	return g.Wait()
}

func (u *uploader) upload(ctx context.Context, job uploadJob) (err error) {
	id := uuid.NewString()
	start := time.Now()

	src, err := openSource(job.source)
	if err != nil {
		return err
	}
	defer src.Close()

	r := bufio.NewReaderSize(src, sniffLen)
	contentType := u.config.Upload.ContentType
	if contentType == "" {
		if contentType, err = detectContentType(r); err != nil {
			return fmt.Errorf("read %s: %w", job.source, err)
		}
	}

	req := gcs.NewCreateObjectRequest(job.bucket, job.name, contentType)
	if u.config.Upload.GzipLevel > 0 {
		req.ContentEncoding = "gzip"
	}

	w, err := resumable.NewWriter(ctx, &resumable.CreateWriterRequest{
		Client:             u.client,
		Initiator:          u.initiator,
		Object:             req,
		PreferredChunkSize: int64(u.config.Upload.ChunkSize),
		BufferStrategy:     u.config.Upload.BufferStrategy,
		GlobalMaxBlocksSem: u.sem,
		Throttle:           u.throttle,
		MetricHandle:       u.metricHandle,
		TraceHandle:        u.traceHandle,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", job.objectURI(), err)
	}
	logger.Infof("Upload %s: %s to %s, content type %s, chunk size %d", id, job.source, job.objectURI(), contentType, w.ChunkSize())

	crc := crc32.New(crc32cTable)
	if _, err = copyStream(io.MultiWriter(w, crc), r, int(u.config.Upload.GzipLevel)); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			logger.Warnf("Upload %s: cancelling session: %v", id, abortErr)
		}
		return fmt.Errorf("upload %s to %s: %w", job.source, job.objectURI(), err)
	}
	if err = w.Close(); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			logger.Warnf("Upload %s: cancelling session: %v", id, abortErr)
		}
		return fmt.Errorf("upload %s to %s: %w", job.source, job.objectURI(), err)
	}

	o := w.Object()
	logger.Infof("Upload %s: finalized %s generation %d, %d bytes in %v", id, job.objectURI(), o.Generation, w.Position(), time.Since(start).Round(time.Millisecond))

	if u.storageHandle != nil {
		if err = u.verify(ctx, job, w.Position(), crc.Sum32()); err != nil {
			return fmt.Errorf("upload %s: %w", id, err)
		}
	}
	return nil
}

// verify stats the uploaded object and compares it with what was sent.
func (u *uploader) verify(ctx context.Context, job uploadJob, size int64, crc uint32) (err error) {
	ctx, span := u.traceHandle.StartClientSpan(ctx, tracing.StatObject)
	defer u.traceHandle.EndSpan(span)
	start := time.Now()
	defer func() {
		u.metricHandle.GcsRequestCount(1, metrics.GcsMethodStatObjectAttr)
		u.metricHandle.GcsRequestLatencies(ctx, time.Since(start), metrics.GcsMethodStatObjectAttr)
		if err != nil {
			u.traceHandle.RecordError(span, err)
		}
	}()

	o, err := u.storageHandle.StatObject(ctx, job.bucket, job.name)
	if err != nil {
		return fmt.Errorf("verify %s: %w", job.objectURI(), err)
	}
	if o.Size != uint64(size) {
		return fmt.Errorf("verify %s: object has %d bytes, uploaded %d", job.objectURI(), o.Size, size)
	}
	// A zero checksum is what the client reports when the backend sent none.
	if o.CRC32C != nil && *o.CRC32C != 0 && *o.CRC32C != crc {
		return fmt.Errorf("verify %s: object crc32c %08x, uploaded %08x", job.objectURI(), *o.CRC32C, crc)
	}
	logger.Debugf("Verified %s: %d bytes, crc32c %08x", job.objectURI(), size, crc)
	return nil
}

func openSource(source string) (io.ReadCloser, error) {
	if source == stdinSource {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return f, nil
}

// detectContentType sniffs the type from the start of r without consuming
// any byte.
func detectContentType(r *bufio.Reader) (string, error) {
	head, err := r.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return mimetype.Detect(head).String(), nil
}

// copyStream copies r into w, gzip-compressed when gzipLevel is positive,
// and returns the number of bytes read from r.
func copyStream(w io.Writer, r io.Reader, gzipLevel int) (int64, error) {
	if gzipLevel <= 0 {
		return io.Copy(w, r)
	}
	gz, err := gzip.NewWriterLevel(w, gzipLevel)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(gz, r)
	if err != nil {
		return n, err
	}
	return n, gz.Close()
}
