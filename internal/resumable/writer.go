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

package resumable

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/googlecloudplatform/gcsstream/cfg"
	"github.com/googlecloudplatform/gcsstream/internal/block"
	"github.com/googlecloudplatform/gcsstream/internal/logger"
	"github.com/googlecloudplatform/gcsstream/internal/ratelimit"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	"github.com/googlecloudplatform/gcsstream/metrics"
	"github.com/googlecloudplatform/gcsstream/tracing"
	"golang.org/x/sync/semaphore"
)

// Note: a Writer is used by a single goroutine, hence no locks are taken.

// CreateWriterRequest holds the collaborators and settings of a Writer.
type CreateWriterRequest struct {
	// Client used for the chunk PUTs. Must be set.
	Client *http.Client

	// Initiator creates the upload session on the first flush. Must be set.
	Initiator SessionInitiator

	// Object to create. Bucket and Name must be set.
	Object *gcs.CreateObjectRequest

	// PreferredChunkSize is rounded up by ChunkSize. Zero selects
	// DefaultPreferredChunkSize.
	PreferredChunkSize int64

	// BufferStrategy defaults to cfg.ReuseBufferStrategy.
	BufferStrategy cfg.BufferStrategy

	// GlobalMaxBlocksSem bounds the chunk buffers alive across all writers.
	// A writer holds one unit from creation to Close. A nil value gives the
	// writer a private semaphore.
	GlobalMaxBlocksSem *semaphore.Weighted

	// Throttle, if non-nil, limits the bandwidth of chunk bodies.
	Throttle ratelimit.Throttle

	MetricHandle metrics.MetricHandle
	TraceHandle  tracing.TraceHandle
}

// Writer is a write-only sink uploading everything written to it as one GCS
// object through the resumable upload protocol. Bytes are buffered into
// chunks of a fixed size; a full chunk is only sent once more data needs
// room or Flush is called, and Close sends the last chunk together with the
// total size of the object.
//
// Any error returned by the upload is final: subsequent calls return it
// again.
type Writer struct {
	ctx       context.Context
	client    *http.Client
	initiator SessionInitiator
	req       *gcs.CreateObjectRequest

	session   *session
	blockPool *block.BlockPool
	strategy  cfg.BufferStrategy
	throttle  ratelimit.Throttle

	metricHandle metrics.MetricHandle
	traceHandle  tracing.TraceHandle

	// Object returned by GCS on finalization.
	object *gcs.Object

	// First fatal error.
	err       error
	closed    bool
	released  bool
	cancelled bool
}

// NewWriter returns a Writer for req.Object. ctx is attached to every request
// made by the writer, including the session initiation.
func NewWriter(ctx context.Context, req *CreateWriterRequest) (*Writer, error) {
	if req.Client == nil || req.Initiator == nil {
		return nil, fmt.Errorf("NewWriter: Client and Initiator must be set")
	}
	if req.Object == nil || req.Object.Bucket == "" || req.Object.Name == "" {
		return nil, fmt.Errorf("NewWriter: object bucket and name must be set")
	}

	preferred := req.PreferredChunkSize
	if preferred == 0 {
		preferred = DefaultPreferredChunkSize
	}
	chunkSize := ChunkSize(preferred)

	strategy := req.BufferStrategy
	if strategy == "" {
		strategy = cfg.ReuseBufferStrategy
	}
	if strategy != cfg.ReuseBufferStrategy && strategy != cfg.AllocateBufferStrategy {
		return nil, fmt.Errorf("NewWriter: unknown buffer strategy %q", strategy)
	}

	sem := req.GlobalMaxBlocksSem
	if sem == nil {
		sem = semaphore.NewWeighted(1)
	}
	// Only one chunk is ever open at a time.
	bp, err := block.NewBlockPool(chunkSize, 1, sem)
	if err != nil {
		return nil, fmt.Errorf("block.NewBlockPool: %w", err)
	}

	mh := req.MetricHandle
	if mh == nil {
		mh = metrics.NewNoopMetrics()
	}
	th := req.TraceHandle
	if th == nil {
		th = tracing.NewNoopTracer()
	}

	// The 308 responses of the protocol carry no Location and must never be
	// followed.
	client := *req.Client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Writer{
		ctx:          ctx,
		client:       &client,
		initiator:    req.Initiator,
		req:          req.Object,
		session:      &session{chunkSize: chunkSize},
		blockPool:    bp,
		strategy:     strategy,
		throttle:     req.Throttle,
		metricHandle: mh,
		traceHandle:  th,
	}, nil
}

// ChunkSize returns the size of the chunks sent by w.
func (w *Writer) ChunkSize() int64 {
	return w.session.chunkSize
}

// Write buffers p, sending the chunks that p fills up except the last one.
// A zero-length p is a no-op.
func (w *Writer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err = w.checkWritable(); err != nil {
		return 0, err
	}

	s := w.session
	for n < len(p) {
		if s.current == nil || s.chunkFull() {
			if err = w.openChunk(); err != nil {
				return n, w.fail(err)
			}
		}

		room := s.chunkSize - s.fill()
		toCopy := min(int64(len(p)-n), room)
		copied, err := s.current.Write(p[n : n+int(toCopy)])
		if err != nil {
			return n, w.fail(fmt.Errorf("%w: %v", ErrChunkOverflow, err))
		}
		n += copied
		s.writtenPosition += int64(copied)
		if s.fill() > s.chunkSize {
			return n, w.fail(ErrChunkOverflow)
		}
	}
	return n, nil
}

// WriteSegment writes p[offset:offset+count]. count is clamped to the bytes
// available in p after offset.
func (w *Writer) WriteSegment(p []byte, offset, count int) (int, error) {
	if offset < 0 || offset > len(p) || count < 0 {
		return 0, fmt.Errorf("WriteSegment: invalid segment offset %d, count %d for %d bytes", offset, count, len(p))
	}
	count = min(count, len(p)-offset)
	return w.Write(p[offset : offset+count])
}

// SetLength declares the expected length of the object. It never shrinks the
// length below what has been declared or written so far.
func (w *Writer) SetLength(length int64) error {
	if length < 0 {
		return fmt.Errorf("SetLength: negative length %d", length)
	}
	if err := w.checkWritable(); err != nil {
		return err
	}
	w.session.declaredLength = max(w.session.declaredLength, length)
	return nil
}

// Length returns the larger of the declared length and the bytes written.
func (w *Writer) Length() int64 {
	return w.session.length()
}

// Position returns the number of bytes written so far.
func (w *Writer) Position() int64 {
	return w.session.writtenPosition
}

// Flush sends the current chunk if it is full. A partially filled chunk
// stays buffered until it fills up or the writer is closed.
func (w *Writer) Flush() error {
	if err := w.checkWritable(); err != nil {
		return err
	}
	if !w.session.chunkFull() {
		return nil
	}
	if err := w.flushChunk(false); err != nil {
		return w.fail(err)
	}
	return nil
}

// Close sends the remaining bytes, possibly none, and finalizes the object.
// Resources are released whether or not finalization succeeds. Calling Close
// again returns the result of the first call.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	defer w.release()

	if w.err != nil {
		w.metricHandle.UploadObjectCount(1, metrics.UploadStatusFailedAttr)
		return w.err
	}

	s := w.session
	if s.declaredLength > s.writtenPosition {
		logger.Warnf("%s: declared length %d exceeds the %d bytes written, finalizing with %d bytes",
			w.objectURI(), s.declaredLength, s.writtenPosition, s.writtenPosition)
	}

	s.finalized = true
	if err := w.flushChunk(true); err != nil {
		w.metricHandle.UploadObjectCount(1, metrics.UploadStatusFailedAttr)
		return w.fail(err)
	}

	w.metricHandle.UploadObjectCount(1, metrics.UploadStatusSucceededAttr)
	logger.Infof("%s: upload finalized with %d bytes", w.objectURI(), s.confirmedOffset)
	return nil
}

// Abort releases the resources of w without finalizing the object. If the
// session was already created it is cancelled, also after a failed Close.
// Aborting a successfully closed writer does nothing. The writer is unusable
// afterwards.
func (w *Writer) Abort() error {
	if !w.closed {
		w.closed = true
		defer w.release()

		if w.err == nil {
			w.err = ErrAborted
		}
		w.metricHandle.UploadObjectCount(1, metrics.UploadStatusFailedAttr)
	} else if w.err == nil {
		return nil
	}

	if w.session.endpoint == "" || w.cancelled {
		return nil
	}
	w.cancelled = true
	return w.cancelSession()
}

// Object returns the object created by a successful Close, nil otherwise.
func (w *Writer) Object() *gcs.Object {
	return w.object
}

// Read always fails: the writer is write-only.
func (w *Writer) Read([]byte) (int, error) {
	return 0, ErrUnsupportedOperation
}

// Seek always fails: the writer is not seekable.
func (w *Writer) Seek(int64, int) (int64, error) {
	return 0, ErrUnsupportedOperation
}

// SetPosition always fails: the writer is not seekable.
func (w *Writer) SetPosition(int64) error {
	return ErrUnsupportedOperation
}

func (w *Writer) checkWritable() error {
	if w.err != nil {
		return w.err
	}
	if w.closed || w.session.finalized {
		return ErrClosed
	}
	return nil
}

// fail records err as the first fatal error of w and returns it.
func (w *Writer) fail(err error) error {
	if w.err == nil {
		w.err = err
		logger.Errorf("%s: upload failed: %v", w.objectURI(), err)
	}
	return w.err
}

// openChunk sends the current chunk, which must be full, if any and makes a
// fresh one current.
func (w *Writer) openChunk() error {
	if w.session.current != nil {
		if err := w.flushChunk(false); err != nil {
			return err
		}
	}

	b, err := w.blockPool.Get()
	if err != nil {
		return fmt.Errorf("failed to get new block: %w", err)
	}
	w.session.current = b
	return nil
}

// releaseChunk gives the current chunk back according to the buffer
// strategy.
func (w *Writer) releaseChunk() error {
	s := w.session
	if s.current == nil {
		return nil
	}
	b := s.current
	s.current = nil

	if w.strategy == cfg.AllocateBufferStrategy {
		return w.blockPool.Deallocate(b)
	}
	w.blockPool.Release(b)
	return nil
}

func (w *Writer) release() {
	if w.released {
		return
	}
	w.released = true

	if err := w.releaseChunk(); err != nil {
		logger.Warnf("%s: releasing chunk buffer: %v", w.objectURI(), err)
	}
	if err := w.blockPool.ClearFreeBlockChannel(true); err != nil {
		logger.Warnf("%s: clearing block pool: %v", w.objectURI(), err)
	}
}

func (w *Writer) objectURI() string {
	return gcs.ObjectURI(w.req.Bucket, w.req.Name)
}

var _ io.WriteCloser = &Writer{}
