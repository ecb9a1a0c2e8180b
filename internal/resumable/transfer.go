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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/googlecloudplatform/gcsstream/internal/logger"
	"github.com/googlecloudplatform/gcsstream/internal/ratelimit"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	"github.com/googlecloudplatform/gcsstream/internal/storage/storageutil"
	"github.com/googlecloudplatform/gcsstream/metrics"
	"github.com/googlecloudplatform/gcsstream/tracing"
	"google.golang.org/api/googleapi"
	storagev1 "google.golang.org/api/storage/v1"
)

// maxContinuationsWithoutProgress bounds the consecutive 308 responses that
// do not move the persisted offset forward.
const maxContinuationsWithoutProgress = 10

// statusClientClosedRequest is returned by GCS for a cancelled session.
const statusClientClosedRequest = 499

const cancelSessionTimeout = 30 * time.Second

// chunkResponse is the outcome of one PUT.
type chunkResponse struct {
	// done is set for 200 and 201.
	done bool

	// persisted is the number of bytes of the upload persisted by GCS, as
	// reported by a 308 response.
	persisted int64

	// object is decoded from the body of a finalizing 200 or 201.
	object *gcs.Object
}

// flushChunk sends the current chunk, acquiring the session endpoint first if
// needed. When final is set the total size of the object is sent along and
// the chunk may be partially filled or empty; otherwise it must hold at least
// one byte. On success the confirmed offset advances by the chunk length and
// the chunk is released. On failure the confirmed offset is unchanged.
func (w *Writer) flushChunk(final bool) (err error) {
	s := w.session
	n := s.fill()
	if n > s.chunkSize {
		return ErrChunkOverflow
	}
	if n == 0 && !final {
		return ErrEmptyNonFinalChunk
	}
	var data []byte
	if s.current != nil {
		data = s.current.Bytes()[:n]
	}

	base := s.confirmedOffset
	total := int64(unknownTotal)
	if final {
		total = base + n
	}

	ctx, span := w.traceHandle.StartSpan(w.ctx, tracing.FlushChunk)
	w.traceHandle.SetChunkAttributes(span, base, n, final)
	defer func() {
		w.traceHandle.RecordError(span, err)
		w.traceHandle.EndSpan(span)
	}()

	if err = w.ensureEndpoint(ctx); err != nil {
		return err
	}

	var cursor int64
	stalled := 0
	for {
		var resp *chunkResponse
		resp, err = w.putChunk(ctx, data, base, cursor, total)
		if err != nil {
			return err
		}
		if resp.done {
			if final {
				w.object = resp.object
			}
			break
		}

		// 308: continue from the first byte GCS has not persisted.
		if resp.persisted < base || resp.persisted > base+n {
			return &gcs.ProtocolError{Err: fmt.Errorf("persisted offset %d outside of the chunk [%d, %d]", resp.persisted, base, base+n)}
		}
		next := resp.persisted - base
		if next > cursor {
			stalled = 0
		} else {
			stalled++
			if stalled > maxContinuationsWithoutProgress {
				return &gcs.ProtocolError{Err: fmt.Errorf("no progress after %d continuations at offset %d", stalled, resp.persisted)}
			}
		}
		if next < n {
			w.metricHandle.UploadContinuationCount(1)
			logger.Debugf("%s: GCS persisted %d bytes, resending from offset %d", w.objectURI(), resp.persisted, resp.persisted)
		}
		cursor = next
		if cursor == n && !final {
			break
		}
	}

	s.confirmedOffset += n
	w.metricHandle.GcsUploadBytesCount(n)
	logger.Tracef("%s: chunk [%d, %d) confirmed", w.objectURI(), base, base+n)
	return w.releaseChunk()
}

// ensureEndpoint initiates the upload session unless it already exists.
func (w *Writer) ensureEndpoint(ctx context.Context) (err error) {
	s := w.session
	if s.endpoint != "" {
		return nil
	}

	ctx, span := w.traceHandle.StartClientSpan(ctx, tracing.CreateUploadSession)
	defer func() {
		w.traceHandle.RecordError(span, err)
		w.traceHandle.EndSpan(span)
	}()

	start := time.Now()
	endpoint, err := w.initiator.InitiateUploadSession(ctx, w.req, s.chunkSize)
	w.metricHandle.GcsRequestCount(1, metrics.GcsMethodCreateUploadSessionAttr)
	w.metricHandle.GcsRequestLatencies(ctx, time.Since(start), metrics.GcsMethodCreateUploadSessionAttr)
	if err != nil {
		return fmt.Errorf("InitiateUploadSession: %w", err)
	}
	if endpoint == "" {
		return &gcs.ProtocolError{Err: errors.New("empty upload session URI")}
	}

	s.endpoint = endpoint
	logger.Debugf("%s: upload session created", w.objectURI())
	return nil
}

// putChunk sends data[cursor:], which starts at absolute offset base+cursor.
func (w *Writer) putChunk(ctx context.Context, data []byte, base, cursor, total int64) (cr *chunkResponse, err error) {
	final := total != unknownTotal
	method := metrics.GcsMethodUploadChunkAttr
	spanName := tracing.UploadChunk
	if final {
		method = metrics.GcsMethodFinalizeUploadAttr
		spanName = tracing.FinalizeUpload
	}

	start := base + cursor
	length := int64(len(data)) - cursor

	ctx, span := w.traceHandle.StartClientSpan(ctx, spanName)
	w.traceHandle.SetChunkAttributes(span, start, length, final)
	defer func() {
		w.traceHandle.RecordError(span, err)
		w.traceHandle.EndSpan(span)
	}()

	var body io.Reader = bytes.NewReader(data[cursor:])
	if w.throttle != nil {
		body = ratelimit.ThrottledReader(ctx, body, w.throttle)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, w.session.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	httpReq.ContentLength = length
	if length == 0 {
		httpReq.Body = http.NoBody
	}
	httpReq.Header.Set("Content-Range", contentRange(start, length, total))
	if w.req.ContentType != "" {
		httpReq.Header.Set("Content-Type", w.req.ContentType)
	}

	logger.Tracef("%s: PUT %s", w.objectURI(), httpReq.Header.Get("Content-Range"))
	reqStart := time.Now()
	resp, err := w.client.Do(httpReq)
	w.metricHandle.GcsRequestCount(1, method)
	w.metricHandle.GcsRequestLatencies(ctx, time.Since(reqStart), method)
	if err != nil {
		return nil, fmt.Errorf("uploading chunk at offset %d: %w", start, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		cr = &chunkResponse{done: true}
		if final {
			cr.object = w.decodeObject(resp.Body, total)
		}
	case http.StatusPermanentRedirect:
		rangeHeader := resp.Header.Get("Range")
		if rangeHeader == "" {
			return nil, &gcs.ProtocolError{Err: fmt.Errorf("308 response without Range header for chunk at offset %d", start)}
		}
		persisted, err := parsePersistedRange(rangeHeader)
		if err != nil {
			return nil, &gcs.ProtocolError{Err: err}
		}
		cr = &chunkResponse{persisted: persisted}
	default:
		err = googleapi.CheckResponse(resp)
		if err == nil {
			err = &googleapi.Error{Code: resp.StatusCode, Message: fmt.Sprintf("unexpected status %q", resp.Status)}
		}
		return nil, fmt.Errorf("uploading chunk at offset %d: %w", start, gcs.GetGCSError(err))
	}

	// Drain the body so that the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return cr, nil
}

// decodeObject parses the object resource returned on finalization. The
// upload has succeeded at that point, so a body that cannot be decoded only
// loses the metadata.
func (w *Writer) decodeObject(r io.Reader, size int64) *gcs.Object {
	fallback := &gcs.Object{Bucket: w.req.Bucket, Name: w.req.Name, ContentType: w.req.ContentType, Size: uint64(size)}

	var resource storagev1.Object
	if err := json.NewDecoder(r).Decode(&resource); err != nil {
		logger.Warnf("%s: decoding finalized object: %v", w.objectURI(), err)
		return fallback
	}
	o, err := storageutil.ObjectResourceToObject(&resource)
	if err != nil {
		logger.Warnf("%s: converting finalized object: %v", w.objectURI(), err)
		return fallback
	}
	return o
}

// cancelSession deletes the upload session. GCS answers 499 once the session
// is gone. The request is sent even if the writer's context is already
// cancelled, which is the usual reason for aborting.
func (w *Writer) cancelSession() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), cancelSessionTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, w.session.endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("http.NewRequest: %w", err)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cancelling upload session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == statusClientClosedRequest {
		logger.Debugf("%s: upload session cancelled", w.objectURI())
		return nil
	}
	if err = googleapi.CheckResponse(resp); err != nil {
		return fmt.Errorf("cancelling upload session: %w", gcs.GetGCSError(err))
	}
	return nil
}
