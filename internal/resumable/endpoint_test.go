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
	"strconv"
	"strings"
	"sync"

	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
	"github.com/stretchr/testify/mock"
)

type mockInitiator struct {
	mock.Mock
}

func (m *mockInitiator) InitiateUploadSession(ctx context.Context, req *gcs.CreateObjectRequest, chunkSize int64) (string, error) {
	args := m.Called(ctx, req, chunkSize)
	return args.String(0), args.Error(1)
}

// recordedPut is a PUT received by scriptedEndpoint.
type recordedPut struct {
	contentRange string
	contentType  string
	body         []byte
}

// scriptedEndpoint plays the upload URI of a resumable session. By default
// it persists every byte it receives, answers 308 with the persisted range
// for open-ended chunks and 200 with the object resource once the declared
// total is reached. The maps, keyed by the 0-based index of the PUT, script
// other answers.
type scriptedEndpoint struct {
	mu sync.Mutex

	bucket, name string

	puts      []recordedPut
	deletes   int
	persisted []byte

	// PUT i persists only the first acceptLimit[i] bytes of its body.
	acceptLimit map[int]int
	// PUT i is answered with failStatus[i] without persisting anything.
	failStatus map[int]int
	// PUT i is answered with a 308 carrying rangeOverride[i] as Range header;
	// an empty value omits the header.
	rangeOverride map[int]string
}

func newScriptedEndpoint(bucket, name string) *scriptedEndpoint {
	return &scriptedEndpoint{
		bucket:        bucket,
		name:          name,
		acceptLimit:   map[int]int{},
		failStatus:    map[int]int{},
		rangeOverride: map[int]string{},
	}
}

// parseContentRange returns the start offset and the total of a
// Content-Range header. start is -1 for "bytes */total" and total is -1 for
// an open-ended range.
func parseContentRange(h string) (start, total int64, err error) {
	rest, ok := strings.CutPrefix(h, "bytes ")
	if !ok {
		return 0, 0, fmt.Errorf("bad Content-Range %q", h)
	}
	rng, tot, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, 0, fmt.Errorf("bad Content-Range %q", h)
	}
	total = -1
	if tot != "*" {
		if total, err = strconv.ParseInt(tot, 10, 64); err != nil {
			return 0, 0, err
		}
	}
	if rng == "*" {
		return -1, total, nil
	}
	first, _, ok := strings.Cut(rng, "-")
	if !ok {
		return 0, 0, fmt.Errorf("bad Content-Range %q", h)
	}
	start, err = strconv.ParseInt(first, 10, 64)
	return start, total, err
}

func (e *scriptedEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.Method == http.MethodDelete {
		e.deletes++
		w.WriteHeader(statusClientClosedRequest)
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		return
	}

	body, _ := io.ReadAll(r.Body)
	cr := r.Header.Get("Content-Range")
	i := len(e.puts)
	e.puts = append(e.puts, recordedPut{contentRange: cr, contentType: r.Header.Get("Content-Type"), body: body})

	if status, ok := e.failStatus[i]; ok {
		http.Error(w, "scripted failure", status)
		return
	}
	start, total, err := parseContentRange(cr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if start >= 0 && start != int64(len(e.persisted)) {
		http.Error(w, fmt.Sprintf("expected offset %d, got %d", len(e.persisted), start), http.StatusBadRequest)
		return
	}

	accepted := body
	if limit, ok := e.acceptLimit[i]; ok && limit < len(body) {
		accepted = body[:limit]
	}
	e.persisted = append(e.persisted, accepted...)

	if rng, ok := e.rangeOverride[i]; ok {
		if rng != "" {
			w.Header().Set("Range", rng)
		}
		w.WriteHeader(http.StatusPermanentRedirect)
		return
	}
	if total >= 0 && int64(len(e.persisted)) == total {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"bucket":%q,"name":%q,"size":"%d","generation":"1700000000000000","contentType":"text/plain"}`, e.bucket, e.name, total)
		return
	}
	if len(e.persisted) > 0 {
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", len(e.persisted)-1))
	}
	w.WriteHeader(http.StatusPermanentRedirect)
}

func (e *scriptedEndpoint) contentRanges() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ranges []string
	for _, p := range e.puts {
		ranges = append(ranges, p.contentRange)
	}
	return ranges
}

func (e *scriptedEndpoint) contentTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var types []string
	for _, p := range e.puts {
		types = append(types, p.contentType)
	}
	return types
}

func (e *scriptedEndpoint) deleteCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deletes
}

// idleCountingTransport counts the calls to CloseIdleConnections made
// through an http.Client using it.
type idleCountingTransport struct {
	http.RoundTripper
	mu         sync.Mutex
	idleClosed int
}

func (t *idleCountingTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.idleClosed++
}

func (t *idleCountingTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idleClosed
}

func (e *scriptedEndpoint) putCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.puts)
}

func (e *scriptedEndpoint) received() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.persisted...)
}

// pattern returns n bytes that differ from their neighbours so that offset
// mistakes show up in comparisons.
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}
