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

package ratelimit

import (
	"context"
	"io"
)

// ThrottledReader returns a reader over r whose throughput is bounded by
// throttle. Each Read returns at most throttle.Capacity() bytes and then
// waits, under ctx, for one token per byte returned.
func ThrottledReader(
	ctx context.Context,
	r io.Reader,
	throttle Throttle) io.Reader {
	return &throttledReader{
		ctx:      ctx,
		wrapped:  r,
		throttle: throttle,
	}
}

type throttledReader struct {
	ctx      context.Context
	wrapped  io.Reader
	throttle Throttle
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	if c := tr.throttle.Capacity(); uint64(len(p)) > c {
		p = p[:c]
	}

	n, err := tr.wrapped.Read(p)
	if n == 0 {
		return 0, err
	}
	// Tokens are paid for the bytes actually read, so a short read at the
	// end of a chunk costs only what it delivers.
	if werr := tr.throttle.Wait(tr.ctx, uint64(n)); werr != nil {
		return n, werr
	}
	return n, err
}
