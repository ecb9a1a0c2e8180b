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
	"fmt"
	"strconv"
	"strings"
)

const unknownTotal = -1

// contentRange returns the Content-Range header of a PUT carrying length
// bytes starting at absolute offset start. total is unknownTotal for chunks
// sent before the upload is finalized. A zero length only reports the total.
func contentRange(start, length, total int64) string {
	t := "*"
	if total != unknownTotal {
		t = strconv.FormatInt(total, 10)
	}
	if length == 0 {
		return fmt.Sprintf("bytes */%s", t)
	}
	return fmt.Sprintf("bytes %d-%d/%s", start, start+length-1, t)
}

// parsePersistedRange parses the Range header of a 308 response, which has
// the form "bytes=0-K", and returns K+1: the number of bytes persisted by
// GCS for the whole upload.
func parsePersistedRange(header string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return 0, fmt.Errorf("malformed Range header %q", header)
	}
	first, last, ok := strings.Cut(rest, "-")
	if !ok || first != "0" {
		return 0, fmt.Errorf("malformed Range header %q", header)
	}
	k, err := strconv.ParseInt(last, 10, 64)
	if err != nil || k < 0 {
		return 0, fmt.Errorf("malformed Range header %q", header)
	}
	return k + 1, nil
}
