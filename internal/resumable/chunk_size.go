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
	"errors"

	"google.golang.org/api/googleapi"
)

// DefaultPreferredChunkSize is the chunk size used when the caller does not
// ask for one.
const DefaultPreferredChunkSize = 5 * 1024 * 1024

var (
	// ErrUnsupportedOperation is returned by Read, Seek and SetPosition.
	ErrUnsupportedOperation = errors.New("operation not supported on a write-only upload")

	// ErrChunkOverflow means more bytes were put into a chunk than it can hold.
	ErrChunkOverflow = errors.New("chunk fill exceeds the chunk size")

	// ErrEmptyNonFinalChunk means an empty chunk was about to be sent without
	// finalizing the upload.
	ErrEmptyNonFinalChunk = errors.New("empty chunk can only be sent when finalizing")

	// ErrClosed is returned when writing to an upload that has been finalized.
	ErrClosed = errors.New("upload already finalized")

	// ErrAborted poisons a writer after Abort.
	ErrAborted = errors.New("upload aborted")
)

// ChunkSize returns the chunk size used for a preferred size: the smallest
// multiple of googleapi.MinUploadChunkSize that is not below preferred, and
// never less than googleapi.MinUploadChunkSize itself.
func ChunkSize(preferred int64) int64 {
	unit := int64(googleapi.MinUploadChunkSize)
	if preferred <= unit {
		return unit
	}
	return (preferred + unit - 1) / unit * unit
}
