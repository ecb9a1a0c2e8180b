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

	"github.com/googlecloudplatform/gcsstream/internal/block"
	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
)

// SessionInitiator creates the resumable upload session of an object and
// returns the URI all the chunks are PUT to.
type SessionInitiator interface {
	InitiateUploadSession(ctx context.Context, req *gcs.CreateObjectRequest, chunkSize int64) (string, error)
}

// session is the state of one upload. It is owned by a single Writer.
type session struct {
	// Fixed for the lifetime of the session.
	chunkSize int64

	// Upload URI, empty until the first chunk is sent.
	endpoint string

	// Bytes accepted from the caller.
	writtenPosition int64

	// Largest length declared through SetLength.
	declaredLength int64

	// Bytes acknowledged by GCS. Only advances once a whole chunk is confirmed.
	confirmedOffset int64

	// Chunk being filled, nil when none is open.
	current block.Block

	finalized bool
}

func (s *session) fill() int64 {
	if s.current == nil {
		return 0
	}
	return s.current.Size()
}

func (s *session) chunkFull() bool {
	return s.current != nil && s.current.Size() == s.chunkSize
}

func (s *session) length() int64 {
	return max(s.declaredLength, s.writtenPosition)
}
