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

package gcs

import (
	"time"
)

// DefaultContentType is used for objects whose creator did not supply one.
const DefaultContentType = "application/octet-stream"

// A request to create an object through a resumable upload session.
type CreateObjectRequest struct {
	// The bucket that will hold the object. This field must be set.
	Bucket string

	// The name with which to create the object. This field must be set.
	//
	// Object names must:
	//
	// *  be non-empty.
	// *  be no longer than 1024 bytes.
	// *  be valid UTF-8.
	// *  not contain the code point U+000A (line feed).
	// *  not contain the code point U+000D (carriage return).
	//
	// See here for authoritative documentation:
	//     https://cloud.google.com/storage/docs/objects#naming
	Name string

	// Optional information with which to create the object. See here for more
	// information:
	//
	//     https://cloud.google.com/storage/docs/json_api/v1/objects#resource
	//
	ContentType        string
	ContentLanguage    string
	ContentEncoding    string
	CacheControl       string
	Metadata           map[string]string
	ContentDisposition string
	StorageClass       string

	// If non-nil, the object will be created/overwritten only if the current
	// generation for the object name is equal to the given value. Zero means the
	// object does not exist.
	GenerationPrecondition *int64
}

// NewCreateObjectRequest builds a request for bucket/name with the given
// content type, falling back to DefaultContentType when it is empty.
func NewCreateObjectRequest(bucket, name, contentType string) *CreateObjectRequest {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &CreateObjectRequest{
		Bucket:      bucket,
		Name:        name,
		ContentType: contentType,
	}
}

// Object is the metadata of an object as reported by GCS once an upload has
// been finalized or when it is stat'ed.
type Object struct {
	Name            string
	Bucket          string
	ContentType     string
	ContentEncoding string
	Size            uint64
	Generation      int64
	MetaGeneration  int64
	StorageClass    string
	// CRC32C is nil when the backend did not report a checksum.
	CRC32C   *uint32
	MD5Hash  string
	Metadata map[string]string
	Updated  time.Time
}
