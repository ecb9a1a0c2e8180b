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
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// A *NotFoundError value is an error that indicates the bucket or object
// named by a request does not exist.
type NotFoundError struct {
	Err error
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("gcs.NotFoundError: %v", nfe.Err)
}

func (nfe *NotFoundError) Unwrap() error {
	return nfe.Err
}

// A *PreconditionError value is an error that indicates a precondition failed.
type PreconditionError struct {
	Err error
}

// Returns pe.Err.Error().
func (pe *PreconditionError) Error() string {
	return fmt.Sprintf("gcs.PreconditionError: %v", pe.Err)
}

func (pe *PreconditionError) Unwrap() error {
	return pe.Err
}

// A *ProtocolError value indicates that the backend answered a resumable
// upload request in a way the protocol does not allow, e.g. a 308 without a
// Range header. The upload session must not be reused after it.
type ProtocolError struct {
	Err error
}

func (pe *ProtocolError) Error() string {
	return fmt.Sprintf("gcs.ProtocolError: %v", pe.Err)
}

func (pe *ProtocolError) Unwrap() error {
	return pe.Err
}

// GetGCSError converts an error returned by the JSON API or go-sdk into a
// gcsstream specific common gcs error.
func GetGCSError(err error) error {
	if err == nil {
		return nil
	}

	// Http client error.
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			return &NotFoundError{Err: err}
		case http.StatusPreconditionFailed:
			return &PreconditionError{Err: err}
		}
	}

	// If storage object doesn't exist, go-sdk returns as ErrObjectNotExist.
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return &NotFoundError{Err: err}
	}

	return err
}
