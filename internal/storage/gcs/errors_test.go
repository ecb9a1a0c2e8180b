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
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestGetGCSError(t *testing.T) {
	testCases := []struct {
		name        string
		inputErr    error
		expectedErr error
	}{
		{
			name:        "nil_error",
			inputErr:    nil,
			expectedErr: nil,
		},
		{
			name:        "googleapi.Error_NotFound",
			inputErr:    &googleapi.Error{Code: http.StatusNotFound},
			expectedErr: &NotFoundError{Err: &googleapi.Error{Code: http.StatusNotFound}},
		},
		{
			name:        "googleapi.Error_PreconditionFailed",
			inputErr:    &googleapi.Error{Code: http.StatusPreconditionFailed},
			expectedErr: &PreconditionError{Err: &googleapi.Error{Code: http.StatusPreconditionFailed}},
		},
		{
			name:        "googleapi.Error_other_code",
			inputErr:    &googleapi.Error{Code: http.StatusBadRequest},
			expectedErr: &googleapi.Error{Code: http.StatusBadRequest},
		},
		{
			name:        "wrapped_googleapi.Error_NotFound",
			inputErr:    fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound}),
			expectedErr: &NotFoundError{Err: fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})},
		},
		{
			name:        "storage.ErrObjectNotExist",
			inputErr:    storage.ErrObjectNotExist,
			expectedErr: &NotFoundError{Err: storage.ErrObjectNotExist},
		},
		{
			name:        "storage.ErrBucketNotExist",
			inputErr:    storage.ErrBucketNotExist,
			expectedErr: &NotFoundError{Err: storage.ErrBucketNotExist},
		},
		{
			name:        "generic_error",
			inputErr:    errors.New("generic error"),
			expectedErr: errors.New("generic error"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotErr := GetGCSError(tc.inputErr)

			assert.Equal(t, tc.expectedErr, gotErr)
		})
	}
}

func TestProtocolErrorUnwrap(t *testing.T) {
	cause := errors.New("range header not found in 308 response")
	err := fmt.Errorf("flush: %w", &ProtocolError{Err: cause})

	var pErr *ProtocolError
	assert.True(t, errors.As(err, &pErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "gcs.ProtocolError: range header not found in 308 response", pErr.Error())
}
