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

package storageutil

import (
	"errors"
	"io"
	"net/url"
	"testing"

	. "github.com/jacobsa/ogletest"
	"google.golang.org/api/googleapi"
)

func TestRetry(t *testing.T) { RunTests(t) }

type retryTest struct {
}

func init() { RegisterTestSuite(&retryTest{}) }

func (t *retryTest) GoogleAPIErrors() {
	ExpectTrue(ShouldRetry(&googleapi.Error{Code: 401, Body: "Invalid Credential"}))
	ExpectTrue(ShouldRetry(&googleapi.Error{Code: 502}))
	ExpectTrue(ShouldRetry(&googleapi.Error{Code: 429, Body: "API rate limit exceeded"}))
	ExpectFalse(ShouldRetry(&googleapi.Error{Code: 400}))
	ExpectFalse(ShouldRetry(&googleapi.Error{Code: 404}))
}

func (t *retryTest) UnexpectedEOF() {
	ExpectTrue(ShouldRetry(io.ErrUnexpectedEOF))
}

func (t *retryTest) ConnectionRefused() {
	err := &url.Error{
		Op:  "Put",
		URL: "https://storage.googleapis.com",
		Err: errors.New("dial tcp: connection refused"),
	}

	ExpectTrue(ShouldRetry(err))
}

func (t *retryTest) WrappedGoogleAPIErrors() {
	ExpectTrue(ShouldRetry(&url.Error{Err: &googleapi.Error{Code: 401}}))
	ExpectFalse(ShouldRetry(&url.Error{Err: &googleapi.Error{Code: 400}}))
}

func (t *retryTest) NilError() {
	ExpectFalse(ShouldRetry(nil))
}
