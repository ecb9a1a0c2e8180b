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
	"fmt"
	"net/url"
	"strings"
)

const uriScheme = "gs"

// ParseURI splits a gs://bucket/object URI into its bucket and object name.
// The object name is returned unescaped and may contain slashes.
func ParseURI(uri string) (bucket string, name string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		err = fmt.Errorf("url.Parse(%q): %w", uri, err)
		return
	}

	if u.Scheme != uriScheme {
		err = fmt.Errorf("unsupported scheme %q in %q, want %s://bucket/object", u.Scheme, uri, uriScheme)
		return
	}

	bucket = u.Host
	if bucket == "" {
		err = fmt.Errorf("missing bucket in %q", uri)
		return
	}

	name = strings.TrimPrefix(u.Path, "/")
	return
}

// ParseObjectURI is like ParseURI but additionally requires a non-empty
// object name that does not end with a slash.
func ParseObjectURI(uri string) (bucket string, name string, err error) {
	bucket, name, err = ParseURI(uri)
	if err != nil {
		return
	}

	if name == "" || strings.HasSuffix(name, "/") {
		err = fmt.Errorf("%q does not name an object", uri)
	}
	return
}

// ObjectURI formats bucket and name back into a gs:// URI.
func ObjectURI(bucket, name string) string {
	return fmt.Sprintf("%s://%s/%s", uriScheme, bucket, name)
}
