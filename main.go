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

// Streams data into Google Cloud Storage objects over resumable uploads.
//
// Usage:
//
//	gcsstream [flags] gs://bucket/object < data
//	gcsstream [flags] gs://bucket/prefix/ file...
package main

import (
	"github.com/googlecloudplatform/gcsstream/cmd"
)

func main() {
	cmd.Execute()
}
