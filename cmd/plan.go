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

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/googlecloudplatform/gcsstream/internal/storage/gcs"
)

// stdinSource names standard input in the source list.
const stdinSource = "-"

// uploadJob is one source stream and the object it is uploaded to.
type uploadJob struct {
	source string
	bucket string
	name   string
}

func (j uploadJob) objectURI() string {
	return gcs.ObjectURI(j.bucket, j.name)
}

// planUploads maps the command line arguments to the uploads to run.
//
// Standard input (no source, or "-") goes to the object named by
// destination. A single file goes to destination when it names an object,
// and every other source is uploaded as prefix + base name where
// destination is gs://bucket/ or gs://bucket/prefix/.
func planUploads(destination string, sources []string) ([]uploadJob, error) {
	if len(sources) == 0 || (len(sources) == 1 && sources[0] == stdinSource) {
		bucket, name, err := gcs.ParseObjectURI(destination)
		if err != nil {
			return nil, fmt.Errorf("standard input needs an object destination: %w", err)
		}
		return []uploadJob{{source: stdinSource, bucket: bucket, name: name}}, nil
	}

	bucket, prefix, err := gcs.ParseURI(destination)
	if err != nil {
		return nil, err
	}

	if len(sources) == 1 && prefix != "" && !strings.HasSuffix(prefix, "/") {
		return []uploadJob{{source: sources[0], bucket: bucket, name: prefix}}, nil
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		return nil, fmt.Errorf("%q must be a bucket or end with \"/\" when uploading %d files", destination, len(sources))
	}

	jobs := make([]uploadJob, 0, len(sources))
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if src == stdinSource {
			return nil, fmt.Errorf("standard input cannot be combined with other sources")
		}
		base := filepath.Base(src)
		if base == "." || base == string(filepath.Separator) {
			return nil, fmt.Errorf("%q does not name a file", src)
		}
		name := prefix + base
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("%q and %q would both be uploaded to %s", other, src, gcs.ObjectURI(bucket, name))
		}
		seen[name] = src
		jobs = append(jobs, uploadJob{source: src, bucket: bucket, name: name})
	}
	return jobs, nil
}
