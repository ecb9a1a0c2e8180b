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

package common

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Set with `-ldflags -X github.com/googlecloudplatform/gcsstream/common.gcsstreamVersion=1.2.3`.
// If not defined, "unknown" is reported.
var gcsstreamVersion string

func GetVersion() string {
	v := gcsstreamVersion
	if v == "" {
		v = "unknown"
	}

	return fmt.Sprintf("%s (Go version %s)", v, runtime.Version())
}

// GetUserAgent returns the User-Agent sent with every GCS request. The
// GCSSTREAM_METADATA_IMAGE_TYPE environment variable tags uploads started
// from a prebuilt image.
func GetUserAgent(appName string) string {
	imageType := os.Getenv("GCSSTREAM_METADATA_IMAGE_TYPE")
	if len(imageType) > 0 {
		userAgent := fmt.Sprintf("gcsstream/%s %s (GPN:gcsstream-%s)", GetVersion(), appName, imageType)
		return strings.Join(strings.Fields(userAgent), " ")
	} else if len(appName) > 0 {
		return fmt.Sprintf("gcsstream/%s (GPN:gcsstream-%s)", GetVersion(), appName)
	} else {
		return fmt.Sprintf("gcsstream/%s (GPN:gcsstream)", GetVersion())
	}
}
