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

package cfg

const (
	// Logging-level constants

	TRACE   string = "TRACE"
	DEBUG   string = "DEBUG"
	INFO    string = "INFO"
	WARNING string = "WARNING"
	ERROR   string = "ERROR"
	OFF     string = "OFF"
)

const (
	// Log formats.

	TextLogFormat = "text"
	JSONLogFormat = "json"
)

const (
	// Trace exporters.

	StdoutTraceExporter = "stdout"
	GCPTraceExporter    = "gcptrace"
)

const (
	// MaxGzipLevel is the highest accepted value of gzip-level.
	MaxGzipLevel = 9

	// UnlimitedBandwidth disables the bandwidth limit of chunk transfers.
	UnlimitedBandwidth = -1
)

const (
	MaxBufferedChunksConfigKey  = "upload.max-buffered-chunks"
	MaxParallelUploadsConfigKey = "upload.max-parallel-uploads"
	ContentTypeConfigKey        = "upload.content-type"
)
