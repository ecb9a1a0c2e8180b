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

import (
	"fmt"
	"slices"
)

const (
	ChunkSizeInvalidValueError          = "the value of chunk-size must be positive"
	MaxBufferedChunksInvalidValueError  = "the value of max-buffered-chunks must be at least 1"
	MaxParallelUploadsInvalidValueError = "the value of max-parallel-uploads must be between 1 and max-buffered-chunks"
	GzipLevelInvalidValueError          = "the value of gzip-level must be between 0 and 9"
	LimitBytesPerSecInvalidValueError   = "the value of limit-bytes-per-sec must be -1 or positive"
	SamplingRatioInvalidValueError      = "the value of tracing sampling-ratio must be between 0 and 1"
	TraceExporterInvalidValueError      = "the value of tracing exporter must be stdout or gcptrace"
)

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return fmt.Errorf("max-file-size-mb should be atleast 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidLogFormat(format string) error {
	if !slices.Contains([]string{TextLogFormat, JSONLogFormat}, format) {
		return fmt.Errorf("invalid log format: %s", format)
	}
	return nil
}

func isValidURL(u string) error {
	_, err := decodeURL(u)
	return err
}

func isValidUploadConfig(c *UploadConfig) error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf(ChunkSizeInvalidValueError)
	}
	if c.MaxBufferedChunks < 1 {
		return fmt.Errorf(MaxBufferedChunksInvalidValueError)
	}
	if c.MaxParallelUploads < 1 || c.MaxParallelUploads > c.MaxBufferedChunks {
		return fmt.Errorf(MaxParallelUploadsInvalidValueError)
	}
	if c.GzipLevel < 0 || c.GzipLevel > MaxGzipLevel {
		return fmt.Errorf(GzipLevelInvalidValueError)
	}
	if c.LimitBytesPerSec != UnlimitedBandwidth && c.LimitBytesPerSec <= 0 {
		return fmt.Errorf(LimitBytesPerSecInvalidValueError)
	}
	return nil
}

func isValidTracingConfig(c *TracingConfig) error {
	if c.SamplingRatio < 0 || c.SamplingRatio > 1 {
		return fmt.Errorf(SamplingRatioInvalidValueError)
	}
	if !slices.Contains([]string{StdoutTraceExporter, GCPTraceExporter}, c.Exporter) {
		return fmt.Errorf(TraceExporterInvalidValueError)
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	var err error

	if err = isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}

	if err = isValidLogFormat(config.Logging.Format); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}

	if err = isValidURL(config.GcsConnection.CustomEndpoint); err != nil {
		return fmt.Errorf("error parsing custom-endpoint config: %w", err)
	}

	if err = isValidUploadConfig(&config.Upload); err != nil {
		return fmt.Errorf("error parsing upload config: %w", err)
	}

	if err = isValidTracingConfig(&config.Tracing); err != nil {
		return fmt.Errorf("error parsing tracing config: %w", err)
	}

	return nil
}
