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
	"strings"

	"github.com/docker/go-units"
	"github.com/googlecloudplatform/gcsstream/internal/util"
)

// Protocol is the datatype that specifies the type of connection: http1/http2.
type Protocol string

const (
	HTTP1 Protocol = "http1"
	HTTP2 Protocol = "http2"
)

func (p *Protocol) UnmarshalText(text []byte) error {
	txtStr := string(text)
	protocol := strings.ToLower(txtStr)
	v := []string{string(HTTP1), string(HTTP2)}
	if !slices.Contains(v, protocol) {
		return fmt.Errorf("invalid protocol value: %s. It can only accept values in the list: %v", txtStr, v)
	}
	*p = Protocol(protocol)
	return nil
}

// LogSeverity represents the logging severity and can accept the following values
// "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF"
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var severityRanking = map[LogSeverity]int{
	TraceLogSeverity:   0,
	DebugLogSeverity:   1,
	InfoLogSeverity:    2,
	WarningLogSeverity: 3,
	ErrorLogSeverity:   4,
	OffLogSeverity:     5,
}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(string(text)))
	if _, ok := severityRanking[level]; !ok {
		return fmt.Errorf("invalid log severity level: %s. Must be one of [TRACE, DEBUG, INFO, WARNING, ERROR, OFF]", text)
	}
	*l = level
	return nil
}

func (l LogSeverity) Rank() int {
	if rank, ok := severityRanking[l]; ok {
		return rank
	}
	return -1
}

// ResolvedPath represents a file-path which is an absolute path.
type ResolvedPath string

func (p *ResolvedPath) UnmarshalText(text []byte) error {
	path, err := util.GetResolvedPath(string(text))
	if err != nil {
		return err
	}
	*p = ResolvedPath(path)
	return nil
}

// ByteSize is a size in bytes written with an optional binary unit suffix,
// e.g. "256KiB", "5MiB" or "5m". Plain numbers are bytes.
type ByteSize int64

func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := units.RAMInBytes(string(text))
	if err != nil {
		return fmt.Errorf("invalid byte size value: %s: %w", text, err)
	}
	*b = ByteSize(v)
	return nil
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(units.BytesSize(float64(b))), nil
}

// BufferStrategy selects how the chunk buffer of an upload is handled
// between chunks.
type BufferStrategy string

const (
	// ReuseBufferStrategy recycles a single buffer for every chunk.
	ReuseBufferStrategy BufferStrategy = "reuse"

	// AllocateBufferStrategy drops the buffer after each chunk and allocates
	// a fresh one for the next.
	AllocateBufferStrategy BufferStrategy = "allocate"
)

func (s *BufferStrategy) UnmarshalText(text []byte) error {
	txtStr := string(text)
	strategy := strings.ToLower(txtStr)
	v := []string{string(ReuseBufferStrategy), string(AllocateBufferStrategy)}
	if !slices.Contains(v, strategy) {
		return fmt.Errorf("invalid buffer-strategy value: %s. It can only accept values in the list: %v", txtStr, v)
	}
	*s = BufferStrategy(strategy)
	return nil
}
