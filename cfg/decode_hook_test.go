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
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, input map[string]any) (*Config, error) {
	t.Helper()
	var c Config
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &c,
		TagName:    "yaml",
	})
	require.NoError(t, err)
	return &c, d.Decode(input)
}

func TestDecodeHookByteSize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  ByteSize
	}{
		{name: "units", value: "2MiB", want: 2 << 20},
		{name: "int", value: 1048576, want: 1 << 20},
		{name: "uint64", value: uint64(262144), want: 256 << 10},
		{name: "whole float", value: 3145728.0, want: 3 << 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := decode(t, map[string]any{"upload": map[string]any{"chunk-size": tc.value}})

			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Upload.ChunkSize)
		})
	}
}

func TestDecodeHookRejectsFractionalByteSize(t *testing.T) {
	_, err := decode(t, map[string]any{"upload": map[string]any{"chunk-size": 1.5}})

	assert.ErrorContains(t, err, "not a whole number")
}

func TestDecodeHookTypedStrings(t *testing.T) {
	c, err := decode(t, map[string]any{
		"logging":        map[string]any{"severity": "warning"},
		"gcs-connection": map[string]any{"client-protocol": "http2", "max-retry-sleep": "45s"},
		"upload":         map[string]any{"buffer-strategy": "allocate"},
	})

	require.NoError(t, err)
	assert.Equal(t, WarningLogSeverity, c.Logging.Severity)
	assert.Equal(t, HTTP2, c.GcsConnection.ClientProtocol)
	assert.Equal(t, 45*time.Second, c.GcsConnection.MaxRetrySleep)
	assert.Equal(t, AllocateBufferStrategy, c.Upload.BufferStrategy)
}
