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
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseArgs(t *testing.T, args []string) *Config {
	t.Helper()
	v := viper.New()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, flagSet))
	require.NoError(t, flagSet.Parse(args))

	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(DecodeHook()), func(decoderConfig *mapstructure.DecoderConfig) {
		decoderConfig.TagName = "yaml"
	})
	require.NoError(t, err)
	return &c
}

func TestDefaultConfig(t *testing.T) {
	c := parseArgs(t, nil)

	assert.Equal(t, ByteSize(5<<20), c.Upload.ChunkSize)
	assert.Equal(t, ReuseBufferStrategy, c.Upload.BufferStrategy)
	assert.Equal(t, int64(8), c.Upload.MaxBufferedChunks)
	assert.Equal(t, int64(4), c.Upload.MaxParallelUploads)
	assert.Equal(t, float64(UnlimitedBandwidth), c.Upload.LimitBytesPerSec)
	assert.Equal(t, HTTP1, c.GcsConnection.ClientProtocol)
	assert.Equal(t, 30*time.Second, c.GcsConnection.MaxRetrySleep)
	assert.Equal(t, InfoLogSeverity, c.Logging.Severity)
	assert.Equal(t, TextLogFormat, c.Logging.Format)
	assert.Equal(t, int64(512), c.Logging.LogRotate.MaxFileSizeMb)
	assert.True(t, c.GcsAuth.ReuseTokenFromUrl)
	assert.False(t, c.Tracing.Enabled)
	assert.Equal(t, StdoutTraceExporter, c.Tracing.Exporter)
	assert.NoError(t, ValidateConfig(c))
}

func TestConfigFromFlags(t *testing.T) {
	c := parseArgs(t, []string{
		"--chunk-size=256KiB",
		"--buffer-strategy=allocate",
		"--client-protocol=http2",
		"--log-severity=trace",
		"--gzip-level=6",
		"--content-type=text/plain",
		"--http-client-timeout=10s",
		"--enable-tracing",
		"--tracing-exporter=gcptrace",
		"--tracing-project-id=trace-project",
		"--verify",
	})

	assert.Equal(t, ByteSize(256<<10), c.Upload.ChunkSize)
	assert.Equal(t, AllocateBufferStrategy, c.Upload.BufferStrategy)
	assert.Equal(t, HTTP2, c.GcsConnection.ClientProtocol)
	assert.Equal(t, TraceLogSeverity, c.Logging.Severity)
	assert.Equal(t, int64(6), c.Upload.GzipLevel)
	assert.Equal(t, "text/plain", c.Upload.ContentType)
	assert.Equal(t, 10*time.Second, c.GcsConnection.HttpClientTimeout)
	assert.True(t, c.Tracing.Enabled)
	assert.Equal(t, GCPTraceExporter, c.Tracing.Exporter)
	assert.Equal(t, "trace-project", c.Tracing.ProjectId)
	assert.True(t, c.Upload.Verify)
}

func TestInvalidFlagValue(t *testing.T) {
	v := viper.New()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, flagSet))
	require.NoError(t, flagSet.Parse([]string{"--client-protocol=grpc"}))

	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(DecodeHook()), func(decoderConfig *mapstructure.DecoderConfig) {
		decoderConfig.TagName = "yaml"
	})

	assert.ErrorContains(t, err, "invalid protocol value: grpc")
}
