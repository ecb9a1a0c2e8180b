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
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	AppName string `yaml:"app-name"`

	GcsAuth GcsAuthConfig `yaml:"gcs-auth"`

	GcsConnection GcsConnectionConfig `yaml:"gcs-connection"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	Tracing TracingConfig `yaml:"tracing"`

	Upload UploadConfig `yaml:"upload"`
}

type GcsAuthConfig struct {
	AnonymousAccess bool `yaml:"anonymous-access"`

	KeyFile ResolvedPath `yaml:"key-file"`

	ReuseTokenFromUrl bool `yaml:"reuse-token-from-url"`

	TokenUrl string `yaml:"token-url"`
}

type GcsConnectionConfig struct {
	BillingProject string `yaml:"billing-project"`

	ClientProtocol Protocol `yaml:"client-protocol"`

	CustomEndpoint string `yaml:"custom-endpoint"`

	HttpClientTimeout time.Duration `yaml:"http-client-timeout"`

	MaxConnsPerHost int64 `yaml:"max-conns-per-host"`

	MaxIdleConnsPerHost int64 `yaml:"max-idle-conns-per-host"`

	MaxRetrySleep time.Duration `yaml:"max-retry-sleep"`

	RetryMultiplier float64 `yaml:"retry-multiplier"`
}

type LogRotateLoggingConfig struct {
	BackupFileCount int64 `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`

	MaxFileSizeMb int64 `yaml:"max-file-size-mb"`
}

type LoggingConfig struct {
	FilePath ResolvedPath `yaml:"file-path"`

	Format string `yaml:"format"`

	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`

	Severity LogSeverity `yaml:"severity"`
}

type MetricsConfig struct {
	CloudMetricsExportIntervalSecs int64 `yaml:"cloud-metrics-export-interval-secs"`

	PrometheusPort int64 `yaml:"prometheus-port"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	Exporter string `yaml:"exporter"`

	ProjectId string `yaml:"project-id"`

	SamplingRatio float64 `yaml:"sampling-ratio"`
}

type UploadConfig struct {
	BufferStrategy BufferStrategy `yaml:"buffer-strategy"`

	ChunkSize ByteSize `yaml:"chunk-size"`

	ContentType string `yaml:"content-type"`

	GzipLevel int64 `yaml:"gzip-level"`

	LimitBytesPerSec float64 `yaml:"limit-bytes-per-sec"`

	MaxBufferedChunks int64 `yaml:"max-buffered-chunks"`

	MaxParallelUploads int64 `yaml:"max-parallel-uploads"`

	Verify bool `yaml:"verify"`
}

func BindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	var err error

	flagSet.BoolP("anonymous-access", "", false, "Authentication is enabled by default. This flag disables authentication.")

	err = v.BindPFlag("gcs-auth.anonymous-access", flagSet.Lookup("anonymous-access"))
	if err != nil {
		return err
	}

	flagSet.StringP("app-name", "", "", "The application name of this upload.")

	err = v.BindPFlag("app-name", flagSet.Lookup("app-name"))
	if err != nil {
		return err
	}

	flagSet.StringP("billing-project", "", "", "Project to use for billing when accessing a bucket enabled with \"Requester Pays\".")

	err = v.BindPFlag("gcs-connection.billing-project", flagSet.Lookup("billing-project"))
	if err != nil {
		return err
	}

	flagSet.StringP("buffer-strategy", "", "reuse", "How chunk buffers are managed between chunks. Value can be 'reuse' (a single buffer is recycled) or 'allocate' (a fresh buffer per chunk).")

	err = v.BindPFlag("upload.buffer-strategy", flagSet.Lookup("buffer-strategy"))
	if err != nil {
		return err
	}

	flagSet.StringP("chunk-size", "", "5MiB", "Preferred size of each uploaded chunk. Rounded up to a multiple of 256KiB.")

	err = v.BindPFlag("upload.chunk-size", flagSet.Lookup("chunk-size"))
	if err != nil {
		return err
	}

	flagSet.StringP("client-protocol", "", "http1", "The protocol used for communicating with the GCS backend. Value can be 'http1' (HTTP/1.1) or 'http2' (HTTP/2).")

	err = v.BindPFlag("gcs-connection.client-protocol", flagSet.Lookup("client-protocol"))
	if err != nil {
		return err
	}

	flagSet.IntP("cloud-metrics-export-interval-secs", "", 0, "Specifies the interval at which the metrics are uploaded to cloud monitoring. 0 disables the export.")

	err = v.BindPFlag("metrics.cloud-metrics-export-interval-secs", flagSet.Lookup("cloud-metrics-export-interval-secs"))
	if err != nil {
		return err
	}

	flagSet.StringP("content-type", "", "", "Content type of the uploaded objects. When empty it is detected from the first bytes of the content.")

	err = v.BindPFlag("upload.content-type", flagSet.Lookup("content-type"))
	if err != nil {
		return err
	}

	flagSet.StringP("custom-endpoint", "", "", "Specifies an alternative custom endpoint for fetching data. The custom endpoint must support the equivalent resources and operations as the GCS JSON endpoint, https://storage.googleapis.com/storage/v1.")

	err = v.BindPFlag("gcs-connection.custom-endpoint", flagSet.Lookup("custom-endpoint"))
	if err != nil {
		return err
	}

	flagSet.BoolP("enable-tracing", "", false, "Export a span per chunk transfer to stdout.")

	err = v.BindPFlag("tracing.enabled", flagSet.Lookup("enable-tracing"))
	if err != nil {
		return err
	}

	flagSet.IntP("gzip-level", "", 0, "Compress the content with gzip at the given level (1-9) and store it with Content-Encoding: gzip. 0 disables compression.")

	err = v.BindPFlag("upload.gzip-level", flagSet.Lookup("gzip-level"))
	if err != nil {
		return err
	}

	flagSet.DurationP("http-client-timeout", "", 0*time.Nanosecond, "The time duration that http client will wait to get response from the server. A value of 0 indicates no timeout.")

	err = v.BindPFlag("gcs-connection.http-client-timeout", flagSet.Lookup("http-client-timeout"))
	if err != nil {
		return err
	}

	flagSet.StringP("key-file", "", "", "Absolute path to JSON key file for use with GCS. If this flag is left unset, Google application default credentials are used.")

	err = v.BindPFlag("gcs-auth.key-file", flagSet.Lookup("key-file"))
	if err != nil {
		return err
	}

	flagSet.Float64P("limit-bytes-per-sec", "", -1, "Bandwidth limit in bytes per second shared by the chunk transfers of all uploads, measured over a 30-second window. A value of -1 indicates no limit.")

	err = v.BindPFlag("upload.limit-bytes-per-sec", flagSet.Lookup("limit-bytes-per-sec"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "The file for storing logs. When not provided, logs are printed to stdout.")

	err = v.BindPFlag("logging.file-path", flagSet.Lookup("log-file"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "The format of the log file: 'text' or 'json'.")

	err = v.BindPFlag("logging.format", flagSet.Lookup("log-format"))
	if err != nil {
		return err
	}

	flagSet.IntP("log-rotate-backup-file-count", "", 10, "The maximum number of backup log files to retain after they have been rotated. 0 retains all the backup files.")

	err = v.BindPFlag("logging.log-rotate.backup-file-count", flagSet.Lookup("log-rotate-backup-file-count"))
	if err != nil {
		return err
	}

	flagSet.BoolP("log-rotate-compress", "", true, "Controls whether the rotated log files should be compressed using gzip.")

	err = v.BindPFlag("logging.log-rotate.compress", flagSet.Lookup("log-rotate-compress"))
	if err != nil {
		return err
	}

	flagSet.IntP("log-rotate-max-file-size-mb", "", 512, "The maximum size in megabytes that a log file can reach before it is rotated.")

	err = v.BindPFlag("logging.log-rotate.max-file-size-mb", flagSet.Lookup("log-rotate-max-file-size-mb"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "info", "Specifies the logging severity expressed as one of [trace, debug, info, warning, error, off]")

	err = v.BindPFlag("logging.severity", flagSet.Lookup("log-severity"))
	if err != nil {
		return err
	}

	flagSet.IntP("max-buffered-chunks", "", 8, "Upper bound on the number of chunk buffers held in memory across all parallel uploads.")

	err = v.BindPFlag("upload.max-buffered-chunks", flagSet.Lookup("max-buffered-chunks"))
	if err != nil {
		return err
	}

	flagSet.IntP("max-conns-per-host", "", 0, "The max number of TCP connections allowed per server. This is effective when client-protocol is set to 'http1'. A value of 0 indicates no limit on TCP connections (limited by the machine specifications).")

	err = v.BindPFlag("gcs-connection.max-conns-per-host", flagSet.Lookup("max-conns-per-host"))
	if err != nil {
		return err
	}

	flagSet.IntP("max-idle-conns-per-host", "", 100, "The number of maximum idle connections allowed per server.")

	err = v.BindPFlag("gcs-connection.max-idle-conns-per-host", flagSet.Lookup("max-idle-conns-per-host"))
	if err != nil {
		return err
	}

	flagSet.IntP("max-parallel-uploads", "", 4, "Number of local files uploaded concurrently.")

	err = v.BindPFlag("upload.max-parallel-uploads", flagSet.Lookup("max-parallel-uploads"))
	if err != nil {
		return err
	}

	flagSet.DurationP("max-retry-sleep", "", 30000000000*time.Nanosecond, "The maximum duration allowed to sleep in a retry loop with exponential backoff for metadata requests.")

	err = v.BindPFlag("gcs-connection.max-retry-sleep", flagSet.Lookup("max-retry-sleep"))
	if err != nil {
		return err
	}

	flagSet.IntP("prometheus-port", "", 0, "Expose Prometheus metrics endpoint on this port and a path of /metrics.")

	err = v.BindPFlag("metrics.prometheus-port", flagSet.Lookup("prometheus-port"))
	if err != nil {
		return err
	}

	flagSet.Float64P("retry-multiplier", "", 2, "Param for exponential backoff algorithm, which is used to increase waiting time b/w two consecutive retries.")

	err = v.BindPFlag("gcs-connection.retry-multiplier", flagSet.Lookup("retry-multiplier"))
	if err != nil {
		return err
	}

	flagSet.BoolP("reuse-token-from-url", "", true, "If false, the token acquired from token-url is not reused.")

	err = v.BindPFlag("gcs-auth.reuse-token-from-url", flagSet.Lookup("reuse-token-from-url"))
	if err != nil {
		return err
	}

	flagSet.StringP("token-url", "", "", "A url for getting an access token when the key-file is absent.")

	err = v.BindPFlag("gcs-auth.token-url", flagSet.Lookup("token-url"))
	if err != nil {
		return err
	}

	flagSet.StringP("tracing-exporter", "", "stdout", "Where spans are exported when tracing is enabled: 'stdout' or 'gcptrace' (Cloud Trace).")

	err = v.BindPFlag("tracing.exporter", flagSet.Lookup("tracing-exporter"))
	if err != nil {
		return err
	}

	flagSet.StringP("tracing-project-id", "", "", "Project receiving the spans of the gcptrace exporter. Defaults to the project of the credentials.")

	err = v.BindPFlag("tracing.project-id", flagSet.Lookup("tracing-project-id"))
	if err != nil {
		return err
	}

	flagSet.Float64P("tracing-sampling-ratio", "", 1, "Fraction of chunk transfers that are traced when tracing is enabled.")

	err = v.BindPFlag("tracing.sampling-ratio", flagSet.Lookup("tracing-sampling-ratio"))
	if err != nil {
		return err
	}

	flagSet.BoolP("verify", "", false, "Stat every finalized object and compare its size with the number of bytes uploaded.")

	err = v.BindPFlag("upload.verify", flagSet.Lookup("verify"))
	if err != nil {
		return err
	}

	return nil
}
