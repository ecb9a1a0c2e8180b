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

package logger

import (
	"fmt"
	"log/slog"

	"github.com/googlecloudplatform/gcsstream/cfg"
)

const (
	messageKey   = "message"
	severityKey  = "severity"
	timestampKey = "timestamp"
)

// setLoggingLevel sets the severity below which logs are dropped.
func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	// logs having severity >= the configured value will be logged.
	case cfg.TRACE:
		programLevel.Set(LevelTrace)
	case cfg.DEBUG:
		programLevel.Set(LevelDebug)
	case cfg.INFO:
		programLevel.Set(LevelInfo)
	case cfg.WARNING:
		programLevel.Set(LevelWarn)
	case cfg.ERROR:
		programLevel.Set(LevelError)
	case cfg.OFF:
		programLevel.Set(LevelOff)
	}
}

type timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int   `json:"nanos"`
}

// getHandlerOptions renames the default slog keys and values to the ones
// understood by Cloud Logging.
func getHandlerOptions(levelVar *slog.LevelVar, prefix string, format string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = severityKey
				level := a.Value.Any().(slog.Level)
				a.Value = slog.StringValue(severityName(level))
			case slog.TimeKey:
				if format == cfg.TextLogFormat {
					a.Value = slog.StringValue(a.Value.Time().Round(0).Format("02/01/2006 03:04:05.000000"))
				} else {
					a.Key = timestampKey
					t := a.Value.Time()
					a.Value = slog.AnyValue(timestamp{Seconds: t.Unix(), Nanos: t.Nanosecond()})
				}
			case slog.MessageKey:
				a.Key = messageKey
				a.Value = slog.StringValue(fmt.Sprintf("%s%s", prefix, a.Value.String()))
			}
			return a
		},
	}
}

func severityName(level slog.Level) string {
	switch {
	case level < LevelDebug:
		return cfg.TRACE
	case level < LevelInfo:
		return cfg.DEBUG
	case level < LevelWarn:
		return cfg.INFO
	case level < LevelError:
		return cfg.WARNING
	default:
		return cfg.ERROR
	}
}
