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
	"context"
	"errors"
)

// ShutdownFn flushes and stops a telemetry pipeline.
type ShutdownFn func(ctx context.Context) error

// JoinShutdownFunc returns a ShutdownFn calling every non-nil fn in reverse
// order, so that a pipeline set up last is stopped first. All of them run;
// their errors are joined.
func JoinShutdownFunc(shutdownFns ...ShutdownFn) ShutdownFn {
	fns := make([]ShutdownFn, 0, len(shutdownFns))
	for _, fn := range shutdownFns {
		if fn != nil {
			fns = append(fns, fn)
		}
	}
	return func(ctx context.Context) error {
		errs := make([]error, 0, len(fns))
		for i := len(fns) - 1; i >= 0; i-- {
			errs = append(errs, fns[i](ctx))
		}
		return errors.Join(errs...)
	}
}
