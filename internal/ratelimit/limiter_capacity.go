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

package ratelimit

import (
	"fmt"
	"math"
	"time"
)

// ChooseLimiterCapacity picks a token bucket capacity such that the long-run
// rate stays at rateHz while the number of events in any window of the given
// length exceeds rateHz*window by at most a factor of 1.5.
//
// The bucket may be full at the start of a window and then refill at rateHz
// for its whole length, so the events in the window are bounded by
// capacity + rateHz*window. Half the window's worth of credit bounds the
// overshoot as required.
func ChooseLimiterCapacity(
	rateHz float64,
	window time.Duration) (capacity uint64, err error) {
	// Check that the input is reasonable.
	if rateHz <= 0 || math.IsInf(rateHz, 0) || math.IsNaN(rateHz) {
		err = fmt.Errorf("Illegal rate: %f", rateHz)
		return
	}

	if window <= 0 {
		err = fmt.Errorf("Illegal window: %v", window)
		return
	}

	capacityFloat := math.Floor(rateHz * window.Seconds() / 2)
	if !(capacityFloat >= 1 && capacityFloat < float64(math.MaxInt32)) {
		err = fmt.Errorf(
			"Can't use a token bucket to limit to %f Hz over a window of %v (result is a capacity of %f)",
			rateHz,
			window,
			capacityFloat)
		return
	}

	capacity = uint64(capacityFloat)
	return
}
