/*
 *
 * Copyright 2025 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package clock is a microsecond monotonic clock whose readings are
// comparable across processes on the same machine.
//
// time.Now carries a monotonic reading, but only relative to the process
// that took it; record send times cross a process boundary and need a
// machine-wide reference.
package clock

import "time"

// Micros returns the current machine-wide monotonic time in microseconds.
func Micros() uint64 {
	return now()
}

// Elapsed returns to - from as a duration. A negative result is possible when
// the two readings came from a clock without a shared reference.
func Elapsed(from, to uint64) time.Duration {
	return time.Duration(int64(to-from)) * time.Microsecond
}

// Since returns the time elapsed since a Micros reading.
func Since(from uint64) time.Duration {
	return Elapsed(from, Micros())
}
