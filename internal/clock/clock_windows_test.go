//go:build windows

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

package clock

import "testing"

func TestQueryPerformance(t *testing.T) {
	f, err := queryPerformance(procQueryPerformanceFrequency)
	if err != nil || f <= 0 {
		t.Fatalf("QueryPerformanceFrequency = %d, %v", f, err)
	}
	a, err := queryPerformance(procQueryPerformanceCounter)
	if err != nil {
		t.Fatalf("QueryPerformanceCounter error = %v", err)
	}
	b, _ := queryPerformance(procQueryPerformanceCounter)
	if b < a {
		t.Errorf("counter went backwards: %d then %d", a, b)
	}
	if freq() != uint64(f) {
		t.Errorf("freq() = %d, want %d", freq(), f)
	}
}
