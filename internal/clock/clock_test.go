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

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestMicrosMonotonic(t *testing.T) {
	prev := Micros()
	for i := 0; i < 10000; i++ {
		cur := Micros()
		if cur < prev {
			t.Fatalf("clock went backwards: %d after %d", cur, prev)
		}
		prev = cur
	}
}

func TestMicrosAdvances(t *testing.T) {
	start := Micros()
	time.Sleep(20 * time.Millisecond)
	if d := Since(start); d < 15*time.Millisecond || d > 5*time.Second {
		t.Errorf("Since after 20ms sleep = %v", d)
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		from, to uint64
		want     time.Duration
	}{
		{100, 100, 0},
		{100, 250, 150 * time.Microsecond},
		{250, 100, -150 * time.Microsecond},
	}
	for _, tt := range tests {
		if got := Elapsed(tt.from, tt.to); got != tt.want {
			t.Errorf("Elapsed(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// TestMicrosAcrossProcesses checks that a reading taken in a child process
// falls between two readings taken here.
func TestMicrosAcrossProcesses(t *testing.T) {
	if os.Getenv("CLOCK_HELPER") == "1" {
		os.Stdout.WriteString(strconv.FormatUint(Micros(), 10))
		os.Exit(0)
	}
	before := Micros()
	cmd := exec.Command(os.Args[0], "-test.run=^TestMicrosAcrossProcesses$")
	cmd.Env = append(os.Environ(), "CLOCK_HELPER=1")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("helper failed: %v", err)
	}
	after := Micros()
	child, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		t.Fatalf("helper output %q: %v", out, err)
	}
	if child < before || child > after {
		t.Errorf("child reading %d outside [%d, %d]", child, before, after)
	}
}
