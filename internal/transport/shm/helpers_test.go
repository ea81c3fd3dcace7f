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

package shm

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
	"unsafe"
)

// isSupportedPlatform reports whether named segments can be created here.
func isSupportedPlatform() bool {
	name := fmt.Sprintf("platform_check_%d", os.Getpid())
	seg, err := CreateSegment(name, 1, ModeSafe)
	if err != nil {
		return false
	}
	seg.Close()
	RemoveSegment(name)
	return true
}

func skipUnsupported(t *testing.T) {
	t.Helper()
	if !isSupportedPlatform() {
		t.Skip("shared segments not supported on this platform")
	}
}

// uniqueName returns an object name derived from the test name that does not
// collide with other tests or earlier runs.
func uniqueName(t *testing.T, base string) string {
	t.Helper()
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return fmt.Sprintf("%s_%s_%d_%d", base, r.Replace(t.Name()), os.Getpid(), time.Now().UnixNano()%1e6)
}

// createTestChannel creates a channel with a unique name and registers its
// teardown with t.Cleanup.
func createTestChannel(t *testing.T, capacity uint32, mode Mode) *Channel {
	t.Helper()
	skipUnsupported(t)

	name := uniqueName(t, "ch")
	ch, err := Create(Options{Name: name, Capacity: capacity, Mode: mode})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", name, err)
	}
	t.Cleanup(func() {
		ch.Close()
		Unlink(name)
	})
	return ch
}

// withTimeout fails the test if fn does not return within d.
func withTimeout(t *testing.T, d time.Duration, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s did not complete within %v", what, d)
	}
}

// unsafeBytes views words as bytes, giving 8-byte aligned test memory.
func unsafeBytes(words []uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)
}
