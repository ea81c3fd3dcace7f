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
	"errors"
	"sync"
	"testing"
	"time"
)

func createTestSemaphore(t *testing.T, initial, max uint32) (string, Semaphore) {
	t.Helper()
	skipUnsupported(t)
	name := uniqueName(t, "sem")
	RemoveSemaphore(name)
	s, err := CreateSemaphore(name, initial, max)
	if err != nil {
		t.Fatalf("CreateSemaphore(%s) error = %v", name, err)
	}
	t.Cleanup(func() {
		s.Close()
		RemoveSemaphore(name)
	})
	return name, s
}

func semValue(t *testing.T, s Semaphore) uint32 {
	t.Helper()
	v, err := s.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	return v
}

func TestSemaphoreCountsAndBounds(t *testing.T) {
	_, s := createTestSemaphore(t, 2, 3)

	if v := semValue(t, s); v != 2 {
		t.Fatalf("initial Value() = %d, want 2", v)
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if v := semValue(t, s); v != 1 {
		t.Errorf("Value() after Wait = %d, want 1", v)
	}
	for i := 0; i < 2; i++ {
		if err := s.Signal(); err != nil {
			t.Fatalf("Signal() #%d error = %v", i, err)
		}
	}
	if v := semValue(t, s); v != 3 {
		t.Errorf("Value() at max = %d, want 3", v)
	}
	if err := s.Signal(); !errors.Is(err, ErrSemaphoreOverflow) {
		t.Errorf("Signal() at max error = %v, want ErrSemaphoreOverflow", err)
	}
	if v := semValue(t, s); v != 3 {
		t.Errorf("Value() after overflow = %d, want 3", v)
	}
}

func TestCreateSemaphoreInvalid(t *testing.T) {
	tests := []struct {
		name         string
		initial, max uint32
	}{
		{"zero max", 0, 0},
		{"initial above max", 2, 1},
	}
	for _, tt := range tests {
		s, err := CreateSemaphore("sem_invalid", tt.initial, tt.max)
		if err == nil {
			s.Close()
			RemoveSemaphore("sem_invalid")
			t.Errorf("%s: CreateSemaphore succeeded", tt.name)
		}
	}
	if _, err := CreateSemaphore("a/b", 0, 1); !errors.Is(err, ErrInvalidName) {
		t.Errorf("CreateSemaphore(a/b) error = %v, want ErrInvalidName", err)
	}
}

func TestOpenSemaphoreSharesCount(t *testing.T) {
	name, s := createTestSemaphore(t, 0, 4)

	peer, err := OpenSemaphore(name)
	if err != nil {
		t.Fatalf("OpenSemaphore() error = %v", err)
	}
	defer peer.Close()

	if err := s.Signal(); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
	if v := semValue(t, peer); v != 1 {
		t.Errorf("peer Value() = %d, want 1", v)
	}
	withTimeout(t, time.Second, "peer Wait", func() {
		if err := peer.Wait(); err != nil {
			t.Errorf("peer Wait() error = %v", err)
		}
	})
	if v := semValue(t, s); v != 0 {
		t.Errorf("Value() after peer Wait = %d, want 0", v)
	}
}

func TestOpenSemaphoreNotExists(t *testing.T) {
	skipUnsupported(t)
	name := uniqueName(t, "sem")
	RemoveSemaphore(name)
	s, err := OpenSemaphore(name)
	if err == nil {
		s.Close()
		t.Fatal("OpenSemaphore() should fail for a missing semaphore")
	}
	if !errors.Is(err, ErrNotFound) || !IsResourceError(err) {
		t.Errorf("OpenSemaphore() error = %v, want ResourceError wrapping ErrNotFound", err)
	}
}

func TestSemaphoreWaitBlocksUntilSignal(t *testing.T) {
	_, s := createTestSemaphore(t, 0, 1)

	woke := make(chan struct{})
	go func() {
		if err := s.Wait(); err != nil {
			t.Errorf("Wait() error = %v", err)
		}
		close(woke)
	}()

	select {
	case <-woke:
		t.Fatal("Wait() returned on a zero count")
	case <-time.After(50 * time.Millisecond):
	}

	if err := s.Signal(); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait() was not woken by Signal()")
	}
}

// TestSemaphorePingPong hands a token back and forth many times; a lost wake
// shows up as a hang.
func TestSemaphorePingPong(t *testing.T) {
	_, ping := createTestSemaphore(t, 0, 1)
	_, pong := createTestSemaphore(t, 0, 1)
	const rounds = 20000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := ping.Wait(); err != nil {
				t.Errorf("ping.Wait() error = %v", err)
				return
			}
			if err := pong.Signal(); err != nil {
				t.Errorf("pong.Signal() error = %v", err)
				return
			}
		}
	}()

	withTimeout(t, 30*time.Second, "ping-pong", func() {
		for i := 0; i < rounds; i++ {
			if err := ping.Signal(); err != nil {
				t.Errorf("ping.Signal() error = %v", err)
				return
			}
			if err := pong.Wait(); err != nil {
				t.Errorf("pong.Wait() error = %v", err)
				return
			}
		}
		wg.Wait()
	})
}

func TestSemaphoreCloseTwice(t *testing.T) {
	_, s := createTestSemaphore(t, 1, 1)
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
