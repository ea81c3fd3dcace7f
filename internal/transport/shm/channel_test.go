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

	"github.com/kali-guru/hlbank-ipc/internal/record"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"safe", ModeSafe, false},
		{"unsafe", ModeUnsafe, false},
		{" UNSAFE ", ModeUnsafe, false},
		{"racy", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
	if s := Mode(7).String(); s != "Mode(7)" {
		t.Errorf("Mode(7).String() = %q", s)
	}
	var m Mode
	if err := m.UnmarshalText([]byte("unsafe")); err != nil || m != ModeUnsafe {
		t.Errorf("UnmarshalText(unsafe) = %v, mode %v", err, m)
	}
	if b, err := ModeSafe.MarshalText(); err != nil || string(b) != "safe" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
}

func TestNamesFor(t *testing.T) {
	n := NamesFor("hl_bank")
	want := Names{
		Segment: "hl_bank_shm_ipc",
		Empty:   "hl_bank_sem_empty",
		Full:    "hl_bank_sem_full",
		Mutex:   "hl_bank_sem_mutex",
	}
	if n != want {
		t.Errorf("NamesFor(hl_bank) = %+v, want %+v", n, want)
	}
}

func mustState(t *testing.T, ch *Channel) State {
	t.Helper()
	st, err := ch.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	return st
}

func TestChannelInitialState(t *testing.T) {
	for _, mode := range []Mode{ModeSafe, ModeUnsafe} {
		t.Run(mode.String(), func(t *testing.T) {
			ch := createTestChannel(t, 16, mode)
			st := mustState(t, ch)
			if st.Free != 16 || st.Filled != 0 {
				t.Errorf("Free/Filled = %d/%d, want 16/0", st.Free, st.Filled)
			}
			if st.Ring.Head != 0 || st.Ring.Tail != 0 {
				t.Errorf("cursors = %d/%d, want 0/0", st.Ring.Head, st.Ring.Tail)
			}
			if !st.Consistent() {
				t.Errorf("fresh channel not consistent: %+v", st)
			}
			wantMutex := uint32(1)
			if mode == ModeUnsafe {
				wantMutex = 0
			}
			if st.MutexValue != wantMutex {
				t.Errorf("MutexValue = %d, want %d", st.MutexValue, wantMutex)
			}
			if st.Mode != mode || ch.Mode() != mode || !ch.Owner() {
				t.Errorf("mode/owner = %v/%v", st.Mode, ch.Owner())
			}
		})
	}
}

func TestChannelFIFO(t *testing.T) {
	for _, mode := range []Mode{ModeSafe, ModeUnsafe} {
		t.Run(mode.String(), func(t *testing.T) {
			ch := createTestChannel(t, 4, mode)
			for id := uint32(1); id <= 3; id++ {
				r := record.New(id)
				timing, err := ch.Enqueue(&r)
				if err != nil {
					t.Fatalf("Enqueue(%d) error = %v", id, err)
				}
				if mode == ModeUnsafe && timing.LockWait != 0 {
					t.Errorf("unsafe Enqueue reported lock wait %v", timing.LockWait)
				}
			}
			st := mustState(t, ch)
			if st.Filled != 3 || st.Free != 1 || st.Ring.Head != 3 || st.Ring.Used != 3 || !st.Consistent() {
				t.Errorf("after 3 enqueues: %+v", st)
			}
			var r record.Record
			for id := uint32(1); id <= 3; id++ {
				if _, err := ch.Dequeue(&r); err != nil {
					t.Fatalf("Dequeue() error = %v", err)
				}
				want := record.New(id)
				if r.ID != id || !r.Valid() || r.PayloadString() != want.PayloadString() {
					t.Errorf("Dequeue() = %+v, want id %d", r, id)
				}
			}
			st = mustState(t, ch)
			if st.Filled != 0 || st.Free != 4 || st.Ring.Tail != 3 || !st.Consistent() {
				t.Errorf("after draining: %+v", st)
			}
		})
	}
}

// TestChannelBackpressure checks that a full ring blocks the producer until
// the consumer frees a slot.
func TestChannelBackpressure(t *testing.T) {
	ch := createTestChannel(t, 2, ModeSafe)
	for id := uint32(1); id <= 2; id++ {
		r := record.New(id)
		if _, err := ch.Enqueue(&r); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", id, err)
		}
	}

	enqueued := make(chan struct{})
	go func() {
		r := record.New(3)
		if _, err := ch.Enqueue(&r); err != nil {
			t.Errorf("Enqueue(3) error = %v", err)
		}
		close(enqueued)
	}()

	select {
	case <-enqueued:
		t.Fatal("Enqueue on a full ring did not block")
	case <-time.After(50 * time.Millisecond):
	}

	var r record.Record
	if _, err := ch.Dequeue(&r); err != nil || r.ID != 1 {
		t.Fatalf("Dequeue() = %d, %v; want 1", r.ID, err)
	}
	select {
	case <-enqueued:
	case <-time.After(time.Second):
		t.Fatal("Enqueue was not released by Dequeue")
	}
	for _, want := range []uint32{2, 3} {
		if _, err := ch.Dequeue(&r); err != nil || r.ID != want {
			t.Fatalf("Dequeue() = %d, %v; want %d", r.ID, err, want)
		}
	}
	if st := mustState(t, ch); !st.Consistent() || st.Ring.Head != 1 || st.Ring.Tail != 1 {
		t.Errorf("final state %+v", st)
	}
}

// TestChannelConcurrentSafe runs producer and consumer concurrently through
// two attachments and checks exactly-once FIFO delivery.
func TestChannelConcurrentSafe(t *testing.T) {
	producer := createTestChannel(t, 8, ModeSafe)
	base := producer.Name()
	consumer, err := Attach(base, ModeSafe)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	defer consumer.Close()
	if consumer.Owner() {
		t.Error("attached channel claims ownership")
	}

	const n = 20000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for id := uint32(1); id <= n; id++ {
			r := record.New(id)
			if _, err := producer.Enqueue(&r); err != nil {
				t.Errorf("Enqueue(%d) error = %v", id, err)
				return
			}
		}
	}()

	withTimeout(t, 30*time.Second, "concurrent transfer", func() {
		var r record.Record
		for want := uint32(1); want <= n; want++ {
			if _, err := consumer.Dequeue(&r); err != nil {
				t.Errorf("Dequeue() error = %v", err)
				return
			}
			if r.ID != want {
				t.Errorf("Dequeue() id = %d, want %d", r.ID, want)
				return
			}
		}
		wg.Wait()
	})

	st := mustState(t, consumer)
	if !st.Consistent() || st.Filled != 0 || st.Free != 8 {
		t.Errorf("quiescent state %+v", st)
	}
	if want := uint32(n % 8); st.Ring.Head != want || st.Ring.Tail != want {
		t.Errorf("cursors = %d/%d, want %d/%d", st.Ring.Head, st.Ring.Tail, want, want)
	}
}

func TestAttachModeMismatch(t *testing.T) {
	ch := createTestChannel(t, 4, ModeSafe)
	base := ch.Name()
	peer, err := Attach(base, ModeUnsafe)
	if err == nil {
		peer.Close()
		t.Fatal("Attach() with the wrong mode succeeded")
	}
	if !errors.Is(err, ErrModeMismatch) || !IsResourceError(err) {
		t.Errorf("Attach() error = %v, want ResourceError wrapping ErrModeMismatch", err)
	}
}

func TestAttachMissing(t *testing.T) {
	skipUnsupported(t)
	name := uniqueName(t, "missing")
	Unlink(name)
	if _, err := Attach(name, ModeSafe); !errors.Is(err, ErrNotFound) {
		t.Errorf("Attach() error = %v, want ErrNotFound", err)
	}
}

func TestUnsafeModeHasNoMutexObject(t *testing.T) {
	ch := createTestChannel(t, 4, ModeUnsafe)
	s, err := OpenSemaphore(ch.Names().Mutex)
	if err == nil {
		s.Close()
		t.Fatal("unsafe channel created a mutex semaphore")
	}
}

func TestCreateReplacesStaleObjects(t *testing.T) {
	skipUnsupported(t)
	name := uniqueName(t, "stale")
	first, err := Create(Options{Name: name, Capacity: 4})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	r := record.New(1)
	if _, err := first.Enqueue(&r); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	// Abandon without teardown, as a crashed run would.
	first.owner = false
	first.Close()

	second, err := Create(Options{Name: name, Capacity: 4})
	if err != nil {
		t.Fatalf("Create() over stale objects error = %v", err)
	}
	defer second.Close()
	st := mustState(t, second)
	if st.Filled != 0 || st.Free != 4 || st.Ring.Head != 0 {
		t.Errorf("recreated channel inherited stale state: %+v", st)
	}
}

func TestCloseUnlinks(t *testing.T) {
	skipUnsupported(t)
	name := uniqueName(t, "unlink")
	ch, err := Create(Options{Name: name, Capacity: 4})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if SegmentExists(NamesFor(name).Segment) {
		t.Error("segment still exists after owner Close")
	}
	if err := Unlink(name); err != nil {
		t.Errorf("Unlink() of removed objects error = %v", err)
	}
}

func TestInspect(t *testing.T) {
	ch := createTestChannel(t, 4, ModeUnsafe)
	r := record.New(1)
	if _, err := ch.Enqueue(&r); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	base := ch.Name()
	st, err := Inspect(base)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if st.Mode != ModeUnsafe || st.Filled != 1 || st.Free != 3 || !st.Consistent() {
		t.Errorf("Inspect() = %+v", st)
	}
}

func TestCreateInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"empty name", Options{Name: ""}, ErrInvalidName},
		{"capacity", Options{Name: "x", Capacity: MaxCapacity + 1}, ErrInvalidCapacity},
	}
	for _, tt := range tests {
		if _, err := Create(tt.opts); !errors.Is(err, tt.want) {
			t.Errorf("%s: Create() error = %v, want %v", tt.name, err, tt.want)
		}
	}
	if _, err := Create(Options{Name: "x", Mode: Mode(5)}); err == nil {
		t.Error("Create() accepted an invalid mode")
	}
}
