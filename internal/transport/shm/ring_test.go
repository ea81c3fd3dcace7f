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
	"testing"

	"github.com/kali-guru/hlbank-ipc/internal/record"
)

func newTestRing(t *testing.T, capacity uint32) *RingView {
	t.Helper()
	mem := newTestHeader(t, capacity, ModeSafe)
	return newRingView(mem, hdrView{mem: mem})
}

func TestRingViewSlots(t *testing.T) {
	r := newTestRing(t, 4)
	if r.Capacity() != 4 {
		t.Fatalf("Capacity() = %d, want 4", r.Capacity())
	}
	for i := uint32(0); i < 4; i++ {
		if got := len(r.SlotAt(i)); got != record.Size {
			t.Errorf("len(SlotAt(%d)) = %d, want %d", i, got, record.Size)
		}
	}

	// Indices wrap modulo capacity.
	rec := record.New(7)
	rec.Encode(r.SlotAt(6))
	var got record.Record
	got.Decode(r.SlotAt(2))
	if got != rec {
		t.Errorf("SlotAt(2) = %+v, want the record written through SlotAt(6)", got)
	}

	// Slots do not overlap and cannot be grown into a neighbour.
	s := r.SlotAt(0)
	if cap(s) != record.Size {
		t.Errorf("cap(SlotAt(0)) = %d, want %d", cap(s), record.Size)
	}
	clear(r.SlotAt(1))
	got.Decode(r.SlotAt(2))
	if got != rec {
		t.Error("clearing slot 1 changed slot 2")
	}
}

func TestRingViewCursors(t *testing.T) {
	r := newTestRing(t, 3)

	tests := []struct {
		op               string
		head, tail, used uint32
	}{
		{"head", 1, 0, 1},
		{"head", 2, 0, 2},
		{"tail", 2, 1, 1},
		{"head", 0, 1, 2}, // head wraps
		{"tail", 0, 2, 1},
		{"tail", 0, 0, 0}, // tail wraps
	}
	for i, tt := range tests {
		if tt.op == "head" {
			r.advanceHead()
		} else {
			r.advanceTail()
		}
		st := r.DebugState()
		if st.Head != tt.head || st.Tail != tt.tail || st.Used != tt.used {
			t.Errorf("step %d (%s): state = %+v, want head=%d tail=%d used=%d", i, tt.op, st, tt.head, tt.tail, tt.used)
		}
		if r.Head() != st.Head || r.Tail() != st.Tail || r.Used() != st.Used {
			t.Errorf("step %d: accessors disagree with DebugState %+v", i, st)
		}
		if st.Head >= st.Capacity || st.Tail >= st.Capacity {
			t.Errorf("step %d: cursor out of range: %+v", i, st)
		}
	}
}
