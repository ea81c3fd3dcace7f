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
	"github.com/kali-guru/hlbank-ipc/internal/record"
)

// RingView is index-based access to the slot array of a segment plus its two
// cursors. It enforces no synchronization: callers hold the right to a slot
// through the channel protocol before touching it.
type RingView struct {
	h        hdrView
	slots    []byte
	capacity uint32
}

func newRingView(mem []byte, h hdrView) *RingView {
	capacity := h.Capacity()
	return &RingView{
		h:        h,
		slots:    mem[HeaderSize : HeaderSize+int(capacity)*record.Size],
		capacity: capacity,
	}
}

// Capacity returns the slot count.
func (r *RingView) Capacity() uint32 { return r.capacity }

// SlotAt returns the bytes of slot index mod capacity. The slice aliases
// shared memory.
func (r *RingView) SlotAt(index uint32) []byte {
	off := int(index%r.capacity) * record.Size
	return r.slots[off : off+record.Size : off+record.Size]
}

// Head returns the next write slot.
func (r *RingView) Head() uint32 { return r.h.Head() }

// Tail returns the next read slot.
func (r *RingView) Tail() uint32 { return r.h.Tail() }

// advanceHead moves the write cursor one slot forward, wrapping at capacity.
func (r *RingView) advanceHead() {
	r.h.SetHead((r.h.Head() + 1) % r.capacity)
}

// advanceTail moves the read cursor one slot forward, wrapping at capacity.
func (r *RingView) advanceTail() {
	r.h.SetTail((r.h.Tail() + 1) % r.capacity)
}

// Used returns (head - tail + capacity) mod capacity. A full ring and an
// empty ring both read as 0; the semaphores are authoritative for occupancy.
func (r *RingView) Used() uint32 {
	head, tail := r.h.Head(), r.h.Tail()
	return (head + r.capacity - tail) % r.capacity
}

// RingState is a snapshot of the cursors for debugging and diagnostics.
type RingState struct {
	Capacity uint32 // slot count
	Head     uint32 // next write slot
	Tail     uint32 // next read slot
	Used     uint32 // derived occupancy, see RingView.Used
}

// DebugState returns a snapshot of the cursors. The two loads are not taken
// together, so a snapshot of a busy ring may be off by one operation.
func (r *RingView) DebugState() RingState {
	head, tail := r.h.Head(), r.h.Tail()
	return RingState{
		Capacity: r.capacity,
		Head:     head,
		Tail:     tail,
		Used:     (head + r.capacity - tail) % r.capacity,
	}
}
