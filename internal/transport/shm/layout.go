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
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/kali-guru/hlbank-ipc/internal/record"
)

// Segment layout. Header words are accessed atomically in host byte order
// (little-endian on every supported platform); record slots are encoded
// little-endian by the record package.
//
//	0x00 magic        [8]byte  "HLBKRNG\0"
//	0x08 version      uint32
//	0x0C mode         uint32   0 safe, 1 unsafe
//	0x10 capacity     uint32   slot count
//	0x14 recordSize   uint32
//	0x18 head         uint32   next write slot (producer)
//	0x1C tail         uint32   next read slot  (consumer)
//	0x20 producerPID  uint32
//	0x24 consumerPID  uint32
//	0x28 consumerRdy  uint32   0 -> 1 once the consumer is attached
//	0x2C reserved     [20]byte
//	0x40 slots        capacity * record.Size
const (
	// SegmentMagic identifies a segment created by this package.
	SegmentMagic = "HLBKRNG\x00"

	// SegmentVersion is the current layout version.
	SegmentVersion = uint32(1)

	// HeaderSize is the size of the segment header; slot 0 starts here.
	HeaderSize = 64

	// DefaultCapacity is the slot count used when none is configured.
	DefaultCapacity = 1024

	// MaxCapacity bounds the slot count of a single segment.
	MaxCapacity = 1 << 20
)

const (
	offMagic         = 0x00
	offVersion       = 0x08
	offMode          = 0x0C
	offCapacity      = 0x10
	offRecordSize    = 0x14
	offHead          = 0x18
	offTail          = 0x1C
	offProducerPID   = 0x20
	offConsumerPID   = 0x24
	offConsumerReady = 0x28
	offReserved      = 0x2C
)

// SegmentSize returns the number of bytes needed for a segment holding
// capacity record slots.
func SegmentSize(capacity uint32) (int, error) {
	if capacity == 0 || capacity > MaxCapacity {
		return 0, fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidCapacity, capacity, MaxCapacity)
	}
	return HeaderSize + int(capacity)*record.Size, nil
}

// validateName rejects names that cannot be used as a single path element or
// kernel object name.
func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// hdrView provides typed access to the segment header at fixed offsets.
type hdrView struct {
	mem []byte
}

func (h hdrView) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.mem[off]))
}

// Magic returns the magic bytes.
func (h hdrView) Magic() [8]byte {
	var m [8]byte
	copy(m[:], h.mem[offMagic:offMagic+8])
	return m
}

func (h hdrView) setMagic() {
	copy(h.mem[offMagic:offMagic+8], SegmentMagic)
}

// Version returns the layout version.
func (h hdrView) Version() uint32 { return atomic.LoadUint32(h.word(offVersion)) }

// Mode returns the protocol mode chosen by the creator.
func (h hdrView) Mode() Mode { return Mode(atomic.LoadUint32(h.word(offMode))) }

// Capacity returns the slot count.
func (h hdrView) Capacity() uint32 { return atomic.LoadUint32(h.word(offCapacity)) }

// RecordSize returns the slot size in bytes.
func (h hdrView) RecordSize() uint32 { return atomic.LoadUint32(h.word(offRecordSize)) }

// Head returns the next write slot.
func (h hdrView) Head() uint32 { return atomic.LoadUint32(h.word(offHead)) }

// SetHead stores the next write slot.
func (h hdrView) SetHead(v uint32) { atomic.StoreUint32(h.word(offHead), v) }

// Tail returns the next read slot.
func (h hdrView) Tail() uint32 { return atomic.LoadUint32(h.word(offTail)) }

// SetTail stores the next read slot.
func (h hdrView) SetTail(v uint32) { atomic.StoreUint32(h.word(offTail), v) }

// ProducerPID returns the pid of the creating process.
func (h hdrView) ProducerPID() uint32 { return atomic.LoadUint32(h.word(offProducerPID)) }

// ConsumerPID returns the pid of the attached consumer, or 0.
func (h hdrView) ConsumerPID() uint32 { return atomic.LoadUint32(h.word(offConsumerPID)) }

// ConsumerReady reports whether the consumer has attached.
func (h hdrView) ConsumerReady() bool { return atomic.LoadUint32(h.word(offConsumerReady)) != 0 }

func (h hdrView) init(capacity uint32, mode Mode, pid uint32) {
	clear(h.mem[:HeaderSize])
	atomic.StoreUint32(h.word(offVersion), SegmentVersion)
	atomic.StoreUint32(h.word(offMode), uint32(mode))
	atomic.StoreUint32(h.word(offCapacity), capacity)
	atomic.StoreUint32(h.word(offRecordSize), record.Size)
	atomic.StoreUint32(h.word(offProducerPID), pid)
	// Magic last: an attacher validating the header sees either nothing or
	// a complete header.
	h.setMagic()
}

func (h hdrView) markConsumer(pid uint32) {
	atomic.StoreUint32(h.word(offConsumerPID), pid)
	atomic.StoreUint32(h.word(offConsumerReady), 1)
}

// validateHeader checks a mapped region before it is trusted.
func validateHeader(mem []byte) error {
	if len(mem) < HeaderSize {
		return fmt.Errorf("%w: mapping is %d bytes, header needs %d", ErrLayout, len(mem), HeaderSize)
	}
	h := hdrView{mem: mem}
	if m := h.Magic(); string(m[:]) != SegmentMagic {
		return ErrBadMagic
	}
	if v := h.Version(); v != SegmentVersion {
		return fmt.Errorf("%w: %d, expected %d", ErrVersion, v, SegmentVersion)
	}
	if rs := h.RecordSize(); rs != record.Size {
		return fmt.Errorf("%w: record size %d, expected %d", ErrLayout, rs, record.Size)
	}
	want, err := SegmentSize(h.Capacity())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLayout, err)
	}
	if len(mem) < want {
		return fmt.Errorf("%w: mapping is %d bytes, capacity %d needs %d", ErrLayout, len(mem), h.Capacity(), want)
	}
	if h.Mode() > ModeUnsafe {
		return fmt.Errorf("%w: unknown mode %d", ErrLayout, h.Mode())
	}
	return nil
}
